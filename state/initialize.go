package state

import (
	"time"

	"github.com/google/uuid"
)

// newLocalEnv creates a new LocalEnv instance with default values
func newLocalEnv() *LocalEnv {
	runID, err := uuid.NewV7()
	if err != nil {
		// extremely unlikely, means broken time or entropy source
		runID = uuid.New()
	}
	return &LocalEnv{
		start: time.Now(),
		RunID: runID,
	}
}
