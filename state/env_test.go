package state

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestContextWithEnv(t *testing.T) {
	ctx := ContextWithEnv(context.Background())

	env := EnvFromContext(ctx)
	if env == nil {
		t.Fatal("EnvFromContext() returned nil")
	}
	if env.RunID == uuid.Nil {
		t.Error("RunID was not initialized")
	}
	if env.Uptime() < 0 {
		t.Errorf("Uptime() = %v, want non-negative", env.Uptime())
	}

	// same instance must be returned for the same context
	if EnvFromContext(ctx) != env {
		t.Error("EnvFromContext() returned different instances")
	}
}

func TestEnvFromContext_Missing(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("EnvFromContext() without env expected panic")
		}
	}()
	EnvFromContext(context.Background())
}

func TestRedirectStdLog_NilLogger(t *testing.T) {
	env := EnvFromContext(ContextWithEnv(context.Background()))

	// must not panic with no logger prepared
	env.RedirectStdLog()
	env.RestoreStdLog()
}
