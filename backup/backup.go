// Package backup creates and enumerates numbered sibling copies of
// configuration files mutated by merge passes.
package backup

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/maruel/natural"
)

// suffix of backup file names, followed by a positive number
const bakSuffix = ".bak"

var bakName = regexp.MustCompile(`\.bak[1-9][0-9]*$`)

// NextName probes ".bak1", ".bak2", ... sequentially and returns the first
// name not present on disk.
func NextName(target string) (string, error) {
	for n := 1; ; n++ {
		name := fmt.Sprintf("%s%s%d", target, bakSuffix, n)
		_, err := os.Stat(name)
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		if err != nil {
			return "", fmt.Errorf("unable to probe backup name '%s': %w", name, err)
		}
	}
}

// Create copies the target byte-for-byte to the first unused numbered sibling
// and returns the backup name. When the target does not exist the copy is
// skipped but the computed name is still returned.
func Create(target string) (string, error) {
	name, err := NextName(target)
	if err != nil {
		return "", err
	}

	in, err := os.Open(target)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return name, nil
		}
		return "", fmt.Errorf("unable to open '%s': %w", target, err)
	}
	defer in.Close()

	out, err := os.Create(name)
	if err != nil {
		return "", fmt.Errorf("unable to create backup '%s': %w", name, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return "", fmt.Errorf("unable to copy '%s' to '%s': %w", target, name, err)
	}
	if err := out.Sync(); err != nil {
		return "", fmt.Errorf("unable to sync backup '%s': %w", name, err)
	}
	return name, nil
}

// List returns existing numbered backups of the target in natural order, so
// ".bak2" comes before ".bak10". Returned paths are siblings of the target.
func List(target string) ([]string, error) {
	dir := filepath.Dir(target)
	base := filepath.Base(target)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to list '%s': %w", dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if bakName.MatchString(name) && name[:len(name)-len(bakName.FindString(name))] == base {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool { return natural.Less(names[i], names[j]) })

	for i, name := range names {
		names[i] = filepath.Join(dir, name)
	}
	return names, nil
}

// Prune removes all but the newest (highest numbered) keep backups of the
// target and returns paths that were removed. Negative keep removes nothing.
func Prune(target string, keep int) ([]string, error) {
	if keep < 0 {
		return nil, nil
	}
	names, err := List(target)
	if err != nil {
		return nil, err
	}
	if len(names) <= keep {
		return nil, nil
	}
	victims := names[:len(names)-keep]
	for _, name := range victims {
		if err := os.Remove(name); err != nil {
			return nil, fmt.Errorf("unable to remove backup '%s': %w", name, err)
		}
	}
	return victims, nil
}
