package merge

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// kvLine recognizes one flat setting. An optional run of leading '#' goes into
// a comment group; the lookup key is everything up to the first '=' with
// original spacing and punctuation intact, the value is the rest of the line.
// Since key and value groups keep their original bytes, re-emitting
// "key=value" reproduces an untouched live line exactly.
//
// NOTE: a fully commented-out "#key=value" line still parses as defining
// "key", so a fragment override silently uncomments it. Appliance images ship
// default-disabled settings this way and rely on boot-time uncommenting, keep
// this behavior.
var kvLine = regexp.MustCompile(`^(#*)([\w .,:;@/+-]+)=(.*)$`)

// keyValue merges flat key=value settings files.
type keyValue struct {
	opts Options
	log  *zap.Logger
}

func newKeyValue(opts Options) Engine {
	return &keyValue{opts: opts, log: opts.logger().Named("keyvalue")}
}

// Merge layers target then source entries into one desired mapping (source
// wins), rewrites the target preserving line order and all unmatched lines
// verbatim, and appends keys the target never had.
func (e *keyValue) Merge(sourcePath, targetPath string) error {

	targetLines, err := e.readLines(targetPath)
	if err != nil {
		return fmt.Errorf("unable to read target '%s': %w", targetPath, err)
	}
	sourceLines, err := e.readLines(sourcePath)
	if err != nil {
		return fmt.Errorf("unable to read fragment '%s': %w", sourcePath, err)
	}

	// Desired state: live target entries as the baseline, fragment entries on
	// top. Insertion order is kept so appended keys come out deterministically
	// in fragment order.
	desired := make(map[string]string)
	var order []string
	layer := func(lines []string) {
		for _, line := range lines {
			m := kvLine.FindStringSubmatch(line)
			if m == nil || len(m[1]) > 0 {
				// not a setting or commented out
				continue
			}
			if _, ok := desired[m[2]]; !ok {
				order = append(order, m[2])
			}
			desired[m[2]] = m[3]
		}
	}
	layer(targetLines)
	layer(sourceLines)

	// Rewrite pass over the original target: every line whose key is desired
	// gets re-emitted uncommented with the desired value, everything else is
	// passed through untouched.
	seen := make(map[string]bool, len(desired))
	out := make([]string, 0, len(targetLines)+len(order))
	for _, line := range targetLines {
		m := kvLine.FindStringSubmatch(line)
		if m == nil {
			out = append(out, line)
			continue
		}
		key := m[2]
		value, ok := desired[key]
		if !ok {
			out = append(out, line)
			continue
		}
		if line != key+"="+value {
			e.log.Debug("Overriding setting",
				zap.String("key", strings.TrimSpace(key)),
				zap.String("value", e.opts.maskValue(key, value)),
				zap.Bool("uncommented", len(m[1]) > 0))
		}
		out = append(out, key+"="+value)
		seen[key] = true
	}

	// Keys the target file never mentioned, even commented out.
	for _, key := range order {
		if seen[key] {
			continue
		}
		e.log.Debug("Appending setting",
			zap.String("key", strings.TrimSpace(key)),
			zap.String("value", e.opts.maskValue(key, desired[key])))
		out = append(out, key+"="+desired[key])
	}

	data := strings.Join(out, "\n") + "\n"
	if err := os.WriteFile(targetPath, []byte(data), 0644); err != nil {
		return fmt.Errorf("unable to write target '%s': %w", targetPath, err)
	}
	return nil
}

// Setting is one live entry of a flat settings file.
type Setting struct {
	Key   string
	Value string
}

// Settings lists live (uncommented) entries of a flat key=value settings file
// in file order. Non-setting and commented-out lines are skipped, keys are
// trimmed of surrounding whitespace.
func Settings(path string) ([]Setting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out []Setting
	for _, line := range strings.Split(string(data), "\n") {
		m := kvLine.FindStringSubmatch(strings.TrimSuffix(line, "\r"))
		if m == nil || len(m[1]) > 0 {
			continue
		}
		out = append(out, Setting{Key: strings.TrimSpace(m[2]), Value: m[3]})
	}
	return out, nil
}

// readLines slurps a settings file honoring forced legacy code page if any.
// Output is always written back as UTF-8 with LF line endings, CRLF input is
// normalized.
func (e *keyValue) readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if e.opts.CodePage != nil {
		if data, err = e.opts.CodePage.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("unable to decode '%s': %w", path, err)
		}
	}
	lines := strings.Split(string(data), "\n")
	// a trailing newline is not an empty last line
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines, nil
}
