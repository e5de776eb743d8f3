// Package merge implements reconciliation of bootstrap configuration
// fragments into persisted configuration files. Two on-disk formats are
// supported: flat key=value settings and attribute-based XML settings. Both
// engines apply overrides idempotently while preserving content, ordering and
// formatting of everything the fragment does not mention.
package merge

import (
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"

	"bootmerge/config"
)

// Engine applies a single source fragment to a target configuration file,
// mutating the target in place. A fragment value always wins over whatever the
// target currently holds for the same key; keys the fragment does not mention
// are left untouched.
type Engine interface {
	Merge(sourcePath, targetPath string) error
}

// Options carries engine tuning shared by all implementations. Zero value is
// usable: no-op logger, UTF-8 input, two-space XML indentation, no secret
// masking.
type Options struct {
	Log *zap.Logger
	// forced character set for key=value files, nil means UTF-8
	CodePage encoding.Encoding
	// XML serialization indent width
	Indent int
	// key name substrings whose values are masked in logs
	SecretKeys []string
}

func (o Options) logger() *zap.Logger {
	if o.Log == nil {
		return zap.NewNop()
	}
	return o.Log
}

func (o Options) indent() int {
	if o.Indent <= 0 {
		return 2
	}
	return o.Indent
}

// maskValue hides values of secret-looking keys in diagnostics.
func (o Options) maskValue(key, value string) string {
	if config.IsSecretName(key, o.SecretKeys) {
		return config.SecretStringValue
	}
	return value
}

var engines = map[config.Format]func(Options) Engine{
	config.FormatKeyvalue: newKeyValue,
	config.FormatXml:      newXML,
}

// Select returns the engine implementation for the requested data structure
// name. Matching is case-insensitive. Second return value is false when the
// name does not resolve to a supported engine.
func Select(name string, opts Options) (Engine, bool) {
	format, err := config.ParseFormat(strings.ToLower(name))
	if err != nil {
		return nil, false
	}
	ctor, ok := engines[format]
	if !ok {
		return nil, false
	}
	return ctor(opts), true
}
