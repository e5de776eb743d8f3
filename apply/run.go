// Package apply implements the apply subcommand - the orchestrator that
// discovers bootstrap fragments and merges them into the target configuration
// file.
package apply

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/h2non/filetype"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"bootmerge/backup"
	"bootmerge/config"
	"bootmerge/merge"
	"bootmerge/state"
)

// Run handles "apply FORMAT BOOTSTRAP_DIR TARGET BACKUP_FLAG".
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("apply")

	if cmd.Args().Len() != 4 {
		_ = cli.ShowSubcommandHelp(cmd)
		return fmt.Errorf("expected exactly 4 arguments, got %d", cmd.Args().Len())
	}

	format := cmd.Args().Get(0)
	dir := cmd.Args().Get(1)
	target := cmd.Args().Get(2)
	// Historic contract: the backup flag is truthy when non-empty, even the
	// literal text "False" requests a backup. Boot scripts in the field depend
	// on it, do not parse boolean semantics here.
	doBackup := len(cmd.Args().Get(3)) > 0

	if dir, err = filepath.Abs(dir); err != nil {
		return err
	}
	if target, err = filepath.Abs(target); err != nil {
		return err
	}

	// Settings files may use archaic code pages, allow forcing one for
	// key=value targets (see IANA.org for character set names)
	cp := cmd.String("force-cp")
	if len(cp) == 0 {
		cp = env.Cfg.Merge.Encoding
	}
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcing character set for key=value files", zap.String("charset", n))
		}
	}

	log.Info("Processing starting",
		zap.String("format", format),
		zap.String("bootstrap_dir", dir),
		zap.String("target", target),
		zap.Bool("backup", doBackup))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, format, dir, target, doBackup, log)
}

// process applies all matching fragments to the target, in lexicographic
// filename order, each as an independent read-modify-write pass so effects of
// successive fragments compose sequentially. There is no transactionality: a
// failure partway through leaves the target in the state the last successful
// pass produced.
func process(ctx context.Context, format, dir, target string, doBackup bool, log *zap.Logger) error {

	env := state.EnvFromContext(ctx)

	// backup comes first, even when the requested data structure turns out to
	// be unsupported
	if doBackup {
		name, err := backup.Create(target)
		if err != nil {
			return fmt.Errorf("unable to back up '%s': %w", target, err)
		}
		log.Info("Created backup", zap.String("backup", name))
	}

	engine, ok := merge.Select(format, merge.Options{
		Log:        log,
		CodePage:   env.CodePage,
		Indent:     env.Cfg.Merge.XMLIndent,
		SecretKeys: env.Cfg.Merge.SecretKeys,
	})
	if !ok {
		// historic contract: unsupported data structure is not a hard error
		log.Warn("Unsupported data structure, nothing to do", zap.String("format", format))
		return nil
	}

	if err := refuseBinaryTarget(target); err != nil {
		return err
	}

	fragments, err := discoverFragments(dir, env.Cfg.Merge.FragmentPrefix, target)
	if err != nil {
		return err
	}
	if len(fragments) == 0 {
		log.Info("No bootstrap fragments found", zap.String("bootstrap_dir", dir))
		return nil
	}

	base := filepath.Base(target)
	if err := env.Rpt.StoreCopy("target/before/"+base, target); err != nil {
		return err
	}

	for _, fragment := range fragments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := env.Rpt.StoreCopy("fragments/"+filepath.Base(fragment), fragment); err != nil {
			return err
		}
		log.Info("Applying fragment", zap.String("fragment", fragment))
		if err := engine.Merge(fragment, target); err != nil {
			return fmt.Errorf("unable to apply fragment '%s': %w", fragment, err)
		}
	}

	if err := env.Rpt.StoreCopy("target/after/"+base, target); err != nil {
		return err
	}
	return storeMergedView(env.Rpt, format, target, env.Cfg.Merge.SecretKeys)
}

// storeMergedView adds a human-readable rendition of the merged target to the
// debug report, secret values masked. Like the Report methods it is a no-op
// without an active report, the rendition is not worth producing otherwise.
func storeMergedView(rpt *config.Report, format, target string, secrets []string) error {
	if rpt == nil {
		return nil
	}
	f, err := config.ParseFormat(strings.ToLower(format))
	if err != nil {
		return nil
	}
	switch f {
	case config.FormatXml:
		outline, err := settingsOutline(target, secrets)
		if err != nil {
			return err
		}
		rpt.StoreData("target/outline.txt", []byte(outline))
	case config.FormatKeyvalue:
		summary, err := settingsSummary(target, secrets)
		if err != nil {
			return err
		}
		rpt.StoreData("target/settings.yaml", summary)
	}
	return nil
}

// discoverFragments scans the bootstrap directory (non-recursively) for file
// names starting with the fragment prefix followed by the target's base name.
// Result is in lexicographic order, so later names win conflicting keys.
func discoverFragments(dir, prefix, target string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("unable to read bootstrap directory '%s': %w", dir, err)
	}

	want := prefix + filepath.Base(target)

	var fragments []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), want) {
			fragments = append(fragments, filepath.Join(dir, entry.Name()))
		}
	}
	// os.ReadDir returns entries sorted by name, nothing more to do
	return fragments, nil
}

// refuseBinaryTarget sniffs the target's leading bytes and rejects recognized
// binary content - a mis-pointed target path would otherwise be destroyed by
// the rewrite. Text and unrecognized content proceed, absent targets are left
// for the engine to report.
func refuseBinaryTarget(target string) error {
	f, err := os.Open(target)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	defer f.Close()

	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return err
	}

	if t, _ := filetype.Match(head[:n]); t != filetype.Unknown {
		return fmt.Errorf("target '%s' looks like binary content (%s), refusing to merge", target, t.MIME.Value)
	}
	return nil
}
