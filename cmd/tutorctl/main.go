// Command tutorctl validates tutoring content and exports student progress.
//
//	tutorctl validate [--content DIR]
//	tutorctl export [--student ID] [--out FILE.xlsx]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/p-n-ai/exam-tutor/internal/app"
	"github.com/p-n-ai/exam-tutor/internal/knowledge"
	"github.com/p-n-ai/exam-tutor/internal/platform/config"
	"github.com/p-n-ai/exam-tutor/internal/progress"
	"github.com/p-n-ai/exam-tutor/internal/report"
)

const usage = `usage: tutorctl <command> [flags]

commands:
  validate   check the domain and question files
  export     write a student's progress to an Excel workbook
`

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "tutorctl: %v\n", err)
		return 1
	}

	switch args[0] {
	case "validate":
		err = validate(cfg, args[1:], stdout, stderr)
	case "export":
		err = export(ctx, cfg, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "tutorctl: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		return 2
	default:
		fmt.Fprintf(stderr, "tutorctl: %v\n", err)
		return 1
	}
}

var errUsage = errors.New("usage")

func newFlagSet(name string, stderr io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	return fs
}

func parse(fs *pflag.FlagSet, args []string, stderr io.Writer) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return err
		}
		return errUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return errUsage
	}
	return nil
}

func validate(cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("validate", stderr)
	contentDir := fs.StringP("content", "c", cfg.ContentPath, "content directory holding domains/ and questions/")
	if err := parse(fs, args, stderr); err != nil {
		return err
	}

	catalog, err := knowledge.Load(*contentDir)
	if err != nil {
		var integrity *knowledge.IntegrityError
		if errors.As(err, &integrity) {
			for _, p := range integrity.Problems {
				fmt.Fprintf(stdout, "  - %s\n", p)
			}
			return fmt.Errorf("%s: %d problem(s)", *contentDir, len(integrity.Problems))
		}
		return err
	}

	topics := 0
	for _, d := range catalog.Domains() {
		topics += len(d.Topics)
	}
	fmt.Fprintf(stdout, "%s: ok (%d domains, %d topics, %d questions)\n",
		*contentDir, len(catalog.Domains()), topics, len(catalog.AllQuestions()))
	return nil
}

func export(ctx context.Context, cfg *config.Config, args []string, stdout, stderr io.Writer) error {
	fs := newFlagSet("export", stderr)
	studentID := fs.StringP("student", "s", cfg.DefaultStudent, "student id")
	out := fs.StringP("out", "o", "", "output file (default <student>-progress.xlsx)")
	if err := parse(fs, args, stderr); err != nil {
		return err
	}
	if *out == "" {
		*out = *studentID + "-progress.xlsx"
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	// Exports only read; skip the write lock.
	cfg.Progress.DistributedLock = false

	backends, err := app.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer backends.Close()

	p, err := backends.Store.Load(ctx, *studentID)
	if progress.IsNotFound(err) {
		return fmt.Errorf("no progress recorded for student %q", *studentID)
	}
	if err != nil {
		return fmt.Errorf("loading progress for %s: %w", *studentID, err)
	}

	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("creating %s: %w", *out, err)
	}
	if err := report.Write(f, *studentID, p); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", *out, err)
	}

	fmt.Fprintf(stdout, "wrote %s\n", *out)
	return nil
}
