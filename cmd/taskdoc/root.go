package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dgallion1/taskdoc/internal/config"
	"github.com/dgallion1/taskdoc/internal/filestore"
)

// app carries the flags and collaborators shared by every command.
type app struct {
	file       string
	root       string
	configPath string
	verbose    bool
	format     string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg   config.Config
	files *filestore.Files
	log   *slog.Logger
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	rootCmd := &cobra.Command{
		Use:   "taskdoc",
		Short: "Edit hierarchical task lists kept in markdown headings",
		Long: `taskdoc edits markdown documents whose headings carry task identifiers
such as "## R1 Setup" or "### R1.2 [completed] Survey".

Every change rewrites the file atomically while holding a lock on <file>.lock,
so several processes can edit the same document safely.

Examples:
  # Show the task tree
  taskdoc -f plan.md list

  # Add a subtask under R2 and mark it started
  taskdoc -f plan.md add-sub R2 "Survey users"
  taskdoc -f plan.md start R2.1

  # Replace a body from stdin
  cat notes.md | taskdoc -f plan.md set-body R2.1`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&a.file, "file", "f", "", "Markdown document to read and edit (required)")
	rootCmd.PersistentFlags().StringVar(&a.root, "root", "", "Root directory links are made relative to")
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")
	rootCmd.PersistentFlags().StringVar(&a.format, "format", "text", "Output format: text|json|yaml")
	_ = rootCmd.MarkPersistentFlagRequired("file")

	rootCmd.AddCommand(
		a.listCmd(),
		a.showCmd(),
		a.addCmd(),
		a.addSubCmd(),
		a.deleteCmd(),
		a.setBodyCmd(),
		a.statusCmd("done", "Mark a task completed", "completed"),
		a.statusCmd("start", "Mark a task in progress", "in_progress"),
		a.statusCmd("reset", "Clear a task's status markers", "none"),
		a.nextIDCmd(),
		a.linksCmd(),
		a.resolveCmd(),
	)
	return rootCmd
}

func (a *app) setup() error {
	level := slog.LevelWarn
	if a.verbose {
		level = slog.LevelDebug
	}
	a.log = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	file, err := filepath.Abs(a.file)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", a.file, err)
	}
	a.file = file

	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	if a.root != "" {
		if cfg.RootPath, err = filepath.Abs(a.root); err != nil {
			return fmt.Errorf("resolving %s: %w", a.root, err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	switch a.format {
	case "text", "json", "yaml":
	default:
		return fmt.Errorf("unknown format %q (want text, json or yaml)", a.format)
	}
	a.cfg = cfg
	a.files = filestore.New(cfg, nil, a.log)
	a.log.Debug("configuration loaded", "file", a.file, "root_path", cfg.RootPath, "id_prefix", cfg.IDPrefix)
	return nil
}

// structured prints v in the requested machine-readable format. It reports
// false when plain text output was asked for and nothing was printed.
func (a *app) structured(v any) (bool, error) {
	switch a.format {
	case "json":
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		out, err := yaml.Marshal(v)
		if err != nil {
			return true, err
		}
		_, err = a.stdout.Write(out)
		return true, err
	}
	return false, nil
}

func (a *app) printf(format string, args ...any) {
	fmt.Fprintf(a.stdout, format, args...)
}
