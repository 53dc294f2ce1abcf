// Command imagefs manipulates single-file filesystem images.
package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/urfave/cli/v2"

	"github.com/jmgilman/go/imagefs"
	"github.com/jmgilman/go/imagefs/config"
	"github.com/jmgilman/go/imagefs/errors"
	"github.com/jmgilman/go/imagefs/hostfs"
)

const defaultImage = "filesystem.fs"

func main() {
	if err := godotenv.Load(); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "imagefs: failed to load .env: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(os.Args, os.Stdout, os.Stderr))
}

// env carries the state shared by every command.
type env struct {
	host       hostfs.FS
	image      string
	configFile string
	json       bool
	logger     *slog.Logger
	stdout     io.Writer
	stderr     io.Writer
}

// run executes the CLI and returns the process exit code.
func run(args []string, stdout, stderr io.Writer) int {
	e := &env{
		host:   hostfs.NewLocal("/"),
		logger: slog.New(slog.DiscardHandler),
		stdout: stdout,
		stderr: stderr,
	}

	app := newApp(e)
	if err := app.Run(args); err != nil {
		e.report(err)
		return 1
	}
	return 0
}

func newApp(e *env) *cli.App {
	return &cli.App{
		Name:      "imagefs",
		Usage:     "manipulate single-file filesystem images",
		Writer:    e.stdout,
		ErrWriter: e.stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "path of the image file",
				Value:   defaultImage,
				EnvVars: []string{"IMAGEFS_IMAGE"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "geometry file (.cue, .json, .yaml) used by format",
				EnvVars: []string{"IMAGEFS_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "log level (debug, info, warn, error)",
				Value:   "warn",
				EnvVars: []string{"IMAGEFS_LOG_LEVEL"},
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print errors and stat output as JSON",
			},
		},
		Before:   e.setup,
		Commands: e.commands(),
	}
}

// setup resolves the global flags.
func (e *env) setup(c *cli.Context) error {
	e.json = c.Bool("json")

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.String("log-level"))); err != nil {
		return errors.Wrapf(err, errors.CodeInvalidConfig, "invalid log level %q", c.String("log-level"))
	}
	e.logger = slog.New(tint.NewHandler(e.stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	}))

	image, err := filepath.Abs(c.String("image"))
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidConfig, "invalid image path")
	}
	e.image = image

	if name := c.String("config"); name != "" {
		configFile, err := filepath.Abs(name)
		if err != nil {
			return errors.Wrap(err, errors.CodeInvalidConfig, "invalid config path")
		}
		e.configFile = configFile
	}
	return nil
}

// report prints err to stderr, as JSON when requested.
func (e *env) report(err error) {
	if e.json {
		enc := json.NewEncoder(e.stderr)
		enc.SetIndent("", "  ")
		if encErr := enc.Encode(errors.ToJSON(err)); encErr == nil {
			return
		}
	}
	fmt.Fprintf(e.stderr, "imagefs: %v\n", err)
}

// geometry returns the geometry format should use.
func (e *env) geometry(c *cli.Context) (config.Geometry, error) {
	if e.configFile == "" {
		return config.Default(), nil
	}
	return config.NewLoader(e.host).Load(c.Context, e.configFile)
}

// withImage loads the image, runs fn and, when mutate is set and fn
// succeeds, saves the image back.
func (e *env) withImage(mutate bool, fn func(*imagefs.FS, *cli.Context) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		fsys, err := imagefs.Load(e.host, e.image, imagefs.WithLogger(e.logger))
		if err != nil {
			return err
		}
		if err := fn(fsys, c); err != nil {
			return err
		}
		if !mutate {
			return nil
		}
		return fsys.Save(e.host, e.image)
	}
}

// hostPath makes a host path absolute.
func hostPath(name string) (string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", errors.WrapWithContext(err, errors.CodeExternalIO, "invalid host path", map[string]interface{}{
			"host_path": name,
		})
	}
	return abs, nil
}
