package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"

	"github.com/jmgilman/go/imagefs"
	"github.com/jmgilman/go/imagefs/config"
	"github.com/jmgilman/go/imagefs/errors"
)

func (e *env) commands() []*cli.Command {
	return []*cli.Command{{
		Name:  "format",
		Usage: "create an empty image",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "overwrite an existing image",
			},
		},
		Action: e.format,
	}, {
		Name:      "mkdir",
		Usage:     "create a directory",
		ArgsUsage: "PATH",
		Action: e.withImage(true, func(fsys *imagefs.FS, c *cli.Context) error {
			args, err := requireArgs(c, 1)
			if err != nil {
				return err
			}
			return fsys.Mkdir(args[0])
		}),
	}, {
		Name:      "mkfile",
		Aliases:   []string{"touch"},
		Usage:     "create an empty file",
		ArgsUsage: "PATH",
		Action: e.withImage(true, func(fsys *imagefs.FS, c *cli.Context) error {
			args, err := requireArgs(c, 1)
			if err != nil {
				return err
			}
			return fsys.Mkfile(args[0])
		}),
	}, {
		Name:      "ls",
		Aliases:   []string{"list"},
		Usage:     "list a directory in slot order",
		ArgsUsage: "[PATH]",
		Action: e.withImage(false, func(fsys *imagefs.FS, c *cli.Context) error {
			p := "/"
			if c.Args().Present() {
				p = c.Args().First()
			}
			listing, err := fsys.List(p)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(e.stdout, listing)
			return err
		}),
	}, {
		Name:      "write",
		Aliases:   []string{"writef"},
		Usage:     "replace the contents of a file",
		ArgsUsage: "PATH TEXT",
		Action: e.withImage(true, func(fsys *imagefs.FS, c *cli.Context) error {
			args, err := requireArgs(c, 2)
			if err != nil {
				return err
			}
			n, err := fsys.WriteFile(args[0], []byte(args[1]))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(e.stdout, "%d bytes written\n", n)
			return err
		}),
	}, {
		Name:      "cat",
		Aliases:   []string{"readf"},
		Usage:     "print the contents of a file",
		ArgsUsage: "PATH",
		Action: e.withImage(false, func(fsys *imagefs.FS, c *cli.Context) error {
			args, err := requireArgs(c, 1)
			if err != nil {
				return err
			}
			data, err := fsys.ReadFile(args[0])
			if err != nil {
				return err
			}
			_, err = e.stdout.Write(data)
			return err
		}),
	}, {
		Name:      "rm",
		Usage:     "remove a file or an empty directory",
		ArgsUsage: "PATH",
		Action: e.withImage(true, func(fsys *imagefs.FS, c *cli.Context) error {
			args, err := requireArgs(c, 1)
			if err != nil {
				return err
			}
			return fsys.Remove(args[0])
		}),
	}, {
		Name:      "import",
		Usage:     "copy a host file into an existing image file",
		ArgsUsage: "PATH HOST_PATH",
		Action: e.withImage(true, func(fsys *imagefs.FS, c *cli.Context) error {
			args, err := requireArgs(c, 2)
			if err != nil {
				return err
			}
			external, err := hostPath(args[1])
			if err != nil {
				return err
			}
			return fsys.Import(args[0], e.host, external)
		}),
	}, {
		Name:      "export",
		Usage:     "copy an image file to the host",
		ArgsUsage: "PATH HOST_PATH",
		Action: e.withImage(false, func(fsys *imagefs.FS, c *cli.Context) error {
			args, err := requireArgs(c, 2)
			if err != nil {
				return err
			}
			external, err := hostPath(args[1])
			if err != nil {
				return err
			}
			return fsys.Export(args[0], e.host, external)
		}),
	}, {
		Name:   "stat",
		Usage:  "show capacity and usage",
		Action: e.withImage(false, e.stat),
	}, {
		Name:  "check",
		Usage: "verify the consistency of the image",
		Action: e.withImage(false, func(fsys *imagefs.FS, _ *cli.Context) error {
			if err := fsys.Check(); err != nil {
				return err
			}
			_, err := fmt.Fprintln(e.stdout, "image is consistent")
			return err
		}),
	}, {
		Name:   "tree",
		Usage:  "print the whole directory tree",
		Action: e.withImage(false, e.tree),
	}, {
		Name:   "config",
		Usage:  "print the geometry format would use",
		Action: e.printConfig,
	}}
}

// requireArgs returns exactly n positional arguments.
func requireArgs(c *cli.Context, n int) ([]string, error) {
	if c.NArg() != n {
		return nil, errors.WithContextMap(
			errors.Newf(errors.CodeInvalidArgument, "%s expects %d argument(s): %s", c.Command.Name, n, c.Command.ArgsUsage),
			map[string]interface{}{"got": c.NArg()},
		)
	}
	return c.Args().Slice(), nil
}

func (e *env) format(c *cli.Context) error {
	if !c.Bool("force") {
		if _, err := e.host.Stat(e.image); err == nil {
			return errors.WithContext(
				errors.New(errors.CodeAlreadyExists, "image already exists, use --force to overwrite"),
				"host_path", e.image,
			)
		}
	}

	geom, err := e.geometry(c)
	if err != nil {
		return err
	}
	fsys, err := imagefs.New(geom, imagefs.WithLogger(e.logger))
	if err != nil {
		return err
	}
	if err := fsys.Save(e.host, e.image); err != nil {
		return err
	}
	e.logger.Info("image formatted", "image", e.image)
	_, err = fmt.Fprintf(e.stdout, "formatted %s (%s)\n", e.image, humanize.IBytes(uint64(geom.Capacity())))
	return err
}

func (e *env) stat(fsys *imagefs.FS, _ *cli.Context) error {
	s := fsys.Stat()
	if e.json {
		enc := json.NewEncoder(e.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}

	g := s.Geometry
	lines := []struct {
		label string
		value string
	}{
		{"block size", humanize.IBytes(uint64(g.BlockSize))},
		{"blocks", fmt.Sprintf("%s used, %s free of %s", humanize.Comma(int64(s.UsedBlocks)), humanize.Comma(int64(s.FreeBlocks)), humanize.Comma(int64(g.Blocks)))},
		{"inodes", fmt.Sprintf("%s used, %s free of %s", humanize.Comma(int64(s.UsedInodes)), humanize.Comma(int64(s.FreeInodes)), humanize.Comma(int64(g.Inodes)))},
		{"directories", humanize.Comma(int64(s.Directories))},
		{"files", fmt.Sprintf("%s (%s)", humanize.Comma(int64(s.Files)), humanize.IBytes(uint64(s.ContentBytes)))},
		{"free space", humanize.IBytes(uint64(s.FreeBytes()))},
		{"max file size", humanize.IBytes(uint64(g.MaxFileSize()))},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(e.stdout, "%-14s %s\n", l.label, l.value); err != nil {
			return err
		}
	}
	return nil
}

func (e *env) tree(fsys *imagefs.FS, _ *cli.Context) error {
	return fs.WalkDir(fsys.IOFS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			_, err := fmt.Fprintln(e.stdout, "/")
			return err
		}

		depth := strings.Count(p, "/")
		name := d.Name()
		if d.IsDir() {
			name += "/"
		} else if info, err := d.Info(); err == nil {
			name += " (" + humanize.IBytes(uint64(info.Size())) + ")"
		}
		_, err = fmt.Fprintf(e.stdout, "%s%s\n", strings.Repeat("  ", depth+1), name)
		return err
	})
}

func (e *env) printConfig(c *cli.Context) error {
	geom, err := e.geometry(c)
	if err != nil {
		return err
	}
	if err := config.Validate(geom); err != nil {
		return err
	}
	out, err := config.EncodeYAML(geom)
	if err != nil {
		return err
	}
	_, err = e.stdout.Write(out)
	return err
}
