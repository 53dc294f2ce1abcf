package config

import (
	"context"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"gopkg.in/yaml.v3"

	"github.com/jmgilman/go/imagefs/errors"
	"github.com/jmgilman/go/imagefs/hostfs"
)

// Loader reads geometry files from a host filesystem.
type Loader struct {
	host hostfs.FS
}

// NewLoader creates a Loader that reads through host.
func NewLoader(host hostfs.FS) *Loader {
	return &Loader{host: host}
}

// Load reads the geometry file at name. The format is chosen by extension:
// .cue and .json are compiled as CUE, .yaml and .yml are parsed as YAML.
// Fields missing from the file take their schema defaults.
func (l *Loader) Load(ctx context.Context, name string) (Geometry, error) {
	if err := ctx.Err(); err != nil {
		return Geometry{}, errors.Wrap(err, errors.CodeInvalidConfig, "context cancelled before loading geometry")
	}

	data, err := l.host.ReadFile(name)
	if err != nil {
		return Geometry{}, errors.WrapWithContext(err, errors.CodeExternalIO, "failed to read geometry file", map[string]interface{}{
			"file": name,
		})
	}

	g, err := LoadBytes(ctx, data, name)
	if err != nil {
		return Geometry{}, errors.WithContext(err, "file", name)
	}
	return g, nil
}

// LoadBytes decodes a geometry from source, using filename to pick the format.
func LoadBytes(ctx context.Context, source []byte, filename string) (Geometry, error) {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".cue", ".json":
		return decode(ctx, func(c *cue.Context) (cue.Value, error) {
			v := c.CompileBytes(source, cue.Filename(filename))
			if v.Err() != nil {
				return cue.Value{}, errors.Wrap(v.Err(), errors.CodeInvalidConfig, "failed to compile geometry source")
			}
			return v, nil
		})
	case ".yaml", ".yml":
		var raw map[string]interface{}
		if err := yaml.Unmarshal(source, &raw); err != nil {
			return Geometry{}, errors.Wrap(err, errors.CodeInvalidConfig, "failed to parse YAML geometry")
		}
		if raw == nil {
			raw = map[string]interface{}{}
		}
		return decode(ctx, func(c *cue.Context) (cue.Value, error) {
			v := c.Encode(raw)
			if v.Err() != nil {
				return cue.Value{}, errors.Wrap(v.Err(), errors.CodeInvalidConfig, "failed to encode YAML geometry")
			}
			return v, nil
		})
	default:
		return Geometry{}, errors.WithContext(
			errors.New(errors.CodeInvalidConfig, "unsupported geometry file format"),
			"extension", ext,
		)
	}
}

// EncodeYAML renders g as YAML.
func EncodeYAML(g Geometry) ([]byte, error) {
	out, err := yaml.Marshal(g)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to encode geometry as YAML")
	}
	return out, nil
}
