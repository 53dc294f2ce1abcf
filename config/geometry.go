package config

import (
	"context"
	_ "embed"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/jmgilman/go/imagefs/errors"
)

//go:embed schema.cue
var schemaSource []byte

// Default geometry values. These mirror the defaults in schema.cue.
const (
	DefaultBlockSize     = 1024
	DefaultBlocks        = 512
	DefaultInodes        = 128
	DefaultSlotsPerInode = 12
	DefaultNameMax       = 255
)

// Geometry holds the fixed capacities of an image.
type Geometry struct {
	BlockSize     int `json:"blockSize" yaml:"blockSize"`
	Blocks        int `json:"blocks" yaml:"blocks"`
	Inodes        int `json:"inodes" yaml:"inodes"`
	SlotsPerInode int `json:"slotsPerInode" yaml:"slotsPerInode"`
	NameMax       int `json:"nameMax" yaml:"nameMax"`
}

// Default returns the default geometry.
func Default() Geometry {
	return Geometry{
		BlockSize:     DefaultBlockSize,
		Blocks:        DefaultBlocks,
		Inodes:        DefaultInodes,
		SlotsPerInode: DefaultSlotsPerInode,
		NameMax:       DefaultNameMax,
	}
}

// MaxFileSize returns the largest file content the geometry can hold.
func (g Geometry) MaxFileSize() int {
	return g.SlotsPerInode * g.BlockSize
}

// Capacity returns the total number of data bytes in the block pool.
func (g Geometry) Capacity() int {
	return g.Blocks * g.BlockSize
}

// schema holds the compiled #Geometry definition. A cue.Context is not safe
// for concurrent use, so access is serialized.
type schema struct {
	mu    sync.Mutex
	ctx   *cue.Context
	value cue.Value
}

var (
	schemaOnce sync.Once
	compiled   *schema
	compileErr error
)

func loadSchema() (*schema, error) {
	schemaOnce.Do(func() {
		ctx := cuecontext.New()
		v := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
		if v.Err() != nil {
			compileErr = errors.Wrap(v.Err(), errors.CodeInternal, "failed to compile geometry schema")
			return
		}
		def := v.LookupPath(cue.ParsePath("#Geometry"))
		if !def.Exists() {
			compileErr = errors.New(errors.CodeInternal, "geometry schema has no #Geometry definition")
			return
		}
		compiled = &schema{ctx: ctx, value: def}
	})
	return compiled, compileErr
}

// Validate checks g against the geometry schema.
func Validate(g Geometry) error {
	s, err := loadSchema()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.ctx.Encode(g)
	if data.Err() != nil {
		return errors.Wrap(data.Err(), errors.CodeInvalidConfig, "failed to encode geometry")
	}
	_, err = s.unify(data)
	return err
}

// unify applies the schema to data and decodes the result. The caller must
// hold s.mu.
func (s *schema) unify(data cue.Value) (Geometry, error) {
	unified := s.value.Unify(data)
	if err := unified.Validate(cue.Concrete(true), cue.Final(), cue.All()); err != nil {
		return Geometry{}, invalidConfig(err)
	}

	var g Geometry
	if err := unified.Decode(&g); err != nil {
		return Geometry{}, errors.Wrap(err, errors.CodeInvalidConfig, "failed to decode geometry")
	}
	return g, nil
}

// invalidConfig converts CUE validation errors into a single platform error
// listing every issue.
func invalidConfig(err error) errors.PlatformError {
	var issues []string
	for _, e := range cueerrors.Errors(err) {
		issues = append(issues, strings.TrimSpace(cueerrors.Details(e, nil)))
	}
	return errors.WrapWithContext(err, errors.CodeInvalidConfig, "geometry failed validation", map[string]interface{}{
		"issues": issues,
	})
}

// decode applies the schema to an already-built CUE value.
func decode(ctx context.Context, build func(*cue.Context) (cue.Value, error)) (Geometry, error) {
	if err := ctx.Err(); err != nil {
		return Geometry{}, errors.Wrap(err, errors.CodeInvalidConfig, "context cancelled before loading geometry")
	}

	s, err := loadSchema()
	if err != nil {
		return Geometry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := build(s.ctx)
	if err != nil {
		return Geometry{}, err
	}
	return s.unify(data)
}
