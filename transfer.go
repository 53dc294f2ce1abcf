package imagefs

import (
	"github.com/jmgilman/go/imagefs/errors"
	"github.com/jmgilman/go/imagefs/hostfs"
)

// Import replaces the contents of the image file at internal with the bytes
// of the host file external. The image file must already exist. Host read
// failures are reported as CodeExternalIO; size failures match WriteFile.
func (f *FS) Import(internal string, host hostfs.FS, external string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := f.resolveKind(internal, KindFile)
	if err != nil {
		return f.finish("import", internal, err)
	}

	data, err := host.ReadFile(external)
	if err != nil {
		return f.finish("import", internal, errors.WrapWithContext(err, errors.CodeExternalIO, "failed to read host file", map[string]interface{}{
			"host_path": external,
		}))
	}

	if _, err := f.writeFile(id, data); err != nil {
		return f.finish("import", internal, errors.WithContext(err, "host_path", external))
	}
	f.logger.Debug("imported host file", "path", internal, "host_path", external, "bytes", len(data))
	return f.finish("import", internal, nil)
}

// Export writes the contents of the image file at internal to the host file
// external, creating or truncating it. The host file is replaced atomically:
// on failure it is left as it was and no temporary file remains.
func (f *FS) Export(internal string, host hostfs.FS, external string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := f.resolveKind(internal, KindFile)
	if err != nil {
		return f.finish("export", internal, err)
	}

	data := f.readFile(id)
	if err := hostfs.WriteFileAtomic(host, external, data, 0o644); err != nil {
		return f.finish("export", internal, errors.WrapWithContext(err, errors.CodeExternalIO, "failed to write host file", map[string]interface{}{
			"host_path": external,
		}))
	}
	f.logger.Debug("exported host file", "path", internal, "host_path", external, "bytes", len(data))
	return f.finish("export", internal, nil)
}
