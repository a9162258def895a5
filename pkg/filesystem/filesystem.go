package filesystem

import (
	"io"
	"os"

	"github.com/spf13/afero"
)

// DirPerm is the mode used for directories created by doppel.
const DirPerm os.FileMode = 0o755

// NewOS returns the operating system filesystem.
func NewOS() afero.Fs {
	return afero.NewOsFs()
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() afero.Fs {
	return afero.NewMemMapFs()
}

// Exists reports whether path exists. It is a pure existence check.
func Exists(fs afero.Fs, path string) (bool, error) {
	return afero.Exists(fs, path)
}

// CopyFile copies the contents of src into dst, creating or truncating dst
// with the permission bits of src. Bytes are copied verbatim, so any text
// encoding is preserved. dst is synced and closed before CopyFile returns.
func CopyFile(fs afero.Fs, src, dst string) (err error) {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// WriteFileDurable writes data to name and only returns once the data has
// been fully written, synced and the file closed. Callers may act on the
// written file (or delete its source) as soon as it returns nil.
func WriteFileDurable(fs afero.Fs, name string, data []byte, perm os.FileMode) (err error) {
	f, err := fs.OpenFile(name, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	n, err := f.Write(data)
	if err != nil {
		return err
	}
	if n < len(data) {
		return io.ErrShortWrite
	}
	return f.Sync()
}
