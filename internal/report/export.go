package report

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/banshee-data/lightimpact/internal/fsutil"
	"github.com/banshee-data/lightimpact/internal/security"
)

// Create checks that path is an allowed export destination and creates it
// on fsys, making parent directories as needed.
func Create(fsys fsutil.FileSystem, path string) (io.WriteCloser, error) {
	if err := security.ValidateExportPath(path); err != nil {
		return nil, err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return fsys.Create(path)
}

// WriteFile creates path with Create and hands it to write. The file is
// closed before returning; a close error is reported if write succeeded.
func WriteFile(fsys fsutil.FileSystem, path string, write func(io.Writer) error) (err error) {
	f, err := Create(fsys, path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// ResolvePath returns path unchanged unless it names a directory (an
// existing one, or any path ending in a separator), in which case the file
// is placed inside it and named after the case.
func ResolvePath(fsys fsutil.FileSystem, path, name, suffix string) string {
	if strings.HasSuffix(path, string(os.PathSeparator)) {
		return filepath.Join(path, security.ExportFileName(name, suffix))
	}
	if info, err := fsys.Stat(path); err == nil && info.IsDir() {
		return filepath.Join(path, security.ExportFileName(name, suffix))
	}
	return path
}
