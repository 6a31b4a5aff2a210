package assets

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// NotifyTemplatesPath is the directory of the notification templates inside the data FS.
const NotifyTemplatesPath = "templates/notify"

var efs fs.FS

func GetData() fs.FS {
	return efs
}

func UpdateData(d fs.FS) {
	efs = d
}

// ReadFile reads a file from the data FS.
func ReadFile(name string) ([]byte, error) {
	if efs == nil {
		return nil, errors.New("assets are not loaded")
	}
	return fs.ReadFile(efs, name)
}

// NotifyTemplates returns the notification templates rooted at their directory.
func NotifyTemplates() (fs.FS, error) {
	if efs == nil {
		return nil, errors.New("assets are not loaded")
	}
	return fs.Sub(efs, NotifyTemplatesPath)
}

// TemplatesFromDir returns a file system with user provided templates. The
// directory must hold report.txt and report.html.
func TemplatesFromDir(dir string) (fs.FS, error) {
	for _, name := range []string{"report.txt", "report.html"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return nil, errors.Wrapf(err, "template directory %s", dir)
		}
	}
	return os.DirFS(dir), nil
}

// GetAllFilenames return all file names from an path in embeded EFS.
func GetAllFilenames(efs fs.FS, path string) (files []string, err error) {
	if err := fs.WalkDir(efs, path, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		files = append(files, path)

		return nil
	}); err != nil {
		return nil, err
	}

	return files, nil
}
