package publish

import (
	"archive/tar"
	"bytes"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz"
)

// Bundle archives the regular files of dir into a tar.xz stream. Entries are
// named <root>/<relative path> and sorted the way filepath.WalkDir finds
// them.
func Bundle(dir, root string) ([]byte, error) {
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		return nil, errors.Wrap(err, "unable to create xz writer")
	}
	tw := tar.NewWriter(xw)

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(filepath.Join(root, rel))
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		fd, err := os.Open(path)
		if err != nil {
			return err
		}
		defer fd.Close()
		_, err = io.Copy(tw, fd)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "unable to bundle %s", dir)
	}
	if err := tw.Close(); err != nil {
		return nil, errors.Wrap(err, "unable to close tar writer")
	}
	if err := xw.Close(); err != nil {
		return nil, errors.Wrap(err, "unable to close xz writer")
	}
	return buf.Bytes(), nil
}

// ListBundle returns the names of the entries of a tar.xz bundle.
func ListBundle(r io.Reader) ([]string, error) {
	file, err := xz.NewReader(r)
	if err != nil {
		return nil, err
	}
	tr := tar.NewReader(file)
	var names []string
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, err
		}
		names = append(names, hdr.Name)
	}
}
