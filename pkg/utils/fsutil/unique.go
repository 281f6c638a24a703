package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
)

// maxCreateAttempts bounds retries when a generated name already exists
const maxCreateAttempts = 16

// CreateUnique creates a new file in dir named prefix + random UUID + suffix.
// The file is opened exclusively for writing with mode 0600 and is never
// removed by this package; the caller owns it.
func CreateUnique(dir, prefix, suffix string) (*os.File, error) {
	for i := 0; i < maxCreateAttempts; i++ {
		path := filepath.Join(dir, prefix+uuid.NewString()+suffix)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			return f, nil
		}
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return nil, goerr.Wrap(err, "failed to create file", goerr.V("path", path))
	}

	return nil, goerr.New("failed to generate unique file name",
		goerr.V("dir", dir),
		goerr.V("attempts", maxCreateAttempts),
	)
}

// WriteUnique creates a unique file with CreateUnique and writes data to it.
// It returns the path of the written file.
func WriteUnique(dir, prefix, suffix string, data []byte) (string, error) {
	f, err := CreateUnique(dir, prefix, suffix)
	if err != nil {
		return "", err
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", goerr.Wrap(err, "failed to write file", goerr.V("path", f.Name()))
	}

	if err := f.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to close file", goerr.V("path", f.Name()))
	}

	return f.Name(), nil
}
