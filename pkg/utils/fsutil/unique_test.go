package fsutil_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/odcsfetch/pkg/utils/fsutil"
)

func TestCreateUnique(t *testing.T) {
	dir := t.TempDir()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		f, err := fsutil.CreateUnique(dir, "compose-", ".repo")
		gt.NoError(t, err).Required()
		gt.NoError(t, f.Close())

		gt.Value(t, filepath.Dir(f.Name())).Equal(dir)
		gt.Value(t, strings.HasSuffix(f.Name(), ".repo")).Equal(true)
		gt.Value(t, strings.HasPrefix(filepath.Base(f.Name()), "compose-")).Equal(true)
		gt.Value(t, seen[f.Name()]).Equal(false)
		seen[f.Name()] = true
	}

	entries, err := os.ReadDir(dir)
	gt.NoError(t, err).Required()
	gt.A(t, entries).Length(20)
}

func TestCreateUnique_MissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not-exist")

	_, err := fsutil.CreateUnique(dir, "", ".repo")
	gt.Error(t, err)
}

func TestWriteUnique(t *testing.T) {
	dir := t.TempDir()

	path, err := fsutil.WriteUnique(dir, "", ".repo", []byte("[repo]\nbaseurl=http://example.com\n"))
	gt.NoError(t, err).Required()

	data, err := os.ReadFile(path)
	gt.NoError(t, err).Required()
	gt.Value(t, string(data)).Equal("[repo]\nbaseurl=http://example.com\n")

	info, err := os.Stat(path)
	gt.NoError(t, err).Required()
	gt.Value(t, info.Mode().Perm()).Equal(os.FileMode(0600))
}
