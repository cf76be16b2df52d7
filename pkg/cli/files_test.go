package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sqlpp/internal/domain"
)

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q.sql")
	require.NoError(t, os.WriteFile(path, []byte("select 1"), 0o640))

	require.NoError(t, writeFileAtomic(path, []byte("SELECT 1\n")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SELECT 1\n", string(data))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not be left behind")
}

func TestWriteFileAtomic_MissingFile(t *testing.T) {
	err := writeFileAtomic(filepath.Join(t.TempDir(), "missing.sql"), []byte("x"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestMapperFiles(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	a := writeFile(t, root, "AMapper.xml", "<mapper namespace=\"a\"/>")
	b := writeFile(t, sub, "BMapper.XML", "<?xml version=\"1.0\"?>\n<!-- b -->\n<mapper namespace=\"b\"/>")
	writeFile(t, root, "beans.xml", "<beans/>")
	writeFile(t, root, "notes.txt", "<mapper/>")
	writeFile(t, sub, "broken.xml", "<mapper")

	got, err := mapperFiles([]string{root})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, got)
}

func TestMapperFiles_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	m := writeFile(t, dir, "m.xml", "<mapper/>")

	got, err := mapperFiles([]string{m})
	require.NoError(t, err)
	assert.Equal(t, []string{m}, got)

	_, err = mapperFiles([]string{writeFile(t, dir, "beans.xml", "<beans/>")})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = mapperFiles([]string{filepath.Join(dir, "missing.xml")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
