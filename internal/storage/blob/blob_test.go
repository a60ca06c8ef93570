package blob_test

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulsirensomatics/portal/internal/storage/blob"
)

func TestBuildFilename(t *testing.T) {
	name := blob.BuildFilename(42, "my scan (final).pdf")

	assert.True(t, strings.HasPrefix(name, "scan_42_"))
	assert.True(t, strings.HasSuffix(name, "_my_scan__final_.pdf"))
	assert.NotContains(t, strings.TrimSuffix(name, ".pdf"), ".")
}

func TestBuildFilenameUnique(t *testing.T) {
	a := blob.BuildFilename(1, "report.png")
	b := blob.BuildFilename(1, "report.png")

	assert.NotEqual(t, a, b)
}

func TestSaveOpenRemove(t *testing.T) {
	store, err := blob.New(t.TempDir())
	require.NoError(t, err)

	size, err := store.Save("scan_1_test.pdf", strings.NewReader("payload"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), size)

	f, err := store.Open("scan_1_test.pdf")
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.Equal(t, "payload", string(data))

	require.NoError(t, store.Remove("scan_1_test.pdf"))

	_, err = store.Open("scan_1_test.pdf")
	assert.Error(t, err)
}

func TestRemoveMissingFile(t *testing.T) {
	store, err := blob.New(t.TempDir())
	require.NoError(t, err)

	assert.NoError(t, store.Remove("no_such_file.pdf"))
}

func TestSaveStripsPath(t *testing.T) {
	dir := t.TempDir()
	store, err := blob.New(dir)
	require.NoError(t, err)

	_, err = store.Save("../escape.txt", strings.NewReader("x"))
	require.NoError(t, err)

	f, err := store.Open("escape.txt")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
