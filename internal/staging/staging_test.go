package staging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCreatesNestedDir(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "downloads")
	d := New(root)
	require.NoError(t, d.Ensure())
	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	require.NoError(t, d.Ensure(), "second call is a no-op")
}

func TestPathStaysInsideRoot(t *testing.T) {
	d := New("/srv/staging")
	assert.Equal(t, "/srv/staging/20260314_092653_uid", d.Path("20260314_092653_uid"))
	assert.Equal(t, "/srv/staging/passwd", d.Path("../../etc/passwd"))
	assert.Equal(t, "downloads", New("").Root())
}

func TestRemoveTolerant(t *testing.T) {
	p := filepath.Join(t.TempDir(), "f")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))
	require.NoError(t, Remove(p))
	_, err := os.Stat(p)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, Remove(p), "already gone")
	assert.NoError(t, Remove(""))
}
