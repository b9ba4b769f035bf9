package upload

import (
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoredName(t *testing.T) {
	f := &File{originalName: "My Holiday (1).JPG"}
	name := StoredName(f)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}_My_Holiday__1_\.jpg$`), name)
	require.NoError(t, f.SetName(name))

	noExt := &File{originalName: "blob", detectedMimeType: "image/png"}
	assert.Regexp(t, `_blob\.png$`, StoredName(noExt))

	unknown := &File{originalName: "blob"}
	assert.Regexp(t, `_blob\.bin$`, StoredName(unknown))
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "file", sanitizeName(""))
	assert.Equal(t, "file", sanitizeName(".png"))
	assert.Equal(t, "passwd", sanitizeName("../../etc/passwd"))
	assert.Len(t, sanitizeName(string(make([]byte, 100))+"x.txt"), maxBaseName)
}

func TestResolveSubdir(t *testing.T) {
	root := filepath.Join("srv", "uploads")

	got, err := ResolveSubdir(root, "avatars/2024")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "avatars", "2024"), got)

	got, err = ResolveSubdir(root, "")
	require.NoError(t, err)
	assert.Equal(t, root, got)

	got, err = ResolveSubdir(root, "a/../b")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "b"), got)

	for _, bad := range []string{"..", "../etc", "a/../../etc", "/etc"} {
		_, err := ResolveSubdir(root, bad)
		assert.ErrorIs(t, err, ErrInvalidDir, bad)
	}
}
