package identity

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var idPattern = regexp.MustCompile(`^wt-[0-9a-f]{12}$`)

func TestIDFor_Format(t *testing.T) {
	id := IDFor(t.TempDir())
	assert.Regexp(t, idPattern, id)
}

func TestIDFor_Deterministic(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, IDFor(dir), IDFor(dir))
}

// TestIDFor_NormalizesDotSegments verifies "a/./b" and "a/b" share an id
// when both resolve to the same directory.
func TestIDFor_NormalizesDotSegments(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(target, 0o755))

	dotted := root + string(filepath.Separator) + "a" + string(filepath.Separator) + "." + string(filepath.Separator) + "b"
	parent := filepath.Join(root, "a", "b", "..", "b")

	assert.Equal(t, IDFor(target), IDFor(dotted))
	assert.Equal(t, IDFor(target), IDFor(parent))
}

func TestIDFor_ResolvesSymlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	target := filepath.Join(root, "real")
	require.NoError(t, os.Mkdir(target, 0o755))
	link := filepath.Join(root, "link")
	require.NoError(t, os.Symlink(target, link))

	assert.Equal(t, IDFor(target), IDFor(link))
}

func TestIDFor_RelativePath(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "ws"), 0o755))
	t.Chdir(root)

	assert.Equal(t, IDFor(filepath.Join(root, "ws")), IDFor("ws"))
}

// TestIDFor_MissingPath falls back to hashing the path as given.
func TestIDFor_MissingPath(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone")
	assert.Equal(t, missing, Canonicalize(missing))
	assert.Regexp(t, idPattern, IDFor(missing))
	assert.NotEqual(t, IDFor(missing), IDFor(missing+"-other"))
}
