package discovery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
}

func TestFindLogFilesOverrideRoot(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "proj-a", "conv1.jsonl"))
	touch(t, filepath.Join(dir, "proj-a", "conv2.jsonl"))
	touch(t, filepath.Join(dir, "proj-b", "conv3.JSONL"))
	touch(t, filepath.Join(dir, "proj-b", "notes.txt"))

	files, err := FindLogFiles(Options{OverrideRoot: dir})
	require.NoError(t, err)
	require.Len(t, files, 3, "case-insensitive .jsonl match, non-logs excluded")
	assert.True(t, sortedStrings(files))
}

func TestFindLogFilesMissingRoot(t *testing.T) {
	files, err := FindLogFiles(Options{OverrideRoot: filepath.Join(t.TempDir(), "nope")})
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFindLogFilesPrefersNestedProjectsDir(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "projects", "proj", "conv.jsonl"))
	touch(t, filepath.Join(dir, "stray.jsonl"))

	files, err := FindLogFiles(Options{OverrideRoot: dir})
	require.NoError(t, err)
	require.Len(t, files, 1, "a nested projects/ dir narrows the scan")
	assert.True(t, strings.HasSuffix(files[0], "conv.jsonl"))
}

func TestFindLogFilesDepthGuard(t *testing.T) {
	dir := t.TempDir()
	deep := dir
	for i := 0; i < 10; i++ {
		deep = filepath.Join(deep, "d")
	}
	touch(t, filepath.Join(deep, "deep.jsonl"))
	touch(t, filepath.Join(dir, "shallow.jsonl"))

	files, err := FindLogFiles(Options{OverrideRoot: dir})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], "shallow.jsonl"))
}

func TestCandidateRootsOverrideWins(t *testing.T) {
	t.Setenv("CLAUDE_CONFIG_DIR", "/somewhere/else")

	candidates := CandidateRoots(Options{OverrideRoot: "/data"})
	assert.Equal(t, []string{"/data"}, candidates)

	candidates = CandidateRoots(Options{})
	assert.Equal(t, "/somewhere/else", candidates[0])
}

func TestRootsFiltersNonexistent(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, []string{dir}, Roots(Options{OverrideRoot: dir}))
	assert.Empty(t, Roots(Options{OverrideRoot: filepath.Join(dir, "missing")}))
}

func sortedStrings(s []string) bool {
	for i := 1; i < len(s); i++ {
		if s[i-1] > s[i] {
			return false
		}
	}
	return true
}
