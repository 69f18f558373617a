package walker

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvc-dev/xvc/pkg/ignore"
)

func mustMkdirAll(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(path, 0o755))
}

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	mustMkdirAll(t, filepath.Dir(path))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func pathStrings(pms []PathMetadata) []string {
	out := make([]string, len(pms))
	for i, pm := range pms {
		out[i] = string(pm.Path)
	}
	sort.Strings(out)
	return out
}

func TestWalkSerialSkipsIgnoredFiles(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, ".gitignore"), "*.o\n")
	mustWriteFile(t, filepath.Join(root, "main.go"), "package main")
	mustWriteFile(t, filepath.Join(root, "main.o"), "binary")

	var result []PathMetadata
	_, errs := WalkSerial(ignore.Empty(root), root, root, GitignoreOptions(), &result)
	require.Empty(t, errs)

	assert.Contains(t, pathStrings(result), "main.go")
	assert.NotContains(t, pathStrings(result), "main.o")
}

func TestWalkSerialHonorsNestedIgnoreFiles(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "sub", ".gitignore"), "secret.txt\n")
	mustWriteFile(t, filepath.Join(root, "sub", "secret.txt"), "hush")
	mustWriteFile(t, filepath.Join(root, "sub", "public.txt"), "hi")

	var result []PathMetadata
	_, errs := WalkSerial(ignore.Empty(root), root, root, GitignoreOptions(), &result)
	require.Empty(t, errs)

	names := pathStrings(result)
	assert.Contains(t, names, "sub/public.txt")
	assert.NotContains(t, names, "sub/secret.txt")
}

func TestWalkSerialWithoutDirsExcludesDirectories(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "sub", "file.txt"), "hi")

	var result []PathMetadata
	_, errs := WalkSerial(ignore.Empty(root), root, root, GitignoreOptions().WithoutDirs(), &result)
	require.Empty(t, errs)

	names := pathStrings(result)
	assert.Contains(t, names, "sub/file.txt")
	assert.NotContains(t, names, "sub")
}

func TestWalkParallelMatchesSerialResults(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, ".gitignore"), "*.o\n")
	mustWriteFile(t, filepath.Join(root, "a", "keep.txt"), "1")
	mustWriteFile(t, filepath.Join(root, "a", "drop.o"), "2")
	mustWriteFile(t, filepath.Join(root, "b", "keep.txt"), "3")

	var serialResult []PathMetadata
	_, errs := WalkSerial(ignore.Empty(root), root, root, GitignoreOptions(), &serialResult)
	require.Empty(t, errs)

	pathCh, ruleCh, errCh := WalkParallel(ignore.Empty(root), root, root, GitignoreOptions())
	var parallelResult []PathMetadata
	for pm := range pathCh {
		parallelResult = append(parallelResult, pm)
	}
	for range ruleCh {
	}
	for err := range errCh {
		t.Fatalf("unexpected walk error: %v", err)
	}

	assert.ElementsMatch(t, pathStrings(serialResult), pathStrings(parallelResult))
}

func TestBuildIgnoreRulesAccumulatesNestedPatterns(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, ".gitignore"), "*.o\n")
	mustWriteFile(t, filepath.Join(root, "sub", ".gitignore"), "*.tmp\n")
	mustMkdirAll(t, filepath.Join(root, "sub"))

	rules, errs := BuildIgnoreRules(ignore.Empty(root), root, root, ".gitignore")
	require.Empty(t, errs)
	assert.Equal(t, ignore.Matched, ignore.CheckIgnore(rules, "main.o"))
	assert.Equal(t, ignore.Matched, ignore.CheckIgnore(rules, "sub/cache.tmp"))
}
