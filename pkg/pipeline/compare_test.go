package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xvc-dev/xvc/pkg/digest"
	diffpkg "github.com/xvc-dev/xvc/pkg/diff"
	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

func writeTemp(t *testing.T, root, rel, content string) xvcpath.XvcPath {
	t.Helper()
	abs := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(abs), 0o755))
	require.NoError(t, os.WriteFile(abs, []byte(content), 0o644))
	return xvcpath.XvcPath(rel)
}

func TestCompareSuperficialFileUnchanged(t *testing.T) {
	root := t.TempDir()
	p := writeTemp(t, root, "a.txt", "hello")
	info, err := os.Stat(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	meta := xvcpath.FromStat(info)

	ctx := CompareContext{Root: root, Algorithm: digest.Blake3, PMM: xvcpath.PathMetadataMap{p: meta}}
	dep := Dependency{Kind: FileKind, File: FileDep{Path: p}}
	record := Record{Metadata: meta}

	d, err := CompareSuperficial(ctx, dep, record)
	require.NoError(t, err)
	assert.Equal(t, diffpkg.Identical, d.Case)
}

func TestCompareSuperficialFileChangedSize(t *testing.T) {
	root := t.TempDir()
	p := writeTemp(t, root, "a.txt", "hello")
	info, err := os.Stat(filepath.Join(root, "a.txt"))
	require.NoError(t, err)
	meta := xvcpath.FromStat(info)

	ctx := CompareContext{Root: root, Algorithm: digest.Blake3, PMM: xvcpath.PathMetadataMap{p: meta}}
	dep := Dependency{Kind: FileKind, File: FileDep{Path: p}}
	stale := Record{Metadata: xvcpath.Metadata{FileType: meta.FileType, Size: meta.Size + 1, Modified: meta.Modified}}

	d, err := CompareSuperficial(ctx, dep, stale)
	require.NoError(t, err)
	assert.Equal(t, diffpkg.Different, d.Case)
}

func TestCompareThoroughFileContentChange(t *testing.T) {
	root := t.TempDir()
	p := writeTemp(t, root, "a.txt", "hello")
	ctx := CompareContext{Root: root, Algorithm: digest.Blake3, PMM: xvcpath.PathMetadataMap{}}
	dep := Dependency{Kind: FileKind, File: FileDep{Path: p}}

	oldDigest, err := digest.FromContent("goodbye", digest.Blake3)
	require.NoError(t, err)
	record := Record{ContentHash: ToDigestValue(oldDigest)}

	d, err := CompareThorough(ctx, dep, record)
	require.NoError(t, err)
	assert.Equal(t, diffpkg.Different, d.Case)
}

func TestCompareGlobMatchedPathsChangesOnNewFile(t *testing.T) {
	root := t.TempDir()
	p1 := writeTemp(t, root, "data/a.csv", "1")
	ctx := CompareContext{Root: root, Algorithm: digest.Blake3, PMM: xvcpath.PathMetadataMap{p1: {}}}
	dep := Dependency{Kind: GlobKind, Glob: GlobDep{Pattern: "data/*.csv"}}

	record := Record{MatchedPaths: "data/a.csv"}
	d, err := CompareSuperficial(ctx, dep, record)
	require.NoError(t, err)
	assert.Equal(t, diffpkg.Identical, d.Case)

	p2 := writeTemp(t, root, "data/b.csv", "2")
	ctx.PMM[p2] = xvcpath.Metadata{}
	d, err = CompareSuperficial(ctx, dep, record)
	require.NoError(t, err)
	assert.Equal(t, diffpkg.Different, d.Case)
}

func TestCompareParamDependency(t *testing.T) {
	root := t.TempDir()
	writeTemp(t, root, "params.yaml", "model:\n  lr: 0.01\n")
	ctx := CompareContext{Root: root, Algorithm: digest.Blake3}
	dep := Dependency{Kind: ParamKind, Param: ParamDep{Path: "params.yaml", KeyPath: "model.lr"}}

	record := Record{ParamValue: "0.01"}
	d, err := CompareSuperficial(ctx, dep, record)
	require.NoError(t, err)
	assert.Equal(t, diffpkg.Identical, d.Case)

	stale := Record{ParamValue: "0.02"}
	d, err = CompareSuperficial(ctx, dep, stale)
	require.NoError(t, err)
	assert.Equal(t, diffpkg.Different, d.Case)
}

func TestDigestValueEqual(t *testing.T) {
	a := DigestValue{Algorithm: "blake3", Hex: "ab"}
	b := DigestValue{Algorithm: "blake3", Hex: "ab"}
	c := DigestValue{Algorithm: "blake3", Hex: "cd"}
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
}

func TestMetadataEqualForIdenticalTimestamps(t *testing.T) {
	m1 := xvcpath.Metadata{FileType: xvcpath.File, Size: 1, Modified: time.Unix(1000, 0)}
	m2 := xvcpath.Metadata{FileType: xvcpath.File, Size: 1, Modified: time.Unix(1000, 0)}
	assert.True(t, m1.Equal(m2))
}
