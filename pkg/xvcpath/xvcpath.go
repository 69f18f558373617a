// Package xvcpath defines XvcPath and XvcMetadata, the two base component types every tracked
// file or directory carries: a repository-relative path and the filesystem metadata observed
// for it at a point in time.
package xvcpath

import (
	"os"
	"path/filepath"
	"time"
)

// XvcPath is a workspace path relative to the repository root, using forward slashes
// regardless of host OS so that digests and stored paths are platform-independent.
type XvcPath string

// FromAbs builds an XvcPath from an absolute path and the repository root it is relative to.
func FromAbs(root, abs string) (XvcPath, error) {
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return "", err
	}
	return XvcPath(filepath.ToSlash(rel)), nil
}

// AbsPath resolves an XvcPath back to an absolute path under root.
func (p XvcPath) AbsPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(string(p)))
}

func (p XvcPath) String() string { return string(p) }

// FileType classifies what kind of filesystem object a path was observed as, including the two
// cache-materialization-only values (Hardlink, Reflink) that exist only after a recheck and the
// RecordOnly/Missing values used when there is no corresponding entry on disk.
type FileType int

const (
	Missing FileType = iota
	File
	Directory
	Symlink
	Hardlink
	Reflink
	// RecordOnly marks a path that has a stored record but was deliberately not checked out
	// (e.g. recheck --no-recheck), so its actual file type is unknown/irrelevant.
	RecordOnly
)

func (t FileType) String() string {
	switch t {
	case Missing:
		return "missing"
	case File:
		return "file"
	case Directory:
		return "directory"
	case Symlink:
		return "symlink"
	case Hardlink:
		return "hardlink"
	case Reflink:
		return "reflink"
	case RecordOnly:
		return "record-only"
	default:
		return "unknown"
	}
}

// Metadata is the filesystem metadata xvc records for a path: enough to decide, cheaply,
// whether a file might have changed without reading its content (the "superficial" comparison
// of spec.md section 4.8).
type Metadata struct {
	FileType FileType
	Size     int64
	Modified time.Time
}

// Equal compares two Metadata values for the superficial-diff purposes of spec.md: same file
// type, same size, same modification time.
func (m Metadata) Equal(other Metadata) bool {
	return m.FileType == other.FileType && m.Size == other.Size && m.Modified.Equal(other.Modified)
}

// FromStat builds a Metadata from an os.FileInfo, classifying symlinks via the provided
// lstat-derived mode bit (os.Stat follows symlinks, so callers that care about distinguishing
// Symlink from File must Lstat first and pass that info in).
func FromStat(info os.FileInfo) Metadata {
	ft := File
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		ft = Symlink
	case info.IsDir():
		ft = Directory
	}
	return Metadata{FileType: ft, Size: info.Size(), Modified: info.ModTime()}
}

// PathMetadataMap is the combined (path -> metadata) view the walker and digest stages operate
// over, keyed by repository-relative path for convenient lookups.
type PathMetadataMap map[XvcPath]Metadata
