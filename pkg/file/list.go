package file

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xvc-dev/xvc/pkg/xvcpath"
)

// ListSort names the ordering `xvc file list` applies to its rows, mirroring
// internal/config.FileListConfig.Sort.
type ListSort string

const (
	SortNone           ListSort = "none"
	SortNameAscending  ListSort = "name-asc"
	SortNameDescending ListSort = "name-desc"
	SortSizeAscending  ListSort = "size-asc"
	SortSizeDescending ListSort = "size-desc"
)

// ListOptions mirrors internal/config.FileListConfig, resolved down to the values List needs.
type ListOptions struct {
	Sort         ListSort
	ShowDotFiles bool
	NoSummary    bool
}

// ListRow is one reported tracked path, the Go equivalent of the original's per-column ListRow —
// flattened to a fixed set of fields instead of a format-string column list, since there is no
// column-template parser in this package.
type ListRow struct {
	Path         xvcpath.XvcPath
	FileType     xvcpath.FileType
	Size         int64
	DigestHex    string
	TextOrBinary string
}

// ListSummary totals a List call's rows, the Go equivalent of cmd_list's trailing summary line.
type ListSummary struct {
	TotalFiles int
	TotalBytes int64
}

// ListReport is List's result: every row plus, unless opts.NoSummary, their summary.
type ListReport struct {
	Rows    []ListRow
	Summary *ListSummary
}

// List enumerates every path tracked in stores, restricted to targets (directory prefixes, or
// every tracked path when targets is empty), following original_source/file/src/list/mod.rs's
// cmd_list: build one row per entity from its recorded metadata and digest, optionally hide
// dotfiles, sort, and summarize.
func List(stores *Stores, targets []string, opts ListOptions) (ListReport, error) {
	var rows []ListRow
	for _, e := range stores.Paths.Entities() {
		path, ok := stores.Paths.Get(e)
		if !ok {
			continue
		}
		if !pathMatchesTargets(string(path), targets) {
			continue
		}
		if !opts.ShowDotFiles && isDotFile(string(path)) {
			continue
		}

		row := ListRow{Path: path}
		if meta, ok := stores.Metadata.Get(e); ok {
			row.FileType = meta.FileType
			row.Size = meta.Size
		}
		if dv, ok := stores.ContentDigest.Get(e); ok && !dv.IsZero() {
			row.DigestHex = dv.Hex
		}
		if tob, ok := stores.TextOrBinary.Get(e); ok {
			row.TextOrBinary = string(tob)
		}
		rows = append(rows, row)
	}

	sortRows(rows, opts.Sort)

	report := ListReport{Rows: rows}
	if !opts.NoSummary {
		summary := &ListSummary{TotalFiles: len(rows)}
		for _, r := range rows {
			summary.TotalBytes += r.Size
		}
		report.Summary = summary
	}
	return report, nil
}

func sortRows(rows []ListRow, by ListSort) {
	switch by {
	case SortNameAscending:
		sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	case SortNameDescending, "":
		sort.Slice(rows, func(i, j int) bool { return rows[i].Path > rows[j].Path })
	case SortSizeAscending:
		sort.Slice(rows, func(i, j int) bool { return rows[i].Size < rows[j].Size })
	case SortSizeDescending:
		sort.Slice(rows, func(i, j int) bool { return rows[i].Size > rows[j].Size })
	case SortNone:
	}
}

func isDotFile(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}

// String renders a row the way `xvc file list`'s default format column set would: an 8-hex-digit
// digest prefix, the size, and the path.
func (r ListRow) String() string {
	prefix := r.DigestHex
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return fmt.Sprintf("%-8s %10d %s", prefix, r.Size, r.Path)
}
