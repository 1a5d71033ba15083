// Package dialect classifies export archives and the files inside them.
package dialect

import (
	"path/filepath"
	"strings"
)

// ArchiveType identifies which vendor CSV dialect a batch of files uses.
type ArchiveType int

const (
	// Highend archives split logical rows across physical lines and need reconstruction.
	Highend ArchiveType = iota
	// Midrange archives hold well-formed long rows keyed by Date, Time and ID.
	Midrange
)

const (
	// MetadataMarker appears in the name of the metadata file shipped only with midrange archives.
	MetadataMarker = "export_metadata"
	// UtilizationMarker appears in the name of highend per-worker utilization files.
	UtilizationMarker = "phy_mp"
)

// String returns the lowercase dialect name.
func (a ArchiveType) String() string {
	switch a {
	case Midrange:
		return "midrange"
	case Highend:
		return "highend"
	default:
		return "unknown"
	}
}

// Classify returns Midrange if any file name contains the metadata marker, Highend otherwise.
// An empty listing classifies as Highend.
func Classify(names []string) ArchiveType {
	for _, name := range names {
		if IsMetadataFile(name) {
			return Midrange
		}
	}
	return Highend
}

// IsMetadataFile reports whether name is the archive's metadata marker file.
func IsMetadataFile(name string) bool {
	return containsFold(filepath.Base(name), MetadataMarker)
}

// IsUtilizationFile reports whether name is a highend per-worker utilization export.
func IsUtilizationFile(name string) bool {
	return containsFold(filepath.Base(name), UtilizationMarker)
}

// OutputPath replaces the extension of input with ext (which includes the dot).
func OutputPath(input, ext string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ext
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), substr)
}
