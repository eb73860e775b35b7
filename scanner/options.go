package scanner

// ScanOptions configures a single scan pass over a root directory.
type ScanOptions struct {
	Recursive       bool    // Descend into subdirectories
	Force           bool    // Accept files whose sidecar is merely outdated
	MinSizeKB       int64   // Skip files smaller than this (0 disables)
	MaxSizeMB       int64   // Skip files larger than this (0 disables)
	MinResolutionPx int     // Skip images whose shortest side is below this (0 disables)
	WorkerCount     int     // Directory-level fan-out width
	CoreVersion     string  // Compared against a sidecar's format_version
	ExcludePatterns []string // Gitignore-style patterns applied at every directory, in addition to .scoutignore
}

// DefaultScanOptions returns the scanner's baseline configuration: recursive,
// no size/resolution filtering, two workers.
func DefaultScanOptions(coreVersion string) ScanOptions {
	return ScanOptions{
		Recursive:   true,
		Force:       false,
		WorkerCount: 2,
		CoreVersion: coreVersion,
	}
}
