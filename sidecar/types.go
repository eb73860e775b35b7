// Package sidecar persists per-file embedding records alongside the media
// they describe, and the directory-scoped cluster cache derived from them.
package sidecar

import "time"

// FormatVersion is compared against a loaded sidecar's format_version to
// detect staleness (spec §3 Lifecycle). Bump it whenever the on-disk layout
// or embedding semantics change incompatibly.
const FormatVersion = "1.0.0"

// Frame is one sampled instant of a video, with its own embedding.
type Frame struct {
	TimestampSeconds float64   `msgpack:"timestamp_seconds"`
	Embedding        []float32 `msgpack:"embedding"`
}

// ImageSidecar is the persisted record for a single indexed image.
type ImageSidecar struct {
	FormatVersion         string    `msgpack:"format_version"`
	OriginalFilename      string    `msgpack:"original_filename"`
	ContentHash           string    `msgpack:"content_hash"`
	CreatedAt             time.Time `msgpack:"created_at"`
	Embedding             []float32 `msgpack:"embedding"`
	ProcessingDurationMs  uint64    `msgpack:"processing_duration_ms"`
	Width                 int       `msgpack:"width,omitempty"`
	Height                int       `msgpack:"height,omitempty"`
	Orientation           int       `msgpack:"orientation,omitempty"`
}

// VideoSidecar is the persisted record for a single indexed video. The
// presence of the frames key (even an empty slice, which msgpack still
// encodes as a map entry here because the field is not omitempty) is what
// distinguishes a video sidecar from an image sidecar on disk.
type VideoSidecar struct {
	FormatVersion        string    `msgpack:"format_version"`
	OriginalFilename     string    `msgpack:"original_filename"`
	ContentHash          string    `msgpack:"content_hash"`
	CreatedAt            time.Time `msgpack:"created_at"`
	ProcessingDurationMs uint64    `msgpack:"processing_duration_ms"`
	Frames               []Frame   `msgpack:"frames"`
}

// Cluster describes one HDBSCAN cluster produced by a clustering run.
type Cluster struct {
	ID                int      `msgpack:"id"`
	MemberHashes       []string `msgpack:"member_hashes"`
	RepresentativeHash string   `msgpack:"representative_hash"`
	Cohesion           float64  `msgpack:"cohesion"`
}

// ClusterCache is the directory-scoped, parameter-keyed result of a
// clustering run, stored at D/.scout/clusters.msgpack.
type ClusterCache struct {
	MinClusterSize int       `msgpack:"min_cluster_size"`
	MinSamples     int       `msgpack:"min_samples"`
	UsedUMAP       bool      `msgpack:"used_umap"`
	TotalInputs    int       `msgpack:"total_inputs"`
	Clusters       []Cluster `msgpack:"clusters"`
	Noise          []string  `msgpack:"noise"`
	GeneratedAt    time.Time `msgpack:"generated_at"`
}
