package sidecar

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/scout/scouterr"
)

// invariants guards the one-to-one link between a sidecar's filename and its
// decoded content_hash field: save always derives the filename from
// ContentHash, so any mismatch at load time means a sidecar file was moved,
// renamed, or hand-edited outside this package rather than a bad user input.
var invariants = assert.NewAssertHandler()

// DirName is the sidecar directory created as a sibling of indexed media.
const DirName = ".scout"

// ClusterCacheFilename is the fixed name of the cluster cache within DirName.
const ClusterCacheFilename = "clusters.msgpack"

const (
	sidecarExt = ".msgpack"
	tmpSuffix  = ".tmp"
)

// Entry discriminates a deserialized sidecar by the tagged value it wraps.
// Per spec, the discriminator is the presence of the frames field: Video
// always carries Frames (possibly empty), Image never does.
type Entry struct {
	Image *ImageSidecar
	Video *VideoSidecar
}

// SidecarDir returns the .scout directory for a media directory.
func SidecarDir(mediaDir string) string {
	return filepath.Join(mediaDir, DirName)
}

// pathFor returns the sidecar path for a content hash within a media
// directory, e.g. "<mediaDir>/.scout/<HASH>.msgpack".
func pathFor(mediaDir, hash string) string {
	return filepath.Join(SidecarDir(mediaDir), hash+sidecarExt)
}

// SaveImage atomically writes an ImageSidecar to dir/.scout/<hash>.msgpack.
func SaveImage(dir string, s *ImageSidecar) error {
	return save(dir, s.ContentHash, s)
}

// SaveVideo atomically writes a VideoSidecar to dir/.scout/<hash>.msgpack.
func SaveVideo(dir string, s *VideoSidecar) error {
	return save(dir, s.ContentHash, s)
}

func save(dir, hash string, v any) error {
	if hash == "" {
		return scouterr.New(scouterr.InputInvalid, "sidecar: content hash is empty")
	}
	sideDir := SidecarDir(dir)
	if err := os.MkdirAll(sideDir, 0o755); err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: create %s", sideDir)
	}

	data, err := msgpack.Marshal(v)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: encode %s", hash)
	}

	final := pathFor(dir, hash)
	tmp := final + tmpSuffix

	f, err := os.Create(tmp)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: create temp file for %s", hash)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: write temp file for %s", hash)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: fsync temp file for %s", hash)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: close temp file for %s", hash)
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: rename into place for %s", hash)
	}
	return nil
}

// Load reads and decodes the sidecar at path, discriminating Image vs Video
// by the presence of the frames key.
func Load(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Entry{}, scouterr.Wrap(scouterr.AssetMissing, err, "sidecar: %s", path)
		}
		return Entry{}, scouterr.Wrap(scouterr.Fatal, err, "sidecar: read %s", path)
	}

	var probe map[string]msgpack.RawMessage
	if err := msgpack.Unmarshal(data, &probe); err != nil {
		return Entry{}, scouterr.Wrap(scouterr.SidecarCorrupt, err, "sidecar: decode %s", path)
	}

	if _, isVideo := probe["frames"]; isVideo {
		var v VideoSidecar
		if err := msgpack.Unmarshal(data, &v); err != nil {
			return Entry{}, scouterr.Wrap(scouterr.SidecarCorrupt, err, "sidecar: decode video %s", path)
		}
		if err := validateVideo(&v); err != nil {
			return Entry{}, err
		}
		assertHashMatchesFilename(path, v.ContentHash)
		return Entry{Video: &v}, nil
	}

	var img ImageSidecar
	if err := msgpack.Unmarshal(data, &img); err != nil {
		return Entry{}, scouterr.Wrap(scouterr.SidecarCorrupt, err, "sidecar: decode image %s", path)
	}
	if err := validateImage(&img); err != nil {
		return Entry{}, err
	}
	assertHashMatchesFilename(path, img.ContentHash)
	return Entry{Image: &img}, nil
}

// assertHashMatchesFilename enforces that a decoded sidecar's content_hash
// names the very file it was loaded from; save always derives the filename
// from ContentHash, so any mismatch here means the file was moved, renamed,
// or hand-edited outside this package.
func assertHashMatchesFilename(path, contentHash string) {
	stem := strings.TrimSuffix(filepath.Base(path), sidecarExt)
	invariants.Assert(context.Background(), stem == contentHash, "sidecar: content_hash %q does not match filename %q", contentHash, path)
}

func validateImage(img *ImageSidecar) error {
	if len(img.Embedding) == 0 {
		return scouterr.New(scouterr.SidecarCorrupt, "sidecar: image embedding is empty")
	}
	return nil
}

func validateVideo(v *VideoSidecar) error {
	for i := 1; i < len(v.Frames); i++ {
		if v.Frames[i].TimestampSeconds < v.Frames[i-1].TimestampSeconds {
			return scouterr.New(scouterr.SidecarCorrupt, "sidecar: video frames out of timestamp order")
		}
	}
	return nil
}

// Exists reports whether a sidecar for hash exists in dir.
func Exists(dir, hash string) bool {
	_, err := os.Stat(pathFor(dir, hash))
	return err == nil
}

// VersionOf reads only the format_version field of the sidecar at path,
// without fully decoding embeddings or frames.
func VersionOf(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", scouterr.Wrap(scouterr.AssetMissing, err, "sidecar: %s", path)
	}
	var probe struct {
		FormatVersion string `msgpack:"format_version"`
	}
	if err := msgpack.Unmarshal(data, &probe); err != nil {
		return "", scouterr.Wrap(scouterr.SidecarCorrupt, err, "sidecar: decode version of %s", path)
	}
	return probe.FormatVersion, nil
}

// Delete removes the sidecar at path. Deleting a file that does not exist is
// not an error (idempotent, matching the clean operation's use case).
func Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: delete %s", path)
	}
	return nil
}

// Ref pairs a sidecar's path with the media directory that logically owns it.
type Ref struct {
	SidecarPath string
	MediaDir    string
	Hash        string
}

// Enumerate walks root (optionally recursive) and returns a Ref for every
// sidecar found under a .scout directory, sorted by MediaDir then Hash for
// deterministic iteration order.
func Enumerate(root string, recursive bool) ([]Ref, error) {
	var refs []Ref
	walk := func(dir string) error {
		scoutDir := SidecarDir(dir)
		entries, err := os.ReadDir(scoutDir)
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return scouterr.Wrap(scouterr.Fatal, err, "sidecar: read %s", scoutDir)
		}
		for _, e := range entries {
			if e.IsDir() {
				continue
			}
			name := e.Name()
			if name == ClusterCacheFilename || !strings.HasSuffix(name, sidecarExt) {
				continue
			}
			hash := strings.TrimSuffix(name, sidecarExt)
			refs = append(refs, Ref{
				SidecarPath: filepath.Join(scoutDir, name),
				MediaDir:    dir,
				Hash:        hash,
			})
		}
		return nil
	}

	if !recursive {
		if err := walk(root); err != nil {
			return nil, err
		}
	} else {
		err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() {
				return nil
			}
			if d.Name() == DirName {
				return filepath.SkipDir
			}
			return walk(path)
		})
		if err != nil {
			return nil, scouterr.Wrap(scouterr.Fatal, err, "sidecar: enumerate %s", root)
		}
	}

	sort.Slice(refs, func(i, j int) bool {
		if refs[i].MediaDir != refs[j].MediaDir {
			return refs[i].MediaDir < refs[j].MediaDir
		}
		return refs[i].Hash < refs[j].Hash
	})
	return refs, nil
}

// SaveClusterCache atomically writes a ClusterCache to dir/.scout/clusters.msgpack.
func SaveClusterCache(dir string, c *ClusterCache) error {
	sideDir := SidecarDir(dir)
	if err := os.MkdirAll(sideDir, 0o755); err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: create %s", sideDir)
	}
	data, err := msgpack.Marshal(c)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: encode cluster cache")
	}
	final := clusterCachePath(dir)
	tmp := final + tmpSuffix
	f, err := os.Create(tmp)
	if err != nil {
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: create temp cluster cache")
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: write temp cluster cache")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: fsync temp cluster cache")
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: close temp cluster cache")
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return scouterr.Wrap(scouterr.Fatal, err, "sidecar: rename cluster cache into place")
	}
	return nil
}

// LoadClusterCache reads the cluster cache for dir, if present.
func LoadClusterCache(dir string) (*ClusterCache, error) {
	path := clusterCachePath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, scouterr.Wrap(scouterr.AssetMissing, err, "sidecar: %s", path)
		}
		return nil, scouterr.Wrap(scouterr.Fatal, err, "sidecar: read %s", path)
	}
	var c ClusterCache
	if err := msgpack.Unmarshal(data, &c); err != nil {
		return nil, scouterr.Wrap(scouterr.SidecarCorrupt, err, "sidecar: decode cluster cache %s", path)
	}
	// msgpack decodes timestamps in the local zone; GeneratedAt is written in
	// UTC, so convert back to keep a loaded cache equal to the saved one.
	c.GeneratedAt = c.GeneratedAt.UTC()
	return &c, nil
}

func clusterCachePath(dir string) string {
	return filepath.Join(SidecarDir(dir), ClusterCacheFilename)
}
