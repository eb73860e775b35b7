// Package scanner walks a directory tree and decides, file by file, whether
// each entry should be indexed, skipped, or filtered out.
package scanner

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	ignore "github.com/sabhiram/go-gitignore"
	"github.com/sourcegraph/conc/pool"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/ZanzyTHEbar/scout/hashing"
	"github.com/ZanzyTHEbar/scout/media"
	"github.com/ZanzyTHEbar/scout/sidecar"
)

// IgnoreFilename is the per-directory ignore file recognized by the scanner.
const IgnoreFilename = ".scoutignore"

// Accepted is one file the scanner decided to (re)index.
type Accepted struct {
	Path string
	Kind media.Kind
	Hash hashing.FileHash
}

// Counts aggregates the outcome of a scan across every visited entry.
type Counts struct {
	Accepted           int64
	SkipFiltered       int64
	SkipAlreadyIndexed int64
	SkipOutdated       int64
	Errors             int64
}

// Scanner walks directories applying the fixed filter pipeline.
type Scanner struct {
	opts          ScanOptions
	extraMatcher  *ignore.GitIgnore
}

// New builds a Scanner with the given options.
func New(opts ScanOptions) *Scanner {
	return &Scanner{opts: opts, extraMatcher: compileExtraMatcher(opts.ExcludePatterns)}
}

func compileExtraMatcher(patterns []string) *ignore.GitIgnore {
	if len(patterns) == 0 {
		return nil
	}
	return ignore.CompileIgnoreLines(patterns...)
}

type ignoreScope struct {
	matcher *ignore.GitIgnore
	baseDir string
}

// Scan walks root and invokes onAccept, serially, for every Accept decision.
// onAccept may run on any of the pool's goroutines, but calls are serialized
// by a mutex, so it may safely append to a slice without its own locking.
func (s *Scanner) Scan(ctx context.Context, root string, onAccept func(Accepted)) (*Counts, error) {
	counts := &Counts{}
	var mu sync.Mutex

	workers := s.opts.WorkerCount
	if workers < 1 {
		workers = 1
	}
	p := pool.New().WithContext(ctx).WithMaxGoroutines(workers)

	var walk func(dir string, scope ignoreScope)
	walk = func(dir string, scope ignoreScope) {
		p.Go(func(ctx context.Context) error {
			return s.processDir(ctx, dir, scope, counts, &mu, onAccept, walk)
		})
	}
	walk(root, ignoreScope{})

	if err := p.Wait(); err != nil {
		return counts, err
	}
	return counts, nil
}

func (s *Scanner) processDir(ctx context.Context, dir string, scope ignoreScope, counts *Counts, mu *sync.Mutex, onAccept func(Accepted), walk func(string, ignoreScope)) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		atomic.AddInt64(&counts.Errors, 1)
		return nil
	}

	if own, ok := loadIgnoreFile(dir); ok {
		scope = ignoreScope{matcher: own, baseDir: dir}
	}

	for _, e := range entries {
		if e.IsDir() {
			if e.Name() == sidecar.DirName {
				continue
			}
			if s.opts.Recursive {
				walk(filepath.Join(dir, e.Name()), scope)
			}
			continue
		}

		path := filepath.Join(dir, e.Name())
		kind := media.Classify(path)
		if kind == media.Unsupported {
			atomic.AddInt64(&counts.SkipFiltered, 1)
			continue
		}

		if scope.matcher != nil {
			rel, err := filepath.Rel(scope.baseDir, path)
			if err == nil && scope.matcher.MatchesPath(rel) {
				atomic.AddInt64(&counts.SkipFiltered, 1)
				continue
			}
		}
		if s.extraMatcher != nil && s.extraMatcher.MatchesPath(e.Name()) {
			atomic.AddInt64(&counts.SkipFiltered, 1)
			continue
		}

		info, err := e.Info()
		if err != nil {
			atomic.AddInt64(&counts.Errors, 1)
			continue
		}
		if s.violatesSizeFilters(info.Size()) {
			atomic.AddInt64(&counts.SkipFiltered, 1)
			continue
		}
		if kind == media.Image && s.opts.MinResolutionPx > 0 {
			ok, err := meetsMinResolution(path, s.opts.MinResolutionPx)
			if err != nil {
				atomic.AddInt64(&counts.Errors, 1)
				continue
			}
			if !ok {
				atomic.AddInt64(&counts.SkipFiltered, 1)
				continue
			}
		}

		hash, err := hashing.HashFile(path)
		if err != nil {
			atomic.AddInt64(&counts.Errors, 1)
			continue
		}

		sidecarPath := filepath.Join(sidecar.SidecarDir(dir), hash.String()+".msgpack")
		if sidecar.Exists(dir, hash.String()) {
			version, err := sidecar.VersionOf(sidecarPath)
			if err != nil {
				atomic.AddInt64(&counts.Errors, 1)
				continue
			}
			if version == s.opts.CoreVersion {
				atomic.AddInt64(&counts.SkipAlreadyIndexed, 1)
				continue
			}
			if !s.opts.Force {
				atomic.AddInt64(&counts.SkipOutdated, 1)
				continue
			}
			// Force set: fall through to Accept.
		}

		atomic.AddInt64(&counts.Accepted, 1)
		mu.Lock()
		onAccept(Accepted{Path: path, Kind: kind, Hash: hash})
		mu.Unlock()
	}
	return nil
}

// AcceptPath applies the same per-file decision Scan makes during a
// directory walk, for a single path encountered outside of one (the watch
// package's reaction to an individual filesystem event). The nearest
// .scoutignore at or above the file's directory applies.
func AcceptPath(path string, opts ScanOptions) (Accepted, bool, error) {
	kind := media.Classify(path)
	if kind == media.Unsupported {
		return Accepted{}, false, nil
	}

	dir := filepath.Dir(path)
	for d := dir; ; d = filepath.Dir(d) {
		if matcher, ok := loadIgnoreFile(d); ok {
			rel, err := filepath.Rel(d, path)
			if err == nil && matcher.MatchesPath(rel) {
				return Accepted{}, false, nil
			}
			break
		}
		if filepath.Dir(d) == d {
			break
		}
	}
	if extra := compileExtraMatcher(opts.ExcludePatterns); extra != nil && extra.MatchesPath(filepath.Base(path)) {
		return Accepted{}, false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return Accepted{}, false, err
	}

	s := &Scanner{opts: opts}
	if s.violatesSizeFilters(info.Size()) {
		return Accepted{}, false, nil
	}
	if kind == media.Image && opts.MinResolutionPx > 0 {
		ok, err := meetsMinResolution(path, opts.MinResolutionPx)
		if err != nil {
			return Accepted{}, false, err
		}
		if !ok {
			return Accepted{}, false, nil
		}
	}

	hash, err := hashing.HashFile(path)
	if err != nil {
		return Accepted{}, false, err
	}

	if sidecar.Exists(dir, hash.String()) {
		sidecarPath := filepath.Join(sidecar.SidecarDir(dir), hash.String()+".msgpack")
		version, err := sidecar.VersionOf(sidecarPath)
		if err != nil {
			return Accepted{}, false, err
		}
		if version == opts.CoreVersion {
			return Accepted{}, false, nil
		}
		if !opts.Force {
			return Accepted{}, false, nil
		}
	}

	return Accepted{Path: path, Kind: kind, Hash: hash}, true, nil
}

func (s *Scanner) violatesSizeFilters(sizeBytes int64) bool {
	if s.opts.MinSizeKB > 0 && sizeBytes < s.opts.MinSizeKB*1024 {
		return true
	}
	if s.opts.MaxSizeMB > 0 && sizeBytes > s.opts.MaxSizeMB*1024*1024 {
		return true
	}
	return false
}

func loadIgnoreFile(dir string) (*ignore.GitIgnore, bool) {
	path := filepath.Join(dir, IgnoreFilename)
	if _, err := os.Stat(path); err != nil {
		return nil, false
	}
	matcher, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil, false
	}
	return matcher, true
}

// meetsMinResolution reads only the image header (via image.DecodeConfig) to
// determine dimensions without decoding the full raster.
func meetsMinResolution(path string, minShortestSide int) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("scanner: open %s: %w", path, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return false, fmt.Errorf("scanner: decode header %s: %w", path, err)
	}
	shortest := cfg.Width
	if cfg.Height < shortest {
		shortest = cfg.Height
	}
	return shortest >= minShortestSide, nil
}
