package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/fmrimap/internal/config"
	"github.com/fyrsmithlabs/fmrimap/internal/ignore"
	"github.com/fyrsmithlabs/fmrimap/internal/logging"
	"github.com/fyrsmithlabs/fmrimap/internal/pathutil"
)

// Signature is the set of entries a directory must contain to be a dataset.
type Signature struct {
	Files []string
	Dirs  []string
}

// MetadataOptions locates the subject fields inside a dataset.
type MetadataOptions struct {
	SubjectFile   string
	SubjectIDLine int
	StudyNameLine int
}

// ScanOptions configures a Scanner.
type ScanOptions struct {
	// MinDepth and MaxDepth bound candidate depth relative to the root
	// (root itself is depth 0). Directories deeper than MaxDepth are never
	// entered.
	MinDepth int
	MaxDepth int

	Signature Signature

	// Exclude holds doublestar patterns matched against slash-separated
	// paths relative to the root. A match prunes the subtree.
	Exclude []string

	// IgnoreFile names a gitignore-style file in the root whose patterns
	// are added to Exclude for that scan. Empty disables it.
	IgnoreFile string

	FollowSymlinks bool

	Metadata MetadataOptions
}

// OptionsFromConfig maps the scan and metadata sections of cfg.
func OptionsFromConfig(cfg *config.Config) ScanOptions {
	return ScanOptions{
		MinDepth: cfg.Scan.MinDepth,
		MaxDepth: cfg.Scan.MaxDepth,
		Signature: Signature{
			Files: cfg.Scan.MarkerFiles,
			Dirs:  cfg.Scan.MarkerDirs,
		},
		Exclude:        cfg.Scan.Exclude,
		IgnoreFile:     cfg.Scan.IgnoreFile,
		FollowSymlinks: cfg.Scan.FollowSymlinks,
		Metadata: MetadataOptions{
			SubjectFile:   cfg.Metadata.SubjectFile,
			SubjectIDLine: cfg.Metadata.SubjectIDLine,
			StudyNameLine: cfg.Metadata.StudyNameLine,
		},
	}
}

// Scanner finds datasets below a root directory.
type Scanner struct {
	opts   ScanOptions
	logger *logging.Logger
}

// NewScanner validates opts and returns a Scanner. A nil logger discards
// output.
func NewScanner(opts ScanOptions, logger *logging.Logger) (*Scanner, error) {
	if opts.MinDepth < 0 || opts.MaxDepth < opts.MinDepth {
		return nil, fmt.Errorf("invalid depth bounds [%d, %d]", opts.MinDepth, opts.MaxDepth)
	}
	if len(opts.Signature.Files) == 0 && len(opts.Signature.Dirs) == 0 {
		return nil, fmt.Errorf("empty dataset signature")
	}
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Scanner{opts: opts, logger: logger.Named("scanner")}, nil
}

// Scan walks root and returns matching datasets in discovery order, which
// is lexical walk order. Each resolved directory is reported at most once.
// Unreadable entries are skipped; only an invalid root is an error.
func (s *Scanner) Scan(ctx context.Context, root string) ([]Dataset, error) {
	abs, err := pathutil.Resolve(root)
	if err != nil {
		return nil, err
	}

	w := &walk{
		Scanner:  s,
		root:     abs,
		exclude:  s.ExcludePatterns(ctx, abs),
		visited:  make(map[string]int),
		reported: make(map[string]bool),
	}
	if err := w.dir(ctx, abs, "", 0); err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "scan complete",
		zap.String("root", abs),
		zap.Int("datasets", len(w.found)),
		zap.Int("directories", len(w.visited)),
	)
	return w.found, nil
}

// ExcludePatterns returns the configured exclude globs followed by the
// patterns of the ignore file in root, relative to root. An unreadable or
// invalid ignore file is logged and left out.
func (s *Scanner) ExcludePatterns(ctx context.Context, root string) []string {
	patterns := s.opts.Exclude
	if s.opts.IgnoreFile == "" {
		return patterns
	}
	extra, err := ignore.Load(root, s.opts.IgnoreFile)
	if err != nil {
		s.logger.Warn(ctx, "exclude file not applied", zap.String("file", s.opts.IgnoreFile), zap.Error(err))
	}
	return append(patterns[:len(patterns):len(patterns)], extra...)
}

// walk holds one scan's state. visited maps each resolved directory to the
// shallowest depth it was entered at; a shallower path re-enters it, since
// a deeper visit may have stopped at MaxDepth.
type walk struct {
	*Scanner
	root     string
	exclude  []string
	visited  map[string]int
	reported map[string]bool
	found    []Dataset
}

func (w *walk) dir(ctx context.Context, path, rel string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		w.logger.Debug(ctx, "skipping unresolvable directory", zap.String("path", path), zap.Error(err))
		return nil
	}
	if seen, ok := w.visited[resolved]; ok && depth >= seen {
		return nil
	}
	w.visited[resolved] = depth

	entries, err := os.ReadDir(path)
	if err != nil {
		w.logger.Debug(ctx, "skipping unreadable directory", zap.String("path", path), zap.Error(err))
		return nil
	}

	if depth >= w.opts.MinDepth && w.matches(path, entries) {
		if !w.reported[resolved] {
			w.reported[resolved] = true
			d, err := inspect(path, resolved, w.opts.Metadata)
			if err != nil {
				w.logger.Debug(ctx, "subject metadata unavailable", zap.String("path", path), zap.Error(err))
			}
			w.found = append(w.found, d)
		}
		// Datasets do not nest; their children are runs.
		return nil
	}

	if depth >= w.opts.MaxDepth {
		return nil
	}

	for _, e := range entries {
		child := filepath.Join(path, e.Name())
		childRel := e.Name()
		if rel != "" {
			childRel = rel + "/" + e.Name()
		}

		if !e.IsDir() {
			if e.Type()&os.ModeSymlink == 0 || !w.opts.FollowSymlinks || !isDir(child, e) {
				continue
			}
		}
		if w.excluded(childRel) {
			w.logger.Trace(ctx, "excluded", zap.String("path", childRel))
			continue
		}
		if err := w.dir(ctx, child, childRel, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (w *walk) matches(path string, entries []os.DirEntry) bool {
	present := make(map[string]os.DirEntry, len(entries))
	for _, e := range entries {
		present[e.Name()] = e
	}
	for _, name := range w.opts.Signature.Files {
		e, ok := present[name]
		if !ok || isDir(filepath.Join(path, name), e) {
			return false
		}
	}
	for _, name := range w.opts.Signature.Dirs {
		e, ok := present[name]
		if !ok || !isDir(filepath.Join(path, name), e) {
			return false
		}
	}
	return true
}

func (w *walk) excluded(rel string) bool {
	for _, pattern := range w.exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
