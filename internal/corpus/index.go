// Package corpus enumerates snapshot files on disk and derives their identity
// from the <root>/<service>/<document_type>/<timestamp>.md layout.
//
// Nothing is cached: every call walks the tree again, so a corpus swapped out
// by an external download process is picked up by the next request.
package corpus

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/kailas-cloud/tosarchive/internal/domain"
	"github.com/kailas-cloud/tosarchive/internal/domain/snapshot"
)

// DefaultReadme is the file allowed at the corpus root next to service directories.
const DefaultReadme = "README.md"

// Scope selects which files Enumerate yields.
type Scope int

const (
	// ScopeCanonical yields only service/document_type/<timestamp>.md files.
	// Markdown files at any other depth are skipped.
	ScopeCanonical Scope = iota
	// ScopeAll yields every .md file at any depth, without parsing names.
	ScopeAll
)

// Config holds the corpus location and naming convention.
type Config struct {
	Root           string
	Layout         snapshot.Layout
	ReadmeFilename string
}

// Index reads the corpus under a root directory.
type Index struct {
	root   string
	layout snapshot.Layout
	readme string
}

// Open validates the root and returns an Index over it.
func Open(cfg Config) (*Index, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: root path is empty", domain.ErrInvalidCorpusRoot)
	}
	if cfg.Layout.String() == "" {
		cfg.Layout = snapshot.MustLayout(snapshot.DefaultLayout)
	}
	if cfg.ReadmeFilename == "" {
		cfg.ReadmeFilename = DefaultReadme
	}
	ix := &Index{
		root:   filepath.Clean(cfg.Root),
		layout: cfg.Layout,
		readme: cfg.ReadmeFilename,
	}
	if err := ix.Check(); err != nil {
		return nil, err
	}
	return ix, nil
}

// Root returns the cleaned root path.
func (ix *Index) Root() string { return ix.root }

// Layout returns the snapshot name layout.
func (ix *Index) Layout() snapshot.Layout { return ix.layout }

// Check verifies that the root exists and is a directory.
func (ix *Index) Check() error {
	info, err := os.Stat(ix.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s does not exist", domain.ErrInvalidCorpusRoot, ix.root)
		}
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidCorpusRoot, ix.root, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidCorpusRoot, ix.root)
	}
	return nil
}

// Enumerate returns a lazy, restartable sequence over the corpus. Each range
// over the sequence walks the tree again. Iteration stops at the first error,
// which is yielded with a zero Ref.
func (ix *Index) Enumerate(scope Scope) iter.Seq2[snapshot.Ref, error] {
	return func(yield func(snapshot.Ref, error) bool) {
		if err := ix.Check(); err != nil {
			yield(snapshot.Ref{}, err)
			return
		}
		stopped := false
		walkErr := filepath.WalkDir(ix.root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return &ReadError{Path: path, Err: err}
			}
			if d.IsDir() {
				if path != ix.root && strings.HasPrefix(d.Name(), ".") {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() || filepath.Ext(d.Name()) != snapshot.Extension {
				return nil
			}
			ref, skip, err := ix.classify(scope, path)
			if err != nil {
				return err
			}
			if skip {
				return nil
			}
			if !yield(ref, nil) {
				stopped = true
				return filepath.SkipAll
			}
			return nil
		})
		if walkErr != nil && !stopped {
			yield(snapshot.Ref{}, walkErr)
		}
	}
}

// classify turns a .md path into a Ref according to scope.
func (ix *Index) classify(scope Scope, path string) (snapshot.Ref, bool, error) {
	if scope == ScopeAll {
		return snapshot.NewFile(path), false, nil
	}
	rel, err := filepath.Rel(ix.root, path)
	if err != nil {
		return snapshot.Ref{}, false, &ReadError{Path: path, Err: err}
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")
	switch {
	case len(parts) == 1 && parts[0] == ix.readme:
		return snapshot.Ref{}, true, nil
	case len(parts) != 3:
		// Only names inside a pair directory must follow the layout.
		return snapshot.Ref{}, true, nil
	}
	captured, err := ix.layout.Parse(parts[2])
	if err != nil {
		return snapshot.Ref{}, false, fmt.Errorf("%s/%s: %w", parts[0], parts[1], err)
	}
	return snapshot.New(parts[0], parts[1], captured, path), false, nil
}

// PairDir resolves the directory of a (service, document type) pair. The
// result must stay inside the root after symlink resolution and must exist.
func (ix *Index) PairDir(service, documentType string) (string, error) {
	for _, seg := range []string{service, documentType} {
		if err := validateSegment(seg); err != nil {
			return "", fmt.Errorf("%w: %w", domain.ErrUnknownServiceOrDocumentType, err)
		}
	}
	if err := ix.Check(); err != nil {
		return "", err
	}
	root, err := filepath.EvalSymlinks(ix.root)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrInvalidCorpusRoot, err)
	}
	dir, err := filepath.EvalSymlinks(filepath.Join(ix.root, service, documentType))
	if err != nil {
		return "", fmt.Errorf("%w: %s/%s is not in the dataset directory",
			domain.ErrUnknownServiceOrDocumentType, service, documentType)
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s/%s is not in the dataset directory",
			domain.ErrUnknownServiceOrDocumentType, service, documentType)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s/%s is not a directory",
			domain.ErrUnknownServiceOrDocumentType, service, documentType)
	}
	return dir, nil
}

func validateSegment(seg string) error {
	switch {
	case seg == "":
		return errors.New("empty path segment")
	case seg == "." || seg == "..":
		return fmt.Errorf("path segment %q not allowed", seg)
	case strings.ContainsAny(seg, `/\`+"\x00"):
		return fmt.Errorf("path segment %q contains a separator", seg)
	case filepath.IsAbs(seg) || filepath.VolumeName(seg) != "":
		return fmt.Errorf("path segment %q is absolute", seg)
	}
	return nil
}

// PairStat returns the directory info of a pair, used as a change token.
func (ix *Index) PairStat(service, documentType string) (fs.FileInfo, error) {
	dir, err := ix.PairDir(service, documentType)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &ReadError{Path: dir, Err: err}
	}
	return info, nil
}

// Versions returns every snapshot of one pair, in directory order.
func (ix *Index) Versions(service, documentType string) ([]snapshot.Ref, error) {
	dir, err := ix.PairDir(service, documentType)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &ReadError{Path: dir, Err: err}
	}
	refs := make([]snapshot.Ref, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != snapshot.Extension {
			continue
		}
		captured, err := ix.layout.Parse(e.Name())
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", service, documentType, err)
		}
		refs = append(refs, snapshot.New(service, documentType, captured, filepath.Join(dir, e.Name())))
	}
	return refs, nil
}

// ListServices returns each service with its sorted document types. When
// multipleVersionsOnly is set, pairs with a single snapshot are left out.
func (ix *Index) ListServices(multipleVersionsOnly bool) (map[string][]string, error) {
	counts := make(map[snapshot.Pair]int)
	for ref, err := range ix.Enumerate(ScopeCanonical) {
		if err != nil {
			return nil, err
		}
		counts[ref.Pair()]++
	}

	threshold := 0
	if multipleVersionsOnly {
		threshold = 1
	}
	out := make(map[string][]string)
	for pair, n := range counts {
		if n > threshold {
			out[pair.Service] = append(out[pair.Service], pair.DocumentType)
		}
	}
	for svc := range out {
		sort.Strings(out[svc])
	}
	return out, nil
}

// Snapshots returns every canonical snapshot reference.
func (ix *Index) Snapshots() ([]snapshot.Ref, error) {
	var refs []snapshot.Ref
	for ref, err := range ix.Enumerate(ScopeCanonical) {
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// Open opens a snapshot for streaming reads.
func (ix *Index) Open(ref snapshot.Ref) (io.ReadCloser, error) {
	f, err := os.Open(ref.Path())
	if err != nil {
		return nil, &ReadError{Path: ref.Path(), Err: err}
	}
	return f, nil
}

// ReadContent returns the full text of a snapshot.
func (ix *Index) ReadContent(ref snapshot.Ref) (string, error) {
	data, err := os.ReadFile(ref.Path())
	if err != nil {
		return "", &ReadError{Path: ref.Path(), Err: err}
	}
	return string(data), nil
}
