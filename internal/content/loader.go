package content

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"cdr-tool/internal/content/editions"
	"cdr-tool/internal/domain"
)

// Loader fetches a content edition from a backing store (files, database, document store).
type Loader interface {
	LoadContent(ctx context.Context, edition string) (*domain.Content, error)
}

var sourceExtensions = []string{".yaml", ".yml", ".json"}

// FSLoader reads editions stored as <edition>.yaml|.yml|.json in a file system.
type FSLoader struct {
	fsys fs.FS
}

func NewFSLoader(fsys fs.FS) *FSLoader {
	return &FSLoader{fsys: fsys}
}

// Embedded returns a loader over the editions compiled into the binary.
func Embedded() *FSLoader {
	return NewFSLoader(editions.FS)
}

func (l *FSLoader) LoadContent(_ context.Context, edition string) (*domain.Content, error) {
	data, err := l.Source(edition)
	if err != nil {
		return nil, err
	}
	return Parse(edition, data)
}

// Source returns the raw document for an edition.
func (l *FSLoader) Source(edition string) ([]byte, error) {
	if edition == "" || strings.ContainsAny(edition, `/\`) {
		return nil, fmt.Errorf("%w: %q", domain.ErrContentNotFound, edition)
	}
	for _, ext := range sourceExtensions {
		data, err := fs.ReadFile(l.fsys, edition+ext)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read edition %s: %w", edition, err)
		}
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrContentNotFound, edition)
}

// Editions lists the edition keys available in the file system.
func (l *FSLoader) Editions() ([]string, error) {
	entries, err := fs.ReadDir(l.fsys, ".")
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := path.Ext(e.Name())
		if !contains(sourceExtensions, ext) {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ext)
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out, nil
}

// StaticLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticLoader struct {
	contents map[string]*domain.Content
}

func NewStaticLoader(contents map[string]*domain.Content) *StaticLoader {
	return &StaticLoader{contents: contents}
}

func (l *StaticLoader) LoadContent(_ context.Context, edition string) (*domain.Content, error) {
	if c, ok := l.contents[edition]; ok {
		return c, nil
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrContentNotFound, edition)
}
