// Package filesystem provides a driven.Corpus over a directory tree where
// each document's type is the name of its parent directory:
//
//	data/samples/invoice/inv-001.png
//	data/samples/receipt/r-17.jpg
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure Corpus implements the interface.
var _ driven.Corpus = (*Corpus)(nil)

// DefaultSettleDelay is how long a watched file must stay quiet before it
// is emitted.
const DefaultSettleDelay = 250 * time.Millisecond

// Corpus reads labelled documents from disk.
type Corpus struct {
	extensions map[string]bool
	settle     time.Duration
}

// New creates a corpus accepting files with the given extensions.
// An empty list accepts every file.
func New(extensions []string) *Corpus {
	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}
	return &Corpus{extensions: exts, settle: DefaultSettleDelay}
}

// Scan walks root and returns every accepted file below a type directory,
// sorted by path. Hidden files and directories are skipped, as are files
// directly in root since they carry no type.
func (c *Corpus) Scan(ctx context.Context, root string) ([]domain.CorpusDocument, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root path error: %s is not a directory", root)
	}

	var docs []domain.CorpusDocument
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path != root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if doc, ok := c.document(root, path); ok {
			docs = append(docs, doc)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Read returns the file contents.
func (c *Corpus) Read(_ context.Context, doc domain.CorpusDocument) ([]byte, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", doc.Path, err)
	}
	return data, nil
}

// Watch emits accepted files created or written anywhere under root once
// they have seen no events for the settle delay. A file written again
// later is emitted again. New directories are watched as they appear.
func (c *Corpus) Watch(ctx context.Context, root string) (<-chan domain.CorpusDocument, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, fmt.Errorf("root path error: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := addTree(watcher, root); err != nil {
		watcher.Close()
		return nil, err
	}

	out := make(chan domain.CorpusDocument)
	settled := make(chan string)
	done := make(chan struct{})
	go func() {
		defer close(out)
		defer watcher.Close()
		defer close(done)

		pending := make(map[string]*time.Timer)
		defer func() {
			for _, t := range pending {
				t.Stop()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				path, ok := c.handleEvent(watcher, root, event)
				if !ok {
					continue
				}
				if t, found := pending[path]; found {
					t.Reset(c.settle)
					continue
				}
				pending[path] = time.AfterFunc(c.settle, func() {
					select {
					case settled <- path:
					case <-done:
					}
				})
			case path := <-settled:
				delete(pending, path)
				doc, ok := c.settledDocument(root, path)
				if !ok {
					continue
				}
				select {
				case out <- doc:
				case <-ctx.Done():
					return
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Corpus watcher error: %v", err)
			}
		}
	}()
	return out, nil
}

// handleEvent returns the path of a file touched by a create or write
// event. Newly created directories are added to the watcher instead.
func (c *Corpus) handleEvent(watcher *fsnotify.Watcher, root string, event fsnotify.Event) (string, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return "", false
	}
	if isHidden(filepath.Base(event.Name)) {
		return "", false
	}

	info, err := os.Stat(event.Name)
	if err != nil {
		return "", false
	}
	if info.IsDir() {
		if event.Has(fsnotify.Create) {
			if err := addTree(watcher, event.Name); err != nil {
				logger.Warn("Cannot watch %s: %v", event.Name, err)
			}
		}
		return "", false
	}
	if _, ok := c.document(root, event.Name); !ok {
		return "", false
	}
	return event.Name, true
}

// settledDocument re-checks a quiet path, which may have been removed or
// renamed meanwhile.
func (c *Corpus) settledDocument(root, path string) (domain.CorpusDocument, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return domain.CorpusDocument{}, false
	}
	return c.document(root, path)
}

func (c *Corpus) document(root, path string) (domain.CorpusDocument, bool) {
	if len(c.extensions) > 0 && !c.extensions[strings.ToLower(filepath.Ext(path))] {
		return domain.CorpusDocument{}, false
	}
	parent := filepath.Dir(path)
	if filepath.Clean(parent) == filepath.Clean(root) {
		return domain.CorpusDocument{}, false
	}
	return domain.CorpusDocument{
		Path:         path,
		Filename:     filepath.Base(path),
		DocumentType: filepath.Base(parent),
	}, true
}

func addTree(watcher *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isHidden(d.Name()) {
			return filepath.SkipDir
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watching %s: %w", path, err)
		}
		return nil
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}
