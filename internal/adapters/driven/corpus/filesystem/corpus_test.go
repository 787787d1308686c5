package filesystem

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docintel/internal/core/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "invoice", "b.png"), "b")
	writeFile(t, filepath.Join(root, "invoice", "a.png"), "a")
	writeFile(t, filepath.Join(root, "receipt", "nested", "r.jpg"), "r")
	writeFile(t, filepath.Join(root, "receipt", "notes.docx"), "skip")
	writeFile(t, filepath.Join(root, "receipt", ".hidden.png"), "skip")
	writeFile(t, filepath.Join(root, ".cache", "invoice", "x.png"), "skip")
	writeFile(t, filepath.Join(root, "top.png"), "skip")

	docs, err := New([]string{".png", ".JPG"}).Scan(context.Background(), root)

	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, domain.CorpusDocument{
		Path: filepath.Join(root, "invoice", "a.png"), Filename: "a.png", DocumentType: "invoice",
	}, docs[0])
	assert.Equal(t, "b.png", docs[1].Filename)
	assert.Equal(t, "nested", docs[2].DocumentType, "type is the immediate parent directory")
}

func TestScan_AllExtensions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "contract", "c.any"), "c")

	docs, err := New(nil).Scan(context.Background(), root)

	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestScan_MissingRoot(t *testing.T) {
	_, err := New(nil).Scan(context.Background(), "/non/existent/path")

	assert.ErrorContains(t, err, "root path error")
}

func TestRead(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "invoice", "a.txt")
	writeFile(t, path, "hello")

	data, err := New(nil).Read(context.Background(), domain.CorpusDocument{Path: path})

	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestWatch_EmitsCreatedFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "invoice"), 0755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := New([]string{".png"}).Watch(ctx, root)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(root, "invoice", "skip.docx"), []byte("x"), 0644)
		_ = os.WriteFile(filepath.Join(root, "invoice", "new.png"), []byte("x"), 0644)
	}()

	select {
	case doc := <-events:
		assert.Equal(t, "new.png", doc.Filename)
		assert.Equal(t, "invoice", doc.DocumentType)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for created file")
	}
}

func TestWatch_ClosesOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	events, err := New(nil).Watch(ctx, t.TempDir())
	require.NoError(t, err)

	cancel()

	select {
	case _, ok := <-events:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after cancel")
	}
}

func TestWatch_MissingRoot(t *testing.T) {
	events, err := New(nil).Watch(context.Background(), "/non/existent/path")

	assert.Error(t, err)
	assert.Nil(t, events)
}

func TestWatch_WaitsForWritesToSettle(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "invoice"), 0755))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New([]string{".txt"})
	events, err := c.Watch(ctx, root)
	require.NoError(t, err)

	path := filepath.Join(root, "invoice", "late.txt")
	go func() {
		time.Sleep(50 * time.Millisecond)
		f, err := os.Create(path)
		if err != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
		_, _ = f.WriteString("INVOICE\nTotal Amount: $10.00")
		_ = f.Close()
	}()

	select {
	case doc := <-events:
		assert.Equal(t, "late.txt", doc.Filename)
		data, err := c.Read(ctx, doc)
		require.NoError(t, err)
		assert.Contains(t, string(data), "INVOICE", "file is emitted after its content is written")
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for written file")
	}
}

func TestWatch_EmitsRewrittenFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "receipt", "r.txt")
	writeFile(t, path, "old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := New([]string{".txt"})
	c.settle = 20 * time.Millisecond
	events, err := c.Watch(ctx, root)
	require.NoError(t, err)

	go func() {
		time.Sleep(50 * time.Millisecond)
		_ = os.WriteFile(path, []byte("receipt total"), 0644)
	}()

	select {
	case doc := <-events:
		assert.Equal(t, "receipt", doc.DocumentType)
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for rewritten file")
	}
}
