package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docintel/internal/adapters/driven/index/sqlite/migrations"
	"github.com/custodia-labs/docintel/internal/adapters/driven/index/vectorutil"
	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

// Ensure IndexBackend implements the interface.
var _ driven.IndexBackend = (*IndexBackend)(nil)

// DatabaseFile is the file name inside the data directory.
const DatabaseFile = "index.db"

// IndexBackend stores records and their embeddings in SQLite.
type IndexBackend struct {
	db       *sql.DB
	path     string
	embedder driven.EmbeddingService
}

// NewIndexBackend opens (or creates) the database in dataDir.
// If dataDir is empty, defaults to ~/.docintel/data.
func NewIndexBackend(dataDir string, embedder driven.EmbeddingService) (*IndexBackend, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docintel", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL lets status queries run while warm-up writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	b := &IndexBackend{db: db, path: dbPath, embedder: embedder}
	if err := b.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return b, nil
}

// Name returns the backend name.
func (b *IndexBackend) Name() string {
	return string(domain.IndexBackendSQLite)
}

// Path returns the database file path.
func (b *IndexBackend) Path() string {
	return b.path
}

// IndexExists reports whether the index row exists.
func (b *IndexBackend) IndexExists(ctx context.Context, index string) (bool, error) {
	var n int
	err := b.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM indexes WHERE name = ?", index).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("checking index: %w", err)
	}
	return n > 0, nil
}

// CreateIndex inserts the index row if it is missing.
func (b *IndexBackend) CreateIndex(ctx context.Context, index string) error {
	if _, err := b.db.ExecContext(ctx, "INSERT OR IGNORE INTO indexes (name) VALUES (?)", index); err != nil {
		return fmt.Errorf("creating index: %w", err)
	}
	return nil
}

// DeleteIndex removes the index; its records cascade.
func (b *IndexBackend) DeleteIndex(ctx context.Context, index string) error {
	res, err := b.db.ExecContext(ctx, "DELETE FROM indexes WHERE name = ?", index)
	if err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting index: %w", err)
	}
	if n == 0 {
		return domain.ErrIndexNotFound
	}
	return nil
}

// AddDocuments embeds records and upserts them in one transaction.
// Records with blank content are rejected individually.
func (b *IndexBackend) AddDocuments(ctx context.Context, index string, records []domain.IndexRecord) (driven.AddResult, error) {
	var result driven.AddResult
	accepted := make([]domain.IndexRecord, 0, len(records))
	texts := make([]string, 0, len(records))
	for _, rec := range records {
		if strings.TrimSpace(rec.Content) == "" {
			result.Errors = append(result.Errors, driven.RecordError{ID: rec.ID, Message: "empty content"})
			continue
		}
		accepted = append(accepted, rec)
		texts = append(texts, rec.Content)
	}
	if len(accepted) == 0 {
		return result, nil
	}

	exists, err := b.IndexExists(ctx, index)
	if err != nil {
		return result, err
	}
	if !exists {
		return result, domain.ErrIndexNotFound
	}

	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return result, fmt.Errorf("embed records: %w", err)
	}

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (index_name, id, content, document_type, filename, metadata, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(index_name, id) DO UPDATE SET
			content = excluded.content,
			document_type = excluded.document_type,
			filename = excluded.filename,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return result, fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range accepted {
		meta, err := json.Marshal(rec.Metadata)
		if err != nil {
			result.Errors = append(result.Errors, driven.RecordError{ID: rec.ID, Message: err.Error()})
			continue
		}
		_, err = stmt.ExecContext(ctx, index, rec.ID, rec.Content, rec.DocumentType, rec.Filename,
			string(meta), vectorutil.Encode(vectors[i]))
		if err != nil {
			return result, fmt.Errorf("inserting record %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("committing records: %w", err)
	}
	return result, nil
}

// Search embeds the query and ranks every record in the index.
func (b *IndexBackend) Search(ctx context.Context, index, query string, limit int) ([]driven.IndexHit, error) {
	exists, err := b.IndexExists(ctx, index)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrIndexNotFound
	}

	vector, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	rows, err := b.db.QueryContext(ctx, "SELECT id, embedding FROM records WHERE index_name = ?", index)
	if err != nil {
		return nil, fmt.Errorf("querying embeddings: %w", err)
	}
	defer rows.Close()

	var scored []vectorutil.Scored
	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return nil, fmt.Errorf("scanning embedding: %w", err)
		}
		stored, err := vectorutil.Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		s, err := vectorutil.Cosine(vector, stored)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", id, err)
		}
		scored = append(scored, vectorutil.Scored{Key: id, Score: s})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	top := vectorutil.TopK(scored, limit)
	hits := make([]driven.IndexHit, 0, len(top))
	for _, s := range top {
		rec, err := b.get(ctx, index, s.Key)
		if err != nil {
			return nil, err
		}
		hits = append(hits, driven.IndexHit{Record: rec, Score: s.Score})
	}
	return hits, nil
}

// Sample returns up to limit records ordered by ID.
func (b *IndexBackend) Sample(ctx context.Context, index string, limit int) ([]domain.IndexRecord, error) {
	exists, err := b.IndexExists(ctx, index)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, domain.ErrIndexNotFound
	}

	rows, err := b.db.QueryContext(ctx, `
		SELECT id, content, document_type, filename, metadata
		FROM records WHERE index_name = ? ORDER BY id LIMIT ?
	`, index, limit)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []domain.IndexRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the database connection.
func (b *IndexBackend) Close() error {
	return b.db.Close()
}

func (b *IndexBackend) get(ctx context.Context, index, id string) (domain.IndexRecord, error) {
	row := b.db.QueryRowContext(ctx, `
		SELECT id, content, document_type, filename, metadata
		FROM records WHERE index_name = ? AND id = ?
	`, index, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return rec, fmt.Errorf("record %s: %w", id, domain.ErrNotFound)
	}
	return rec, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (domain.IndexRecord, error) {
	var rec domain.IndexRecord
	var meta string
	if err := row.Scan(&rec.ID, &rec.Content, &rec.DocumentType, &rec.Filename, &meta); err != nil {
		return rec, err
	}
	if meta != "" && meta != "null" {
		if err := json.Unmarshal([]byte(meta), &rec.Metadata); err != nil {
			return rec, fmt.Errorf("unmarshalling metadata: %w", err)
		}
	}
	return rec, nil
}

// migrate runs all pending migrations and records each applied version.
func (b *IndexBackend) migrate(fsys embed.FS) error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	if err := b.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil || version <= current {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := b.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := b.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}
