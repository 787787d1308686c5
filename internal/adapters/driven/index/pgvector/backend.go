// Package pgvector provides a driven.IndexBackend on PostgreSQL with the
// pgvector extension, accessed through GORM. Similarity ranking runs in the
// database using the cosine distance operator.
package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure IndexBackend implements the interface.
var _ driven.IndexBackend = (*IndexBackend)(nil)

type indexModel struct {
	Name      string    `gorm:"type:text;primaryKey"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (indexModel) TableName() string {
	return "docintel_indexes"
}

type recordModel struct {
	IndexName    string          `gorm:"type:text;primaryKey"`
	ID           string          `gorm:"type:text;primaryKey"`
	Content      string          `gorm:"type:text;not null"`
	DocumentType string          `gorm:"type:text;not null;index"`
	Filename     string          `gorm:"type:text"`
	Metadata     datatypes.JSON  `gorm:"type:jsonb"`
	Embedding    pgvector.Vector `gorm:"type:vector"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime"`
}

func (recordModel) TableName() string {
	return "docintel_records"
}

type scoredRecord struct {
	recordModel
	Similarity float64
}

// IndexBackend stores records in two tables shared by all indexes.
type IndexBackend struct {
	db       *gorm.DB
	embedder driven.EmbeddingService

	schemaMu sync.Mutex
	migrated bool
}

// Open prepares a connection pool for dsn without contacting the server.
// The schema is migrated on first use.
func Open(dsn string, embedder driven.EmbeddingService) (*IndexBackend, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:               gormlogger.Default.LogMode(gormlogger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("pgvector: connect: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("pgvector: connection pool: %w", err)
	}
	sqlDB.SetMaxIdleConns(4)
	sqlDB.SetMaxOpenConns(16)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return NewIndexBackend(db, embedder), nil
}

// NewIndexBackend wraps an open GORM handle. The schema is migrated lazily.
func NewIndexBackend(db *gorm.DB, embedder driven.EmbeddingService) *IndexBackend {
	return &IndexBackend{db: db, embedder: embedder}
}

// Migrate creates the extension and tables if missing.
func (b *IndexBackend) Migrate(ctx context.Context) error {
	db := b.db.WithContext(ctx)
	if err := db.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("pgvector: enable extension: %w", err)
	}
	if err := db.AutoMigrate(&indexModel{}, &recordModel{}); err != nil {
		return fmt.Errorf("pgvector: migrate: %w", err)
	}
	return nil
}

// ensureSchema runs Migrate once per backend. A failed attempt is retried
// on the next call.
func (b *IndexBackend) ensureSchema(ctx context.Context) error {
	b.schemaMu.Lock()
	defer b.schemaMu.Unlock()
	if b.migrated {
		return nil
	}
	if err := b.Migrate(ctx); err != nil {
		return err
	}
	b.migrated = true
	return nil
}

// Name returns the backend name.
func (b *IndexBackend) Name() string {
	return string(domain.IndexBackendPGVector)
}

// IndexExists reports whether the index row exists.
func (b *IndexBackend) IndexExists(ctx context.Context, index string) (bool, error) {
	if err := b.ensureSchema(ctx); err != nil {
		return false, err
	}
	var n int64
	if err := b.db.WithContext(ctx).Model(&indexModel{}).Where("name = ?", index).Count(&n).Error; err != nil {
		return false, fmt.Errorf("pgvector: check index: %w", err)
	}
	return n > 0, nil
}

// CreateIndex inserts the index row, ignoring a concurrent insert.
func (b *IndexBackend) CreateIndex(ctx context.Context, index string) error {
	if err := b.ensureSchema(ctx); err != nil {
		return err
	}
	err := b.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&indexModel{Name: index}).Error
	if err != nil {
		return fmt.Errorf("pgvector: create index: %w", err)
	}
	return nil
}

// DeleteIndex removes the index and its records in one transaction.
func (b *IndexBackend) DeleteIndex(ctx context.Context, index string) error {
	if err := b.ensureSchema(ctx); err != nil {
		return err
	}
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("index_name = ?", index).Delete(&recordModel{}).Error; err != nil {
			return fmt.Errorf("pgvector: delete records: %w", err)
		}
		res := tx.Where("name = ?", index).Delete(&indexModel{})
		if res.Error != nil {
			return fmt.Errorf("pgvector: delete index: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrIndexNotFound
		}
		return nil
	})
}

// AddDocuments embeds and upserts records. Records with blank content are
// rejected individually.
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

	models := make([]recordModel, 0, len(accepted))
	for i, rec := range accepted {
		m, err := toModel(index, rec, vectors[i])
		if err != nil {
			result.Errors = append(result.Errors, driven.RecordError{ID: rec.ID, Message: err.Error()})
			continue
		}
		models = append(models, m)
	}
	if len(models) == 0 {
		return result, nil
	}

	err = b.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "index_name"}, {Name: "id"}},
			UpdateAll: true,
		}).
		Create(&models).Error
	if err != nil {
		return result, fmt.Errorf("pgvector: upsert: %w", err)
	}
	return result, nil
}

// Search ranks records by cosine distance in the database.
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
	qv := pgvector.NewVector(vector)

	// Cosine distance is 1 - cosine similarity.
	var rows []scoredRecord
	err = b.db.WithContext(ctx).
		Table(recordModel{}.TableName()).
		Select("*, 1 - (embedding <=> ?) AS similarity", qv).
		Where("index_name = ?", index).
		Order(gorm.Expr("embedding <=> ?", qv)).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pgvector: search: %w", err)
	}

	hits := make([]driven.IndexHit, len(rows))
	for i, r := range rows {
		hits[i] = driven.IndexHit{Record: fromModel(r.recordModel), Score: r.Similarity}
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

	var rows []recordModel
	err = b.db.WithContext(ctx).
		Omit("embedding").
		Where("index_name = ?", index).
		Order("id").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("pgvector: sample: %w", err)
	}

	records := make([]domain.IndexRecord, len(rows))
	for i, r := range rows {
		records[i] = fromModel(r)
	}
	return records, nil
}

// Close closes the connection pool.
func (b *IndexBackend) Close() error {
	sqlDB, err := b.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toModel(index string, rec domain.IndexRecord, vector []float32) (recordModel, error) {
	if len(vector) == 0 {
		return recordModel{}, errors.New("empty embedding")
	}
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return recordModel{}, fmt.Errorf("encode metadata: %w", err)
	}
	return recordModel{
		IndexName:    index,
		ID:           rec.ID,
		Content:      rec.Content,
		DocumentType: rec.DocumentType,
		Filename:     rec.Filename,
		Metadata:     datatypes.JSON(meta),
		Embedding:    pgvector.NewVector(vector),
	}, nil
}

func fromModel(m recordModel) domain.IndexRecord {
	rec := domain.IndexRecord{
		ID:           m.ID,
		Content:      m.Content,
		DocumentType: m.DocumentType,
		Filename:     m.Filename,
	}
	if len(m.Metadata) > 0 {
		if err := json.Unmarshal(m.Metadata, &rec.Metadata); err != nil {
			logger.Debug("pgvector: record %s has malformed metadata: %v", m.ID, err)
		}
	}
	return rec
}
