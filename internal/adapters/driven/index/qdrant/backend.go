// Package qdrant provides a driven.IndexBackend for a Qdrant server over gRPC.
// Vectors come from the configured embedding service.
package qdrant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/custodia-labs/docintel/internal/core/domain"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
	"github.com/custodia-labs/docintel/internal/logger"
)

// Ensure IndexBackend implements the interface.
var _ driven.IndexBackend = (*IndexBackend)(nil)

// Payload keys.
const (
	keyID           = "record_id"
	keyContent      = "content"
	keyDocumentType = "document_type"
	keyFilename     = "filename"
	keyMetadata     = "metadata"
)

// dimensionProbe is embedded to learn the vector size when the embedder
// cannot report it up front.
const dimensionProbe = "dimension probe"

// IndexBackend stores one point per record. Point IDs are derived from
// record IDs so re-adding a record replaces it.
type IndexBackend struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	embedder    driven.EmbeddingService
}

// Dial connects to Qdrant's gRPC port without TLS.
func Dial(host string, port int, embedder driven.EmbeddingService) (*IndexBackend, error) {
	conn, err := grpc.NewClient(fmt.Sprintf("%s:%d", host, port),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect %s:%d: %w", host, port, err)
	}
	b := NewIndexBackend(pb.NewCollectionsClient(conn), pb.NewPointsClient(conn), embedder)
	b.conn = conn
	return b, nil
}

// NewIndexBackend creates a backend over existing gRPC clients.
func NewIndexBackend(collections pb.CollectionsClient, points pb.PointsClient, embedder driven.EmbeddingService) *IndexBackend {
	return &IndexBackend{collections: collections, points: points, embedder: embedder}
}

// Name returns the backend name.
func (b *IndexBackend) Name() string {
	return string(domain.IndexBackendQdrant)
}

// IndexExists lists collections and looks for the name.
func (b *IndexBackend) IndexExists(ctx context.Context, index string) (bool, error) {
	resp, err := b.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return false, fmt.Errorf("qdrant: list collections: %w", err)
	}
	for _, c := range resp.GetCollections() {
		if c.GetName() == index {
			return true, nil
		}
	}
	return false, nil
}

// CreateIndex creates a cosine collection sized for the embedder.
func (b *IndexBackend) CreateIndex(ctx context.Context, index string) error {
	size, err := b.dimensions(ctx)
	if err != nil {
		return err
	}

	_, err = b.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: index,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(size),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil && !alreadyExists(err) {
		return fmt.Errorf("qdrant: create collection: %w", err)
	}
	return nil
}

// DeleteIndex drops the collection.
func (b *IndexBackend) DeleteIndex(ctx context.Context, index string) error {
	resp, err := b.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: index})
	if status.Code(err) == codes.NotFound {
		return domain.ErrIndexNotFound
	}
	if err != nil {
		return fmt.Errorf("qdrant: delete collection: %w", err)
	}
	if !resp.GetResult() {
		return domain.ErrIndexNotFound
	}
	return nil
}

// AddDocuments embeds the records and upserts them as one batch.
func (b *IndexBackend) AddDocuments(ctx context.Context, index string, records []domain.IndexRecord) (driven.AddResult, error) {
	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Content
	}
	vectors, err := b.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return driven.AddResult{}, fmt.Errorf("embed records: %w", err)
	}

	points := make([]*pb.PointStruct, len(records))
	for i, rec := range records {
		payload, err := toPayload(rec)
		if err != nil {
			return driven.AddResult{}, err
		}
		points[i] = &pb.PointStruct{
			Id: &pb.PointId{
				PointIdOptions: &pb.PointId_Uuid{Uuid: PointID(rec.ID)},
			},
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{Vector: &pb.Vector{Data: vectors[i]}},
			},
			Payload: payload,
		}
	}

	wait := true
	_, err = b.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: index,
		Wait:           &wait,
		Points:         points,
	})
	if status.Code(err) == codes.NotFound {
		return driven.AddResult{}, domain.ErrIndexNotFound
	}
	if err != nil {
		return driven.AddResult{}, fmt.Errorf("qdrant: upsert: %w", err)
	}
	return driven.AddResult{}, nil
}

// Search embeds the query and returns the nearest points.
func (b *IndexBackend) Search(ctx context.Context, index, query string, limit int) ([]driven.IndexHit, error) {
	vector, err := b.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	resp, err := b.points.Search(ctx, &pb.SearchPoints{
		CollectionName: index,
		Vector:         vector,
		Limit:          uint64(limit),
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("qdrant: search: %w", err)
	}

	hits := make([]driven.IndexHit, len(resp.GetResult()))
	for i, p := range resp.GetResult() {
		hits[i] = driven.IndexHit{Record: fromPayload(p.GetPayload()), Score: float64(p.GetScore())}
	}
	return hits, nil
}

// Sample scrolls the first limit points.
func (b *IndexBackend) Sample(ctx context.Context, index string, limit int) ([]domain.IndexRecord, error) {
	n := uint32(limit)
	resp, err := b.points.Scroll(ctx, &pb.ScrollPoints{
		CollectionName: index,
		Limit:          &n,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if status.Code(err) == codes.NotFound {
		return nil, domain.ErrIndexNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("qdrant: scroll: %w", err)
	}

	records := make([]domain.IndexRecord, len(resp.GetResult()))
	for i, p := range resp.GetResult() {
		records[i] = fromPayload(p.GetPayload())
	}
	return records, nil
}

// Close closes the gRPC connection if this backend dialled it.
func (b *IndexBackend) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}

// PointID maps a record ID to the UUID Qdrant requires.
func PointID(recordID string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(recordID)).String()
}

func (b *IndexBackend) dimensions(ctx context.Context) (int, error) {
	if d := b.embedder.Dimensions(); d > 0 {
		return d, nil
	}
	v, err := b.embedder.Embed(ctx, dimensionProbe)
	if err != nil {
		return 0, fmt.Errorf("probe embedding size: %w", err)
	}
	if len(v) == 0 {
		return 0, errors.New("embedding service returned an empty vector")
	}
	return len(v), nil
}

func toPayload(rec domain.IndexRecord) (map[string]*pb.Value, error) {
	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return nil, fmt.Errorf("encode metadata for %s: %w", rec.ID, err)
	}
	return map[string]*pb.Value{
		keyID:           stringValue(rec.ID),
		keyContent:      stringValue(rec.Content),
		keyDocumentType: stringValue(rec.DocumentType),
		keyFilename:     stringValue(rec.Filename),
		keyMetadata:     stringValue(string(meta)),
	}, nil
}

func fromPayload(p map[string]*pb.Value) domain.IndexRecord {
	rec := domain.IndexRecord{
		ID:           p[keyID].GetStringValue(),
		Content:      p[keyContent].GetStringValue(),
		DocumentType: p[keyDocumentType].GetStringValue(),
		Filename:     p[keyFilename].GetStringValue(),
	}
	if raw := p[keyMetadata].GetStringValue(); raw != "" {
		if err := json.Unmarshal([]byte(raw), &rec.Metadata); err != nil {
			logger.Debug("qdrant: record %s has malformed metadata: %v", rec.ID, err)
		}
	}
	if rec.DocumentType == "" {
		rec.DocumentType = domain.UnknownType
	}
	return rec
}

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func alreadyExists(err error) bool {
	if status.Code(err) == codes.AlreadyExists {
		return true
	}
	return strings.Contains(strings.ToLower(status.Convert(err).Message()), "already exists")
}
