// Package qdrant provides a vector index backed by a Qdrant server.
//
// Each embedding dimensionality gets its own collection named
// "<collection>_<dims>", so vectors from different models never meet in a
// search. Point ids are derived from document ids, which makes Add an upsert.
package qdrant

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
)

// Ensure Index implements the interface.
var _ driven.VectorIndex = (*Index)(nil)

// Default configuration values.
const (
	DefaultHost       = "localhost"
	DefaultPort       = 6334
	DefaultCollection = "ragctl"
)

// Reserved payload keys.
const (
	payloadDocumentID = "document_id"
	payloadSeq        = "inserted_seq"
)

// tieSlack is the number of points fetched beyond topK on the first page.
const tieSlack = 8

// Config holds connection settings.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

// Index stores vectors in Qdrant collections.
type Index struct {
	client *qdrant.Client
	prefix string

	mu    sync.Mutex
	known map[int]bool
	now   func() time.Time
}

// New connects to Qdrant.
func New(cfg Config) (*Index, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to qdrant %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Index{
		client: client,
		prefix: cfg.Collection,
		known:  make(map[int]bool),
		now:    time.Now,
	}, nil
}

// Add upserts the vector for documentID. The document is removed from every
// other dimension's collection, so it never has more than one vector.
func (ix *Index) Add(ctx context.Context, documentID string, embedding domain.EmbeddingVector, metadata map[string]any) error {
	if err := embedding.Validate(); err != nil {
		return err
	}
	collection := collectionName(ix.prefix, embedding.Dimensions)
	if err := ix.ensureCollection(ctx, embedding.Dimensions); err != nil {
		return err
	}

	collections, err := ix.collections(ctx)
	if err != nil {
		return err
	}
	id := pointID(documentID)

	seq := ix.now().UnixNano()
	for _, c := range collections {
		existing, err := ix.client.Get(ctx, &qdrant.GetPoints{
			CollectionName: c,
			Ids:            []*qdrant.PointId{id},
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return fmt.Errorf("get point %s: %w", documentID, err)
		}
		if len(existing) == 0 {
			continue
		}
		if s, ok := existing[0].Payload[payloadSeq]; ok {
			seq = s.GetIntegerValue()
		}
		if c != collection {
			if err := ix.deletePoint(ctx, c, id); err != nil {
				return err
			}
		}
	}

	_, err = ix.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points: []*qdrant.PointStruct{{
			Id:      id,
			Vectors: qdrant.NewVectors(embedding.Values...),
			Payload: qdrant.NewValueMap(buildPayload(documentID, seq, metadata)),
		}},
	})
	if err != nil {
		return fmt.Errorf("upsert %s: %w", documentID, err)
	}
	return nil
}

// Search returns the topK points nearest to query in the collection for its
// dimensionality. Equal scores are ordered by first insertion.
func (ix *Index) Search(ctx context.Context, query domain.EmbeddingVector, topK int) ([]driven.VectorHit, error) {
	if topK <= 0 {
		return []driven.VectorHit{}, nil
	}
	if err := query.Validate(); err != nil {
		return nil, err
	}
	collection := collectionName(ix.prefix, query.Dimensions)
	exists, err := ix.client.CollectionExists(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("check collection %s: %w", collection, err)
	}
	if !exists {
		logger.Debug("qdrant: no %d-dimension collection, nothing to search", query.Dimensions)
		return []driven.VectorHit{}, nil
	}

	// Qdrant breaks ties arbitrarily, so the page is widened until the tie
	// group at position topK is complete before ordering by insertion.
	limit := uint64(topK) + tieSlack
	for {
		points, err := ix.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: collection,
			Query:          qdrant.NewQuery(query.Values...),
			Limit:          &limit,
			WithPayload:    qdrant.NewWithPayload(true),
		})
		if err != nil {
			return nil, fmt.Errorf("query %s: %w", collection, err)
		}

		hits := make([]scoredHit, 0, len(points))
		for _, p := range points {
			docID, seq, metadata := parsePayload(p.Payload)
			hits = append(hits, scoredHit{
				VectorHit: driven.VectorHit{DocumentID: docID, Score: float64(p.Score), Metadata: metadata},
				seq:       seq,
			})
		}
		if needsWiderPage(hits, topK, limit) {
			limit *= 2
			continue
		}
		out := sortHits(hits)
		if len(out) > topK {
			out = out[:topK]
		}
		return out, nil
	}
}

// needsWiderPage reports whether a full page of hits, in descending score
// order, may have cut off points that tie with the one at position topK.
func needsWiderPage(hits []scoredHit, topK int, limit uint64) bool {
	if uint64(len(hits)) < limit || len(hits) <= topK {
		return false
	}
	return hits[len(hits)-1].Score == hits[topK-1].Score
}

// Remove deletes the vector for documentID from every collection.
func (ix *Index) Remove(ctx context.Context, documentID string) (bool, error) {
	collections, err := ix.collections(ctx)
	if err != nil {
		return false, err
	}
	id := pointID(documentID)

	removed := false
	for _, c := range collections {
		existing, err := ix.client.Get(ctx, &qdrant.GetPoints{CollectionName: c, Ids: []*qdrant.PointId{id}})
		if err != nil {
			return removed, fmt.Errorf("get point %s: %w", documentID, err)
		}
		if len(existing) == 0 {
			continue
		}
		if err := ix.deletePoint(ctx, c, id); err != nil {
			return removed, err
		}
		removed = true
	}
	return removed, nil
}

// Clear drops every collection owned by this index.
func (ix *Index) Clear(ctx context.Context) error {
	collections, err := ix.collections(ctx)
	if err != nil {
		return err
	}
	for _, c := range collections {
		if err := ix.client.DeleteCollection(ctx, c); err != nil {
			return fmt.Errorf("delete collection %s: %w", c, err)
		}
	}

	ix.mu.Lock()
	ix.known = make(map[int]bool)
	ix.mu.Unlock()
	return nil
}

// Len counts the points across all collections.
func (ix *Index) Len(ctx context.Context) (int, error) {
	collections, err := ix.collections(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range collections {
		n, err := ix.client.Count(ctx, &qdrant.CountPoints{CollectionName: c, Exact: qdrant.PtrOf(true)})
		if err != nil {
			return 0, fmt.Errorf("count %s: %w", c, err)
		}
		total += int(n)
	}
	return total, nil
}

// Close closes the gRPC connection.
func (ix *Index) Close() error {
	return ix.client.Close()
}

func (ix *Index) ensureCollection(ctx context.Context, dims int) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if ix.known[dims] {
		return nil
	}

	name := collectionName(ix.prefix, dims)
	exists, err := ix.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", name, err)
	}
	if !exists {
		logger.Info("qdrant: creating collection %s", name)
		err := ix.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: &qdrant.VectorsConfig{
				Config: &qdrant.VectorsConfig_Params{
					Params: &qdrant.VectorParams{
						Size:     uint64(dims),
						Distance: qdrant.Distance_Cosine,
					},
				},
			},
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}
	ix.known[dims] = true
	return nil
}

// collections lists the collections owned by this index.
func (ix *Index) collections(ctx context.Context) ([]string, error) {
	all, err := ix.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	var owned []string
	for _, name := range all {
		if _, ok := dimsOf(ix.prefix, name); ok {
			owned = append(owned, name)
		}
	}
	sort.Strings(owned)
	return owned, nil
}

func (ix *Index) deletePoint(ctx context.Context, collection string, id *qdrant.PointId) error {
	_, err := ix.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(id),
	})
	if err != nil {
		return fmt.Errorf("delete point from %s: %w", collection, err)
	}
	return nil
}

func collectionName(prefix string, dims int) string {
	return prefix + "_" + strconv.Itoa(dims)
}

func dimsOf(prefix, collection string) (int, bool) {
	rest, ok := strings.CutPrefix(collection, prefix+"_")
	if !ok {
		return 0, false
	}
	dims, err := strconv.Atoi(rest)
	if err != nil || dims <= 0 {
		return 0, false
	}
	return dims, true
}

// pointID maps a document id to a stable UUID, since Qdrant only accepts
// UUIDs and unsigned integers as point ids.
func pointID(documentID string) *qdrant.PointId {
	return qdrant.NewIDUUID(uuid.NewSHA1(uuid.NameSpaceURL, []byte(documentID)).String())
}

type scoredHit struct {
	driven.VectorHit
	seq int64
}

func sortHits(hits []scoredHit) []driven.VectorHit {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].seq < hits[j].seq
	})
	out := make([]driven.VectorHit, len(hits))
	for i, h := range hits {
		out[i] = h.VectorHit
	}
	return out
}

// buildPayload flattens metadata into payload-safe values. Types Qdrant
// cannot store are formatted as strings.
func buildPayload(documentID string, seq int64, metadata map[string]any) map[string]any {
	payload := make(map[string]any, len(metadata)+2)
	for k, v := range metadata {
		switch val := v.(type) {
		case nil, string, bool, int, int32, int64, float32, float64:
			payload[k] = val
		default:
			payload[k] = fmt.Sprint(val)
		}
	}
	payload[payloadDocumentID] = documentID
	payload[payloadSeq] = seq
	return payload
}

func parsePayload(payload map[string]*qdrant.Value) (string, int64, map[string]any) {
	metadata := make(map[string]any, len(payload))
	var docID string
	var seq int64
	for k, v := range payload {
		switch k {
		case payloadDocumentID:
			docID = v.GetStringValue()
		case payloadSeq:
			seq = v.GetIntegerValue()
		default:
			metadata[k] = fromValue(v)
		}
	}
	return docID, seq, metadata
}

func fromValue(v *qdrant.Value) any {
	switch val := v.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return val.IntegerValue
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		out := make([]any, len(val.ListValue.GetValues()))
		for i, lv := range val.ListValue.GetValues() {
			out[i] = fromValue(lv)
		}
		return out
	case *qdrant.Value_StructValue:
		out := make(map[string]any, len(val.StructValue.GetFields()))
		for k, nv := range val.StructValue.GetFields() {
			out[k] = fromValue(nv)
		}
		return out
	default:
		return nil
	}
}
