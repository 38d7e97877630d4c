package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jjgordon89/huggingchatbot-sub001/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driven"
)

// DatabaseFile is the file name inside the data directory.
const DatabaseFile = "ragctl.db"

// Store is a SQLite database exposing the storage ports through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens or creates the database in dataDir and applies pending migrations.
// If dataDir is empty, defaults to ~/.ragctl/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragctl", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// WAL lets searches read while an ingest writes.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// DocumentStore returns a DocumentStore backed by this store.
func (s *Store) DocumentStore() driven.DocumentStore {
	return &documentStore{store: s}
}

// VectorRecordStore returns a VectorRecordStore backed by this store.
func (s *Store) VectorRecordStore() driven.VectorRecordStore {
	return &vectorStore{store: s}
}

// ErrorLogStore returns an ErrorLogStore backed by this store.
func (s *Store) ErrorLogStore() driven.ErrorLogStore {
	return &errorLogStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if name := entry.Name(); strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Document Store ====================

// documentStore implements driven.DocumentStore.
type documentStore struct {
	store *Store
}

var _ driven.DocumentStore = (*documentStore)(nil)

// SaveDocument stores or updates a document. An update keeps the row, so
// list order by creation is stable.
func (s *documentStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	metadataJSON, err := marshalMetadata(doc.Metadata)
	if err != nil {
		return err
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content, source_type, uri, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			source_type = excluded.source_type,
			uri = excluded.uri,
			metadata = excluded.metadata,
			updated_at = excluded.updated_at
	`, doc.ID, doc.Title, doc.Content, string(doc.SourceType), doc.URI,
		metadataJSON, doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *documentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, title, content, source_type, uri, metadata, created_at, updated_at
		FROM documents WHERE id = ?
	`, id)

	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return doc, err
}

// DeleteDocument removes a document.
func (s *documentStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(res)
}

// ListDocuments returns every document, oldest first.
func (s *documentStore) ListDocuments(ctx context.Context) ([]domain.Document, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, title, content, source_type, uri, metadata, created_at, updated_at
		FROM documents ORDER BY created_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.Document //nolint:prealloc // size unknown from query
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the number of stored documents.
func (s *documentStore) CountDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting documents: %w", err)
	}
	return n, nil
}

// ==================== Vector Record Store ====================

// vectorStore implements driven.VectorRecordStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorRecordStore = (*vectorStore)(nil)

// SaveVectorRecord stores or replaces the record for its document. A replaced
// record keeps its rowid and therefore its insertion position.
func (s *vectorStore) SaveVectorRecord(ctx context.Context, rec domain.VectorRecord) error {
	metadataJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return err
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO vectors (document_id, model_id, dimensions, embedding, metadata, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(document_id) DO UPDATE SET
			model_id = excluded.model_id,
			dimensions = excluded.dimensions,
			embedding = excluded.embedding,
			metadata = excluded.metadata,
			indexed_at = excluded.indexed_at
	`, rec.DocumentID, rec.Embedding.ModelID, rec.Embedding.Dimensions,
		float32SliceToBytes(rec.Embedding.Values), metadataJSON, rec.IndexedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving vector: %w", err)
	}
	return nil
}

// DeleteVectorRecord removes the record for documentID.
func (s *vectorStore) DeleteVectorRecord(ctx context.Context, documentID string) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM vectors WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting vector: %w", err)
	}
	return nil
}

// ListVectorRecords returns all records in insertion order.
func (s *vectorStore) ListVectorRecords(ctx context.Context) ([]domain.VectorRecord, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT document_id, model_id, dimensions, embedding, metadata, indexed_at
		FROM vectors ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var records []domain.VectorRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.VectorRecord
		var blob []byte
		var metadataJSON string
		if err := rows.Scan(&rec.DocumentID, &rec.Embedding.ModelID, &rec.Embedding.Dimensions,
			&blob, &metadataJSON, &rec.IndexedAt); err != nil {
			return nil, fmt.Errorf("scanning vector: %w", err)
		}
		rec.Embedding.Values = bytesToFloat32Slice(blob)
		if rec.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}
	return records, nil
}

// ClearVectorRecords removes every record.
func (s *vectorStore) ClearVectorRecords(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM vectors"); err != nil {
		return fmt.Errorf("clearing vectors: %w", err)
	}
	return nil
}

// ==================== Error Log Store ====================

// errorLogStore implements driven.ErrorLogStore.
type errorLogStore struct {
	store *Store
}

var _ driven.ErrorLogStore = (*errorLogStore)(nil)

// AppendError inserts rec and deletes all but the newest limit records.
func (s *errorLogStore) AppendError(ctx context.Context, rec domain.ErrorRecord, limit int) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO error_log (occurred_at, op, kind, status_code, attempts, message)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.Time.UTC(), rec.Op, rec.Kind, rec.StatusCode, rec.Attempts, rec.Message); err != nil {
		return fmt.Errorf("appending error: %w", err)
	}

	if limit > 0 {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM error_log WHERE id NOT IN (
				SELECT id FROM error_log ORDER BY id DESC LIMIT ?
			)
		`, limit); err != nil {
			return fmt.Errorf("trimming error log: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// RecentErrors returns up to limit records, oldest first.
func (s *errorLogStore) RecentErrors(ctx context.Context, limit int) ([]domain.ErrorRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT occurred_at, op, kind, status_code, attempts, message FROM (
			SELECT id, occurred_at, op, kind, status_code, attempts, message
			FROM error_log ORDER BY id DESC LIMIT ?
		) ORDER BY id
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying error log: %w", err)
	}
	defer rows.Close()

	var out []domain.ErrorRecord //nolint:prealloc // size unknown from query
	for rows.Next() {
		var rec domain.ErrorRecord
		if err := rows.Scan(&rec.Time, &rec.Op, &rec.Kind, &rec.StatusCode, &rec.Attempts, &rec.Message); err != nil {
			return nil, fmt.Errorf("scanning error record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating error log: %w", err)
	}
	return out, nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

type scanner interface {
	Scan(dest ...any) error
}

// scanDocument scans a document from a *sql.Row or *sql.Rows.
func scanDocument(row scanner) (*domain.Document, error) {
	var doc domain.Document
	var sourceType, metadataJSON string
	var createdAt, updatedAt time.Time

	if err := row.Scan(&doc.ID, &doc.Title, &doc.Content, &sourceType, &doc.URI,
		&metadataJSON, &createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.SourceType = domain.SourceType(sourceType)
	doc.CreatedAt = createdAt.Local()
	doc.UpdatedAt = updatedAt.Local()

	var err error
	if doc.Metadata, err = unmarshalMetadata(metadataJSON); err != nil {
		return nil, err
	}
	return &doc, nil
}

func marshalMetadata(m map[string]any) (string, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshalling metadata: %w", err)
	}
	return string(b), nil
}

func unmarshalMetadata(s string) (map[string]any, error) {
	if s == "" || s == "{}" {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}
	return m, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
