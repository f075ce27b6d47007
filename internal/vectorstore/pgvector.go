package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"codeberg.org/qapilot/server/internal/logger"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// a Postgres store using the pgvector extension
type PgvectorStore struct {
	pool *pgxpool.Pool
}

// connects to Postgres and ensures the extension and table exist
func NewPgvectorStore(ctx context.Context, connString string) (*PgvectorStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	for _, stmt := range []string{createExtensionQuery, createDocumentsTableQuery} {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to prepare schema: %w", err)
		}
	}

	return &PgvectorStore{pool: pool}, nil
}

// upserts all documents in a single transaction
func (s *PgvectorStore) Add(ctx context.Context, docs ...Document) error {
	for _, doc := range docs {
		if err := doc.validate(); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	// no-op once committed
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			logger.Warn("failed to rollback transaction", "error", err)
		}
	}()

	batch := &pgx.Batch{}

	for _, doc := range docs {
		batch.Queue(upsertDocumentQuery,
			doc.ID,
			doc.Content,
			copyMetadata(doc.Metadata),
			pgvector.NewVector(doc.Embedding),
		)
	}

	br := tx.SendBatch(ctx, batch)

	for i := range len(docs) {
		if _, err := br.Exec(); err != nil {
			br.Close() //nolint:errcheck,gosec // error path cleanup
			return fmt.Errorf("failed to insert document %d: %w", i, err)
		}
	}

	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (s *PgvectorStore) Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]Match, error) {
	query, args := buildSearchQuery(embedding, k, filter)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute search query: %w", err)
	}
	defer rows.Close()

	var matches []Match

	for rows.Next() {
		var m Match

		if err := rows.Scan(&m.ID, &m.Content, &m.Metadata, &m.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return matches, nil
}

func (s *PgvectorStore) Count(ctx context.Context) (int, error) {
	var count int

	if err := s.pool.QueryRow(ctx, countDocumentsQuery).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get document count: %w", err)
	}

	return count, nil
}

func (s *PgvectorStore) Clear(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, deleteAllDocumentsQuery); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	return nil
}

func (s *PgvectorStore) Close() error {
	s.pool.Close()
	return nil
}

// builds the nearest-neighbour query with an OR of metadata equality clauses
func buildSearchQuery(embedding []float32, k int, filter Filter) (string, []any) {
	var sb strings.Builder

	sb.WriteString(searchDocumentsQuery)

	args := []any{pgvector.NewVector(embedding)}

	if !filter.IsEmpty() {
		clauses := make([]string, 0, len(filter.Any))

		for _, c := range filter.Any {
			args = append(args, c.Field, c.Value)
			clauses = append(clauses, fmt.Sprintf("metadata->>$%d = $%d", len(args)-1, len(args)))
		}

		sb.WriteString("\t\tWHERE " + strings.Join(clauses, " OR ") + "\n")
	}

	sb.WriteString("\t\tORDER BY distance, id\n")

	if k > 0 {
		args = append(args, k)
		fmt.Fprintf(&sb, "\t\tLIMIT $%d\n", len(args))
	}

	return sb.String(), args
}
