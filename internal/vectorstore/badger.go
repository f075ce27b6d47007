package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"codeberg.org/qapilot/server/internal/logger"
	"github.com/dgraph-io/badger/v4"
)

const badgerKeyPrefix = "doc/"

// an embedded on-disk store backed by BadgerDB; documents are kept as JSON under doc/{id}
type BadgerStore struct {
	db *badger.DB
}

// opens (or creates) a badger database at path; an empty path keeps everything in memory
func NewBadgerStore(path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(newBadgerLogger())
	if path == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger store: %w", err)
	}

	return &BadgerStore{db: db}, nil
}

func (s *BadgerStore) Add(_ context.Context, docs ...Document) error {
	for _, doc := range docs {
		if err := doc.validate(); err != nil {
			return err
		}
	}

	return s.db.Update(func(txn *badger.Txn) error {
		for _, doc := range docs {
			val, err := json.Marshal(doc)
			if err != nil {
				return fmt.Errorf("failed to encode document %s: %w", doc.ID, err)
			}

			if err := txn.Set([]byte(badgerKeyPrefix+doc.ID), val); err != nil {
				return fmt.Errorf("failed to store document %s: %w", doc.ID, err)
			}
		}

		return nil
	})
}

func (s *BadgerStore) Query(ctx context.Context, embedding []float32, k int, filter Filter) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs, err := s.all()
	if err != nil {
		return nil, err
	}

	return rank(docs, embedding, k, filter)
}

func (s *BadgerStore) Count(_ context.Context) (int, error) {
	count := 0

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(badgerKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}

	return count, nil
}

func (s *BadgerStore) Clear(_ context.Context) error {
	if err := s.db.DropPrefix([]byte(badgerKeyPrefix)); err != nil {
		return fmt.Errorf("failed to clear documents: %w", err)
	}

	return nil
}

func (s *BadgerStore) Close() error {
	return s.db.Close()
}

func (s *BadgerStore) all() ([]Document, error) {
	var docs []Document

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(badgerKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var doc Document

			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &doc)
			})
			if err != nil {
				return fmt.Errorf("failed to decode %s: %w", it.Item().Key(), err)
			}

			docs = append(docs, doc)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return docs, nil
}

// routes badger's internal logging through the application logger
type badgerLogger struct {
	log *slog.Logger
}

func newBadgerLogger() *badgerLogger {
	return &badgerLogger{log: logger.Component("badger")}
}

func (b *badgerLogger) Errorf(format string, args ...any) {
	b.log.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b *badgerLogger) Warningf(format string, args ...any) {
	b.log.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b *badgerLogger) Infof(format string, args ...any) {
	b.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (b *badgerLogger) Debugf(format string, args ...any) {
	b.log.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
