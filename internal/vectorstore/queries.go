package vectorstore

const (
	createExtensionQuery = "CREATE EXTENSION IF NOT EXISTS vector"

	createDocumentsTableQuery = `
		CREATE TABLE IF NOT EXISTS knowledge_documents (
			id         TEXT PRIMARY KEY,
			content    TEXT NOT NULL,
			metadata   JSONB NOT NULL DEFAULT '{}'::jsonb,
			embedding  vector NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`

	upsertDocumentQuery = `
		INSERT INTO knowledge_documents (id, content, metadata, embedding)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET content = EXCLUDED.content, metadata = EXCLUDED.metadata, embedding = EXCLUDED.embedding
	`

	// filter clause and limit are appended by buildSearchQuery
	searchDocumentsQuery = `
		SELECT id, content, metadata, embedding <=> $1 AS distance
		FROM knowledge_documents
	`

	countDocumentsQuery     = "SELECT COUNT(*) FROM knowledge_documents"
	deleteAllDocumentsQuery = "DELETE FROM knowledge_documents"
)
