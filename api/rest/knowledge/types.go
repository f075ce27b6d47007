package knowledge

// request payload for a knowledge-base question
type QueryRequest struct {
	Query       string `json:"query" binding:"required"`
	Environment string `json:"environment,omitempty"` // QA, STAGE or PROD; empty means PROD, other names are rejected
}

type QueryResponse struct {
	Answer string `json:"answer"`
	Domain string `json:"domain"`
}

// request payload for raw context retrieval
type ContextRequest struct {
	Query       string `json:"query" binding:"required"`
	Environment string `json:"environment,omitempty"` // empty searches every domain
	K           int    `json:"k,omitempty" binding:"omitempty,min=1,max=20"`
}

type ContextResponse struct {
	Context string `json:"context"`
	Domain  string `json:"domain,omitempty"`
	K       int    `json:"k"`
}

// request payload for adding documents to the knowledge base
type AddDocumentsRequest struct {
	Documents []DocumentInput `json:"documents" binding:"required,min=1,max=100,dive"`
}

type DocumentInput struct {
	ID       string            `json:"id,omitempty"`
	Content  string            `json:"content" binding:"required"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type AddDocumentsResponse struct {
	Added int `json:"added"`
}
