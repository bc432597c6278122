package types

// ChatRequest body of the streaming chat endpoint
type ChatRequest struct {
	Question string `json:"question" binding:"required"`
}

// SearchRequest body of the retrieval-only endpoint
type SearchRequest struct {
	Question string `json:"question" binding:"required"`
	K        int    `json:"k,omitempty" binding:"omitempty,min=1,max=50"`
}
