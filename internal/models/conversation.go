package models

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Conversation mirrors the backend conversation record. The server owns
// identity and list ordering; the client never invents conversation IDs.
type Conversation struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	IsActive     bool    `json:"is_active"`
	CreatedAt    APITime `json:"created_at"`
	UpdatedAt    APITime `json:"updated_at"`
	MessageCount int     `json:"message_count"`
}

// Message is a single chat turn. ID and Timestamp are zero for messages
// constructed locally before the server has seen them. RouteTaken is an
// opaque backend label (vectorstore, web_search, direct_llm); the client
// only displays it.
type Message struct {
	ID             int64    `json:"id,omitempty"`
	ConversationID int64    `json:"conversation_id,omitempty"`
	Role           string   `json:"role"`
	Content        string   `json:"content"`
	RouteTaken     string   `json:"route_taken,omitempty"`
	Timestamp      *APITime `json:"timestamp,omitempty"`
}

// ChatAnswer is the response of the ask endpoint.
type ChatAnswer struct {
	Question       string   `json:"question"`
	Answer         string   `json:"answer"`
	RouteTaken     string   `json:"route_taken"`
	ConversationID int64    `json:"conversation_id"`
	DocumentsUsed  []string `json:"documents_used,omitempty"`
}

// ConversationHistory is the detail-endpoint payload: the conversation
// plus its full transcript.
type ConversationHistory struct {
	Conversation Conversation `json:"conversation"`
	Messages     []Message    `json:"messages"`
	Summary      string       `json:"summary,omitempty"`
}

// ConversationList is the listing-endpoint payload.
type ConversationList struct {
	Conversations []Conversation `json:"conversations"`
	Total         int            `json:"total"`
}

// SearchResult is a cached-transcript search hit.
type SearchResult struct {
	Conversation Conversation `json:"conversation"`
	Snippet      string       `json:"snippet"`
	Score        float64      `json:"score"`
}
