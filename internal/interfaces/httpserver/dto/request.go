package dto

// SendMessageRequest is the body of POST /v1/conversations/:conversation_id/messages.
type SendMessageRequest struct {
	Body string `json:"body" binding:"required"`
	Mode string `json:"mode" binding:"required"`
}

// MarkReadRequest is the optional body of
// POST /v1/conversations/:conversation_id/read. Target names the
// counter to reset; when absent the caller's own side is used.
type MarkReadRequest struct {
	Target string `json:"target"`
}

// ListMessagesQuery captures the history paging parameters. Before is
// an RFC 3339 timestamp acting as an exclusive upper bound.
type ListMessagesQuery struct {
	Limit  int    `form:"limit"`
	Before string `form:"before"`
}

// ListConversationsQuery narrows the staff inbox listing.
type ListConversationsQuery struct {
	Type       string `form:"type"`
	CustomerID string `form:"customer_id"`
	Page       int    `form:"page"`
	PageSize   int    `form:"page_size"`
}
