package transport

// LoginRequest starts a session. Profile accepts either a profile id or an
// email address.
type LoginRequest struct {
	Profile string `json:"profile"`
	TTL     int    `json:"ttl_seconds"`
}

type RefreshRequest struct {
	SessionID string `json:"session_id"`
	TTL       int    `json:"ttl_seconds"`
}

// TaskCreateRequest carries a new task. Due accepts a date ("2006-01-02") or
// an RFC 3339 timestamp; empty means no due.
type TaskCreateRequest struct {
	Title       string   `json:"title"`
	Note        string   `json:"note"`
	Due         string   `json:"due"`
	CategoryID  string   `json:"category_id"`
	AssigneeIDs []string `json:"assignee_ids"`
}

// TaskPatchRequest carries partial updates. Absent fields stay unchanged;
// an empty string clears due or category.
type TaskPatchRequest struct {
	Title      *string `json:"title"`
	Note       *string `json:"note"`
	Due        *string `json:"due"`
	CategoryID *string `json:"category_id"`
}

type AssignmentStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

type AssigneeSyncRequest struct {
	AssigneeIDs []string `json:"assignee_ids"`
}
