package dto

// ─── Notifications ───────────────────────────────────────────────────────────

type NotificationResponse struct {
	ID        string `json:"id"`
	Message   string `json:"message"`
	Link      string `json:"link"`
	Type      string `json:"notification_type"`
	IsRead    bool   `json:"is_read"`
	CreatedAt string `json:"created_at"`
}

type NotificationListResponse struct {
	Notifications []NotificationResponse `json:"notifications"`
	Unread        int64                  `json:"unread"`
}

// ─── Help center ─────────────────────────────────────────────────────────────

type HelpThreadQuery struct {
	UserID   string `form:"user_id"`
	MarkRead string `form:"mark_read"`
}

type HelpThreadListQuery struct {
	Search string `form:"search"`
}

type HelpTargetRequest struct {
	UserID string `json:"user_id"`
}

type PostHelpMessageRequest struct {
	UserID  string `json:"user_id"`
	Content string `json:"content" validate:"max=5000"`
}

type HelpMessageResponse struct {
	ID          string `json:"id"`
	ThreadID    string `json:"thread_id"`
	SenderID    string `json:"sender_id"`
	Content     string `json:"content"`
	IsAdminRead bool   `json:"is_admin_read"`
	IsUserRead  bool   `json:"is_user_read"`
	CreatedAt   string `json:"created_at"`
}

type HelpThreadResponse struct {
	ID        string                `json:"id"`
	UserID    string                `json:"user_id"`
	Messages  []HelpMessageResponse `json:"messages"`
	Unread    int64                 `json:"unread"`
	UpdatedAt string                `json:"updated_at"`
}

type HelpThreadSummary struct {
	ThreadID      string  `json:"thread_id"`
	UserID        string  `json:"user_id"`
	UserUsername  string  `json:"user_username"`
	UserRole      string  `json:"user_role"`
	UserStatus    string  `json:"user_status"`
	LastMessage   string  `json:"last_message"`
	LastMessageAt *string `json:"last_message_at"`
	UnreadCount   int64   `json:"unread_count"`
	UpdatedAt     string  `json:"updated_at"`
}

type HelpThreadListResponse struct {
	Threads []HelpThreadSummary `json:"threads"`
}

type HelpMarkReadResponse struct {
	Marked int64 `json:"marked"`
	Unread int64 `json:"unread"`
}

type HelpClearResponse struct {
	Cleared int64 `json:"cleared"`
}
