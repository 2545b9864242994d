package store

import "time"

const (
	TableMessages      = "messages"
	TableNotifications = "notifications"
	TableProfiles      = "profiles"
)

// Profile is the persisted identity record behind a Principal.
type Profile struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	Email       string    `gorm:"uniqueIndex" json:"email"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	ClassOrDept string    `json:"class_or_dept,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Message is one chat message. A nil RecipientID means the message belongs
// to the global broadcast channel; otherwise it belongs to the direct
// channel identified by the unordered {SenderID, RecipientID} pair.
type Message struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	SenderID    string    `gorm:"index" json:"sender_id"`
	RecipientID *string   `gorm:"index" json:"recipient_id,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// Notification is one row per (event, recipient). A broadcast event fans
// out to N rows, never a single shared one.
type Notification struct {
	ID          string    `gorm:"primaryKey" json:"id"`
	RecipientID string    `gorm:"index" json:"recipient_id"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	Kind        string    `json:"kind"`
	IsRead      bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`
}

// Student and Employee are the two roster pools a broadcast notification
// fans out across. They are owned by the surrounding CRUD system; this
// core only reads their IDs.
type Student struct {
	ID       string `gorm:"primaryKey" json:"id"`
	FullName string `json:"full_name"`
	Class    string `json:"class"`
}

type Employee struct {
	ID         string `gorm:"primaryKey" json:"id"`
	FullName   string `json:"full_name"`
	Department string `json:"department"`
}
