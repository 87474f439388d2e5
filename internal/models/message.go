package models

import (
	"time"
)

// Message is an immutable chat message record. Only IsRead may ever change
// after the row is written.
type Message struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	SenderID   string    `gorm:"index;type:uuid" json:"sender_id"`
	ReceiverID string    `gorm:"index;type:uuid" json:"receiver_id"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
}

// CreateMessageRequest is the REST body for sending a message.
// The sender is always taken from the verified token, never from the body.
type CreateMessageRequest struct {
	RecipientID string `json:"recipient_id" binding:"required"`
	Content     string `json:"content" binding:"required"`
}
