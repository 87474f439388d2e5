package service

import (
	"errors"
	"fmt"
	"time"

	"university-chat/backend/internal/models"
	"university-chat/backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrEmptyContent       = errors.New("content must not be empty")
	ErrMissingParticipant = errors.New("sender and recipient are required")
	ErrMessageNotFound    = errors.New("message not found")
	// ErrPersistence wraps storage failures; partial writes are rolled back
	ErrPersistence = errors.New("persistence failure")
)

// MessageService creates and reads message records. Creation generates the
// identifier and timestamp; records are immutable once stored.
type MessageService struct {
	repo repository.MessageRepository
}

// NewMessageService creates a new message service
func NewMessageService(repo repository.MessageRepository) *MessageService {
	return &MessageService{repo: repo}
}

// Create validates the participants and content, stamps the record, and writes
// it through the persistence gateway. Whether the recipient exists is
// deliberately not checked here: an unknown recipient is simply never
// deliverable, not an error.
func (s *MessageService) Create(senderID, receiverID, content string) (*models.Message, error) {
	if senderID == "" || receiverID == "" {
		return nil, ErrMissingParticipant
	}
	if content == "" {
		return nil, ErrEmptyContent
	}

	message := &models.Message{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
		IsRead:     false,
	}

	if err := s.repo.Create(message); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	return message, nil
}

// GetByID fetches a single message record
func (s *MessageService) GetByID(id string) (*models.Message, error) {
	message, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return message, nil
}

// GetConversation returns the message history between two users, oldest first
func (s *MessageService) GetConversation(userA, userB string, limit, offset int) ([]models.Message, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	messages, err := s.repo.GetConversation(userA, userB, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return messages, nil
}
