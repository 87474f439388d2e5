package repository

import (
	"university-chat/backend/internal/models"

	"gorm.io/gorm"
)

// MessageRepository is the persistence gateway for message records.
// It exposes create/read operations only; business rules live in the service layer.
type MessageRepository interface {
	Create(message *models.Message) error
	GetByID(id string) (*models.Message, error)
	GetConversation(userA, userB string, limit, offset int) ([]models.Message, error)
}

type GormMessageRepository struct {
	db *gorm.DB
}

func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Create inserts the full row atomically. The transaction guarantees that on
// any failure no partial record survives and the pooled handle is released.
func (r *GormMessageRepository) Create(message *models.Message) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(message).Error
	})
}

func (r *GormMessageRepository) GetByID(id string) (*models.Message, error) {
	var message models.Message
	err := r.db.First(&message, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// GetConversation returns messages exchanged between two users, oldest first
func (r *GormMessageRepository) GetConversation(userA, userB string, limit, offset int) ([]models.Message, error) {
	var messages []models.Message
	err := r.db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&messages).Error
	return messages, err
}
