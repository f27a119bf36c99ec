package repository

import (
	"messenger/models"

	"gorm.io/gorm"
)

type MessageRepository interface {
	Create(message *models.Message) error
	GetByID(messageID string) (*models.Message, error)

	// 私聊记录，按时间升序，不含已撤回消息
	ConversationBetween(a, b uint) ([]models.Message, error)
	// 群聊记录，同上
	GroupHistory(groupID uint) ([]models.Message, error)
	// 好友列表预览用
	LastBetween(a, b uint) (*models.Message, error)
	HasUnreadFrom(senderID, receiverID uint) (bool, error)

	// 批量已读：sender -> receiver 的所有未读消息一次性置为已读
	MarkConversationRead(senderID, receiverID uint) (int64, error)

	// 撤回：只能从 false 置为 true
	MarkUnsent(messageID string) (int64, error)

	AddReaction(reaction *models.Reaction) error
}

type MySQLMessageRepository struct {
	db *gorm.DB
}

func NewMySQLMessageRepository(db *gorm.DB) MessageRepository {
	return &MySQLMessageRepository{db}
}

func (repo *MySQLMessageRepository) Create(message *models.Message) error {
	return repo.db.Create(message).Error
}

func (repo *MySQLMessageRepository) GetByID(messageID string) (*models.Message, error) {
	var message models.Message
	if err := repo.db.Where("message_id = ?", messageID).First(&message).Error; err != nil {
		return nil, err
	}
	return &message, nil
}

func (repo *MySQLMessageRepository) ConversationBetween(a, b uint) ([]models.Message, error) {
	var messages []models.Message
	err := repo.db.
		Preload("Reactions").
		Where("unsent = false AND group_id = 0 AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", a, b, b, a).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

func (repo *MySQLMessageRepository) GroupHistory(groupID uint) ([]models.Message, error) {
	var messages []models.Message
	err := repo.db.
		Preload("Reactions").
		Where("unsent = false AND group_id = ?", groupID).
		Order("created_at ASC").
		Find(&messages).Error
	return messages, err
}

func (repo *MySQLMessageRepository) LastBetween(a, b uint) (*models.Message, error) {
	var message models.Message
	err := repo.db.
		Where("unsent = false AND group_id = 0 AND ((sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?))", a, b, b, a).
		Order("created_at DESC").
		First(&message).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &message, nil
}

func (repo *MySQLMessageRepository) HasUnreadFrom(senderID, receiverID uint) (bool, error) {
	var count int64
	err := repo.db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = false AND unsent = false", senderID, receiverID).
		Count(&count).Error
	return count > 0, err
}

func (repo *MySQLMessageRepository) MarkConversationRead(senderID, receiverID uint) (int64, error) {
	result := repo.db.Model(&models.Message{}).
		Where("sender_id = ? AND receiver_id = ? AND is_read = false", senderID, receiverID).
		Update("is_read", true)
	return result.RowsAffected, result.Error
}

func (repo *MySQLMessageRepository) MarkUnsent(messageID string) (int64, error) {
	result := repo.db.Model(&models.Message{}).
		Where("message_id = ? AND unsent = false", messageID).
		Update("unsent", true)
	return result.RowsAffected, result.Error
}

func (repo *MySQLMessageRepository) AddReaction(reaction *models.Reaction) error {
	return repo.db.Create(reaction).Error
}
