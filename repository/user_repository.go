package repository

import (
	"time"

	"messenger/models"

	"gorm.io/gorm"
)

type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByUsername(username string) (*models.User, error)
	Search(query string, excludeID uint, limit int) ([]models.User, error)
	UpdateProfile(id uint, name, bio string, avatarIndex *int) error
	UpdateLastLogin(id uint, at time.Time) error

	// 好友关系
	FriendIDs(id uint) ([]uint, error)
	Friends(id uint) ([]models.User, error)
	AreFriends(a, b uint) (bool, error)
	AddFriendEdge(a, b uint) error
	RemoveFriendEdge(a, b uint) error

	// 好友请求
	CreateFriendRequest(fromID, toID uint) error
	HasFriendRequest(fromID, toID uint) (bool, error)
	DeleteFriendRequest(fromID, toID uint) (int64, error)
	PendingRequests(toID uint) ([]models.FriendRequest, error)

	// 在线状态
	SetPresence(id uint, online bool, lastSeen *time.Time) error
}

type MySQLUserRepository struct {
	db *gorm.DB
}

func NewMySQLUserRepository(db *gorm.DB) UserRepository {
	return &MySQLUserRepository{db}
}

func (repo *MySQLUserRepository) Create(user *models.User) error {
	return repo.db.Create(user).Error
}

func (repo *MySQLUserRepository) GetByID(id uint) (*models.User, error) {
	var user models.User
	if err := repo.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (repo *MySQLUserRepository) GetByUsername(username string) (*models.User, error) {
	var user models.User
	if err := repo.db.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (repo *MySQLUserRepository) Search(query string, excludeID uint, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + query + "%"
	err := repo.db.
		Where("id <> ? AND (username LIKE ? OR name LIKE ?)", excludeID, pattern, pattern).
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (repo *MySQLUserRepository) UpdateProfile(id uint, name, bio string, avatarIndex *int) error {
	return repo.db.Model(&models.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "bio": bio, "avatar_index": avatarIndex}).Error
}

func (repo *MySQLUserRepository) UpdateLastLogin(id uint, at time.Time) error {
	return repo.db.Model(&models.User{}).Where("id = ?", id).Update("last_login", at).Error
}

func (repo *MySQLUserRepository) FriendIDs(id uint) ([]uint, error) {
	var ids []uint
	err := repo.db.Table("user_friends").Where("user_id = ?", id).Pluck("friend_id", &ids).Error
	return ids, err
}

func (repo *MySQLUserRepository) Friends(id uint) ([]models.User, error) {
	var user models.User
	if err := repo.db.Preload("Friends").First(&user, id).Error; err != nil {
		return nil, err
	}
	friends := make([]models.User, 0, len(user.Friends))
	for _, f := range user.Friends {
		friends = append(friends, *f)
	}
	return friends, nil
}

func (repo *MySQLUserRepository) AreFriends(a, b uint) (bool, error) {
	var count int64
	err := repo.db.Table("user_friends").
		Where("user_id = ? AND friend_id = ?", a, b).
		Count(&count).Error
	return count > 0, err
}

// AddFriendEdge 写入双向边，保证好友关系对称
func (repo *MySQLUserRepository) AddFriendEdge(a, b uint) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("INSERT IGNORE INTO user_friends (user_id, friend_id) VALUES (?, ?)", a, b).Error; err != nil {
			return err
		}
		return tx.Exec("INSERT IGNORE INTO user_friends (user_id, friend_id) VALUES (?, ?)", b, a).Error
	})
}

func (repo *MySQLUserRepository) RemoveFriendEdge(a, b uint) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM user_friends WHERE user_id = ? AND friend_id = ?", a, b).Error; err != nil {
			return err
		}
		return tx.Exec("DELETE FROM user_friends WHERE user_id = ? AND friend_id = ?", b, a).Error
	})
}

func (repo *MySQLUserRepository) CreateFriendRequest(fromID, toID uint) error {
	return repo.db.Create(&models.FriendRequest{FromID: fromID, ToID: toID}).Error
}

func (repo *MySQLUserRepository) HasFriendRequest(fromID, toID uint) (bool, error) {
	var count int64
	err := repo.db.Model(&models.FriendRequest{}).
		Where("from_id = ? AND to_id = ?", fromID, toID).
		Count(&count).Error
	return count > 0, err
}

func (repo *MySQLUserRepository) DeleteFriendRequest(fromID, toID uint) (int64, error) {
	result := repo.db.Where("from_id = ? AND to_id = ?", fromID, toID).Delete(&models.FriendRequest{})
	return result.RowsAffected, result.Error
}

func (repo *MySQLUserRepository) PendingRequests(toID uint) ([]models.FriendRequest, error) {
	var requests []models.FriendRequest
	err := repo.db.Preload("FromUser").Where("to_id = ?", toID).Find(&requests).Error
	return requests, err
}

func (repo *MySQLUserRepository) SetPresence(id uint, online bool, lastSeen *time.Time) error {
	updates := map[string]interface{}{"online": online}
	if lastSeen != nil {
		updates["last_seen"] = *lastSeen
	}
	return repo.db.Model(&models.User{}).Where("id = ?", id).Updates(updates).Error
}
