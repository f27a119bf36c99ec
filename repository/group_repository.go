package repository

import (
	"messenger/models"

	"gorm.io/gorm"
)

type GroupRepository interface {
	Create(group *models.Group, memberIDs []uint) error
	GetByID(id uint) (*models.Group, error)
	GroupsOf(userID uint) ([]models.Group, error)
	IsMember(groupID, userID uint) (bool, error)
	MemberIDs(groupID uint) ([]uint, error)
}

type MySQLGroupRepository struct {
	db *gorm.DB
}

func NewMySQLGroupRepository(db *gorm.DB) GroupRepository {
	return &MySQLGroupRepository{db}
}

// Create 建群并写入成员，群主总在成员表里
func (repo *MySQLGroupRepository) Create(group *models.Group, memberIDs []uint) error {
	return repo.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		seen := map[uint]bool{group.OwnerID: true}
		members := []models.GroupMember{{GroupID: group.ID, UserID: group.OwnerID}}
		for _, id := range memberIDs {
			if seen[id] {
				continue
			}
			seen[id] = true
			members = append(members, models.GroupMember{GroupID: group.ID, UserID: id})
		}
		return tx.Create(&members).Error
	})
}

func (repo *MySQLGroupRepository) GetByID(id uint) (*models.Group, error) {
	var group models.Group
	if err := repo.db.First(&group, id).Error; err != nil {
		return nil, err
	}
	return &group, nil
}

func (repo *MySQLGroupRepository) GroupsOf(userID uint) ([]models.Group, error) {
	var groups []models.Group
	err := repo.db.
		Joins("JOIN group_members ON group_members.group_id = groups.id AND group_members.deleted_at IS NULL").
		Where("group_members.user_id = ?", userID).
		Find(&groups).Error
	return groups, err
}

func (repo *MySQLGroupRepository) IsMember(groupID, userID uint) (bool, error) {
	var count int64
	err := repo.db.Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&count).Error
	return count > 0, err
}

func (repo *MySQLGroupRepository) MemberIDs(groupID uint) ([]uint, error) {
	var ids []uint
	err := repo.db.Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}
