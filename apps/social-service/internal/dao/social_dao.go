package dao

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/pkg/database"
)

// socialDAO 社交数据访问对象
type socialDAO struct {
	db *database.PostgreSQL
}

// NewSocialDAO 创建社交DAO实例
func NewSocialDAO(db *database.PostgreSQL) SocialDAO {
	return &socialDAO{db: db}
}

// CreateFriendRequest 创建好友申请
// 成对唯一性检查与插入在同一事务内完成：双方之间任一方向已有
// 待处理申请即拒绝
func (d *socialDAO) CreateFriendRequest(ctx context.Context, req *model.FriendRequest) error {
	db := d.db.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.FriendRequest{}).
			Where("status = ?", model.FriendRequestStatusPending).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				req.SenderID, req.ReceiverID, req.ReceiverID, req.SenderID).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("检查重复申请失败: %v", err)
		}
		if count > 0 {
			return model.ErrDuplicateRequest
		}

		if err := tx.Create(req).Error; err != nil {
			return fmt.Errorf("创建好友申请失败: %v", err)
		}
		return nil
	})
}

// GetFriendRequest 获取好友申请，不存在时返回 (nil, nil)
func (d *socialDAO) GetFriendRequest(ctx context.Context, requestID int64) (*model.FriendRequest, error) {
	var req model.FriendRequest
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", requestID).First(&req).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询好友申请失败: %v", err)
	}
	return &req, nil
}

// AcceptFriendRequestTx 接受好友申请
// 单事务内完成：加载申请、写入两条有向好友行、删除申请行。
// 申请已不存在返回 ErrRequestNotFound，非接收方操作返回 ErrForbidden
func (d *socialDAO) AcceptFriendRequestTx(ctx context.Context, requestID, receiverID int64) (*model.FriendRequest, error) {
	var accepted model.FriendRequest
	db := d.db.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.FriendRequest
		if err := tx.Where("id = ? AND status = ?", requestID, model.FriendRequestStatusPending).
			First(&req).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return model.ErrRequestNotFound
			}
			return fmt.Errorf("查询好友申请失败: %v", err)
		}
		if req.ReceiverID != receiverID {
			return model.ErrForbidden
		}

		// 成对写入，保证关系对称
		friends := []*model.Friend{
			{UserID: req.SenderID, FriendID: req.ReceiverID},
			{UserID: req.ReceiverID, FriendID: req.SenderID},
		}
		if err := tx.Create(&friends).Error; err != nil {
			return fmt.Errorf("写入好友关系失败: %v", err)
		}

		if err := tx.Delete(&model.FriendRequest{}, req.ID).Error; err != nil {
			return fmt.Errorf("删除好友申请失败: %v", err)
		}

		accepted = req
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &accepted, nil
}

// DeleteFriendRequest 删除好友申请，0行受影响视为已被处理
func (d *socialDAO) DeleteFriendRequest(ctx context.Context, requestID int64) error {
	db := d.db.GetDB()
	result := db.WithContext(ctx).Delete(&model.FriendRequest{}, requestID)
	if result.Error != nil {
		return fmt.Errorf("删除好友申请失败: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrRequestNotFound
	}
	return nil
}

// GetPendingRequestBetween 查询双方之间任一方向的待处理申请，不存在返回 (nil, nil)
func (d *socialDAO) GetPendingRequestBetween(ctx context.Context, userA, userB int64) (*model.FriendRequest, error) {
	var req model.FriendRequest
	db := d.db.GetDB()
	err := db.WithContext(ctx).
		Where("status = ?", model.FriendRequestStatusPending).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userA, userB, userB, userA).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询待处理申请失败: %v", err)
	}
	return &req, nil
}

// ListReceivedRequests 获取收到的待处理好友申请
func (d *socialDAO) ListReceivedRequests(ctx context.Context, receiverID int64) ([]*model.FriendRequest, error) {
	var reqs []*model.FriendRequest
	db := d.db.GetDB()
	if err := db.WithContext(ctx).
		Where("receiver_id = ? AND status = ?", receiverID, model.FriendRequestStatusPending).
		Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("查询收到的申请失败: %v", err)
	}
	return reqs, nil
}

// ListSentRequests 获取发出的待处理好友申请
func (d *socialDAO) ListSentRequests(ctx context.Context, senderID int64) ([]*model.FriendRequest, error) {
	var reqs []*model.FriendRequest
	db := d.db.GetDB()
	if err := db.WithContext(ctx).
		Where("sender_id = ? AND status = ?", senderID, model.FriendRequestStatusPending).
		Order("created_at DESC").Find(&reqs).Error; err != nil {
		return nil, fmt.Errorf("查询发出的申请失败: %v", err)
	}
	return reqs, nil
}

// ListPendingRequestsWithUsers 批量查询用户与一组候选人之间的待处理申请（目录标注用）
func (d *socialDAO) ListPendingRequestsWithUsers(ctx context.Context, userID int64, otherIDs []int64) ([]*model.FriendRequest, error) {
	if len(otherIDs) == 0 {
		return nil, nil
	}
	var reqs []*model.FriendRequest
	db := d.db.GetDB()
	err := db.WithContext(ctx).
		Where("status = ?", model.FriendRequestStatusPending).
		Where("(sender_id = ? AND receiver_id IN ?) OR (receiver_id = ? AND sender_id IN ?)",
			userID, otherIDs, userID, otherIDs).
		Find(&reqs).Error
	if err != nil {
		return nil, fmt.Errorf("批量查询待处理申请失败: %v", err)
	}
	return reqs, nil
}

// ListFriends 获取好友列表
func (d *socialDAO) ListFriends(ctx context.Context, userID int64) ([]*model.Friend, error) {
	var friends []*model.Friend
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("user_id = ?", userID).Find(&friends).Error; err != nil {
		return nil, fmt.Errorf("查询好友列表失败: %v", err)
	}
	return friends, nil
}

// IsFriend 检查是否为好友
func (d *socialDAO) IsFriend(ctx context.Context, userID, friendID int64) (bool, error) {
	var count int64
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Model(&model.Friend{}).
		Where("user_id = ? AND friend_id = ?", userID, friendID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("检查好友关系失败: %v", err)
	}
	return count > 0, nil
}
