package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"gamepal-social/apps/social-service/internal/model"
)

// CreateInvite 创建游戏邀请
// 单槽规则在事务内检查：发送方已有待处理邀请即拒绝
func (d *socialDAO) CreateInvite(ctx context.Context, invite *model.GameInvite) error {
	db := d.db.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&model.GameInvite{}).
			Where("sender_id = ? AND status = ?", invite.SenderID, model.GameInviteStatusPending).
			Count(&count).Error
		if err != nil {
			return fmt.Errorf("检查在途邀请失败: %v", err)
		}
		if count > 0 {
			return model.ErrTooManyInFlight
		}

		if err := tx.Create(invite).Error; err != nil {
			return fmt.Errorf("创建游戏邀请失败: %v", err)
		}
		return nil
	})
}

// GetInvite 获取游戏邀请，不存在时返回 (nil, nil)
func (d *socialDAO) GetInvite(ctx context.Context, inviteID int64) (*model.GameInvite, error) {
	var invite model.GameInvite
	db := d.db.GetDB()
	if err := db.WithContext(ctx).Where("id = ?", inviteID).First(&invite).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询游戏邀请失败: %v", err)
	}
	return &invite, nil
}

// MarkInviteAccepted 将待处理邀请更新为已接受并记录会话ID
// 条件更新，邀请已不在pending状态时返回 ErrInviteNotFound
func (d *socialDAO) MarkInviteAccepted(ctx context.Context, inviteID int64, sessionID string) error {
	db := d.db.GetDB()
	result := db.WithContext(ctx).Model(&model.GameInvite{}).
		Where("id = ? AND status = ?", inviteID, model.GameInviteStatusPending).
		Updates(map[string]interface{}{
			"status":     model.GameInviteStatusAccepted,
			"session_id": sessionID,
		})
	if result.Error != nil {
		return fmt.Errorf("更新邀请状态失败: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrInviteNotFound
	}
	return nil
}

// DeleteInvite 删除游戏邀请，0行受影响视为已被处理
func (d *socialDAO) DeleteInvite(ctx context.Context, inviteID int64) error {
	db := d.db.GetDB()
	result := db.WithContext(ctx).Delete(&model.GameInvite{}, inviteID)
	if result.Error != nil {
		return fmt.Errorf("删除游戏邀请失败: %v", result.Error)
	}
	if result.RowsAffected == 0 {
		return model.ErrInviteNotFound
	}
	return nil
}

// DeleteAcceptedInvite 删除宽限期结束的已接受邀请，行已不存在不算错误
func (d *socialDAO) DeleteAcceptedInvite(ctx context.Context, inviteID int64) error {
	db := d.db.GetDB()
	err := db.WithContext(ctx).
		Where("id = ? AND status = ?", inviteID, model.GameInviteStatusAccepted).
		Delete(&model.GameInvite{}).Error
	if err != nil {
		return fmt.Errorf("删除已接受邀请失败: %v", err)
	}
	return nil
}

// ListReceivedInvites 获取保留窗口内收到的待处理邀请
func (d *socialDAO) ListReceivedInvites(ctx context.Context, receiverID int64, since time.Time) ([]*model.GameInvite, error) {
	var invites []*model.GameInvite
	db := d.db.GetDB()
	err := db.WithContext(ctx).
		Where("receiver_id = ? AND status = ? AND created_at > ?",
			receiverID, model.GameInviteStatusPending, since).
		Order("created_at DESC").Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("查询收到的邀请失败: %v", err)
	}
	return invites, nil
}

// ListSentInvites 获取发出的邀请（pending与accepted，发送方需要观察到会话ID）
func (d *socialDAO) ListSentInvites(ctx context.Context, senderID int64) ([]*model.GameInvite, error) {
	var invites []*model.GameInvite
	db := d.db.GetDB()
	err := db.WithContext(ctx).
		Where("sender_id = ? AND status IN ?", senderID,
			[]string{model.GameInviteStatusPending, model.GameInviteStatusAccepted}).
		Order("created_at DESC").Find(&invites).Error
	if err != nil {
		return nil, fmt.Errorf("查询发出的邀请失败: %v", err)
	}
	return invites, nil
}

// PurgeStaleInvites 清理指定用户集合参与的过期待处理邀请
func (d *socialDAO) PurgeStaleInvites(ctx context.Context, userIDs []int64, before time.Time) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	db := d.db.GetDB()
	result := db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.GameInviteStatusPending, before).
		Where("sender_id IN ? OR receiver_id IN ?", userIDs, userIDs).
		Delete(&model.GameInvite{})
	if result.Error != nil {
		return 0, fmt.Errorf("清理过期邀请失败: %v", result.Error)
	}
	return result.RowsAffected, nil
}

// PurgeExpiredInvites 全表清理过期待处理邀请（后台任务用）
func (d *socialDAO) PurgeExpiredInvites(ctx context.Context, before time.Time) (int64, error) {
	db := d.db.GetDB()
	result := db.WithContext(ctx).
		Where("status = ? AND created_at < ?", model.GameInviteStatusPending, before).
		Delete(&model.GameInvite{})
	if result.Error != nil {
		return 0, fmt.Errorf("清理过期邀请失败: %v", result.Error)
	}
	return result.RowsAffected, nil
}
