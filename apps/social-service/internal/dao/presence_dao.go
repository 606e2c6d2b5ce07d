package dao

import (
	"context"
	"fmt"
	"strconv"

	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/pkg/redis"
)

// presenceDAO 在线状态数据访问对象（Redis）
type presenceDAO struct {
	redis *redis.RedisClient
}

// NewPresenceDAO 创建在线状态DAO实例
func NewPresenceDAO(redisClient *redis.RedisClient) PresenceDAO {
	return &presenceDAO{redis: redisClient}
}

// presenceKey 用户在线状态的Redis键
func presenceKey(userID int64) string {
	return fmt.Sprintf("%s%d", model.PresenceKeyPrefix, userID)
}

// shouldApplyPresence last-writer-wins判定：时间戳必须严格递增才接受更新
func shouldApplyPresence(stored *model.PresenceStatus, incoming *model.PresenceStatus) bool {
	if stored == nil {
		return true
	}
	return incoming.LastChanged > stored.LastChanged
}

// SetPresence 写入在线状态，携带过期时间戳的更新会被丢弃
// 返回值表示更新是否被接受
func (d *presenceDAO) SetPresence(ctx context.Context, status *model.PresenceStatus) (bool, error) {
	stored, err := d.GetPresence(ctx, status.UserID)
	if err != nil {
		return false, err
	}
	if !shouldApplyPresence(stored, status) {
		return false, nil
	}

	fields := map[string]interface{}{
		"is_active":    strconv.FormatBool(status.IsActive),
		"last_changed": status.LastChanged,
	}
	if err := d.redis.HMSet(ctx, presenceKey(status.UserID), fields); err != nil {
		return false, fmt.Errorf("写入在线状态失败: %v", err)
	}

	// 活跃用户集合用于列表查询
	if status.IsActive {
		err = d.redis.SAdd(ctx, model.ActiveUsersKey, status.UserID)
	} else {
		err = d.redis.SRem(ctx, model.ActiveUsersKey, status.UserID)
	}
	if err != nil {
		return false, fmt.Errorf("更新活跃用户集合失败: %v", err)
	}

	return true, nil
}

// GetPresence 读取在线状态，从未上报过的用户返回 (nil, nil)
func (d *presenceDAO) GetPresence(ctx context.Context, userID int64) (*model.PresenceStatus, error) {
	fields, err := d.redis.HGetAll(ctx, presenceKey(userID))
	if err != nil {
		return nil, fmt.Errorf("读取在线状态失败: %v", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	status := &model.PresenceStatus{UserID: userID}
	if v, ok := fields["is_active"]; ok {
		status.IsActive, _ = strconv.ParseBool(v)
	}
	if v, ok := fields["last_changed"]; ok {
		status.LastChanged, _ = strconv.ParseInt(v, 10, 64)
	}
	return status, nil
}

// ListActiveUsers 获取当前活跃用户ID列表
func (d *presenceDAO) ListActiveUsers(ctx context.Context) ([]int64, error) {
	members, err := d.redis.SMembers(ctx, model.ActiveUsersKey)
	if err != nil {
		return nil, fmt.Errorf("读取活跃用户集合失败: %v", err)
	}

	userIDs := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, nil
}
