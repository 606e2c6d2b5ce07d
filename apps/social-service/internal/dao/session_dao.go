package dao

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"gamepal-social/apps/social-service/internal/model"
	"gamepal-social/pkg/database"
)

const sessionCollection = "game_sessions"

// sessionDAO 游戏会话数据访问对象（MongoDB）
type sessionDAO struct {
	mongo *database.MongoDB
}

// NewSessionDAO 创建会话DAO实例
func NewSessionDAO(mongoDB *database.MongoDB) SessionDAO {
	return &sessionDAO{mongo: mongoDB}
}

// CreateSession 写入会话记录
func (d *sessionDAO) CreateSession(ctx context.Context, session *model.GameSession) error {
	coll := d.mongo.GetCollection(sessionCollection)
	if _, err := coll.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("写入会话记录失败: %v", err)
	}
	return nil
}

// GetSession 按会话ID查询记录，不存在时返回 (nil, nil)
func (d *sessionDAO) GetSession(ctx context.Context, sessionID string) (*model.GameSession, error) {
	coll := d.mongo.GetCollection(sessionCollection)

	var session model.GameSession
	err := coll.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询会话记录失败: %v", err)
	}
	return &session, nil
}
