package model

import "errors"

// 业务错误，service层用 %w 包装，handler层用 errors.Is 映射到HTTP状态
var (
	// ErrDuplicateRequest 双方之间已存在待处理的好友申请（任一方向）
	ErrDuplicateRequest = errors.New("已存在待处理的好友申请")

	// ErrTooManyInFlight 发送方已有一条待处理的游戏邀请
	ErrTooManyInFlight = errors.New("已有待处理的游戏邀请")

	// ErrPresenceNotQualified 双方中有一方不满足在线活跃条件
	ErrPresenceNotQualified = errors.New("用户当前不满足邀请条件")

	// ErrRequestNotFound 好友申请不存在（可能已被对方处理，属正常竞态）
	ErrRequestNotFound = errors.New("好友申请不存在")

	// ErrInviteNotFound 游戏邀请不存在（可能已被对方处理，属正常竞态）
	ErrInviteNotFound = errors.New("游戏邀请不存在")

	// ErrInvalidState 目标记录不在操作要求的状态
	ErrInvalidState = errors.New("当前状态不允许该操作")

	// ErrForbidden 操作者不是该记录的合法主体
	ErrForbidden = errors.New("无权执行该操作")

	// ErrDependencyFailure 下游依赖失败，调用方可重试
	ErrDependencyFailure = errors.New("依赖服务暂时不可用")
)
