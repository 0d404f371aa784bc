// Package service 承载业务逻辑：认证与令牌轮换、视频的上传/查询/删除、流式读取.
// 服务对象从请求上下文取存储客户端（见 pkg/context），进程级依赖（令牌服务、
// 任务队列）由处理器在构造时显式传入.
package service

import (
	"context"
	"errors"

	"github.com/yeisme/vidvault/pkg/configs"
	ctxPkg "github.com/yeisme/vidvault/pkg/context"
	"github.com/yeisme/vidvault/pkg/internal/storage/db"
	"github.com/yeisme/vidvault/pkg/internal/storage/kv"
	"github.com/yeisme/vidvault/pkg/internal/storage/mq"
	"github.com/yeisme/vidvault/pkg/internal/storage/s3"
	"github.com/yeisme/vidvault/pkg/jobqueue"
	"github.com/yeisme/vidvault/pkg/token"
)

// 业务错误，处理器映射到 HTTP 状态码.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrForbidden          = errors.New("access denied")
	ErrEmailTaken         = errors.New("email already registered")
	ErrSlugTaken          = errors.New("organization name already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user account is deactivated")
	ErrRefreshReuse       = errors.New("refresh token reuse detected")
	ErrRegistrationClosed = errors.New("registration is disabled")
	ErrFileTooLarge       = errors.New("file exceeds the allowed size")
	ErrFormatNotAllowed   = errors.New("file format not allowed")
	ErrNotReady           = errors.New("video is still processing")
	ErrProcessingFailed   = errors.New("video processing failed")
	ErrNoThumbnail        = errors.New("thumbnail not available")
)

// AuthService 认证与令牌.
type AuthService struct {
	dbClient *db.Client
	tokens   *token.Service
	cfg      *configs.AuthConfig
}

// NewAuthService 创建认证服务.
func NewAuthService(c context.Context, tokens *token.Service) *AuthService {
	return &AuthService{
		dbClient: ctxPkg.GetDBClient(c),
		tokens:   tokens,
		cfg:      &configs.GetConfig().Auth,
	}
}

// VideoService 视频生命周期.
type VideoService struct {
	s3Client *s3.Client
	dbClient *db.Client
	mqClient *mq.Client
	kvClient *kv.Client
	jobs     *jobqueue.Queue
}

// NewVideoService 创建视频服务. jobs 可为 nil（只读场景）.
func NewVideoService(c context.Context, jobs *jobqueue.Queue) *VideoService {
	return &VideoService{
		s3Client: ctxPkg.GetS3Client(c),
		dbClient: ctxPkg.GetDBClient(c),
		mqClient: ctxPkg.GetMQClient(c),
		kvClient: ctxPkg.GetKVClient(c),
		jobs:     jobs,
	}
}

// eventsEnabled 判断某类事件是否开启发布.
func eventsEnabled(pick func(configs.VideoEventsConfig) bool) bool {
	cfg := configs.GetConfig().Events
	if !cfg.Enabled {
		return false
	}

	return pick(cfg.Video)
}
