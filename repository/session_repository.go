package repository

import (
	"context"

	"PianoInstructor/model"

	"gorm.io/gorm"
)

// SessionRepository 游戏会话数据访问接口
type SessionRepository interface {
	Create(ctx context.Context, song *model.Song) error
	GetByID(ctx context.Context, id string) (*model.Song, error)
	UpdateScore(ctx context.Context, id string, score int) error
	// Recent 最新的在前
	Recent(ctx context.Context, limit int) ([]*model.Song, error)
}

// gormSessionRepository GORM 实现
type gormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository 创建 GORM 会话仓库
func NewGormSessionRepository(db *gorm.DB) SessionRepository {
	return &gormSessionRepository{db: db}
}

// Create 创建会话记录
func (r *gormSessionRepository) Create(ctx context.Context, song *model.Song) error {
	return r.db.WithContext(ctx).Create(song).Error
}

// GetByID 根据ID获取会话，不存在返回 nil, nil
func (r *gormSessionRepository) GetByID(ctx context.Context, id string) (*model.Song, error) {
	var song model.Song
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&song).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &song, nil
}

// UpdateScore 回写最终分数
func (r *gormSessionRepository) UpdateScore(ctx context.Context, id string, score int) error {
	return r.db.WithContext(ctx).Model(&model.Song{}).
		Where("id = ?", id).
		Update("score", score).Error
}

func recentQuery(db *gorm.DB, limit int) *gorm.DB {
	return db.Model(&model.Song{}).Order("created_at DESC").Limit(limit)
}

// Recent 最近的会话
func (r *gormSessionRepository) Recent(ctx context.Context, limit int) ([]*model.Song, error) {
	var songs []*model.Song
	err := recentQuery(r.db.WithContext(ctx), limit).Find(&songs).Error
	return songs, err
}

// SessionRecorder 把会话仓库适配为关卡组装器的持久化接口
type SessionRecorder struct {
	Repo SessionRepository
}

// RecordSession 实现 engine.SessionRecorder
func (s SessionRecorder) RecordSession(ctx context.Context, song model.Song) error {
	return s.Repo.Create(ctx, &song)
}
