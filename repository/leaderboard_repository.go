package repository

import (
	"context"

	"PianoInstructor/model"

	"gorm.io/gorm"
)

// LeaderboardRepository 排行榜数据访问接口
type LeaderboardRepository interface {
	Create(ctx context.Context, entry *model.LeaderboardEntry) error
	// Top 按分数降序返回某个模式/难度的前 limit 条
	Top(ctx context.Context, mode, difficulty string, limit int) ([]*model.LeaderboardEntry, error)
}

// gormLeaderboardRepository GORM 实现
type gormLeaderboardRepository struct {
	db *gorm.DB
}

// NewGormLeaderboardRepository 创建 GORM 排行榜仓库
func NewGormLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &gormLeaderboardRepository{db: db}
}

// Create 写入一条排行榜记录
func (r *gormLeaderboardRepository) Create(ctx context.Context, entry *model.LeaderboardEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func topQuery(db *gorm.DB, mode, difficulty string, limit int) *gorm.DB {
	return db.Model(&model.LeaderboardEntry{}).
		Where("mode = ? AND difficulty = ?", mode, difficulty).
		Order("score DESC").
		Order("date ASC").
		Limit(limit)
}

// Top 查询排行榜
func (r *gormLeaderboardRepository) Top(ctx context.Context, mode, difficulty string, limit int) ([]*model.LeaderboardEntry, error) {
	var entries []*model.LeaderboardEntry
	err := topQuery(r.db.WithContext(ctx), mode, difficulty, limit).Find(&entries).Error
	return entries, err
}
