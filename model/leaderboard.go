package model

import "time"

// LeaderboardEntry 排行榜记录
type LeaderboardEntry struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username   string    `json:"username" gorm:"size:100;not null"`
	Score      int       `json:"score" gorm:"index;not null"`
	Mode       string    `json:"mode" gorm:"size:40;index:idx_board"`
	Difficulty string    `json:"difficulty" gorm:"size:40;index:idx_board"`
	Date       time.Time `json:"date"`
}

// TableName 指定表名
func (LeaderboardEntry) TableName() string {
	return "leaderboard"
}

// ScoreSummary 排行榜对外展示的精简结构
type ScoreSummary struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}
