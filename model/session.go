package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Song 一次关卡生成对应的游戏会话记录
type Song struct {
	ID              string    `json:"id" gorm:"primaryKey;size:36"`
	Title           string    `json:"title" gorm:"size:100;not null"`
	GameMode        string    `json:"gameMode" gorm:"size:40;index"`
	Difficulty      int       `json:"difficulty" gorm:"index"`
	Score           int       `json:"score" gorm:"default:0"`
	CreatedAt       time.Time `json:"createdAt" gorm:"index"`
	DurationSeconds int       `json:"durationSeconds"`
}

// TableName 指定表名
func (Song) TableName() string {
	return "game_sessions"
}

// NewSong 为刚生成的关卡创建会话记录，分数初始为 0
func NewSong(mode GameMode, difficulty int, level PlaybackData, now time.Time) Song {
	return Song{
		ID:              uuid.New().String(),
		Title:           fmt.Sprintf("%s (Lvl %d)", mode.Label(), difficulty),
		GameMode:        mode.Label(),
		Difficulty:      difficulty,
		Score:           0,
		CreatedAt:       now,
		DurationSeconds: int(level.TotalDuration),
	}
}

// SessionSummary 游戏结束后归档的会话摘要
type SessionSummary struct {
	Session    Song         `json:"session"`
	Player     string       `json:"player"`
	FinalScore int          `json:"finalScore"`
	EndedAt    time.Time    `json:"endedAt"`
	Level      PlaybackData `json:"level"`
}
