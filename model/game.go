package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownMode 无法识别的游戏模式
var ErrUnknownMode = errors.New("unknown game mode")

// GameMode 游戏模式
type GameMode string

const (
	ModeListen   GameMode = "listen"   // 听音辨识
	ModeAccuracy GameMode = "accuracy" // 下落和弦精准模式
)

// Label 返回模式的展示名称
func (m GameMode) Label() string {
	switch m {
	case ModeListen:
		return "Listen & Identify"
	case ModeAccuracy:
		return "Test Your Accuracy"
	default:
		return string(m)
	}
}

// ParseGameMode 解析模式 ID 或展示名称
func ParseGameMode(s string) (GameMode, error) {
	s = strings.TrimSpace(s)
	for _, m := range []GameMode{ModeListen, ModeAccuracy} {
		if strings.EqualFold(s, string(m)) || s == m.Label() {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// 预设难度
const (
	DifficultyEasy   = 1
	DifficultyMedium = 5
	DifficultyHard   = 10
)

// DifficultyLabel 返回难度的展示名称，非预设难度返回 "Level N"
func DifficultyLabel(difficulty int) string {
	switch difficulty {
	case DifficultyEasy:
		return "Easy"
	case DifficultyMedium:
		return "Medium"
	case DifficultyHard:
		return "Hard"
	default:
		return fmt.Sprintf("Level %d", difficulty)
	}
}
