package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"PianoInstructor/core/score"
	"PianoInstructor/logger"

	badger "github.com/dgraph-io/badger/v4"
)

// LocalScores 基于 BadgerDB 的本地最高分存储
// key: Score_<mode>_<difficulty>_<player>
type LocalScores struct {
	db *badger.DB
}

// LocalScoresOptions 本地存储配置
type LocalScoresOptions struct {
	Dir      string
	InMemory bool // 测试使用
}

// OpenLocalScores 打开本地最高分存储
func OpenLocalScores(opts LocalScoresOptions) (*LocalScores, error) {
	if !opts.InMemory && opts.Dir == "" {
		return nil, errors.New("local score dir is required")
	}
	dbOpts := badger.DefaultOptions(opts.Dir).WithLogger(badgerLogger{})
	if opts.InMemory {
		dbOpts = dbOpts.WithDir("").WithValueDir("").WithInMemory(true)
	}
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("打开本地分数存储失败: %w", err)
	}
	return &LocalScores{db: db}, nil
}

func localKey(key score.Key) []byte {
	return []byte(fmt.Sprintf("%s_%s", key.String(), key.Player))
}

// Get 实现 score.HighScores，不存在返回 0
func (s *LocalScores) Get(_ context.Context, key score.Key) (int, error) {
	var val []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(localKey(key))
		if err != nil {
			return err
		}
		val, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(string(val))
}

// Set 实现 score.HighScores
func (s *LocalScores) Set(_ context.Context, key score.Key, value int) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(localKey(key), []byte(strconv.Itoa(value)))
	})
}

// Players 列出某个模式/难度下所有玩家的最高分
func (s *LocalScores) Players(_ context.Context, key score.Key) (map[string]int, error) {
	prefix := []byte(key.String() + "_")
	scores := make(map[string]int)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			player := strings.TrimPrefix(string(item.Key()), string(prefix))
			val, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if n, err := strconv.Atoi(string(val)); err == nil {
				scores[player] = n
			}
		}
		return nil
	})
	return scores, err
}

// Close 关闭存储
func (s *LocalScores) Close() error {
	return s.db.Close()
}

// badgerLogger 把 badger 的日志转到 zap，丢弃 info/debug
type badgerLogger struct{}

func (badgerLogger) Errorf(f string, v ...interface{}) {
	logger.Error("badger", logger.String("detail", fmt.Sprintf(f, v...)))
}

func (badgerLogger) Warningf(f string, v ...interface{}) {
	logger.Warn("badger", logger.String("detail", fmt.Sprintf(f, v...)))
}

func (badgerLogger) Infof(string, ...interface{})  {}
func (badgerLogger) Debugf(string, ...interface{}) {}
