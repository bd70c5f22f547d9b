package engine

import (
	"fmt"

	"PianoInstructor/core/theory"
	"PianoInstructor/core/utils"
)

const (
	optionCount = 4
	// 随机采样的上限，超过后从完整候选集中补齐，避免音域过窄时死循环
	maxSampleAttempts = 64
)

// 运行时出题使用的固定小候选池，与生成阶段的候选池不同
var (
	roundOptionRoots     = []string{"C", "F", "G", "A", "D", "E"}
	roundOptionQualities = []theory.Quality{theory.Major, theory.Minor, theory.Dominant7}
)

// buildOptions 收集包含正确答案在内的 4 个互不相同的候选项，升序返回
func buildOptions(r Random, correct string, sample func() string, universe []string) []string {
	set := map[string]struct{}{correct: {}}
	for i := 0; len(set) < optionCount && i < maxSampleAttempts; i++ {
		set[sample()] = struct{}{}
	}
	if len(set) < optionCount && len(universe) > 0 {
		offset := r.Index(len(universe))
		for i := 0; len(set) < optionCount && i < len(universe); i++ {
			set[universe[(offset+i)%len(universe)]] = struct{}{}
		}
	}
	return utils.SortedKeys(set)
}

// chordUniverse 十二个根音与给定性质组合出的全部和弦名
func chordUniverse(qualities []theory.Quality) []string {
	names := make([]string, 0, 12*len(qualities))
	for pc := 0; pc < 12; pc++ {
		for _, q := range qualities {
			names = append(names, theory.ChordName(pc, q))
		}
	}
	return names
}

// RoundOptions 为精准模式的当前轮次生成候选项
func RoundOptions(r Random, chordName string) []string {
	universe := make([]string, 0, len(roundOptionRoots)*len(roundOptionQualities))
	for _, root := range roundOptionRoots {
		for _, q := range roundOptionQualities {
			universe = append(universe, fmt.Sprintf("%s %s", root, q))
		}
	}
	return buildOptions(r, chordName, func() string {
		return fmt.Sprintf("%s %s", Pick(r, roundOptionRoots), Pick(r, roundOptionQualities))
	}, universe)
}
