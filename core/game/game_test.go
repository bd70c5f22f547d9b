package game

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"PianoInstructor/core/engine"
	"PianoInstructor/core/timeline"
	"PianoInstructor/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// fixedRounds 每轮都是 C Maj，间隔 2.5 秒
type fixedRounds struct {
	nextCalls int
}

func cMajorRound(impact float64) model.FallingChordRound {
	return model.FallingChordRound{
		Notes: []model.NoteEvent{
			{Pitch: 48, StartTime: impact, Duration: 0.5},
			{Pitch: 52, StartTime: impact, Duration: 0.5},
			{Pitch: 55, StartTime: impact, Duration: 0.5},
		},
		ChordName:       "C Maj",
		TimeUntilImpact: impact,
		FallDuration:    2.5,
	}
}

func (f *fixedRounds) AccuracyRounds(int) []model.FallingChordRound {
	rounds := make([]model.FallingChordRound, 0, 5)
	for i := 1; i <= 5; i++ {
		rounds = append(rounds, cMajorRound(2.5*float64(i)))
	}
	return rounds
}

func (f *fixedRounds) NextRound(_ int, prev float64) model.FallingChordRound {
	f.nextCalls++
	return cMajorRound(prev + 2.5)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
	notes  []model.NoteEvent
	saves  []savedScore
	err    error
}

type savedScore struct {
	player     string
	score      int
	mode       model.GameMode
	difficulty int
}

func (r *recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Play(n model.NoteEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) SaveScore(_ context.Context, player string, score int, mode model.GameMode, difficulty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, savedScore{player, score, mode, difficulty})
	return r.err
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) last() Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

func newAccuracy(t *testing.T) (*AccuracyGame, *timeline.Manual, *recorder, *fixedRounds) {
	t.Helper()
	clock := timeline.NewManual(epoch)
	rec := &recorder{}
	src := &fixedRounds{}
	g := NewAccuracyGame(src, Config{
		Difficulty: 10,
		Player:     "alice",
		Scheduler:  clock,
		Audio:      rec,
		Sink:       rec,
		Scores:     rec,
		Random:     engine.NewRandom(1),
		Strict:     true,
	})
	require.NoError(t, g.Start())
	return g, clock, rec, src
}

func TestAccuracyStartEntersFirstRound(t *testing.T) {
	g, _, rec, _ := newAccuracy(t)

	s := g.Snapshot()
	assert.Equal(t, StateRunning, s.State)
	assert.Equal(t, 0, s.Index)
	assert.Len(t, s.Options, 4)
	assert.Contains(t, s.Options, "C Maj")
	assert.Equal(t, []EventType{EventRoundStarted}, rec.types())
	assert.ErrorIs(t, g.Start(), ErrAlreadyStarted)
}

func TestAccuracyCorrectAnswer(t *testing.T) {
	g, clock, rec, _ := newAccuracy(t)

	correct, ok := g.Answer("C Maj")
	assert.True(t, ok)
	assert.True(t, correct)
	assert.Equal(t, 10, g.Score())
	assert.Equal(t, []EventType{EventRoundStarted, EventScoreUpdated, EventRoundResolved}, rec.types())
	require.Len(t, rec.notes, 3)
	for _, n := range rec.notes {
		assert.Equal(t, 0.0, n.StartTime)
		assert.Equal(t, 0.5, n.Duration)
	}

	_, ok = g.Answer("C Maj")
	assert.False(t, ok, "second answer in the same round must be ignored")
	assert.Equal(t, 10, g.Score())

	clock.Advance(999 * time.Millisecond)
	assert.Equal(t, StateResolved, g.Snapshot().State)
	clock.Advance(time.Millisecond)
	s := g.Snapshot()
	assert.Equal(t, StateRunning, s.State)
	assert.Equal(t, 1, s.Index)
}

func TestAccuracyIncorrectAnswer(t *testing.T) {
	g, clock, rec, _ := newAccuracy(t)

	correct, ok := g.Answer("F Maj")
	assert.True(t, ok)
	assert.False(t, correct)
	assert.Equal(t, 0, g.Score())
	assert.Len(t, rec.notes, 3, "the chord is played even on a wrong answer")

	e := rec.last()
	assert.Equal(t, EventRoundResolved, e.Type)
	assert.False(t, e.Correct)
	assert.Equal(t, "F Maj", e.Answer)
	assert.Equal(t, "C Maj", e.CorrectAnswer)

	clock.Advance(time.Second)
	assert.Equal(t, 1, g.Snapshot().Index)
}

func TestAccuracyTimeout(t *testing.T) {
	g, clock, rec, _ := newAccuracy(t)

	clock.Advance(2550 * time.Millisecond)
	assert.Equal(t, StateRunning, g.Snapshot().State)

	clock.Advance(150 * time.Millisecond)
	s := g.Snapshot()
	assert.Equal(t, StateResolved, s.State)
	assert.Equal(t, 0, s.Score)
	assert.Len(t, rec.notes, 3)
	e := rec.last()
	assert.True(t, e.Missed)
	assert.False(t, e.Correct)

	_, ok := g.Answer("C Maj")
	assert.False(t, ok, "late answer after a miss is a no-op")

	// 未命中后 1 秒进入下一轮
	clock.Advance(850 * time.Millisecond)
	assert.Equal(t, StateResolved, g.Snapshot().State)
	clock.Advance(150 * time.Millisecond)
	assert.Equal(t, StateRunning, g.Snapshot().State)
	assert.Equal(t, 1, g.Snapshot().Index)
}

func TestAccuracyBufferStaysOneAhead(t *testing.T) {
	g, clock, _, src := newAccuracy(t)

	answers := 0
	for i := 0; i < 4; i++ {
		assert.Equal(t, 5, g.Snapshot().Buffered)
		g.Answer("C Maj")
		answers++
		clock.Advance(time.Second)
	}
	s := g.Snapshot()
	assert.Equal(t, 4, s.Index)
	assert.Equal(t, 6, s.Buffered)
	assert.Equal(t, 1, src.nextCalls)

	for i := 5; i < 8; i++ {
		g.Answer("C Maj")
		answers++
		clock.Advance(time.Second)
		s = g.Snapshot()
		assert.Equal(t, i, s.Index)
		assert.Equal(t, i+2, s.Buffered)
	}
	assert.Equal(t, 20.0, s.Round.TimeUntilImpact)
	assert.Equal(t, 7, answers)
	assert.Equal(t, PointsPerHit*answers, s.Score)
}

func TestAccuracyQuitDuringThirdRound(t *testing.T) {
	g, clock, rec, _ := newAccuracy(t)
	g.Answer("C Maj")
	clock.Advance(time.Second)
	g.Answer("C Maj")
	clock.Advance(time.Second)
	require.Equal(t, 2, g.Snapshot().Index)
	require.Equal(t, StateRunning, g.Snapshot().State)

	assert.Equal(t, 20, g.Quit(context.Background()))
	assert.Equal(t, 0, clock.Pending(), "quit must cancel the tick and every timer")

	events := len(rec.types())
	notes := len(rec.notes)
	e := rec.last()
	assert.Equal(t, EventFinalScore, e.Type)
	assert.Equal(t, 20, e.Score)

	clock.Advance(30 * time.Second)
	_, ok := g.Answer("C Maj")
	assert.False(t, ok)
	assert.Len(t, rec.types(), events)
	assert.Len(t, rec.notes, notes)
	assert.Equal(t, StateEnded, g.Snapshot().State)
	assert.True(t, g.Ended())

	assert.Equal(t, 20, g.Quit(context.Background()))
	require.Len(t, rec.saves, 1)
	assert.Equal(t, savedScore{"alice", 20, model.ModeAccuracy, 10}, rec.saves[0])
}

func TestAccuracyQuitWhileResolvedCancelsAdvance(t *testing.T) {
	g, clock, rec, _ := newAccuracy(t)
	g.Answer("C Maj")
	g.Quit(context.Background())

	clock.Advance(5 * time.Second)
	assert.Equal(t, StateEnded, g.Snapshot().State)
	assert.Equal(t, 0, g.Snapshot().Index)
	assert.Equal(t, EventFinalScore, rec.last().Type)
}

func TestAccuracyQuitFromIdle(t *testing.T) {
	rec := &recorder{}
	g := NewAccuracyGame(&fixedRounds{}, Config{Scheduler: timeline.NewManual(epoch), Sink: rec, Scores: rec})

	assert.Equal(t, 0, g.Quit(context.Background()))
	assert.Equal(t, []EventType{EventFinalScore}, rec.types())
	assert.Len(t, rec.saves, 1)
	assert.ErrorIs(t, g.Start(), ErrGameEnded)
}

func TestAccuracySaveErrorDoesNotAffectResult(t *testing.T) {
	g, _, rec, _ := newAccuracy(t)
	rec.err = errors.New("store unavailable")
	g.Answer("C Maj")

	assert.Equal(t, 10, g.Quit(context.Background()))
	assert.True(t, g.Ended())
}

func TestAccuracyInvariantViolation(t *testing.T) {
	g, _, _, _ := newAccuracy(t)

	g.mu.Lock()
	assert.Panics(t, func() { g.advanceLocked() })
	g.mu.Unlock()

	g.mu.Lock()
	g.cfg.Strict = false
	g.advanceLocked()
	g.mu.Unlock()
	s := g.Snapshot()
	assert.Equal(t, StateRunning, s.State)
	assert.Equal(t, 0, s.Index)
}

func TestAccuracyWithComposerMissesEveryRound(t *testing.T) {
	for _, d := range []int{1, 5, 10} {
		clock := timeline.NewManual(epoch)
		rec := &recorder{}
		composer := engine.NewComposer(engine.NewGenerator(engine.NewRandom(uint64(d))))
		g := NewAccuracyGame(composer, Config{
			Difficulty: d,
			Scheduler:  clock,
			Sink:       rec,
			Strict:     true,
		})
		require.NoError(t, g.Start())

		clock.Advance(60 * time.Second)
		s := g.Snapshot()
		assert.Greater(t, s.Index, 5)
		assert.Equal(t, s.Index+2, s.Buffered)
		assert.Equal(t, 0, s.Score)

		prev := 0.0
		for _, e := range rec.events {
			if e.Type == EventRoundStarted {
				assert.Greater(t, e.TimeUntilImpact, prev)
				prev = e.TimeUntilImpact
			}
		}
		g.Quit(context.Background())
	}
}

// nearRounds 第一轮在开始时已到超时边界，第一次 tick 就会判为未命中，与作答竞争
type nearRounds struct {
	impact float64
}

func (n nearRounds) AccuracyRounds(int) []model.FallingChordRound {
	return []model.FallingChordRound{cMajorRound(n.impact), cMajorRound(n.impact + 2.5)}
}

func (n nearRounds) NextRound(_ int, prev float64) model.FallingChordRound {
	return cMajorRound(prev + 2.5)
}

func TestAccuracyConcurrentAnswersResolveOnce(t *testing.T) {
	const trials = 50
	const answerers = 8

	for trial := 0; trial < trials; trial++ {
		sched := timeline.NewLoop()
		rec := &recorder{}
		g := NewAccuracyGame(nearRounds{impact: -missGrace}, Config{
			Difficulty:   10,
			Player:       "carol",
			Scheduler:    sched,
			Audio:        rec,
			Sink:         rec,
			Scores:       rec,
			Random:       engine.NewRandom(uint64(trial)),
			TickInterval: time.Millisecond,
		})
		require.NoError(t, g.Start())

		var accepted, correct int32
		var wg sync.WaitGroup
		start := make(chan struct{})
		for i := 0; i < answerers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				ok, acc := g.Answer("C Maj")
				if acc {
					atomic.AddInt32(&accepted, 1)
				}
				if ok {
					atomic.AddInt32(&correct, 1)
				}
			}()
		}
		close(start)
		wg.Wait()

		// 等待 tick 把未作答的轮次判为超时
		assert.Eventually(t, func() bool {
			return g.Snapshot().State == StateResolved
		}, time.Second, time.Millisecond)

		final := g.Quit(context.Background())
		sched.Close()

		rec.mu.Lock()
		resolved := 0
		missed := 0
		for _, e := range rec.events {
			if e.Type == EventRoundResolved && e.Index == 0 {
				resolved++
				if e.Missed {
					missed++
				}
			}
		}
		rec.mu.Unlock()

		assert.LessOrEqual(t, accepted, int32(1), "trial %d", trial)
		assert.Equal(t, 1, resolved, "trial %d: round 0 resolves exactly once", trial)
		assert.Equal(t, 1, int(accepted)+missed, "trial %d", trial)
		assert.Equal(t, PointsPerHit*int(correct), final, "trial %d", trial)
	}
}

// ========== 听音模式 ==========

type fixedQuiz struct {
	calls int
}

func (f *fixedQuiz) Quiz(int) model.QuizQuestion {
	f.calls++
	return model.QuizQuestion{
		NotesToPlay: []model.NoteEvent{
			{Pitch: 60, StartTime: 0, Duration: 1},
			{Pitch: 64, StartTime: 0.5, Duration: 1},
		},
		CorrectAnswer: "C",
		Options:       []string{"A", "C", "D#", "F"},
	}
}

func newListen(t *testing.T) (*ListenGame, *timeline.Manual, *recorder, *fixedQuiz) {
	t.Helper()
	clock := timeline.NewManual(epoch)
	rec := &recorder{}
	src := &fixedQuiz{}
	g := NewListenGame(src, Config{
		Difficulty: 1,
		Player:     "bob",
		Scheduler:  clock,
		Audio:      rec,
		Sink:       rec,
		Scores:     rec,
		Strict:     true,
	})
	require.NoError(t, g.Start())
	return g, clock, rec, src
}

func TestListenPlaysQuestionAfterDelay(t *testing.T) {
	g, clock, rec, _ := newListen(t)
	assert.Equal(t, []EventType{EventQuestion}, rec.types())
	assert.Equal(t, StateAwaiting, g.Snapshot().State)
	q := rec.last()
	assert.Len(t, q.Notes, 2)
	assert.Empty(t, q.CorrectAnswer)

	clock.Advance(499 * time.Millisecond)
	assert.Empty(t, rec.notes)
	clock.Advance(time.Millisecond)
	require.Len(t, rec.notes, 1)
	assert.Equal(t, 60, rec.notes[0].Pitch)

	clock.Advance(500 * time.Millisecond)
	require.Len(t, rec.notes, 2)
	assert.Equal(t, 64, rec.notes[1].Pitch)
	assert.Equal(t, 0.0, rec.notes[1].StartTime)
}

func TestListenCorrectAnswerAndNextQuestion(t *testing.T) {
	g, clock, rec, src := newListen(t)

	correct, ok := g.Answer("C")
	assert.True(t, ok)
	assert.True(t, correct)
	assert.Equal(t, 10, g.Score())
	assert.Equal(t, []EventType{EventQuestion, EventScoreUpdated, EventQuestionResolved}, rec.types())

	_, ok = g.Answer("C")
	assert.False(t, ok)
	assert.False(t, g.Replay(), "replay is only allowed while awaiting an answer")

	clock.Advance(1499 * time.Millisecond)
	assert.Equal(t, StateResolved, g.Snapshot().State)
	clock.Advance(time.Millisecond)
	s := g.Snapshot()
	assert.Equal(t, StateAwaiting, s.State)
	assert.Equal(t, 2, s.Asked)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, EventQuestion, rec.last().Type)
}

func TestListenIncorrectAnswer(t *testing.T) {
	g, _, rec, _ := newListen(t)

	correct, ok := g.Answer("F")
	assert.True(t, ok)
	assert.False(t, correct)
	assert.Equal(t, 0, g.Score())
	e := rec.last()
	assert.Equal(t, EventQuestionResolved, e.Type)
	assert.Equal(t, "C", e.CorrectAnswer)
}

func TestListenReplay(t *testing.T) {
	g, clock, rec, _ := newListen(t)
	clock.Advance(time.Second)
	require.Len(t, rec.notes, 2)

	assert.True(t, g.Replay())
	assert.Len(t, rec.notes, 3)
	clock.Advance(500 * time.Millisecond)
	assert.Len(t, rec.notes, 4)
	assert.Equal(t, StateAwaiting, g.Snapshot().State)
}

func TestListenQuitCancelsPlayback(t *testing.T) {
	g, clock, rec, _ := newListen(t)

	assert.Equal(t, 0, g.Quit(context.Background()))
	clock.Advance(5 * time.Second)
	assert.Empty(t, rec.notes)
	assert.Equal(t, 0, clock.Pending())
	assert.Equal(t, EventFinalScore, rec.last().Type)
	require.Len(t, rec.saves, 1)
	assert.Equal(t, savedScore{"bob", 0, model.ModeListen, 1}, rec.saves[0])

	_, ok := g.Answer("C")
	assert.False(t, ok)
	assert.False(t, g.Replay())
}

func TestListenQuitAfterAnswerStopsNextQuestion(t *testing.T) {
	g, clock, rec, src := newListen(t)
	g.Answer("C")

	assert.Equal(t, 10, g.Quit(context.Background()))
	clock.Advance(5 * time.Second)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, EventFinalScore, rec.last().Type)
}

func TestListenWithComposer(t *testing.T) {
	clock := timeline.NewManual(epoch)
	rec := &recorder{}
	composer := engine.NewComposer(engine.NewGenerator(engine.NewRandom(4)))
	g := NewListenGame(composer, Config{Difficulty: 2, Scheduler: clock, Sink: rec, Audio: rec, Strict: true})
	require.NoError(t, g.Start())

	for i := 0; i < 5; i++ {
		q := g.Snapshot().Question
		require.Len(t, q.NotesToPlay, 1)
		correct, ok := g.Answer(q.CorrectAnswer)
		assert.True(t, ok)
		assert.True(t, correct)
		clock.Advance(1500 * time.Millisecond)
	}
	assert.Equal(t, 50, g.Score())
}
