package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/feedback"
	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/hint"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/result"
	"github.com/dusk-indust/learnwatch/internal/session"
	"github.com/dusk-indust/learnwatch/internal/storage"
	"github.com/dusk-indust/learnwatch/internal/testrun"
	"github.com/dusk-indust/learnwatch/internal/ui"
	"github.com/dusk-indust/learnwatch/internal/watch"
)

const (
	student = "student-1"
	file    = "/work/main.py"

	loopCode = "for i in range(10):\n    print(i)\n"
	doneCode = "print('done')\n"

	twoFuncs = "def removed(x, y):\n    return x + y\n\n\ndef kept():\n    pass\n"
	oneFunc  = "def kept():\n    pass\n"
)

type recorder struct {
	mu     sync.Mutex
	events []ui.Event
}

func (r *recorder) Emit(e ui.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return true
}

func (r *recorder) all() []ui.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ui.Event(nil), r.events...)
}

func (r *recorder) hints() []ui.Event {
	var out []ui.Event
	for _, e := range r.all() {
		if e.Kind == ui.EventHint {
			out = append(out, e)
		}
	}
	return out
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

type harness struct {
	p     *Pipeline
	ui    *recorder
	store *storage.MemoryStore
	clock *clock
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		ui:    &recorder{},
		store: storage.NewMemoryStore(),
		clock: &clock{t: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)},
	}
	base := []Option{
		WithEmitter(h.ui),
		WithStore(h.store),
		WithClock(h.clock.now),
		WithHintEngine(hint.NewSeededEngine(1)),
	}
	h.p = New(student, append(base, opts...)...)
	return h
}

func (h *harness) handle(t *testing.T, before, after string) {
	t.Helper()
	require.NoError(t, h.p.Handle(context.Background(), watch.Change{FilePath: file, Before: before, After: after}))
}

func TestHandle_DeletionProducesHint(t *testing.T) {
	h := newHarness(t)
	h.handle(t, loopCode, doneCode)

	hints := h.ui.hints()
	require.Len(t, hints, 1)
	ev := hints[0]
	assert.Equal(t, analyzer.PatternLoops, ev.Pattern)
	assert.Equal(t, 1, ev.Hint.Level)
	assert.Contains(t, hint.Candidates(analyzer.PatternLoops, 1), ev.Hint.Content)
	assert.Empty(t, ev.Hint.BestPractice, "no tip at level 1")

	task, ok := h.p.Sessions().Task()
	require.True(t, ok)
	assert.Equal(t, analyzer.PatternLoops, task.Pattern)
	assert.Equal(t, "for", task.ExpectedPattern)

	cur, ok := h.p.Sessions().Current()
	require.True(t, ok)
	assert.Len(t, cur.HintsShown, 1)
}

func TestHandle_AdditionIsIgnored(t *testing.T) {
	h := newHarness(t)
	h.handle(t, doneCode, doneCode+"x = 1\n")

	assert.Empty(t, h.ui.all())
	_, ok := h.p.Sessions().Task()
	assert.False(t, ok)
}

func TestHandle_SyntaxErrorStillHints(t *testing.T) {
	h := newHarness(t)
	h.handle(t, loopCode, "for i in range(10:\n")

	hints := h.ui.hints()
	require.Len(t, hints, 1)
	assert.Equal(t, analyzer.PatternSyntax, hints[0].Pattern)
}

func TestHandle_RestoringFunctionCompletesTask(t *testing.T) {
	h := newHarness(t)
	h.handle(t, twoFuncs, oneFunc)

	task, ok := h.p.Sessions().Task()
	require.True(t, ok)
	assert.Equal(t, []string{"removed"}, task.DeletedFunctions)

	h.clock.advance(45 * time.Second)
	h.handle(t, oneFunc, twoFuncs)

	events := h.ui.all()
	require.Len(t, events, 2)
	done := events[1]
	assert.Equal(t, ui.EventCompleted, done.Kind)
	assert.Equal(t, 45*time.Second, done.Elapsed)

	_, ok = h.p.Sessions().Current()
	assert.False(t, ok, "completed session is cleared")

	ctx := context.Background()
	profile, err := h.store.Load(ctx, student).Get()
	require.NoError(t, err)
	stats, ok := profile.Stats(string(analyzer.PatternFunctions))
	require.True(t, ok)
	assert.Equal(t, 1, stats.Attempts)
	assert.Equal(t, 1, stats.Successes)
	assert.InDelta(t, 45.0, stats.TotalTime, 1e-9)

	archived, err := h.store.Sessions(ctx, student)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.True(t, archived[0].TaskCompleted)
}

func TestHandle_RestoringKeywordCompletesTask(t *testing.T) {
	h := newHarness(t)
	h.handle(t, loopCode, doneCode)
	h.handle(t, doneCode, "for n in [1, 2]:\n    print(n)\nprint('done')\n")

	events := h.ui.all()
	require.Len(t, events, 2)
	assert.Equal(t, ui.EventCompleted, events[1].Kind)
	assert.Equal(t, analyzer.PatternLoops, events[1].Pattern)
}

func TestHandle_PartialRestoreKeepsTaskOpen(t *testing.T) {
	h := newHarness(t)
	h.handle(t, loopCode, doneCode)
	h.handle(t, doneCode, "print('done')\nx = 1\n")

	_, ok := h.p.Sessions().Task()
	assert.True(t, ok)
	assert.Len(t, h.ui.all(), 1)
}

func TestHandle_HeaderWithoutBodyKeepsTaskOpen(t *testing.T) {
	for _, after := range []string{
		"print('done')\nfor x in xs:\n",
		"for i in range(10):\nprint('done')\n",
		"print('done')\n    for i in range(10):\n        print(i)\n",
	} {
		t.Run(after, func(t *testing.T) {
			h := newHarness(t)
			h.handle(t, loopCode, doneCode)
			h.clock.advance(10 * time.Second)
			h.handle(t, doneCode, after)

			task, ok := h.p.Sessions().Task()
			require.True(t, ok, "task stays open")
			assert.Equal(t, analyzer.PatternLoops, task.Pattern)
			for _, e := range h.ui.all() {
				assert.NotEqual(t, ui.EventCompleted, e.Kind)
			}

			if profile, err := h.store.Load(context.Background(), student).Get(); err == nil {
				stats, _ := profile.Stats(string(analyzer.PatternLoops))
				assert.Zero(t, stats.Successes)
			}
		})
	}
}

func TestTick_Escalates(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.handle(t, loopCode, doneCode)

	h.clock.advance(29 * time.Second)
	h.p.Tick(ctx)
	assert.Len(t, h.ui.hints(), 1, "not stuck long enough")

	h.clock.advance(time.Second)
	h.p.Tick(ctx)
	hints := h.ui.hints()
	require.Len(t, hints, 2)
	assert.Equal(t, 2, hints[1].Hint.Level)
	assert.NotEmpty(t, hints[1].Hint.BestPractice)
	assert.Equal(t, 2, h.p.Sessions().CurrentHintLevel())

	h.p.Tick(ctx)
	assert.Len(t, h.ui.hints(), 2, "level 2 needs 60s")

	h.clock.advance(30 * time.Second)
	h.p.Tick(ctx)
	require.Len(t, h.ui.hints(), 3)
	assert.Equal(t, 3, h.p.Sessions().CurrentHintLevel())
}

func TestTick_WithoutTaskDoesNothing(t *testing.T) {
	h := newHarness(t)
	h.clock.advance(time.Hour)
	h.p.Tick(context.Background())
	assert.Empty(t, h.ui.all())
}

func TestHandle_StuckTimeEscalatesOnEdit(t *testing.T) {
	h := newHarness(t)
	h.handle(t, loopCode, doneCode)

	h.clock.advance(40 * time.Second)
	h.handle(t, doneCode, "")

	hints := h.ui.hints()
	require.Len(t, hints, 2)
	assert.Equal(t, 2, hints[1].Hint.Level)
}

func TestPresent_ExpertSeesLowerLevelButSessionKeepsEscalation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	expert := proficiency.NewProfile(student, h.clock.now())
	expert.PatternStats["loops"] = proficiency.PatternStats{PatternType: "loops", Attempts: 2, Successes: 2, TotalTime: 60, HintLevelReached: 1}
	require.True(t, h.store.Save(ctx, expert).IsOk())

	h.handle(t, loopCode, doneCode)
	h.clock.advance(30 * time.Second)
	h.p.Tick(ctx)

	hints := h.ui.hints()
	require.Len(t, hints, 2)
	assert.Equal(t, 1, hints[1].Hint.Level, "expert is shown one level less")
	assert.Equal(t, 2, h.p.Sessions().CurrentHintLevel(), "escalation level is what the session records")
}

type scriptedRunner struct{ rr testrun.RunResult }

func (s scriptedRunner) RunTests(context.Context, string) result.Result[testrun.RunResult] {
	return result.Ok(s.rr)
}

func (s scriptedRunner) DiscoverTests(context.Context, string) result.Result[[]string] {
	return result.Ok([]string{})
}

func TestPresent_AttachesFailingTests(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/tests/test_main.py", []byte("def test_x(): pass\n"), 0o644))

	rr := testrun.RunResult{TotalTests: 2, Passed: 1, Failed: 1, Failures: []testrun.FailureInfo{{TestName: "test_loop"}}}
	coord := feedback.NewCoordinator(graph.NewTreeSitterBuilder(), scriptedRunner{rr: rr}, nil, nil)
	h := newHarness(t, WithCoordinator(coord), WithLocator(testrun.NewLocator(fs)))

	h.handle(t, loopCode, doneCode)
	hints := h.ui.hints()
	require.Len(t, hints, 1)
	require.NotNil(t, hints[0].Tests)
	assert.Equal(t, 1, hints[0].Tests.Failed)
}

func TestPresent_PassingTestsAreNotShown(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/test_main.py", []byte(""), 0o644))

	coord := feedback.NewCoordinator(graph.NewTreeSitterBuilder(), scriptedRunner{rr: testrun.RunResult{TotalTests: 1, Passed: 1}}, nil, nil)
	h := newHarness(t, WithCoordinator(coord), WithLocator(testrun.NewLocator(fs)))

	h.handle(t, loopCode, doneCode)
	require.Len(t, h.ui.hints(), 1)
	assert.Nil(t, h.ui.hints()[0].Tests)
}

func TestPresent_SavesGraphSnapshot(t *testing.T) {
	graphs := graph.NewMemStore()
	h := newHarness(t, WithGraphStore(graphs))
	h.handle(t, twoFuncs, oneFunc)

	g, ok, err := graphs.LoadGraph(context.Background(), file)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, g.Nodes(), 1)
	assert.Equal(t, "kept", g.Nodes()[0].Name)
}

func TestEnd_RecordsFailedAttempt(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.handle(t, loopCode, doneCode)
	h.clock.advance(2 * time.Minute)

	h.p.End(ctx)

	profile, err := h.store.Load(ctx, student).Get()
	require.NoError(t, err)
	stats, ok := profile.Stats("loops")
	require.True(t, ok)
	assert.Equal(t, 1, stats.Attempts)
	assert.Equal(t, 0, stats.Successes)

	archived, err := h.store.Sessions(ctx, student)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.False(t, archived[0].TaskCompleted)
}

func TestHandle_SwitchingFilesEndsSession(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.handle(t, loopCode, doneCode)
	require.NoError(t, h.p.Handle(ctx, watch.Change{FilePath: "/work/other.py", Before: "x = 1\n", After: "x = 1\ny = 2\n"}))

	cur, ok := h.p.Sessions().Current()
	require.True(t, ok)
	assert.Equal(t, "/work/other.py", cur.FilePath)

	archived, err := h.store.Sessions(ctx, student)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, file, archived[0].FilePath)
}

func TestRun_ProcessesUntilClosed(t *testing.T) {
	h := newHarness(t)
	changes := make(chan watch.Change, 2)
	changes <- watch.Change{FilePath: file, Before: loopCode, After: doneCode}
	close(changes)

	require.NoError(t, h.p.Run(context.Background(), changes, 0))
	assert.Len(t, h.ui.hints(), 1)

	_, ok := h.p.Sessions().Current()
	assert.False(t, ok, "Run ends the session")
	archived, err := h.store.Sessions(context.Background(), student)
	require.NoError(t, err)
	assert.Len(t, archived, 1)
}

func TestRestored(t *testing.T) {
	tests := []struct {
		name  string
		task  session.Task
		after string
		want  bool
	}{
		{"functions back", session.Task{Pattern: analyzer.PatternFunctions, DeletedFunctions: []string{"removed"}}, twoFuncs, true},
		{"function still missing", session.Task{Pattern: analyzer.PatternFunctions, DeletedFunctions: []string{"removed"}}, oneFunc, false},
		{"keyword back", session.Task{Pattern: analyzer.PatternLoops, ExpectedPattern: "for"}, loopCode, true},
		{"keyword back but broken", session.Task{Pattern: analyzer.PatternLoops, ExpectedPattern: "for"}, "for x in (:\n", false},
		{"syntax fixed", session.Task{Pattern: analyzer.PatternSyntax}, doneCode, true},
		{"syntax still broken", session.Task{Pattern: analyzer.PatternSyntax}, "def (:\n", false},
		{"lines back", session.Task{Pattern: analyzer.PatternUnknown, DeletedLines: []string{"x = compute()", ""}}, "def g():\n    x = compute()\n", true},
		{"no lines to compare", session.Task{Pattern: analyzer.PatternUnknown, DeletedLines: []string{""}}, "x\n", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, restored(tt.task, tt.after))
		})
	}
}
