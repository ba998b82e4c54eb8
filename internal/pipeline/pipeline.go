// Package pipeline is the control loop: it turns each watched change into at
// most one hint, escalates hints while the learner stays stuck and records
// the outcome once the deleted code is restored.
package pipeline

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dusk-indust/learnwatch/internal/analyzer"
	"github.com/dusk-indust/learnwatch/internal/change"
	"github.com/dusk-indust/learnwatch/internal/feedback"
	"github.com/dusk-indust/learnwatch/internal/graph"
	"github.com/dusk-indust/learnwatch/internal/hint"
	"github.com/dusk-indust/learnwatch/internal/logger"
	"github.com/dusk-indust/learnwatch/internal/proficiency"
	"github.com/dusk-indust/learnwatch/internal/session"
	"github.com/dusk-indust/learnwatch/internal/storage"
	"github.com/dusk-indust/learnwatch/internal/syntax"
	"github.com/dusk-indust/learnwatch/internal/testrun"
	"github.com/dusk-indust/learnwatch/internal/ui"
	"github.com/dusk-indust/learnwatch/internal/watch"
)

// Emitter receives display events. It must not block.
type Emitter interface {
	Emit(ui.Event) bool
}

type discard struct{}

func (discard) Emit(ui.Event) bool { return false }

// Option configures a Pipeline.
type Option func(*Pipeline)

func WithAnalyzer(a *analyzer.Analyzer) Option       { return func(p *Pipeline) { p.analyzer = a } }
func WithCoordinator(c *feedback.Coordinator) Option { return func(p *Pipeline) { p.coord = c } }
func WithHintEngine(e *hint.Engine) Option           { return func(p *Pipeline) { p.hints = e } }
func WithEnricher(e *hint.Enricher) Option           { return func(p *Pipeline) { p.enricher = e } }
func WithSessions(m *session.Manager) Option         { return func(p *Pipeline) { p.sessions = m } }
func WithLocator(l *testrun.Locator) Option          { return func(p *Pipeline) { p.locator = l } }
func WithStore(s storage.Store) Option               { return func(p *Pipeline) { p.store = s } }
func WithGraphStore(s graph.Store) Option            { return func(p *Pipeline) { p.graphs = s } }
func WithEmitter(e Emitter) Option                   { return func(p *Pipeline) { p.ui = e } }
func WithLogger(l *logger.Logger) Option             { return func(p *Pipeline) { p.log = l } }
func WithClock(now func() time.Time) Option          { return func(p *Pipeline) { p.now = now } }

// lastDeletion is what the most recent hint was about, kept so Tick can
// escalate without a new edit.
type lastDeletion struct {
	filePath     string
	code         string
	context      analyzer.CodeContext
	deletedLines []string
}

// Pipeline owns the session and the learner profile. Handle and Tick must
// not be called concurrently.
type Pipeline struct {
	studentID string
	analyzer  *analyzer.Analyzer
	coord     *feedback.Coordinator
	hints     *hint.Engine
	enricher  *hint.Enricher
	sessions  *session.Manager
	locator   *testrun.Locator
	store     storage.Store
	graphs    graph.Store
	calc      proficiency.Calculator
	ui        Emitter
	log       *logger.Logger
	now       func() time.Time

	last *lastDeletion
}

// New returns a pipeline for studentID. Unset collaborators get working
// defaults: tree-sitter graphs, no test runner, an in-memory store and no
// display.
func New(studentID string, opts ...Option) *Pipeline {
	p := &Pipeline{
		studentID: studentID,
		calc:      proficiency.SimpleCalculator{},
		ui:        discard{},
		log:       logger.Nop(),
		now:       time.Now,
	}
	for _, o := range opts {
		o(p)
	}
	if p.analyzer == nil {
		p.analyzer = analyzer.New()
	}
	if p.coord == nil {
		p.coord = feedback.NewCoordinator(graph.NewTreeSitterBuilder(), nil, p.calc, p.log)
	}
	if p.hints == nil {
		p.hints = hint.NewEngine(nil)
	}
	if p.sessions == nil {
		p.sessions = session.NewManager(session.WithClock(p.now))
	}
	if p.store == nil {
		p.store = storage.NewMemoryStore()
	}
	return p
}

// Sessions exposes the session manager for display and export.
func (p *Pipeline) Sessions() *session.Manager { return p.sessions }

// Run handles changes until the channel closes or ctx is done. Ticks are
// taken every interval to escalate hints for a learner who stopped typing;
// a non-positive interval disables them. The session is ended on return.
func (p *Pipeline) Run(ctx context.Context, changes <-chan watch.Change, interval time.Duration) error {
	defer p.End(context.WithoutCancel(ctx))

	var tick <-chan time.Time
	if interval > 0 {
		t := time.NewTicker(interval)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case ch, ok := <-changes:
			if !ok {
				return nil
			}
			if err := p.Handle(ctx, ch); err != nil {
				// One bad event never stops the loop.
				p.log.Error("handle change", "file", ch.FilePath, "err", err)
				p.ui.Emit(ui.Event{Kind: ui.EventError, FilePath: ch.FilePath, Message: err.Error()})
			}
		case <-tick:
			p.Tick(ctx)
		case <-ctx.Done():
			return nil
		}
	}
}

// Handle processes one change. The stuck time is read before the timer is
// reset, so it measures how long the learner went without editing.
func (p *Pipeline) Handle(ctx context.Context, ch watch.Change) error {
	ev := change.NewEvent(ch.FilePath, ch.Before, ch.After)
	p.ensureSession(ctx, ev.FilePath)

	stuck := p.sessions.TimeStuck()
	p.sessions.ResetTimer()

	// The edit that restores a task is never itself a new deletion.
	if task, ok := p.sessions.Task(); ok && restored(task, ev.After) {
		return p.complete(ctx, task)
	}

	if !ev.HasDeletion() {
		return nil
	}

	cc := p.analyzer.AnalyzeDeletion(ev.Before, ev.After)
	if _, open := p.sessions.Task(); !open {
		p.sessions.OpenTask(session.Task{
			Pattern:          taskPattern(cc, ev),
			ExpectedPattern:  cc.ExpectedPattern,
			DeletedFunctions: functionNames(ev.DeletedFunctions),
			DeletedLines:     ev.DeletedLines,
		})
	}

	p.last = &lastDeletion{filePath: ev.FilePath, code: ev.After, context: cc, deletedLines: ev.DeletedLines}
	return p.present(ctx, p.last, stuck)
}

// Tick escalates the hint for an open task once the learner has been stuck
// long enough at the current level.
func (p *Pipeline) Tick(ctx context.Context) {
	if p.last == nil {
		return
	}
	if _, open := p.sessions.Task(); !open {
		return
	}
	stuck := p.sessions.TimeStuck()
	if !hint.ShouldIncreaseLevel(stuck, p.sessions.CurrentHintLevel()) {
		return
	}
	if err := p.present(ctx, p.last, stuck); err != nil {
		p.log.Error("escalate hint", "file", p.last.filePath, "err", err)
	}
}

// present picks the level, gathers context, generates the hint, records it
// and hands it to the display.
func (p *Pipeline) present(ctx context.Context, d *lastDeletion, stuck time.Duration) error {
	level := p.sessions.CurrentHintLevel()
	if hint.ShouldIncreaseLevel(stuck, level) {
		level = min(level+1, proficiency.MaxHintLevel)
	}

	profile, err := p.profile(ctx)
	if err != nil {
		return err
	}

	ec := p.coord.BuildEnhancedContext(d.code, d.context, &profile).
		UnwrapOr(feedback.EnhancedContext{CodeContext: d.context, StudentProfile: &profile})
	if p.locator != nil {
		if testFile, ok := p.locator.GetTestFile(d.filePath); ok {
			ec = p.coord.EnrichWithTests(ctx, ec, testFile).UnwrapOr(ec)
		}
	}
	if p.graphs != nil && ec.KnowledgeGraph != nil {
		if err := p.graphs.SaveGraph(ctx, d.filePath, *ec.KnowledgeGraph); err != nil {
			p.log.Warn("graph snapshot failed", "file", d.filePath, "err", err)
		}
	}

	// The adjusted level is only for display; the session keeps the
	// escalation level.
	shown := p.coord.AdaptiveHintLevel(ec, level)
	h := p.hints.Generate(d.context, shown, stuck)
	h = p.enricher.Enrich(ctx, d.context, d.deletedLines, h)

	p.sessions.RecordHint(hint.Hint{Level: level, Content: h.Content, BestPractice: h.BestPractice})
	p.log.Info("hint", "file", d.filePath, "pattern", d.context.MissingElement, "level", level, "shown", shown)

	current, _ := p.sessions.Current()
	ev := ui.Event{
		Kind:     ui.EventHint,
		FilePath: d.filePath,
		Pattern:  d.context.MissingElement,
		Hint:     h,
		Session:  current,
	}
	if feedback.ShouldShowTestFeedback(ec) {
		ev.Tests = ec.TestResult
	}
	if !p.ui.Emit(ev) {
		p.log.Debug("display queue full, hint dropped", "file", d.filePath)
	}
	return nil
}

// End closes the active session. An unfinished task counts as a failed
// attempt.
func (p *Pipeline) End(ctx context.Context) {
	if task, ok := p.sessions.Task(); ok {
		if err := p.record(ctx, task, false); err != nil {
			p.log.Error("record unfinished task", "err", err)
		}
	}
	if done, ok := p.sessions.End(); ok {
		p.archive(ctx, done)
	}
	p.last = nil
}

func (p *Pipeline) ensureSession(ctx context.Context, filePath string) {
	cur, ok := p.sessions.Current()
	if ok && cur.FilePath == filePath {
		return
	}
	if ok {
		// Switching files abandons the previous task.
		p.End(ctx)
	}
	s := p.sessions.Start(filePath)
	p.log.Info("session started", "file", filePath, "session", s.ID)
}

func (p *Pipeline) complete(ctx context.Context, task session.Task) error {
	if err := p.record(ctx, task, true); err != nil {
		return err
	}
	done, ok := p.sessions.MarkCompleted()
	if !ok {
		return nil
	}
	p.archive(ctx, done)
	p.last = nil

	elapsed := p.now().Sub(task.OpenedAt)
	p.log.Info("task completed", "file", done.FilePath, "pattern", task.Pattern, "elapsed", elapsed)
	p.ui.Emit(ui.Event{
		Kind:     ui.EventCompleted,
		FilePath: done.FilePath,
		Pattern:  task.Pattern,
		Session:  done,
		Elapsed:  elapsed,
	})
	return nil
}

// record folds one attempt into the stored profile.
func (p *Pipeline) record(ctx context.Context, task session.Task, success bool) error {
	profile, err := p.profile(ctx)
	if err != nil {
		return err
	}
	update := proficiency.ProfileUpdate{
		PatternType: string(task.Pattern),
		Success:     success,
		TimeTaken:   p.now().Sub(task.OpenedAt).Seconds(),
		HintLevel:   p.sessions.CurrentHintLevel(),
	}
	next := proficiency.Apply(p.calc, profile, update, p.now())
	if _, err := p.store.Save(ctx, next).Get(); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

func (p *Pipeline) profile(ctx context.Context) (proficiency.StudentProfile, error) {
	prof, err := proficiency.LoadOrNew(ctx, p.store, p.studentID, func() proficiency.StudentProfile {
		return proficiency.NewProfile(p.studentID, p.now())
	}).Get()
	if err != nil {
		return proficiency.StudentProfile{}, fmt.Errorf("load profile: %w", err)
	}
	return prof, nil
}

func (p *Pipeline) archive(ctx context.Context, s session.LearningSession) {
	if err := p.store.SaveSession(ctx, p.studentID, s); err != nil {
		p.log.Warn("archive session failed", "session", s.ID, "err", err)
	}
}

// taskPattern is the kind an attempt is scored under. A deleted function
// the keyword table cannot see still counts as functions practice.
func taskPattern(cc analyzer.CodeContext, ev change.Event) analyzer.PatternKind {
	if cc.MissingElement == analyzer.PatternUnknown && len(ev.DeletedFunctions) > 0 {
		return analyzer.PatternFunctions
	}
	return cc.MissingElement
}

// restored reports whether after brings back what task removed: every
// deleted function, else the missing keyword, else every deleted line.
func restored(task session.Task, after string) bool {
	switch {
	case len(task.DeletedFunctions) > 0:
		return definesAll(after, task.DeletedFunctions)
	case task.Pattern == analyzer.PatternSyntax:
		return syntax.Valid(after)
	case task.ExpectedPattern != "":
		return analyzer.Restored(after, task.ExpectedPattern)
	default:
		return containsLines(after, task.DeletedLines)
	}
}

func definesAll(code string, names []string) bool {
	tree, ok := syntax.ParseString(code).Value()
	if !ok {
		return false
	}
	defer tree.Close()

	defs := tree.FunctionDefs()
	for _, n := range names {
		if !slices.ContainsFunc(defs, func(d syntax.FunctionDef) bool { return d.Name == n }) {
			return false
		}
	}
	return true
}

func containsLines(code string, lines []string) bool {
	present := make(map[string]bool)
	for _, l := range strings.Split(code, "\n") {
		present[strings.TrimSpace(l)] = true
	}
	found := false
	for _, l := range lines {
		if l == "" {
			continue
		}
		if !present[l] {
			return false
		}
		found = true
	}
	return found
}

func functionNames(defs []change.DeletedFunction) []string {
	names := make([]string, 0, len(defs))
	for _, d := range defs {
		names = append(names, d.Name)
	}
	return names
}
