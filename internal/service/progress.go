package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/attaboy/academy/internal/domain"
	"github.com/attaboy/academy/internal/progression"
	"github.com/attaboy/academy/internal/projection"
)

// ProgressService owns every mutation of the learner snapshot.
// Operations are serialised and each one starts from the latest persisted snapshot,
// so separate processes sharing a store see last-write-wins semantics.
type ProgressService struct {
	mu       sync.Mutex
	store    projection.SnapshotStore
	catalog  *domain.Catalog
	notifier Notifier
	logger   *slog.Logger

	now        func() time.Time
	loc        *time.Location
	badgeBonus bool

	current *domain.Snapshot
	// unsaved is set while current holds a mutation the store rejected.
	unsaved bool
	// seq numbers saved mutations under mu. Notifications are delivered in seq
	// order without holding mu.
	seq uint64

	turnMu   sync.Mutex
	turn     *sync.Cond
	nextTurn uint64
}

// Option configures a ProgressService.
type Option func(*ProgressService)

// WithClock overrides the wall clock used to derive today's date.
func WithClock(now func() time.Time) Option {
	return func(s *ProgressService) { s.now = now }
}

// WithLocation sets the time zone calendar days are counted in.
func WithLocation(loc *time.Location) Option {
	return func(s *ProgressService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithBadgeBonus makes newly unlocked badges grant their XPBonus.
func WithBadgeBonus(enabled bool) Option {
	return func(s *ProgressService) { s.badgeBonus = enabled }
}

// NewProgressService creates the service. catalog must already be validated.
// notifier may be nil.
func NewProgressService(store projection.SnapshotStore, catalog *domain.Catalog, notifier Notifier, logger *slog.Logger, opts ...Option) *ProgressService {
	s := &ProgressService{
		store:    store,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
		loc:      time.UTC,
	}
	s.turn = sync.NewCond(&s.turnMu)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result describes the outcome of a mutation.
type Result struct {
	Snapshot  *domain.Snapshot `json:"snapshot"`
	Changed   bool             `json:"changed"`
	XPGained  int              `json:"xpGained"`
	NewBadges []string         `json:"newBadges"`
	LeveledUp bool             `json:"leveledUp"`
}

// change accumulates the effects of one mutation.
type change struct {
	at        time.Time
	changed   bool
	xpGained  int
	newBadges []string
	events    []domain.ProgressEvent
}

func (c *change) emit(evt domain.ProgressEvent) {
	c.events = append(c.events, evt)
}

// Init loads the persisted snapshot, creating and saving a default one when none
// exists, then retroactively awards badges the snapshot already qualifies for.
func (s *ProgressService) Init(ctx context.Context) (Result, error) {
	s.mu.Lock()
	p, err := s.store.Load(ctx)
	switch {
	case errors.Is(err, projection.ErrNotFound):
		p = s.fresh()
		s.current = p
		if err := s.store.Save(ctx, p); err != nil {
			s.unsaved = true
			s.mu.Unlock()
			return Result{Snapshot: p.Clone()}, domain.ErrStorage("create snapshot", err)
		}
		s.unsaved = false
		s.logger.Info("progress snapshot created", "learner_id", p.ID)
	case err != nil:
		s.current = s.fresh()
		s.unsaved = false
		res := Result{Snapshot: s.current.Clone()}
		s.mu.Unlock()
		s.logger.Error("load progress failed, continuing in memory", "error", err)
		return res, domain.ErrStorage("load snapshot", err)
	default:
		cached := p.Level
		s.settle(p)
		s.current = p
		s.unsaved = false
		if p.Level != cached {
			if err := s.store.Save(ctx, p); err != nil {
				s.unsaved = true
				s.logger.Error("persist recomputed level failed", "learner_id", p.ID, "error", err)
			}
		}
		s.logger.Info("progress snapshot loaded", "learner_id", p.ID, "xp", p.XP, "level", p.Level)
	}
	s.mu.Unlock()

	return s.SyncBadges(ctx)
}

// AddXP grants amount XP. Badges are not evaluated.
func (s *ProgressService) AddXP(ctx context.Context, amount int) (Result, error) {
	if err := domain.ValidatePositiveXP(amount); err != nil {
		return Result{}, domain.ErrValidation(err.Error())
	}
	return s.mutate(ctx, "add xp", func(p *domain.Snapshot, c *change) {
		s.addXP(p, c, amount)
		c.emit(domain.NewXPAddedEvent(p.ID, amount, p.XP, c.at))
	})
}

// CompleteLesson records a lesson once and awards the lesson reward.
func (s *ProgressService) CompleteLesson(ctx context.Context, lessonID string) (Result, error) {
	if err := domain.ValidateActivityID("lesson", lessonID); err != nil {
		return Result{}, domain.ErrValidation(err.Error())
	}
	return s.mutate(ctx, "complete lesson", func(p *domain.Snapshot, c *change) {
		if !p.CompletedLessons.Add(lessonID) {
			return
		}
		reward := s.catalog.Rewards.Lesson
		s.addXP(p, c, reward)
		s.touch(p, c)
		c.emit(domain.NewCompletionEvent(p.ID, domain.EventLessonCompleted, lessonID, reward, c.at))
		s.awardBadges(p, c)
	})
}

// CompleteQuiz records a quiz result. A full score is stored as the perfect
// completion. A perfect retake after a plain pass awards only the tier difference,
// QuizPerfect minus QuizPassed. Any retake after a perfect completion is a no-op.
func (s *ProgressService) CompleteQuiz(ctx context.Context, quizID string, score, total int) (Result, error) {
	if err := domain.ValidateActivityID("quiz", quizID); err != nil {
		return Result{}, domain.ErrValidation(err.Error())
	}
	if err := domain.ValidateQuizScore(score, total); err != nil {
		return Result{}, domain.ErrValidation(err.Error())
	}
	return s.mutate(ctx, "complete quiz", func(p *domain.Snapshot, c *change) {
		rewards := s.catalog.Rewards
		perfectID := domain.PerfectQuizID(quizID)

		var recorded string
		var reward int
		switch {
		case p.CompletedQuizzes.Has(perfectID):
			return
		case score == total && p.CompletedQuizzes.Has(quizID):
			recorded, reward = perfectID, rewards.QuizPerfect-rewards.QuizPassed
		case score == total:
			recorded, reward = perfectID, rewards.QuizPerfect
		case p.CompletedQuizzes.Has(quizID):
			return
		default:
			recorded, reward = quizID, rewards.QuizPassed
		}

		p.CompletedQuizzes.Add(recorded)
		c.changed = true
		s.addXP(p, c, reward)
		s.touch(p, c)
		c.emit(domain.NewCompletionEvent(p.ID, domain.EventQuizCompleted, recorded, reward, c.at))
		s.awardBadges(p, c)
	})
}

// CompleteGame records a game once and awards the game reward.
func (s *ProgressService) CompleteGame(ctx context.Context, gameID string) (Result, error) {
	if err := domain.ValidateActivityID("game", gameID); err != nil {
		return Result{}, domain.ErrValidation(err.Error())
	}
	return s.mutate(ctx, "complete game", func(p *domain.Snapshot, c *change) {
		if !p.CompletedGames.Add(gameID) {
			return
		}
		reward := s.catalog.Rewards.Game
		s.addXP(p, c, reward)
		s.touch(p, c)
		c.emit(domain.NewCompletionEvent(p.ID, domain.EventGameCompleted, gameID, reward, c.at))
		s.awardBadges(p, c)
	})
}

// UnlockBadge awards a badge directly, outside rule evaluation. Repeats are no-ops.
func (s *ProgressService) UnlockBadge(ctx context.Context, badgeID string) (Result, error) {
	if err := domain.ValidateActivityID("badge", badgeID); err != nil {
		return Result{}, domain.ErrValidation(err.Error())
	}
	return s.mutate(ctx, "unlock badge", func(p *domain.Snapshot, c *change) {
		s.grantBadge(p, c, badgeID)
		if c.changed && s.badgeBonus {
			s.awardBadges(p, c)
		}
	})
}

// UpdateStreak counts today towards the streak. Call it when a session starts,
// before any completion marks today as active.
func (s *ProgressService) UpdateStreak(ctx context.Context) (Result, error) {
	return s.mutate(ctx, "update streak", func(p *domain.Snapshot, c *change) {
		today := s.today(c)
		r := progression.UpdateStreak(p.Streak, p.LastActivityDate, today, s.catalog.Rewards)
		if !r.Changed {
			return
		}
		c.changed = true
		p.Streak = r.NewStreak
		p.LastActivityDate = today
		if r.BonusXP > 0 {
			s.addXP(p, c, r.BonusXP)
		}
		c.emit(domain.NewStreakUpdatedEvent(p.ID, r.NewStreak, r.BonusXP, c.at))
		s.awardBadges(p, c)
	})
}

// SyncBadges awards every badge the current snapshot qualifies for.
func (s *ProgressService) SyncBadges(ctx context.Context) (Result, error) {
	return s.mutate(ctx, "sync badges", func(p *domain.Snapshot, c *change) {
		s.awardBadges(p, c)
	})
}

// ResetProgress replaces the snapshot with a fresh default under a new identity.
func (s *ProgressService) ResetProgress(ctx context.Context) (Result, error) {
	return s.mutate(ctx, "reset progress", func(p *domain.Snapshot, c *change) {
		previous := p.ID
		*p = *domain.NewSnapshot()
		c.changed = true
		c.emit(domain.NewProgressResetEvent(p.ID, previous, c.at))
	})
}

// mutate runs fn against a copy of the latest snapshot, settles and persists the
// result once, and notifies after a successful save.
func (s *ProgressService) mutate(ctx context.Context, op string, fn func(p *domain.Snapshot, c *change)) (Result, error) {
	s.mu.Lock()

	base, loadErr := s.latest(ctx)
	if loadErr != nil {
		s.logger.Warn("load progress failed, using in-memory snapshot", "op", op, "error", loadErr)
	}

	work := base.Clone()
	c := &change{at: s.now()}
	fn(work, c)

	if !c.changed {
		s.current = base
		res := Result{Snapshot: base.Clone()}
		s.mu.Unlock()
		if loadErr != nil {
			return res, domain.ErrStorage(op, loadErr)
		}
		return res, nil
	}

	s.settle(work)
	leveledUp := work.ID == base.ID && work.Level > base.Level
	if leveledUp {
		c.emit(domain.NewLevelUpEvent(work.ID, base.Level, work.Level, c.at))
	}

	res := Result{
		Snapshot:  work.Clone(),
		Changed:   true,
		XPGained:  c.xpGained,
		NewBadges: c.newBadges,
		LeveledUp: leveledUp,
	}
	s.current = work

	if err := s.store.Save(ctx, work); err != nil {
		s.unsaved = true
		s.mu.Unlock()
		s.logger.Error("persist progress failed", "op", op, "learner_id", work.ID, "error", err)
		return res, domain.ErrStorage(op, err)
	}
	s.unsaved = false
	ticket := s.seq
	s.seq++
	s.mu.Unlock()

	s.logger.Info("progress updated",
		"op", op,
		"learner_id", work.ID,
		"xp", work.XP,
		"level", work.Level,
		"new_badges", c.newBadges,
	)
	s.deliver(ticket, func() { s.notify(ctx, res.Snapshot, c.events) })
	return res, nil
}

// deliver runs fn once every mutation saved before ticket has run its own.
// Every ticket taken must be delivered, even when there is nothing to send.
func (s *ProgressService) deliver(ticket uint64, fn func()) {
	s.turnMu.Lock()
	for s.nextTurn != ticket {
		s.turn.Wait()
	}
	s.turnMu.Unlock()

	defer func() {
		s.turnMu.Lock()
		s.nextTurn++
		s.turn.Broadcast()
		s.turnMu.Unlock()
	}()
	fn()
}

// latest returns the snapshot an operation should start from. On a read failure it
// falls back to the in-memory copy and also returns the error.
func (s *ProgressService) latest(ctx context.Context) (*domain.Snapshot, error) {
	if s.unsaved && s.current != nil {
		return s.current, nil
	}
	p, err := s.store.Load(ctx)
	switch {
	case err == nil:
		s.settle(p)
		return p, nil
	case errors.Is(err, projection.ErrNotFound):
		if s.current != nil {
			return s.current, nil
		}
		return s.fresh(), nil
	default:
		if s.current != nil {
			return s.current, err
		}
		return s.fresh(), err
	}
}

func (s *ProgressService) notify(ctx context.Context, snapshot *domain.Snapshot, events []domain.ProgressEvent) {
	if s.notifier == nil || len(events) == 0 {
		return
	}
	if err := s.notifier.Notify(ctx, snapshot, events); err != nil {
		s.logger.Warn("progress notification failed", "learner_id", snapshot.ID, "events", len(events), "error", err)
	}
}

// settle is the single place the cached level is derived from XP.
func (s *ProgressService) settle(p *domain.Snapshot) {
	p.Level = progression.ResolveLevel(s.catalog.Levels, p.XP).Current.Level
}

func (s *ProgressService) fresh() *domain.Snapshot {
	p := domain.NewSnapshot()
	s.settle(p)
	return p
}

func (s *ProgressService) today(c *change) string {
	return progression.DateString(c.at, s.loc)
}

// touch marks today as active without moving lastActivityDate backwards.
func (s *ProgressService) touch(p *domain.Snapshot, c *change) {
	today := s.today(c)
	if p.LastActivityDate == "" || today > p.LastActivityDate {
		p.LastActivityDate = today
	}
}

func (s *ProgressService) addXP(p *domain.Snapshot, c *change, amount int) {
	p.XP += amount
	c.xpGained += amount
	c.changed = true
}

// awardBadges merges every newly satisfied badge. With badge bonuses enabled the
// bonus XP can satisfy further badges, so evaluation repeats until nothing new qualifies.
func (s *ProgressService) awardBadges(p *domain.Snapshot, c *change) {
	for {
		earned := progression.Evaluate(p, s.catalog)
		if len(earned) == 0 {
			return
		}
		for _, id := range earned {
			s.grantBadge(p, c, id)
		}
		if !s.badgeBonus {
			return
		}
	}
}

func (s *ProgressService) grantBadge(p *domain.Snapshot, c *change, badgeID string) {
	if !p.Badges.Add(badgeID) {
		return
	}
	c.changed = true
	c.newBadges = append(c.newBadges, badgeID)
	c.emit(domain.NewBadgeUnlockedEvent(p.ID, badgeID, c.at))
	if !s.badgeBonus {
		return
	}
	if b, ok := s.catalog.Badge(badgeID); ok && b.XPBonus > 0 {
		s.addXP(p, c, b.XPBonus)
	}
}

// --- Readers ---

// BadgeStatus is a catalog badge with the learner's unlock state.
type BadgeStatus struct {
	domain.Badge
	Kind     domain.ConditionKind `json:"kind"`
	Unlocked bool                 `json:"unlocked"`
}

func (s *ProgressService) view() *domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return s.fresh()
	}
	return s.current.Clone()
}

// Snapshot returns a copy of the in-memory snapshot.
func (s *ProgressService) Snapshot() *domain.Snapshot {
	return s.view()
}

// LevelInfo resolves the current and next level for the in-memory snapshot.
func (s *ProgressService) LevelInfo() progression.LevelInfo {
	return progression.ResolveLevel(s.catalog.Levels, s.view().XP)
}

// Modules returns the status of every catalog module in catalog order.
func (s *ProgressService) Modules() []progression.ModuleStatus {
	p := s.view()
	out := make([]progression.ModuleStatus, 0, len(s.catalog.Modules))
	for _, m := range s.catalog.Modules {
		out = append(out, progression.StatusOf(m, p))
	}
	return out
}

// ModuleProgress returns the status of one module.
func (s *ProgressService) ModuleProgress(moduleID string) (progression.ModuleStatus, error) {
	m, ok := s.catalog.Module(moduleID)
	if !ok {
		return progression.ModuleStatus{}, domain.ErrNotFound("module", moduleID)
	}
	return progression.StatusOf(m, s.view()), nil
}

// BadgeBoard lists every catalog badge in catalog order with its unlock state.
func (s *ProgressService) BadgeBoard() []BadgeStatus {
	p := s.view()
	out := make([]BadgeStatus, 0, len(s.catalog.Badges))
	for _, b := range s.catalog.Badges {
		out = append(out, BadgeStatus{Badge: b, Kind: b.Condition.Kind(), Unlocked: p.Badges.Has(b.ID)})
	}
	return out
}

// Catalog returns the catalog the service evaluates against.
func (s *ProgressService) Catalog() *domain.Catalog {
	return s.catalog
}
