package stats

import (
	"context"
	"log/slog"
	"sync"
)

// RewardStep is the points interval between rewards.
const RewardStep = 50

// NextRewardThreshold is the smallest positive multiple of RewardStep that
// is at least points.
func NextRewardThreshold(points int) int {
	if points <= RewardStep {
		return RewardStep
	}
	return (points + RewardStep - 1) / RewardStep * RewardStep
}

// SessionCounter counts completed sessions. focus.Store satisfies it.
type SessionCounter interface {
	Count(ctx context.Context, userID string) (int, error)
}

// QuoteSource returns a motivational quote. quote.Client satisfies it.
type QuoteSource interface {
	Random(ctx context.Context) (string, error)
}

// Snapshot is what the panel displays.
type Snapshot struct {
	Points         int    `json:"points"`
	Sessions       int    `json:"sessions"`
	NextReward     int    `json:"next_reward"`
	Quote          string `json:"quote,omitempty"`
	RewardUnlocked bool   `json:"reward_unlocked"`
}

// Panel aggregates a user's session count and reward quote. It never
// writes anything.
type Panel struct {
	userID   string
	sessions SessionCounter
	quotes   QuoteSource
	log      *slog.Logger

	mu       sync.Mutex
	points   int
	count    int
	quote    string
	fetching bool
	onChange func()
}

func NewPanel(userID string, sessions SessionCounter, quotes QuoteSource, log *slog.Logger) *Panel {
	if log == nil {
		log = slog.Default()
	}
	return &Panel{
		userID:   userID,
		sessions: sessions,
		quotes:   quotes,
		log:      log.With("component", "stats", "user_id", userID),
	}
}

// OnChange registers fn to run after the snapshot changes.
func (p *Panel) OnChange(fn func()) {
	p.mu.Lock()
	p.onChange = fn
	p.mu.Unlock()
}

// Refresh records the displayed points, re-counts sessions and, once the
// user has RewardStep points, fetches a quote if none is held. A held
// quote is kept for the life of the panel. Failures are logged only.
func (p *Panel) Refresh(ctx context.Context, points int) {
	p.mu.Lock()
	p.points = points
	wantQuote := points >= RewardStep && p.quote == "" && !p.fetching && p.quotes != nil
	if wantQuote {
		p.fetching = true
	}
	p.mu.Unlock()

	if n, err := p.sessions.Count(ctx, p.userID); err != nil {
		p.log.Error("count sessions", "error", err)
	} else {
		p.mu.Lock()
		p.count = n
		p.mu.Unlock()
	}

	if wantQuote {
		q, err := p.quotes.Random(ctx)
		p.mu.Lock()
		p.fetching = false
		if err == nil {
			p.quote = q
		}
		p.mu.Unlock()
		if err != nil {
			p.log.Error("fetch quote", "error", err)
		}
	}

	p.changed()
}

// Count is the number of completed sessions last fetched.
func (p *Panel) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Quote is the held reward quote, or "".
func (p *Panel) Quote() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quote
}

// RewardUnlocked reports whether the reward card should be shown.
func (p *Panel) RewardUnlocked() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rewardUnlockedLocked()
}

func (p *Panel) rewardUnlockedLocked() bool {
	return p.quote != "" && p.points >= RewardStep
}

// Snapshot returns everything the panel displays.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Snapshot{
		Points:         p.points,
		Sessions:       p.count,
		NextReward:     NextRewardThreshold(p.points),
		Quote:          p.quote,
		RewardUnlocked: p.rewardUnlockedLocked(),
	}
}

func (p *Panel) changed() {
	p.mu.Lock()
	fn := p.onChange
	p.mu.Unlock()
	if fn != nil {
		fn()
	}
}
