package stats

import (
	"context"
	"errors"
	"testing"
)

type mockCounter struct {
	n     int
	err   error
	calls int
}

func (m *mockCounter) Count(context.Context, string) (int, error) {
	m.calls++
	return m.n, m.err
}

type mockQuotes struct {
	quote string
	err   error
	calls int
}

func (m *mockQuotes) Random(context.Context) (string, error) {
	m.calls++
	return m.quote, m.err
}

func TestNextRewardThreshold(t *testing.T) {
	cases := []struct{ points, want int }{
		{0, 50},
		{1, 50},
		{49, 50},
		{50, 50},
		{51, 100},
		{100, 100},
		{150, 150},
		{151, 200},
	}
	for _, tc := range cases {
		if got := NextRewardThreshold(tc.points); got != tc.want {
			t.Errorf("NextRewardThreshold(%d) = %d, want %d", tc.points, got, tc.want)
		}
	}
}

func TestRefreshBelowThresholdSkipsQuote(t *testing.T) {
	counter := &mockCounter{n: 3}
	quotes := &mockQuotes{quote: "Go."}
	p := NewPanel("u1", counter, quotes, nil)

	p.Refresh(context.Background(), 40)

	if p.Count() != 3 {
		t.Errorf("count = %d, want 3", p.Count())
	}
	if quotes.calls != 0 {
		t.Errorf("quote fetched below threshold")
	}
	if p.RewardUnlocked() {
		t.Error("reward unlocked below threshold")
	}
}

func TestQuoteFetchedOnceAndKept(t *testing.T) {
	ctx := context.Background()
	quotes := &mockQuotes{quote: "Stay hungry."}
	p := NewPanel("u1", &mockCounter{n: 5}, quotes, nil)

	p.Refresh(ctx, 50)
	p.Refresh(ctx, 60)
	p.Refresh(ctx, 110)

	if quotes.calls != 1 {
		t.Errorf("quote fetched %d times, want 1", quotes.calls)
	}
	snap := p.Snapshot()
	if snap.Quote != "Stay hungry." || !snap.RewardUnlocked {
		t.Errorf("snapshot = %+v", snap)
	}
	if snap.NextReward != 150 || snap.Points != 110 || snap.Sessions != 5 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestQuoteFailureLeavesPanelEmpty(t *testing.T) {
	quotes := &mockQuotes{err: errors.New("dns")}
	p := NewPanel("u1", &mockCounter{}, quotes, nil)

	p.Refresh(context.Background(), 80)

	if p.Quote() != "" || p.RewardUnlocked() {
		t.Errorf("panel shows a reward after quote failure")
	}
	if quotes.calls != 1 {
		t.Errorf("quote calls = %d, want 1", quotes.calls)
	}
}

func TestCountFailureKeepsPrevious(t *testing.T) {
	counter := &mockCounter{n: 4}
	p := NewPanel("u1", counter, nil, nil)
	p.Refresh(context.Background(), 0)

	counter.err = errors.New("timeout")
	p.Refresh(context.Background(), 10)

	if p.Count() != 4 {
		t.Errorf("count = %d, want previous 4", p.Count())
	}
	if counter.calls != 2 {
		t.Errorf("count calls = %d, want 2", counter.calls)
	}
}
