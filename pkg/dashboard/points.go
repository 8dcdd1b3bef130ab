package dashboard

import "sync"

// Points is the user's points total as displayed. It is owned by the
// Dashboard and read by the components; only the owner writes it.
type Points struct {
	mu    sync.Mutex
	value int
	subs  []func(int)
}

// Get returns the current value.
func (p *Points) Get() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Set stores n and, if it differs from the previous value, calls every
// subscriber with it.
func (p *Points) Set(n int) {
	p.mu.Lock()
	if p.value == n {
		p.mu.Unlock()
		return
	}
	p.value = n
	subs := append([]func(int){}, p.subs...)
	p.mu.Unlock()

	for _, fn := range subs {
		fn(n)
	}
}

// Subscribe registers fn to run after every change.
func (p *Points) Subscribe(fn func(int)) {
	p.mu.Lock()
	p.subs = append(p.subs, fn)
	p.mu.Unlock()
}
