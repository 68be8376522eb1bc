package venue

import "sync"

// Quote is the latest bid/ask for a symbol. The core retains no history.
type Quote struct {
	Symbol string
	Bid    float64
	Ask    float64
}

// QuoteObserver receives each quote update. Observers run synchronously on
// the stream goroutine and must not block, or they stall the price feed.
type QuoteObserver func(Quote)

// QuoteFeed is a minimal publish/subscribe channel for quote updates.
// Subscriptions last for the life of the process; there is no unsubscribe.
type QuoteFeed struct {
	mu        sync.RWMutex
	observers []QuoteObserver
}

// NewQuoteFeed creates an empty feed.
func NewQuoteFeed() *QuoteFeed {
	return &QuoteFeed{}
}

// Subscribe registers an observer for all future quotes.
func (f *QuoteFeed) Subscribe(obs QuoteObserver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, obs)
}

// Publish delivers a quote to every observer. It iterates a snapshot of the
// subscriber list so a callback subscribing mid-delivery cannot corrupt the
// iteration.
func (f *QuoteFeed) Publish(q Quote) {
	f.mu.RLock()
	snapshot := make([]QuoteObserver, len(f.observers))
	copy(snapshot, f.observers)
	f.mu.RUnlock()

	for _, obs := range snapshot {
		obs(q)
	}
}
