package service

import (
	"sync"

	"github.com/msomdec/localmarket/internal/domain"
)

// ScoreFeed fans out committed reputation changes to live subscribers.
// Each subscriber channel holds only the newest score; publishers never block.
// Publishes from concurrent commits are not ordered, so a received score is a
// change notice: readers that need the settled value re-read the store.
type ScoreFeed struct {
	mu   sync.Mutex
	subs map[string]map[chan domain.Score]struct{}
}

// NewScoreFeed creates an empty feed.
func NewScoreFeed() *ScoreFeed {
	return &ScoreFeed{subs: make(map[string]map[chan domain.Score]struct{})}
}

// Subscribe registers interest in accountID. The returned cancel func must be
// called to release the subscription; it closes the channel.
func (f *ScoreFeed) Subscribe(accountID string) (<-chan domain.Score, func()) {
	ch := make(chan domain.Score, 1)

	f.mu.Lock()
	if f.subs[accountID] == nil {
		f.subs[accountID] = make(map[chan domain.Score]struct{})
	}
	f.subs[accountID][ch] = struct{}{}
	f.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.subs[accountID], ch)
			if len(f.subs[accountID]) == 0 {
				delete(f.subs, accountID)
			}
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers score to every subscriber of accountID, replacing any
// value a subscriber has not read yet.
func (f *ScoreFeed) Publish(accountID string, score domain.Score) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := range f.subs[accountID] {
		select {
		case <-ch:
		default:
		}
		ch <- score
	}
}

// Subscribers returns the number of live subscriptions for accountID.
func (f *ScoreFeed) Subscribers(accountID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs[accountID])
}
