package sync

import (
	gosync "sync"
	"time"

	"github.com/google/uuid"

	"github.com/glowlabs-ai/glow-backend/internal/domain"
)

// Progress is one snapshot of a running sync, emitted after every module
// start/finish transition. Results is a value copy, safe to read after the
// run has moved on.
type Progress struct {
	JobID            uuid.UUID                      `json:"job_id"`
	UserID           uuid.UUID                      `json:"user_id"`
	CompletedModules int                            `json:"completed_modules"`
	TotalModules     int                            `json:"total_modules"`
	CurrentModule    string                         `json:"current_module,omitempty"`
	Results          map[string]domain.ModuleResult `json:"results"`
	At               time.Time                      `json:"at"`
}

type ProgressFunc func(Progress)

// Broker fans progress snapshots out to independent subscribers (job
// persistence, the redis bus forwarder, request callbacks) so none of them
// couples to another's call signature. Slow subscribers drop snapshots
// rather than stall the sync.
type Broker struct {
	mu   gosync.Mutex
	subs map[uint64]chan Progress
	next uint64
}

func NewBroker() *Broker {
	return &Broker{subs: map[uint64]chan Progress{}}
}

// Subscribe registers a consumer. The returned cancel must be called to
// release the channel.
func (b *Broker) Subscribe() (<-chan Progress, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	ch := make(chan Progress, 16)
	b.subs[id] = ch
	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

func (b *Broker) Publish(p Progress) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- p:
		default:
		}
	}
}
