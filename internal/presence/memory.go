package presence

import (
	"context"
	"sync"
	"time"

	"github.com/dom/studyhub/internal/domain"
)

type memoryChannel struct {
	members   map[uint]domain.ChannelMember
	expiresAt time.Time
}

// MemoryRegistry is the single-process registry. Like the Redis hash, a channel
// expires ttl after its most recent join.
type MemoryRegistry struct {
	mu       sync.Mutex
	channels map[string]*memoryChannel
	subs     map[string]map[chan domain.ChannelEvent]struct{}
	ttl      time.Duration
	now      func() time.Time
}

func NewMemoryRegistry(ttl time.Duration) *MemoryRegistry {
	return &MemoryRegistry{
		channels: make(map[string]*memoryChannel),
		subs:     make(map[string]map[chan domain.ChannelEvent]struct{}),
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *MemoryRegistry) Join(_ context.Context, channel string, member domain.ChannelMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := r.live(channel)
	if ch == nil {
		ch = &memoryChannel{members: make(map[uint]domain.ChannelMember)}
		r.channels[channel] = ch
	}
	ch.members[member.UserID] = member
	ch.expiresAt = r.now().Add(r.ttl)

	r.broadcast(domain.ChannelEvent{Type: domain.ChannelEventJoined, ChannelName: channel, Member: member})
	return nil
}

func (r *MemoryRegistry) Leave(_ context.Context, channel string, userID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ch := r.live(channel)
	if ch == nil {
		return false, nil
	}
	member, ok := ch.members[userID]
	if !ok {
		return false, nil
	}
	delete(ch.members, userID)
	if len(ch.members) == 0 {
		delete(r.channels, channel)
	}

	r.broadcast(domain.ChannelEvent{Type: domain.ChannelEventLeft, ChannelName: channel, Member: member})
	return true, nil
}

func (r *MemoryRegistry) Members(_ context.Context, channel string) ([]domain.ChannelMember, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := make([]domain.ChannelMember, 0)
	if ch := r.live(channel); ch != nil {
		for _, m := range ch.members {
			members = append(members, m)
		}
	}
	sortMembers(members)
	return members, nil
}

func (r *MemoryRegistry) Subscribe(ctx context.Context, channel string) (<-chan domain.ChannelEvent, error) {
	out := make(chan domain.ChannelEvent, subscriberBuffer)

	r.mu.Lock()
	if r.subs[channel] == nil {
		r.subs[channel] = make(map[chan domain.ChannelEvent]struct{})
	}
	r.subs[channel][out] = struct{}{}
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		r.mu.Lock()
		delete(r.subs[channel], out)
		if len(r.subs[channel]) == 0 {
			delete(r.subs, channel)
		}
		r.mu.Unlock()
		close(out)
	}()
	return out, nil
}

// live returns the channel unless it has expired; caller holds mu.
func (r *MemoryRegistry) live(channel string) *memoryChannel {
	ch, ok := r.channels[channel]
	if !ok {
		return nil
	}
	if !r.now().Before(ch.expiresAt) {
		delete(r.channels, channel)
		return nil
	}
	return ch
}

// broadcast never blocks; a subscriber with a full buffer misses the event. Caller holds mu.
func (r *MemoryRegistry) broadcast(event domain.ChannelEvent) {
	for sub := range r.subs[event.ChannelName] {
		select {
		case sub <- event:
		default:
		}
	}
}
