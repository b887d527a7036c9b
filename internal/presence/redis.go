package presence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisRegistry keeps one hash per channel and fans events out over Pub/Sub,
// so every server instance sees the same membership.
type RedisRegistry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisRegistry(client *redis.Client, prefix string, ttl time.Duration, logger *slog.Logger) *RedisRegistry {
	return &RedisRegistry{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

func (r *RedisRegistry) membersKey(channel string) string {
	return r.prefix + "channel:" + channel
}

func (r *RedisRegistry) eventsKey(channel string) string {
	return r.prefix + "channel-events:" + channel
}

func (r *RedisRegistry) Join(ctx context.Context, channel string, member domain.ChannelMember) error {
	data, err := json.Marshal(member)
	if err != nil {
		return err
	}

	key := r.membersKey(channel)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, strconv.FormatUint(uint64(member.UserID), 10), data)
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("join channel %s: %w", channel, err)
	}

	r.publish(ctx, domain.ChannelEvent{Type: domain.ChannelEventJoined, ChannelName: channel, Member: member})
	return nil
}

func (r *RedisRegistry) Leave(ctx context.Context, channel string, userID uint) (bool, error) {
	key := r.membersKey(channel)
	field := strconv.FormatUint(uint64(userID), 10)

	var get *redis.StringCmd
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		get = pipe.HGet(ctx, key, field)
		del = pipe.HDel(ctx, key, field)
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return false, fmt.Errorf("leave channel %s: %w", channel, err)
	}
	if del.Val() == 0 {
		return false, nil
	}

	member := domain.ChannelMember{UserID: userID}
	if raw, err := get.Bytes(); err == nil {
		_ = json.Unmarshal(raw, &member)
	}
	r.publish(ctx, domain.ChannelEvent{Type: domain.ChannelEventLeft, ChannelName: channel, Member: member})
	return true, nil
}

func (r *RedisRegistry) Members(ctx context.Context, channel string) ([]domain.ChannelMember, error) {
	entries, err := r.client.HGetAll(ctx, r.membersKey(channel)).Result()
	if err != nil {
		return nil, fmt.Errorf("list channel %s: %w", channel, err)
	}

	members := make([]domain.ChannelMember, 0, len(entries))
	for field, raw := range entries {
		var m domain.ChannelMember
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			r.logger.Warn("skipping corrupt channel member", "channel", channel, "field", field, "error", err)
			continue
		}
		members = append(members, m)
	}
	sortMembers(members)
	return members, nil
}

func (r *RedisRegistry) Subscribe(ctx context.Context, channel string) (<-chan domain.ChannelEvent, error) {
	pubsub := r.client.Subscribe(ctx, r.eventsKey(channel))
	// Wait for the subscription to be confirmed so no event published after return is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("subscribe channel %s: %w", channel, err)
	}

	out := make(chan domain.ChannelEvent, subscriberBuffer)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var event domain.ChannelEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					r.logger.Warn("dropping malformed channel event", "channel", channel, "error", err)
					continue
				}
				select {
				case out <- event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (r *RedisRegistry) publish(ctx context.Context, event domain.ChannelEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}
	if err := r.client.Publish(ctx, r.eventsKey(event.ChannelName), data).Err(); err != nil {
		r.logger.Error("failed to publish channel event", "channel", event.ChannelName, "type", event.Type, "error", err)
	}
}
