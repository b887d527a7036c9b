// Package presence tracks which users are in which video channel.
package presence

import (
	"context"
	"sort"

	"github.com/dom/studyhub/internal/domain"
)

type Registry interface {
	// Join records member in channel, replacing any earlier entry for the same user.
	Join(ctx context.Context, channel string, member domain.ChannelMember) error
	// Leave removes the user and reports whether they were present.
	Leave(ctx context.Context, channel string, userID uint) (bool, error)
	// Members lists the channel ordered by join time.
	Members(ctx context.Context, channel string) ([]domain.ChannelMember, error)
	// Subscribe streams membership changes until ctx is cancelled, then closes the channel.
	Subscribe(ctx context.Context, channel string) (<-chan domain.ChannelEvent, error)
}

const subscriberBuffer = 16

func sortMembers(members []domain.ChannelMember) {
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].UserID < members[j].UserID
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
}
