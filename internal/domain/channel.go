package domain

import "time"

type ChannelMember struct {
	UserID      uint      `json:"userId"`
	DisplayName string    `json:"displayName"`
	JoinedAt    time.Time `json:"joinedAt"`
}

type ChannelEventType string

const (
	ChannelEventJoined ChannelEventType = "joined"
	ChannelEventLeft   ChannelEventType = "left"
)

// ChannelEvent is pushed to channel-feed subscribers whenever membership changes.
type ChannelEvent struct {
	Type        ChannelEventType `json:"type"`
	ChannelName string           `json:"channelName"`
	Member      ChannelMember    `json:"member"`
}

type RTCRole string

const (
	RTCRolePublisher  RTCRole = "publisher"
	RTCRoleSubscriber RTCRole = "subscriber"
)

// ParseRTCRole defaults to publisher for anything other than "subscriber".
func ParseRTCRole(s string) RTCRole {
	if RTCRole(s) == RTCRoleSubscriber {
		return RTCRoleSubscriber
	}
	return RTCRolePublisher
}
