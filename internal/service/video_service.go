package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/presence"
	"github.com/dom/studyhub/internal/repository"
	"github.com/dom/studyhub/internal/rtc"
)

var ErrChannelRequired = errors.New("channel name is required")

type VideoService struct {
	userRepo repository.UserRepository
	issuer   rtc.TokenIssuer
	registry presence.Registry
	logger   *slog.Logger
	now      func() time.Time
}

func NewVideoService(userRepo repository.UserRepository, issuer rtc.TokenIssuer, registry presence.Registry, logger *slog.Logger) *VideoService {
	return &VideoService{
		userRepo: userRepo,
		issuer:   issuer,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
}

type ChannelToken struct {
	Token    string
	UID      uint
	Username string
}

// GenerateToken issues an RTC token whose uid is the user's id and registers
// the user in the channel under their stored username.
func (s *VideoService) GenerateToken(ctx context.Context, userID uint, channelName string, role domain.RTCRole) (*ChannelToken, error) {
	if channelName == "" {
		return nil, ErrChannelRequired
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	token, err := s.issuer.IssueToken(channelName, user.ID, role)
	if err != nil {
		return nil, fmt.Errorf("issue rtc token: %w", err)
	}

	member := domain.ChannelMember{
		UserID:      user.ID,
		DisplayName: user.Username,
		JoinedAt:    s.now().UTC(),
	}
	if err := s.registry.Join(ctx, channelName, member); err != nil {
		return nil, err
	}

	s.logger.Info("user joined channel", "user_id", user.ID, "channel", channelName, "role", role)
	return &ChannelToken{Token: token, UID: user.ID, Username: user.Username}, nil
}

func (s *VideoService) ChannelUsers(ctx context.Context, channelName string) ([]domain.ChannelMember, error) {
	if channelName == "" {
		return nil, ErrChannelRequired
	}
	return s.registry.Members(ctx, channelName)
}

// LeaveChannel is a no-op when the user is not in the channel.
func (s *VideoService) LeaveChannel(ctx context.Context, userID uint, channelName string) error {
	if channelName == "" {
		return ErrChannelRequired
	}
	left, err := s.registry.Leave(ctx, channelName, userID)
	if err != nil {
		return err
	}
	if left {
		s.logger.Info("user left channel", "user_id", userID, "channel", channelName)
	}
	return nil
}

func (s *VideoService) Subscribe(ctx context.Context, channelName string) (<-chan domain.ChannelEvent, error) {
	if channelName == "" {
		return nil, ErrChannelRequired
	}
	return s.registry.Subscribe(ctx, channelName)
}
