// Package rtc issues Agora RTC tokens for video channels.
package rtc

import (
	"errors"
	"fmt"
	"math"
	"time"

	rtctokenbuilder2 "github.com/AgoraIO-Community/go-tokenbuilder/rtctokenbuilder"
	"github.com/dom/studyhub/internal/domain"
)

const DefaultTokenTTL = time.Hour

var ErrNotConfigured = errors.New("agora app id and certificate are required")

type TokenIssuer interface {
	IssueToken(channelName string, uid uint, role domain.RTCRole) (string, error)
}

type AgoraIssuer struct {
	appID   string
	appCert string
	ttl     time.Duration
}

func NewAgoraIssuer(appID, appCert string, ttl time.Duration) *AgoraIssuer {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &AgoraIssuer{appID: appID, appCert: appCert, ttl: ttl}
}

// IssueToken builds a token bound to uid; the one lifetime covers the token and its privileges.
func (a *AgoraIssuer) IssueToken(channelName string, uid uint, role domain.RTCRole) (string, error) {
	if a.appID == "" || a.appCert == "" {
		return "", ErrNotConfigured
	}
	if uid > math.MaxUint32 {
		return "", fmt.Errorf("uid %d does not fit an agora uid", uid)
	}

	var agoraRole rtctokenbuilder2.Role = rtctokenbuilder2.RolePublisher
	if role == domain.RTCRoleSubscriber {
		agoraRole = rtctokenbuilder2.RoleSubscriber
	}

	expire := uint32(a.ttl / time.Second)
	token, err := rtctokenbuilder2.BuildTokenWithUid(a.appID, a.appCert, channelName, uint32(uid), agoraRole, expire)
	if err != nil {
		return "", fmt.Errorf("build agora token: %w", err)
	}
	return token, nil
}
