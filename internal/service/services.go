package service

import (
	"log/slog"

	"github.com/dom/studyhub/internal/config"
	"github.com/dom/studyhub/internal/presence"
	"github.com/dom/studyhub/internal/repository"
	"github.com/dom/studyhub/internal/revocation"
	"github.com/dom/studyhub/internal/rtc"
	"github.com/dom/studyhub/internal/storage"
)

type Services struct {
	Auth  *AuthService
	Pdf   *PdfService
	Video *VideoService
}

// Deps are the external collaborators the services are built on.
type Deps struct {
	Revoked  revocation.Store
	Registry presence.Registry
	Store    storage.ObjectStore
	QA       DocumentQA
	Issuer   rtc.TokenIssuer
	Logger   *slog.Logger
}

func NewServices(repos *repository.Repositories, cfg *config.Config, deps Deps) *Services {
	tokens := NewTokenManager(cfg.AccessSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	return &Services{
		Auth:  NewAuthService(repos.User, tokens, deps.Revoked, deps.Logger),
		Pdf:   NewPdfService(repos.Pdf, deps.Store, deps.QA, deps.Logger),
		Video: NewVideoService(repos.User, deps.Issuer, deps.Registry, deps.Logger),
	}
}
