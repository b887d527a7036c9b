package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/studyhub/internal/api/middleware"
	"github.com/dom/studyhub/internal/domain"
	"github.com/dom/studyhub/internal/service"
)

type VideoHandler struct {
	videoService *service.VideoService
	logger       *slog.Logger
}

func NewVideoHandler(videoService *service.VideoService, logger *slog.Logger) *VideoHandler {
	return &VideoHandler{videoService: videoService, logger: logger}
}

type GenerateTokenRequest struct {
	ChannelName string `json:"channelName"`
	Role        string `json:"role"`
}

type GenerateTokenResponse struct {
	AgoraToken string `json:"agoraToken"`
	UID        uint   `json:"uid"`
	Username   string `json:"username"`
}

type LeaveChannelRequest struct {
	ChannelName string `json:"channelName"`
	// UserID is optional; when sent it must be the caller's own id.
	UserID uint `json:"userId"`
}

func (h *VideoHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req GenerateTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, err := h.videoService.GenerateToken(r.Context(), identity.UserID, req.ChannelName, domain.ParseRTCRole(req.Role))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrChannelRequired):
			writeError(w, http.StatusBadRequest, "Channel name is required")
		case errors.Is(err, domain.ErrUserNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		default:
			h.logger.Error("failed to generate rtc token", "user_id", identity.UserID, "channel", req.ChannelName, "error", err)
			writeInternalError(w)
		}
		return
	}

	writeJSON(w, http.StatusOK, GenerateTokenResponse{
		AgoraToken: token.Token,
		UID:        token.UID,
		Username:   token.Username,
	})
}

func (h *VideoHandler) ChannelUsers(w http.ResponseWriter, r *http.Request) {
	channelName := r.URL.Query().Get("channelName")

	members, err := h.videoService.ChannelUsers(r.Context(), channelName)
	if err != nil {
		if errors.Is(err, service.ErrChannelRequired) {
			writeError(w, http.StatusBadRequest, "Channel name is required")
			return
		}
		h.logger.Error("failed to list channel users", "channel", channelName, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, members)
}

func (h *VideoHandler) LeaveChannel(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req LeaveChannelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID != 0 && req.UserID != identity.UserID {
		writeError(w, http.StatusForbidden, "Forbidden")
		return
	}

	if err := h.videoService.LeaveChannel(r.Context(), identity.UserID, req.ChannelName); err != nil {
		if errors.Is(err, service.ErrChannelRequired) {
			writeError(w, http.StatusBadRequest, "Channel name is required")
			return
		}
		h.logger.Error("failed to leave channel", "user_id", identity.UserID, "channel", req.ChannelName, "error", err)
		writeInternalError(w)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
