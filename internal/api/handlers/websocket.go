package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/studyhub/internal/api/middleware"
	"github.com/dom/studyhub/internal/service"
	"github.com/dom/studyhub/internal/websocket"
	ws "github.com/gorilla/websocket"
)

type ChannelFeedHandler struct {
	videoService *service.VideoService
	upgrader     ws.Upgrader
	logger       *slog.Logger
}

// NewChannelFeedHandler accepts upgrades from allowedOrigin, or from clients
// that send no Origin header at all.
func NewChannelFeedHandler(videoService *service.VideoService, allowedOrigin string, logger *slog.Logger) *ChannelFeedHandler {
	return &ChannelFeedHandler{
		videoService: videoService,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || origin == allowedOrigin
			},
		},
		logger: logger,
	}
}

func (h *ChannelFeedHandler) Handle(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.GetIdentity(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	channelName := r.URL.Query().Get("channelName")

	// The feed outlives the handler; its lifetime is tied to the connection.
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))

	events, err := h.videoService.Subscribe(ctx, channelName)
	if err != nil {
		cancel()
		if errors.Is(err, service.ErrChannelRequired) {
			writeError(w, http.StatusBadRequest, "Channel name is required")
			return
		}
		h.logger.Error("failed to subscribe to channel", "channel", channelName, "error", err)
		writeInternalError(w)
		return
	}

	members, err := h.videoService.ChannelUsers(ctx, channelName)
	if err != nil {
		cancel()
		h.logger.Error("failed to list channel users", "channel", channelName, "error", err)
		writeInternalError(w)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		cancel()
		h.logger.Warn("websocket upgrade failed", "user_id", identity.UserID, "error", err)
		return
	}

	client := websocket.NewClient(conn, identity.UserID, channelName, h.logger)

	go client.WritePump()
	go client.ReadPump(cancel)
	go client.Forward(websocket.SnapshotPayload{ChannelName: channelName, Members: members}, events)
}
