package stream

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/nickmccarty/kinstretch-web-app/internal/domain/port"
)

// Handler upgrades /ws/pose-stream/{video_id} requests and runs one Session
// per connection.
type Handler struct {
	frames   port.PoseFrameRepository
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewHandler(frames port.PoseFrameRepository, logger *zap.Logger) *Handler {
	return &Handler{
		frames: frames,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Capture clients are local tools, not browsers with shared
			// cookie state.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	videoID, err := uuid.Parse(r.PathValue("video_id"))
	if err != nil {
		http.Error(w, "invalid video id", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sess := NewSession(videoID, conn, h.frames, h.logger)
	if err := sess.Run(r.Context()); err != nil {
		h.logger.Warn("stream session ended with error",
			zap.String("video_id", videoID.String()),
			zap.Error(err),
		)
	}
}
