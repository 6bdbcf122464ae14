package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/config"
	"github.com/cbtarena/cbtarena-backend/internal/repository"
	"github.com/cbtarena/cbtarena-backend/internal/response"
	"github.com/cbtarena/cbtarena-backend/internal/service"
	ws "github.com/cbtarena/cbtarena-backend/internal/websocket"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const keepAliveInterval = 30 * time.Second

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// MonitorHandler streams live attempt activity to exam administrators over
// WebSocket. Events originate from the attempt engine's audit publisher;
// nothing here touches the attempt tables on the hot path.
type MonitorHandler struct {
	rdb         *redis.Client
	examService *service.ExamService
	attemptRepo *repository.AttemptRepository
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewMonitorHandler creates a new MonitorHandler.
func NewMonitorHandler(
	rdb *redis.Client,
	examService *service.ExamService,
	attemptRepo *repository.AttemptRepository,
	log zerolog.Logger,
	allowedOrigins []string,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:         rdb,
		examService: examService,
		attemptRepo: attemptRepo,
		log:         log.With().Str("component", "monitor_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// MonitorExam godoc
// WS /ws/v1/admin/exams/:id/monitor?token=...
// Sends an attempt-roster snapshot, then forwards every activity event for
// the exam as it happens.
func (h *MonitorHandler) MonitorExam(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	wsLog := h.log.With().Str("exam_id", examID.String()).Logger()
	wsLog.Info().Msg("Admin attached to live monitor")

	// Initial snapshot: the current roster in one frame.
	results, total, err := h.attemptRepo.ListByExam(c.Request.Context(), examID, 1, 1000)
	if err != nil {
		wsLog.Error().Err(err).Msg("Snapshot query failed")
		ws.WriteError(conn, "snapshot failed")
		return
	}
	inProgress := 0
	completed := 0
	for _, r := range results {
		switch r.Status {
		case "IN_PROGRESS":
			inProgress++
		case "COMPLETED":
			completed++
		}
	}
	ws.WriteTyped(conn, ws.SnapshotFrame{
		Event: ws.EventSnapshot,
		Data: gin.H{
			"exam": gin.H{
				"id":              exam.ID,
				"title":           exam.Title,
				"duration":        exam.DurationMinutes,
				"total_questions": exam.QuestionCount,
			},
			"stats": gin.H{
				"total_joined":      total,
				"total_in_progress": inProgress,
				"total_completed":   completed,
			},
			"attempts": results,
		},
	})

	// Live feed: subscribe to the exam's activity channel.
	pubsub := h.rdb.Subscribe(c.Request.Context(), config.CacheKey.ExamMonitorChannel(examID.String()))
	defer pubsub.Close()

	h.runSession(c.Request.Context(), conn, pubsub.Channel(), wsLog)
}

// runSession pumps activity events to the admin until either side hangs up.
// All application frames are written from the select loop — the reader
// goroutine only forwards ping requests through a channel, because
// gorilla/websocket forbids concurrent write calls on one connection.
func (h *MonitorHandler) runSession(ctx context.Context, conn *websocket.Conn, events <-chan *redis.Message, wsLog zerolog.Logger) {
	done := make(chan struct{})
	pings := make(chan struct{}, 1)
	go func() {
		defer close(done)
		for {
			var msg ws.RequestEnvelope
			if err := ws.ReadJSON(conn, &msg); err != nil {
				return
			}
			if msg.Action == ws.ActionPing {
				select {
				case pings <- struct{}{}:
				default: // A pong is already pending.
				}
			}
		}
	}()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-done:
			wsLog.Info().Msg("Admin disconnected from live monitor")
			return

		case <-ctx.Done():
			return

		case <-pings:
			if err := ws.WriteTyped(conn, ws.PongResponse{Event: ws.EventPong}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, closing monitor")
				return
			}

		case msg := <-events:
			// Forward the published JSON untouched.
			if err := ws.WriteTyped(conn, ws.ActivityFrame{
				Event: ws.EventActivity,
				Data:  json.RawMessage(msg.Payload),
			}); err != nil {
				wsLog.Debug().Err(err).Msg("Write failed, closing monitor")
				return
			}

		case <-keepAlive.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second)); err != nil {
				return
			}
		}
	}
}
