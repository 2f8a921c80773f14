package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"crop-advisor/advisory"
	"crop-advisor/metrics"
	"crop-advisor/usecases"
	"crop-advisor/ws"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	maxRequestFrame = 64 << 10
	requestTimeout  = 30 * time.Second
)

// WSHandler groups dependencies for websocket flows
type WSHandler struct {
	mgr     *ws.Manager
	useCase *usecases.AdvisoryUseCase
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewWSHandler(mgr *ws.Manager, uc *usecases.AdvisoryUseCase, m *metrics.Metrics, log *slog.Logger) *WSHandler {
	return &WSHandler{mgr: mgr, useCase: uc, metrics: m, log: log}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// HandleAskWS upgrades to websocket, reads one farm-input object and streams
// the advisory back as JSON events before closing.
// GET /ws/ask
func (h *WSHandler) HandleAskWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	session := h.mgr.Register(conn)
	h.metrics.SessionOpened()
	log := h.log.With("session_id", session.ID)
	log.Info("stream session opened", "remote_addr", session.RemoteAddr)

	defer func() {
		h.mgr.Unregister(session.ID)
		h.metrics.SessionClosed()
		_ = session.Close("done")
		log.Info("stream session closed")
	}()

	conn.SetReadLimit(maxRequestFrame)
	_ = conn.SetReadDeadline(time.Now().Add(requestTimeout))

	mt, message, err := conn.ReadMessage()
	if err != nil {
		if websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
			log.Info("client closed before sending a request")
		} else {
			log.Warn("read error", "error", err)
		}
		return
	}
	if mt != websocket.TextMessage {
		_ = session.SendJSON(usecases.Event{Type: usecases.EventError, Text: "expected a text frame with a JSON object"})
		return
	}

	raw, err := advisory.DecodeInput(message)
	if err != nil {
		_ = session.SendJSON(usecases.Event{Type: usecases.EventError, Text: err.Error()})
		return
	}

	emit := func(e usecases.Event) error { return session.SendJSON(e) }
	if err := h.useCase.Stream(c.Request.Context(), raw, emit); err != nil {
		log.Warn("stream ended with error", "error", err)
	}
}

// GetSessions GET /ws/sessions
func (h *WSHandler) GetSessions(c *gin.Context) {
	sessions := h.mgr.List()
	c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
}
