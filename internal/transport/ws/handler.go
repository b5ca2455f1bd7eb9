package ws

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"surveycipher/internal/cache"
	"surveycipher/internal/model"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Telemetry frames carry full event streams.
	maxMessageSize = 256 * 1024

	cacheWriteTimeout = 3 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for dev
	},
}

// Handler handles WebSocket connections
type Handler struct {
	hub       *Hub
	telemetry cache.TelemetryCache
}

// NewHandler creates a new WebSocket handler
func NewHandler(hub *Hub, telemetry cache.TelemetryCache) *Handler {
	return &Handler{
		hub:       hub,
		telemetry: telemetry,
	}
}

// MonitorWS handles GET /v1/ws/surveys/{surveyId}/monitor
func (h *Handler) MonitorWS(w http.ResponseWriter, r *http.Request) {
	surveyID := mux.Vars(r)["surveyId"]
	if surveyID == "" {
		http.Error(w, "missing survey id", http.StatusBadRequest)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	conn := &Connection{
		SurveyID: surveyID,
		Send:     make(chan []byte, 256),
		Hub:      h.hub,
	}

	h.hub.Register(conn)

	go h.writePump(wsConn, conn)
	go h.monitorReadPump(wsConn, conn)
}

// TelemetryWS handles GET /v1/ws/sessions/{sessionId}/telemetry. Each
// frame is a full behavioral snapshot that replaces the session's
// cached one; the latest snapshot wins when the submission is scored.
func (h *Handler) TelemetryWS(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]
	if sessionID == "" {
		http.Error(w, "missing session id", http.StatusBadRequest)
		return
	}

	wsConn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	go h.telemetryReadPump(wsConn, sessionID)
}

func (h *Handler) monitorReadPump(wsConn *websocket.Conn, conn *Connection) {
	defer func() {
		h.hub.Unregister(conn)
		wsConn.Close()
	}()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		// Monitors are receive-only; drain until the peer goes away.
		_, _, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}
}

func (h *Handler) telemetryReadPump(wsConn *websocket.Conn, sessionID string) {
	defer wsConn.Close()

	wsConn.SetReadLimit(maxMessageSize)
	wsConn.SetReadDeadline(time.Now().Add(pongWait))
	wsConn.SetPongHandler(func(string) error {
		wsConn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			return
		}
		wsConn.SetReadDeadline(time.Now().Add(pongWait))

		var metrics model.BehavioralMetrics
		if err := json.Unmarshal(data, &metrics); err != nil {
			h.writeControl(wsConn, MsgError, map[string]string{"error": "malformed telemetry frame"})
			continue
		}
		metrics.SessionID = sessionID

		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		err = h.telemetry.Set(ctx, sessionID, &metrics)
		cancel()
		if err != nil {
			log.Printf("Telemetry cache write failed for session %s: %v", sessionID, err)
			h.writeControl(wsConn, MsgError, map[string]string{"error": "snapshot not stored"})
			continue
		}

		h.writeControl(wsConn, MsgTelemetryAck, map[string]string{"sessionId": sessionID})
	}
}

func (h *Handler) writeControl(wsConn *websocket.Conn, msgType MessageType, payload interface{}) {
	data, _ := json.Marshal(payload)
	msg, _ := json.Marshal(&Message{Type: msgType, Payload: data})
	wsConn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := wsConn.WriteMessage(websocket.TextMessage, msg); err != nil {
		log.Printf("WebSocket write error: %v", err)
	}
}

func (h *Handler) writePump(wsConn *websocket.Conn, conn *Connection) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		wsConn.Close()
	}()

	for {
		select {
		case message, ok := <-conn.Send:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				wsConn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := wsConn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			wsConn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := wsConn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
