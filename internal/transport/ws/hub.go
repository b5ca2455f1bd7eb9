package ws

import (
	"encoding/json"
	"log"
	"sync"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Monitor message types
const (
	MsgAssessmentScored MessageType = "assessment_scored"
	MsgFraudAlert       MessageType = "fraud_alert"
	MsgTelemetryAck     MessageType = "telemetry_ack"
	MsgError            MessageType = "error"
)

// Message is the WebSocket envelope format
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub manages the monitoring WebSocket connections, keyed by survey.
type Hub struct {
	// Survey -> subscribed monitor connections
	monitors map[string]map[*Connection]bool

	mu sync.RWMutex

	// Channels for coordination
	register   chan *Connection
	unregister chan *Connection
	broadcast  chan *BroadcastMessage
}

// Connection represents one monitoring subscriber
type Connection struct {
	SurveyID string
	Send     chan []byte
	Hub      *Hub
}

// BroadcastMessage is a message to fan out to a survey's monitors
type BroadcastMessage struct {
	SurveyID string
	Message  *Message
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	h := &Hub{
		monitors:   make(map[string]map[*Connection]bool),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
		broadcast:  make(chan *BroadcastMessage, 256),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case conn := <-h.register:
			h.mu.Lock()
			if h.monitors[conn.SurveyID] == nil {
				h.monitors[conn.SurveyID] = make(map[*Connection]bool)
			}
			h.monitors[conn.SurveyID][conn] = true
			log.Printf("Monitor connected for survey %s", conn.SurveyID)
			h.mu.Unlock()

		case conn := <-h.unregister:
			h.mu.Lock()
			if conns, ok := h.monitors[conn.SurveyID]; ok {
				if conns[conn] {
					delete(conns, conn)
					close(conn.Send)
					log.Printf("Monitor disconnected from survey %s", conn.SurveyID)
				}
				if len(conns) == 0 {
					delete(h.monitors, conn.SurveyID)
				}
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			data, _ := json.Marshal(msg.Message)
			for conn := range h.monitors[msg.SurveyID] {
				select {
				case conn.Send <- data:
				default:
					// Drop message if buffer full
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a connection
func (h *Hub) Register(conn *Connection) {
	h.register <- conn
}

// Unregister removes a connection
func (h *Hub) Unregister(conn *Connection) {
	h.unregister <- conn
}

// BroadcastAssessment pushes a scored assessment to the survey's
// monitors (implements service.Broadcaster)
func (h *Hub) BroadcastAssessment(surveyID string, payload interface{}) {
	h.send(surveyID, MsgAssessmentScored, payload)
}

// BroadcastAlert pushes a high-risk alert to the survey's monitors
// (implements service.Broadcaster)
func (h *Hub) BroadcastAlert(surveyID string, payload interface{}) {
	h.send(surveyID, MsgFraudAlert, payload)
}

func (h *Hub) send(surveyID string, msgType MessageType, payload interface{}) {
	data, _ := json.Marshal(payload)
	h.broadcast <- &BroadcastMessage{
		SurveyID: surveyID,
		Message: &Message{
			Type:    msgType,
			Payload: data,
		},
	}
}
