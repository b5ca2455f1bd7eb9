package service

// Broadcaster interface for WebSocket fan-out to monitoring clients
// (avoids import cycle)
type Broadcaster interface {
	BroadcastAssessment(surveyID string, payload interface{})
	BroadcastAlert(surveyID string, payload interface{})
}
