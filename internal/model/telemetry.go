package model

// MouseEvent is one sampled cursor position. Timestamps are epoch
// milliseconds from the client clock.
type MouseEvent struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
}

// ClickEvent records a click and whether the cursor hovered the target
// before the press.
type ClickEvent struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
	HadHover  bool    `json:"hadHover"`
}

// KeyEvent is a keydown or keyup. The key value itself is optional and
// only used to count corrections (Backspace, Delete).
type KeyEvent struct {
	Key       string `json:"key,omitempty"`
	Type      string `json:"type"` // "down" or "up"
	Timestamp int64  `json:"timestamp"`
}

// ScrollEvent is one scroll position sample.
type ScrollEvent struct {
	ScrollTop float64 `json:"scrollTop"`
	Timestamp int64   `json:"timestamp"`
}

// BehavioralMetrics is the raw client telemetry for one session. Any of
// the event streams (mouse, click, keyboard, scroll) may be empty; the
// behavioral analyzer lowers its confidence accordingly.
type BehavioralMetrics struct {
	SessionID string `json:"sessionId"`

	MouseMovements []MouseEvent  `json:"mouseMovements,omitempty"`
	Clicks         []ClickEvent  `json:"clicks,omitempty"`
	Keystrokes     []KeyEvent    `json:"keystrokes,omitempty"`
	Scrolls        []ScrollEvent `json:"scrolls,omitempty"`

	// MaxScroll is the page's maximum scrollable offset in pixels.
	// Above 1000 the page counts as long-form content.
	MaxScroll float64 `json:"maxScroll"`

	// FirstInteractionMS is the delay between page render and the
	// first user event, in milliseconds. Zero means unobserved.
	FirstInteractionMS int64 `json:"firstInteractionMs"`

	// ResponseTimes holds per-question completion times in ms.
	ResponseTimes []int64 `json:"responseTimes,omitempty"`

	// TotalDurationMS is the wall time spent on the form.
	TotalDurationMS int64 `json:"totalDurationMs"`

	PasteCount     int `json:"pasteCount"`
	TabSwitchCount int `json:"tabSwitchCount"`
	BackspaceCount int `json:"backspaceCount"`
}

// BehavioralSummary carries the metrics the behavioral analyzer
// computed, for display and audit. It is never used for scoring
// downstream.
type BehavioralSummary struct {
	ParallelismRatio   float64 `json:"parallelismRatio"`
	TeleportCount      int     `json:"teleportCount"`
	MaxAcceleration    float64 `json:"maxAcceleration"`
	KeystrokeStddevMS  float64 `json:"keystrokeStddevMs"`
	BackspaceCount     int     `json:"backspaceCount"`
	WordsPerMinute     float64 `json:"wordsPerMinute"`
	FirstInteractionMS int64   `json:"firstInteractionMs"`
	HoverRatio         float64 `json:"hoverRatio"`
	ScrollEventCount   int     `json:"scrollEventCount"`
	AvgResponseTimeMS  float64 `json:"avgResponseTimeMs"`
	InteractionEvents  int     `json:"interactionEvents"`
}

// HasAnyStream reports whether at least one telemetry stream is
// populated.
func (m *BehavioralMetrics) HasAnyStream() bool {
	if m == nil {
		return false
	}
	return len(m.MouseMovements) > 0 || len(m.Clicks) > 0 ||
		len(m.Keystrokes) > 0 || len(m.Scrolls) > 0 ||
		len(m.ResponseTimes) > 0
}

// PopulatedStreams counts how many of the four event streams (mouse,
// click, keyboard, scroll) carry data. The behavioral analyzer derives
// its confidence from this.
func (m *BehavioralMetrics) PopulatedStreams() int {
	if m == nil {
		return 0
	}
	n := 0
	if len(m.MouseMovements) > 0 {
		n++
	}
	if len(m.Clicks) > 0 {
		n++
	}
	if len(m.Keystrokes) > 0 {
		n++
	}
	if len(m.Scrolls) > 0 {
		n++
	}
	return n
}
