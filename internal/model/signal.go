package model

import "fmt"

// CheckID identifies one fraud check from the closed registry.
// Detectors may only emit signals whose CheckID is registered.
type CheckID string

const (
	// Behavioral checks
	CheckRapidCompletion     CheckID = "rapid_completion"
	CheckUniformTiming       CheckID = "uniform_timing"
	CheckLowInteraction      CheckID = "low_interaction"
	CheckRoboticMovement     CheckID = "robotic_movement"
	CheckMouseTeleporting    CheckID = "mouse_teleporting"
	CheckMouseAcceleration   CheckID = "mouse_acceleration"
	CheckNoCorrections       CheckID = "no_corrections"
	CheckImpossibleSpeed     CheckID = "impossible_typing_speed"
	CheckInstantFilling      CheckID = "instant_form_filling"
	CheckNoHoverBehavior     CheckID = "no_hover_behavior"
	CheckNoScrolling         CheckID = "no_scrolling"
	CheckExcessivePaste      CheckID = "excessive_paste"
	CheckExcessiveTabSwitch  CheckID = "excessive_tab_switching"

	// Device checks
	CheckWebDriverDetected   CheckID = "webdriver_detected"
	CheckAutomationDetected  CheckID = "automation_detected"
	CheckNoPlugins           CheckID = "no_plugins"
	CheckSuspiciousUserAgent CheckID = "suspicious_user_agent"
	CheckDeviceMismatch      CheckID = "device_fingerprint_mismatch"
	CheckScreenAnomaly       CheckID = "screen_anomaly"

	// Content checks
	CheckStraightLining      CheckID = "straight_line_answers"
	CheckMinimalEffort       CheckID = "minimal_effort"
	CheckAIContentBasic      CheckID = "ai_content_basic"

	// Contradiction checks
	CheckContradictionBasic  CheckID = "contradiction_basic"
	CheckContradictionFull   CheckID = "contradiction_full"

	// Network checks
	CheckVPNDetection        CheckID = "vpn_detection"
	CheckDatacenterIP        CheckID = "datacenter_ip"
	CheckTorDetection        CheckID = "tor_detection"
	CheckProxyDetection      CheckID = "proxy_detection"
	CheckTimezoneMismatch    CheckID = "timezone_validation"

	// Reputation checks
	CheckBadReputation       CheckID = "bad_reputation"
	CheckSubmissionVelocity  CheckID = "submission_velocity"
)

// CheckCategory groups checks for per-category sub-scores and for
// confidence diversity in fusion.
type CheckCategory string

const (
	CategoryBehavioral    CheckCategory = "behavioral"
	CategoryDevice        CheckCategory = "device"
	CategoryContent       CheckCategory = "content"
	CategoryContradiction CheckCategory = "contradiction"
	CategoryNetwork       CheckCategory = "network"
	CategoryReputation    CheckCategory = "reputation"
)

// CheckSpec is the registry entry for a single check: its category, the
// minimum tier that schedules it, its fixed Bayesian reliability weight,
// and the score threshold above which the check counts as failed.
type CheckSpec struct {
	Name          string
	Category      CheckCategory
	MinTier       int
	Reliability   float64
	FailThreshold float64
}

// checkRegistry is the closed enumeration of all known checks.
// Reliability weights follow the empirical table the scoring was
// calibrated with; they are fixed per check kind, never computed at
// runtime.
var checkRegistry = map[CheckID]CheckSpec{
	CheckRapidCompletion:     {"Rapid Completion", CategoryBehavioral, 1, 0.75, 0.5},
	CheckUniformTiming:       {"Uniform Timing", CategoryBehavioral, 1, 0.80, 0.5},
	CheckLowInteraction:      {"Low Interaction", CategoryBehavioral, 1, 0.60, 0.5},
	CheckRoboticMovement:     {"Robotic Mouse Movement", CategoryBehavioral, 1, 0.85, 0.5},
	CheckMouseTeleporting:    {"Mouse Teleporting", CategoryBehavioral, 1, 0.90, 0.5},
	CheckMouseAcceleration:   {"Mouse Acceleration Spike", CategoryBehavioral, 4, 0.70, 0.5},
	CheckNoCorrections:       {"No Typing Corrections", CategoryBehavioral, 1, 0.70, 0.5},
	CheckImpossibleSpeed:     {"Impossible Typing Speed", CategoryBehavioral, 1, 0.85, 0.5},
	CheckInstantFilling:      {"Instant Form Filling", CategoryBehavioral, 1, 0.85, 0.5},
	CheckNoHoverBehavior:     {"No Hover Before Clicks", CategoryBehavioral, 4, 0.65, 0.5},
	CheckNoScrolling:         {"No Scrolling On Long Content", CategoryBehavioral, 4, 0.55, 0.5},
	CheckExcessivePaste:      {"Excessive Paste", CategoryBehavioral, 2, 0.70, 0.5},
	CheckExcessiveTabSwitch:  {"Excessive Tab Switching", CategoryBehavioral, 2, 0.65, 0.5},

	CheckWebDriverDetected:   {"WebDriver Detected", CategoryDevice, 2, 0.95, 0.5},
	CheckAutomationDetected:  {"Automation Framework Detected", CategoryDevice, 2, 0.90, 0.5},
	CheckNoPlugins:           {"No Browser Plugins", CategoryDevice, 2, 0.40, 0.5},
	CheckSuspiciousUserAgent: {"Suspicious User Agent", CategoryDevice, 2, 0.85, 0.5},
	CheckDeviceMismatch:      {"Device Fingerprint Mismatch", CategoryDevice, 2, 0.75, 0.5},
	CheckScreenAnomaly:       {"Screen Anomaly", CategoryDevice, 2, 0.70, 0.5},

	CheckStraightLining:      {"Straight-Lining", CategoryContent, 2, 0.70, 0.5},
	CheckMinimalEffort:       {"Minimal Effort", CategoryContent, 2, 0.55, 0.5},
	CheckAIContentBasic:      {"AI Content (Basic)", CategoryContent, 3, 0.70, 0.5},

	CheckContradictionBasic:  {"Contradiction (Basic)", CategoryContradiction, 3, 0.65, 0.4},
	CheckContradictionFull:   {"Contradiction (Deep)", CategoryContradiction, 5, 0.75, 0.4},

	CheckVPNDetection:        {"VPN Detected", CategoryNetwork, 4, 0.60, 0.5},
	CheckDatacenterIP:        {"Datacenter IP", CategoryNetwork, 4, 0.70, 0.5},
	CheckTorDetection:        {"Tor Exit Node", CategoryNetwork, 4, 0.90, 0.5},
	CheckProxyDetection:      {"Open Proxy", CategoryNetwork, 4, 0.65, 0.5},
	CheckTimezoneMismatch:    {"Timezone Mismatch", CategoryNetwork, 4, 0.65, 0.5},

	CheckBadReputation:       {"Bad Identifier Reputation", CategoryReputation, 4, 0.75, 0.5},
	CheckSubmissionVelocity:  {"Excessive Submission Velocity", CategoryReputation, 4, 0.80, 0.5},
}

// LookupCheck returns the registry entry for a check ID.
func LookupCheck(id CheckID) (CheckSpec, bool) {
	spec, ok := checkRegistry[id]
	return spec, ok
}

// AllChecks returns every registered check ID. Order is not defined.
func AllChecks() []CheckID {
	ids := make([]CheckID, 0, len(checkRegistry))
	for id := range checkRegistry {
		ids = append(ids, id)
	}
	return ids
}

// EvidenceSignal is the atomic observation every detector emits.
// Score is a suspicion magnitude in [0,1], monotonic with fraud
// likelihood. Reliability is the fixed per-check Bayesian weight; a
// signal with Reliability 0 never moves the posterior.
type EvidenceSignal struct {
	CheckID     CheckID       `json:"checkId"`
	Category    CheckCategory `json:"category"`
	Passed      bool          `json:"passed"`
	Score       float64       `json:"score"`
	Reliability float64       `json:"reliability"`
	Details     string        `json:"details,omitempty"`
}

// NewSignal builds a signal for a registered check, filling in the
// registry's category and reliability and deriving Passed from the
// check's fail threshold. It returns ErrInvalidSignal (wrapped) for an
// unregistered check or an out-of-range score; that condition is a
// programming defect in the calling detector, not user input.
func NewSignal(id CheckID, score float64, details string) (EvidenceSignal, error) {
	spec, ok := checkRegistry[id]
	if !ok {
		return EvidenceSignal{}, fmt.Errorf("%w: unknown check %q", ErrInvalidSignal, id)
	}
	if score < 0 || score > 1 {
		return EvidenceSignal{}, fmt.Errorf("%w: check %q score %v outside [0,1]", ErrInvalidSignal, id, score)
	}
	return EvidenceSignal{
		CheckID:     id,
		Category:    spec.Category,
		Passed:      score < spec.FailThreshold,
		Score:       score,
		Reliability: spec.Reliability,
		Details:     details,
	}, nil
}

// Validate re-checks a signal before fusion. Signals are normally built
// through NewSignal; this guards against hand-assembled values reaching
// the fusion engine.
func (s EvidenceSignal) Validate() error {
	spec, ok := checkRegistry[s.CheckID]
	if !ok {
		return fmt.Errorf("%w: unknown check %q", ErrInvalidSignal, s.CheckID)
	}
	if s.Score < 0 || s.Score > 1 {
		return fmt.Errorf("%w: check %q score %v outside [0,1]", ErrInvalidSignal, s.CheckID, s.Score)
	}
	if s.Reliability < 0 || s.Reliability > 1 {
		return fmt.Errorf("%w: check %q reliability %v outside [0,1]", ErrInvalidSignal, s.CheckID, s.Reliability)
	}
	if s.Passed != (s.Score < spec.FailThreshold) {
		return fmt.Errorf("%w: check %q passed flag inconsistent with score %v", ErrInvalidSignal, s.CheckID, s.Score)
	}
	return nil
}
