// Package detector holds the local heuristic detectors: behavioral
// telemetry analysis, device consistency rules, and content pattern
// checks. Detectors emit evidence signals only for conditions that
// fired; a clean submission produces none.
package detector

import (
	"fmt"
	"math"

	"surveycipher/internal/model"
)

// Behavioral thresholds. Angles are radians, distances pixels, times
// milliseconds unless noted.
const (
	parallelAngleRad   = 0.087 // 5 degrees
	parallelRatioMin   = 0.8
	teleportDistancePX = 500.0
	teleportWindowMS   = 50
	accelSpikeMin      = 10.0 // px/s^2
	keystrokeStddevMS  = 50.0
	keystrokeMinSample = 10
	noCorrectionsKeys  = 50
	impossibleWPM      = 150.0
	instantFillMS      = 100
	hoverRatioMin      = 0.3
	hoverMinClicks     = 5
	longContentPX      = 1000.0
	rapidAvgResponseMS = 2000
	rapidMinAnswers    = 3
	lowInteractionMin  = 20
	lowInteractionSpan = 30000
	pasteLimit         = 3
	tabSwitchLimit     = 5
)

// BehavioralReport is the analyzer output: fired signals, the metric
// summary, and a confidence driven by how many telemetry streams were
// actually populated.
type BehavioralReport struct {
	Signals    []model.EvidenceSignal
	Summary    model.BehavioralSummary
	Confidence float64
	HumanHints []string
}

// BehavioralAnalyzer scores interaction telemetry for automation
// signatures. All computation is local and synchronous.
type BehavioralAnalyzer struct{}

func NewBehavioralAnalyzer() *BehavioralAnalyzer {
	return &BehavioralAnalyzer{}
}

// Analyze runs every behavioral check the tier schedules against the
// telemetry bundle. Missing streams lower confidence; they never
// fabricate signals.
func (a *BehavioralAnalyzer) Analyze(m *model.BehavioralMetrics, tierLevel int) (*BehavioralReport, error) {
	if m == nil {
		return nil, model.ErrNoTelemetry
	}

	report := &BehavioralReport{
		Confidence: math.Min(1, float64(m.PopulatedStreams())/4+0.5),
	}

	emit := func(id model.CheckID, score float64, details string) error {
		spec, ok := model.LookupCheck(id)
		if !ok || spec.MinTier > tierLevel {
			return nil
		}
		sig, err := model.NewSignal(id, score, details)
		if err != nil {
			return err
		}
		report.Signals = append(report.Signals, sig)
		return nil
	}

	// Mouse movement patterns
	parallelism, teleports, maxAccel := analyzeMouse(m.MouseMovements)
	report.Summary.ParallelismRatio = parallelism
	report.Summary.TeleportCount = teleports
	report.Summary.MaxAcceleration = maxAccel

	if parallelism > parallelRatioMin {
		if err := emit(model.CheckRoboticMovement, parallelism,
			fmt.Sprintf("%.0f%% of movement segments are parallel lines", parallelism*100)); err != nil {
			return nil, err
		}
	}
	if teleports > 0 {
		score := math.Min(1, 0.7+0.05*float64(teleports))
		if err := emit(model.CheckMouseTeleporting, score,
			fmt.Sprintf("%d jumps over %.0fpx in under %dms", teleports, teleportDistancePX, teleportWindowMS)); err != nil {
			return nil, err
		}
	}
	if maxAccel > accelSpikeMin {
		if err := emit(model.CheckMouseAcceleration, math.Min(1, 0.5+maxAccel/200000),
			fmt.Sprintf("max acceleration %.1f units", maxAccel)); err != nil {
			return nil, err
		}
	}
	if len(m.MouseMovements) >= 3 && parallelism <= parallelRatioMin && teleports == 0 {
		report.HumanHints = append(report.HumanHints, "natural mouse movement")
	}

	// Keystroke dynamics
	stddev, backspaces, wpm, totalKeys := analyzeKeystrokes(m.Keystrokes)
	if backspaces < m.BackspaceCount {
		backspaces = m.BackspaceCount
	}
	report.Summary.KeystrokeStddevMS = stddev
	report.Summary.BackspaceCount = backspaces
	report.Summary.WordsPerMinute = wpm

	if totalKeys > keystrokeMinSample && stddev < keystrokeStddevMS {
		if err := emit(model.CheckUniformTiming, 0.8,
			fmt.Sprintf("keystroke interval stddev %.0fms over %d keys", stddev, totalKeys)); err != nil {
			return nil, err
		}
	}
	if totalKeys > noCorrectionsKeys && backspaces == 0 {
		if err := emit(model.CheckNoCorrections, 0.7,
			fmt.Sprintf("no corrections over %d keystrokes", totalKeys)); err != nil {
			return nil, err
		}
	}
	if wpm > impossibleWPM {
		if err := emit(model.CheckImpossibleSpeed, 0.9,
			fmt.Sprintf("typing speed %.0f WPM", wpm)); err != nil {
			return nil, err
		}
	}
	if totalKeys > keystrokeMinSample && stddev >= keystrokeStddevMS && backspaces > 0 {
		report.HumanHints = append(report.HumanHints, "natural typing rhythm with corrections")
	}

	// Time to first interaction
	first := firstInteraction(m)
	report.Summary.FirstInteractionMS = first
	if first > 0 && first < instantFillMS {
		if err := emit(model.CheckInstantFilling, 0.85,
			fmt.Sprintf("first interaction after %dms", first)); err != nil {
			return nil, err
		}
	}

	// Hover behavior before clicks
	hoverRatio := hoverBeforeClickRatio(m.Clicks)
	report.Summary.HoverRatio = hoverRatio
	if len(m.Clicks) >= hoverMinClicks && hoverRatio < hoverRatioMin {
		if err := emit(model.CheckNoHoverBehavior, 0.65,
			fmt.Sprintf("%.0f%% of clicks had prior hover", hoverRatio*100)); err != nil {
			return nil, err
		}
	}

	// Scroll absence on long content
	report.Summary.ScrollEventCount = len(m.Scrolls)
	if m.MaxScroll > longContentPX && len(m.Scrolls) == 0 {
		if err := emit(model.CheckNoScrolling, 0.6,
			fmt.Sprintf("no scrolling with %.0fpx of scrollable content", m.MaxScroll)); err != nil {
			return nil, err
		}
	}

	// Response timing
	avgResponse := meanInt64(m.ResponseTimes)
	report.Summary.AvgResponseTimeMS = avgResponse
	if len(m.ResponseTimes) >= rapidMinAnswers && avgResponse > 0 && avgResponse < rapidAvgResponseMS {
		if err := emit(model.CheckRapidCompletion, 0.8,
			fmt.Sprintf("average %.0fms per question over %d questions", avgResponse, len(m.ResponseTimes))); err != nil {
			return nil, err
		}
	}

	// Overall interaction volume
	events := len(m.MouseMovements) + len(m.Keystrokes) + len(m.Clicks) + len(m.Scrolls)
	report.Summary.InteractionEvents = events
	if m.TotalDurationMS > lowInteractionSpan && events < lowInteractionMin {
		if err := emit(model.CheckLowInteraction, 0.6,
			fmt.Sprintf("%d interaction events over %ds", events, m.TotalDurationMS/1000)); err != nil {
			return nil, err
		}
	}

	// Paste and focus churn
	if m.PasteCount > pasteLimit {
		if err := emit(model.CheckExcessivePaste, 0.7,
			fmt.Sprintf("%d paste events", m.PasteCount)); err != nil {
			return nil, err
		}
	}
	if m.TabSwitchCount > tabSwitchLimit {
		if err := emit(model.CheckExcessiveTabSwitch, 0.65,
			fmt.Sprintf("%d tab switches", m.TabSwitchCount)); err != nil {
			return nil, err
		}
	}

	return report, nil
}

func analyzeMouse(movements []model.MouseEvent) (parallelism float64, teleports int, maxAccel float64) {
	if len(movements) < 3 {
		return 0, 0, 0
	}

	parallel, total := 0, 0
	for i := 2; i < len(movements); i++ {
		p1, p2, p3 := movements[i-2], movements[i-1], movements[i]
		a1 := math.Atan2(p2.Y-p1.Y, p2.X-p1.X)
		a2 := math.Atan2(p3.Y-p2.Y, p3.X-p2.X)
		diff := math.Abs(a1 - a2)
		// atan2 wraps at +/-pi; leftward motion straddles the seam.
		if diff > math.Pi {
			diff = 2*math.Pi - diff
		}
		if diff < parallelAngleRad {
			parallel++
		}
		total++
	}
	if total > 0 {
		parallelism = float64(parallel) / float64(total)
	}

	for i := 1; i < len(movements); i++ {
		prev, curr := movements[i-1], movements[i]
		dist := math.Hypot(curr.X-prev.X, curr.Y-prev.Y)
		dt := curr.Timestamp - prev.Timestamp
		if dist > teleportDistancePX && dt < teleportWindowMS {
			teleports++
		}
	}

	for i := 2; i < len(movements); i++ {
		v1 := velocity(movements[i-2], movements[i-1])
		v2 := velocity(movements[i-1], movements[i])
		dt := float64(movements[i].Timestamp-movements[i-1].Timestamp) / 1000
		if dt > 0 {
			if a := math.Abs(v2-v1) / dt; a > maxAccel {
				maxAccel = a
			}
		}
	}
	return parallelism, teleports, maxAccel
}

// velocity in px/s; acceleration derived from it is px/s^2, the unit
// the spike threshold is expressed in.
func velocity(p1, p2 model.MouseEvent) float64 {
	dt := float64(p2.Timestamp-p1.Timestamp) / 1000
	if dt <= 0 {
		return 0
	}
	return math.Hypot(p2.X-p1.X, p2.Y-p1.Y) / dt
}

// analyzeKeystrokes returns the population standard deviation of
// inter-keydown intervals, the correction count, WPM at five
// characters per word, and the keydown count.
func analyzeKeystrokes(keys []model.KeyEvent) (stddev float64, backspaces int, wpm float64, totalKeys int) {
	if len(keys) < 2 {
		return 0, countCorrections(keys), 0, 0
	}

	var intervals []float64
	for i := 1; i < len(keys); i++ {
		if keys[i].Type == "down" && keys[i-1].Type == "down" {
			intervals = append(intervals, float64(keys[i].Timestamp-keys[i-1].Timestamp))
		}
	}
	if len(intervals) > 0 {
		mean := 0.0
		for _, v := range intervals {
			mean += v
		}
		mean /= float64(len(intervals))
		variance := 0.0
		for _, v := range intervals {
			variance += (v - mean) * (v - mean)
		}
		stddev = math.Sqrt(variance / float64(len(intervals)))
	}

	backspaces = countCorrections(keys)

	var firstDown, lastDown int64
	for _, k := range keys {
		if k.Type != "down" {
			continue
		}
		if totalKeys == 0 {
			firstDown = k.Timestamp
		}
		lastDown = k.Timestamp
		totalKeys++
	}
	if totalKeys > 0 {
		minutes := float64(lastDown-firstDown) / 60000
		if minutes > 0 {
			wpm = float64(totalKeys) / 5 / minutes
		}
	}
	return stddev, backspaces, wpm, totalKeys
}

func countCorrections(keys []model.KeyEvent) int {
	n := 0
	for _, k := range keys {
		if k.Key == "Backspace" || k.Key == "Delete" {
			n++
		}
	}
	return n
}

// firstInteraction is the minimum positive timestamp across the mouse,
// keystroke, and click streams; zero means no data.
func firstInteraction(m *model.BehavioralMetrics) int64 {
	var min int64
	consider := func(t int64) {
		if t > 0 && (min == 0 || t < min) {
			min = t
		}
	}
	for _, e := range m.MouseMovements {
		consider(e.Timestamp)
	}
	for _, e := range m.Keystrokes {
		consider(e.Timestamp)
	}
	for _, e := range m.Clicks {
		consider(e.Timestamp)
	}
	if min == 0 {
		return m.FirstInteractionMS
	}
	return min
}

func hoverBeforeClickRatio(clicks []model.ClickEvent) float64 {
	if len(clicks) == 0 {
		return 0
	}
	n := 0
	for _, c := range clicks {
		if c.HadHover {
			n++
		}
	}
	return float64(n) / float64(len(clicks))
}

func meanInt64(vals []int64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := int64(0)
	for _, v := range vals {
		sum += v
	}
	return float64(sum) / float64(len(vals))
}
