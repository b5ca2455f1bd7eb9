package detector

import (
	"fmt"
	"strings"

	"surveycipher/internal/model"
)

// botAgentMarkers are user agent substrings that identify automation
// stacks outright.
var botAgentMarkers = []string{
	"headless", "phantomjs", "selenium", "webdriver", "puppeteer",
	"playwright", "bot", "crawler", "spider", "scrapy", "curl", "wget",
	"python-requests",
}

// headlessRenderers are WebGL renderer strings produced by software
// rasterizers that real desktops do not report.
var headlessRenderers = []string{"swiftshader", "llvmpipe", "mesa offscreen"}

// DeviceChecker evaluates declared device attributes with
// deterministic rules. No statistics, no external calls.
type DeviceChecker struct{}

func NewDeviceChecker() *DeviceChecker {
	return &DeviceChecker{}
}

// Check runs every device rule the tier schedules. A nil fingerprint
// yields no signals; absence of device data is not itself suspicious.
func (c *DeviceChecker) Check(fp *model.DeviceFingerprint, tierLevel int) ([]model.EvidenceSignal, []string, error) {
	if fp == nil {
		return nil, nil, nil
	}

	var signals []model.EvidenceSignal
	var hints []string

	emit := func(id model.CheckID, score float64, details string) error {
		spec, ok := model.LookupCheck(id)
		if !ok || spec.MinTier > tierLevel {
			return nil
		}
		sig, err := model.NewSignal(id, score, details)
		if err != nil {
			return err
		}
		signals = append(signals, sig)
		return nil
	}

	ua := strings.ToLower(fp.UserAgent)

	if fp.WebDriver {
		if err := emit(model.CheckWebDriverDetected, 0.95, "navigator.webdriver flag set"); err != nil {
			return nil, nil, err
		}
	}

	if renderer := strings.ToLower(fp.WebGLRenderer); renderer != "" {
		for _, marker := range headlessRenderers {
			if strings.Contains(renderer, marker) {
				if err := emit(model.CheckAutomationDetected, 0.85,
					fmt.Sprintf("software WebGL renderer %q", fp.WebGLRenderer)); err != nil {
					return nil, nil, err
				}
				break
			}
		}
	}

	for _, marker := range botAgentMarkers {
		if strings.Contains(ua, marker) {
			if err := emit(model.CheckSuspiciousUserAgent, 0.9,
				fmt.Sprintf("user agent contains %q", marker)); err != nil {
				return nil, nil, err
			}
			break
		}
	}

	// Desktop browsers without touch support always expose plugins.
	if fp.PluginCount == 0 && !fp.TouchSupport && ua != "" && !strings.Contains(ua, "mobile") {
		if err := emit(model.CheckNoPlugins, 0.55, "desktop browser reports zero plugins"); err != nil {
			return nil, nil, err
		}
	}

	if err := c.checkScreen(fp, emit); err != nil {
		return nil, nil, err
	}

	if fp.ReportedPrevHash != "" && fp.FingerprintHash != "" && fp.ReportedPrevHash != fp.FingerprintHash {
		if err := emit(model.CheckDeviceMismatch, 0.75, "fingerprint changed within session"); err != nil {
			return nil, nil, err
		}
	}

	if len(signals) == 0 && fp.PluginCount > 0 && !fp.WebDriver {
		hints = append(hints, "consistent device fingerprint")
	}
	return signals, hints, nil
}

func (c *DeviceChecker) checkScreen(fp *model.DeviceFingerprint, emit func(model.CheckID, float64, string) error) error {
	w, h := fp.ScreenWidth, fp.ScreenHeight
	if w == 0 && h == 0 {
		return nil
	}

	switch {
	case w <= 0 || h <= 0:
		return emit(model.CheckScreenAnomaly, 0.8, fmt.Sprintf("impossible screen %dx%d", w, h))
	case w < 240 || h < 240:
		return emit(model.CheckScreenAnomaly, 0.7, fmt.Sprintf("screen %dx%d below any real device", w, h))
	case fp.ColorDepth != 0 && fp.ColorDepth < 16:
		return emit(model.CheckScreenAnomaly, 0.65, fmt.Sprintf("color depth %d", fp.ColorDepth))
	}

	// Declared mobile platform with a large non-touch screen is an
	// internal contradiction.
	platform := strings.ToLower(fp.Platform)
	mobile := strings.Contains(platform, "android") || strings.Contains(platform, "iphone") ||
		strings.Contains(platform, "ipad")
	if mobile && !fp.TouchSupport && w >= 1920 {
		return emit(model.CheckDeviceMismatch, 0.7,
			fmt.Sprintf("mobile platform %q with %dx%d non-touch screen", fp.Platform, w, h))
	}
	return nil
}
