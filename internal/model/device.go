package model

// DeviceFingerprint is the client-collected device profile attached to
// a submission. All fields are self-reported and treated as hints.
type DeviceFingerprint struct {
	UserAgent        string `json:"userAgent"`
	Platform         string `json:"platform,omitempty"`
	Language         string `json:"language,omitempty"`
	Timezone         string `json:"timezone,omitempty"`
	ScreenWidth      int    `json:"screenWidth"`
	ScreenHeight     int    `json:"screenHeight"`
	ColorDepth       int    `json:"colorDepth"`
	HardwareThreads  int    `json:"hardwareThreads"`
	DeviceMemoryGB   int    `json:"deviceMemoryGb"`
	PluginCount      int    `json:"pluginCount"`
	WebDriver        bool   `json:"webdriver"`
	TouchSupport     bool   `json:"touchSupport"`
	CookiesEnabled   bool   `json:"cookiesEnabled"`
	CanvasHash       string `json:"canvasHash,omitempty"`
	WebGLRenderer    string `json:"webglRenderer,omitempty"`
	FingerprintHash  string `json:"fingerprintHash,omitempty"`
	ReportedPrevHash string `json:"reportedPrevHash,omitempty"`
}
