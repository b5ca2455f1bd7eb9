package model

// IPReputation is the resolved intelligence for one source address.
type IPReputation struct {
	IP           string  `json:"ip"`
	Country      string  `json:"country,omitempty"`
	CountryCode  string  `json:"countryCode,omitempty"`
	Region       string  `json:"region,omitempty"`
	City         string  `json:"city,omitempty"`
	Timezone     string  `json:"timezone,omitempty"`
	ISP          string  `json:"isp,omitempty"`
	Organization string  `json:"organization,omitempty"`
	ASName       string  `json:"asName,omitempty"`
	Latitude     float64 `json:"latitude,omitempty"`
	Longitude    float64 `json:"longitude,omitempty"`

	IsVPN        bool `json:"isVpn"`
	IsDatacenter bool `json:"isDatacenter"`
	IsTor        bool `json:"isTor"`
	IsProxy      bool `json:"isProxy"`
}
