package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/oschwald/geoip2-golang"

	"surveycipher/internal/cache"
	"surveycipher/internal/config"
	"surveycipher/internal/model"
)

// IPResolver turns a source address into IP intelligence. "Unavailable"
// is an error; callers degrade to no signal, never block on it.
type IPResolver interface {
	Resolve(ctx context.Context, ip string) (*model.IPReputation, error)
}

// datacenterMarkers flag cloud and hosting providers in ISP/org/AS
// strings.
var datacenterMarkers = []string{
	"amazon", "aws", "google cloud", "gcp", "microsoft azure", "azure",
	"digitalocean", "linode", "vultr", "ovh", "hetzner", "oracle cloud",
	"alibaba cloud", "rackspace", "ibm cloud", "cloudflare", "akamai",
	"fastly", "cloudfront", "cdn", "data center", "datacenter", "hosting",
	"server", "cloud", "vps", "dedicated",
}

var vpnMarkers = []string{
	"nordvpn", "expressvpn", "surfshark", "cyberghost", "pia",
	"private internet access", "protonvpn", "mullvad", "windscribe",
	"tunnelbear", "hotspot shield", "hidemyass", "hma", "ipvanish",
	"vyprvpn", "purevpn", "torguard", "astrill", "perfect privacy",
	"vpn", "proxy", "anonymous",
}

var torMarkers = []string{"tor", "onion", "privacy"}

// httpResolver queries the ip-api.com JSON endpoint and derives
// VPN/datacenter/Tor flags from provider name keywords.
type httpResolver struct {
	baseURL string
	client  *http.Client
}

// NewHTTPResolver builds the default online resolver.
func NewHTTPResolver(cfg *config.NetworkConfig) IPResolver {
	return &httpResolver{
		baseURL: cfg.BaseURL,
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutMS) * time.Millisecond,
		},
	}
}

func (r *httpResolver) Resolve(ctx context.Context, ip string) (*model.IPReputation, error) {
	url := fmt.Sprintf("%s/%s?fields=status,message,country,countryCode,region,city,lat,lon,timezone,isp,org,asname,proxy,hosting", r.baseURL, ip)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ip lookup status %d", resp.StatusCode)
	}

	var payload struct {
		Status      string  `json:"status"`
		Message     string  `json:"message"`
		Country     string  `json:"country"`
		CountryCode string  `json:"countryCode"`
		Region      string  `json:"region"`
		City        string  `json:"city"`
		Lat         float64 `json:"lat"`
		Lon         float64 `json:"lon"`
		Timezone    string  `json:"timezone"`
		ISP         string  `json:"isp"`
		Org         string  `json:"org"`
		ASName      string  `json:"asname"`
		Proxy       bool    `json:"proxy"`
		Hosting     bool    `json:"hosting"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if payload.Status == "fail" {
		return nil, fmt.Errorf("ip lookup failed: %s", payload.Message)
	}

	providerText := strings.ToLower(payload.ISP + " " + payload.Org + " " + payload.ASName)
	return &model.IPReputation{
		IP:           ip,
		Country:      payload.Country,
		CountryCode:  payload.CountryCode,
		Region:       payload.Region,
		City:         payload.City,
		Timezone:     payload.Timezone,
		ISP:          payload.ISP,
		Organization: payload.Org,
		ASName:       payload.ASName,
		Latitude:     payload.Lat,
		Longitude:    payload.Lon,
		IsVPN:        containsAny(providerText, vpnMarkers),
		IsDatacenter: payload.Hosting || containsAny(providerText, datacenterMarkers),
		IsTor:        containsAny(strings.ToLower(payload.Org+" "+payload.ASName), torMarkers),
		IsProxy:      payload.Proxy,
	}, nil
}

func containsAny(text string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// mmdbResolver reads a local MaxMind City database. It never leaves
// the host; anonymity flags stay false because the city database does
// not carry them.
type mmdbResolver struct {
	db *geoip2.Reader
}

// NewMMDBResolver opens the database at the configured path.
func NewMMDBResolver(cfg *config.NetworkConfig) (IPResolver, error) {
	db, err := geoip2.Open(cfg.MMDBPath)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &mmdbResolver{db: db}, nil
}

func (r *mmdbResolver) Resolve(_ context.Context, ip string) (*model.IPReputation, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return nil, fmt.Errorf("unparseable ip %q", ip)
	}
	rec, err := r.db.City(parsed)
	if err != nil {
		return nil, err
	}
	return &model.IPReputation{
		IP:          ip,
		Country:     rec.Country.Names["en"],
		CountryCode: rec.Country.IsoCode,
		City:        rec.City.Names["en"],
		Timezone:    rec.Location.TimeZone,
		Latitude:    rec.Location.Latitude,
		Longitude:   rec.Location.Longitude,
	}, nil
}

// defaultCallTimeout bounds one lookup when no network config was
// supplied.
const defaultCallTimeout = 5 * time.Second

// NetworkService resolves source IPs, caches the result for a day,
// and maps positive flags to evidence signals.
type NetworkService struct {
	resolver    IPResolver
	ipCache     cache.IPCache
	callTimeout time.Duration
}

func NewNetworkService(resolver IPResolver, ipCache cache.IPCache, cfg *config.NetworkConfig) *NetworkService {
	timeout := defaultCallTimeout
	if cfg != nil && cfg.TimeoutMS > 0 {
		timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}
	return &NetworkService{resolver: resolver, ipCache: ipCache, callTimeout: timeout}
}

// NewResolverFromConfig picks the resolver implementation by mode.
func NewResolverFromConfig(cfg *config.NetworkConfig) (IPResolver, error) {
	if cfg.Mode == "mmdb" {
		return NewMMDBResolver(cfg)
	}
	return NewHTTPResolver(cfg), nil
}

// Evaluate resolves the IP and emits one signal per positive flag,
// plus a timezone cross-validation against the declared browser
// timezone. Resolver unavailability returns the error with no
// signals.
func (s *NetworkService) Evaluate(ctx context.Context, ip, browserTimezone string, tierLevel int) ([]model.EvidenceSignal, *model.IPReputation, error) {
	if ip == "" {
		return nil, nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	rep, err := s.lookup(ctx, ip)
	if err != nil {
		return nil, nil, err
	}

	var signals []model.EvidenceSignal
	emit := func(id model.CheckID, score float64, details string) error {
		spec, ok := model.LookupCheck(id)
		if !ok || spec.MinTier > tierLevel {
			return nil
		}
		sig, serr := model.NewSignal(id, score, details)
		if serr != nil {
			return serr
		}
		signals = append(signals, sig)
		return nil
	}

	if rep.IsTor {
		if err := emit(model.CheckTorDetection, 0.9, "Tor exit node"); err != nil {
			return nil, nil, err
		}
	}
	if rep.IsVPN {
		if err := emit(model.CheckVPNDetection, 0.7, "VPN provider: "+rep.ISP); err != nil {
			return nil, nil, err
		}
	}
	if rep.IsDatacenter {
		if err := emit(model.CheckDatacenterIP, 0.75, "datacenter/hosting range: "+rep.Organization); err != nil {
			return nil, nil, err
		}
	}
	if rep.IsProxy {
		if err := emit(model.CheckProxyDetection, 0.7, "open proxy"); err != nil {
			return nil, nil, err
		}
	}

	// Cross-region timezone conflicts fire a signal; same-region drift
	// is common on mobile networks and stays informational.
	if rep.Timezone != "" && browserTimezone != "" && rep.Timezone != browserTimezone {
		ipRegion := strings.SplitN(rep.Timezone, "/", 2)[0]
		browserRegion := strings.SplitN(browserTimezone, "/", 2)[0]
		if ipRegion != browserRegion {
			if err := emit(model.CheckTimezoneMismatch, 0.6,
				fmt.Sprintf("IP timezone %s, browser %s", rep.Timezone, browserTimezone)); err != nil {
				return nil, nil, err
			}
		}
	}

	return signals, rep, nil
}

func (s *NetworkService) lookup(ctx context.Context, ip string) (*model.IPReputation, error) {
	if s.ipCache != nil {
		if rep, err := s.ipCache.Get(ctx, ip); err == nil {
			return rep, nil
		}
	}

	rep, err := s.resolver.Resolve(ctx, ip)
	if err != nil {
		return nil, err
	}

	if s.ipCache != nil {
		if err := s.ipCache.Set(ctx, rep); err != nil {
			log.Printf("[Network] ip cache write failed: %v", err)
		}
	}
	return rep, nil
}
