package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"surveycipher/internal/config"
	"surveycipher/internal/model"
)

type staticResolver struct {
	rep *model.IPReputation
	err error
}

func (r *staticResolver) Resolve(context.Context, string) (*model.IPReputation, error) {
	return r.rep, r.err
}

func TestEvaluateEmitsFlagSignals(t *testing.T) {
	svc := NewNetworkService(&staticResolver{rep: &model.IPReputation{
		IP:           "203.0.113.9",
		Timezone:     "Europe/Berlin",
		ISP:          "NordVPN",
		Organization: "Hetzner Online",
		IsVPN:        true,
		IsDatacenter: true,
	}}, nil, nil)

	signals, rep, err := svc.Evaluate(context.Background(), "203.0.113.9", "America/New_York", 5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if rep == nil {
		t.Fatal("expected reputation data")
	}
	for _, want := range []model.CheckID{
		model.CheckVPNDetection,
		model.CheckDatacenterIP,
		model.CheckTimezoneMismatch,
	} {
		if !signalPresent(signals, want) {
			t.Errorf("missing %s signal", want)
		}
	}
	if signalPresent(signals, model.CheckTorDetection) {
		t.Error("tor_detection fired without a Tor flag")
	}
}

func TestEvaluateTierGatesNetworkChecks(t *testing.T) {
	svc := NewNetworkService(&staticResolver{rep: &model.IPReputation{
		IP: "203.0.113.9", IsVPN: true,
	}}, nil, nil)

	signals, _, err := svc.Evaluate(context.Background(), "203.0.113.9", "", 3)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(signals) != 0 {
		t.Errorf("network signals emitted at tier 3: %v", signals)
	}
}

func TestEvaluateSameRegionTimezoneDriftIsQuiet(t *testing.T) {
	svc := NewNetworkService(&staticResolver{rep: &model.IPReputation{
		IP: "203.0.113.9", Timezone: "America/Chicago",
	}}, nil, nil)

	signals, _, err := svc.Evaluate(context.Background(), "203.0.113.9", "America/New_York", 5)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if signalPresent(signals, model.CheckTimezoneMismatch) {
		t.Error("timezone_validation fired for a same-region drift")
	}
}

func TestEvaluateResolverUnavailable(t *testing.T) {
	svc := NewNetworkService(&staticResolver{err: errors.New("rate limited")}, nil, nil)

	signals, rep, err := svc.Evaluate(context.Background(), "203.0.113.9", "", 5)
	if err == nil {
		t.Fatal("expected resolver error to surface")
	}
	if signals != nil || rep != nil {
		t.Errorf("unavailable resolver must yield no signals, got %v %v", signals, rep)
	}
}

type deadlineResolver struct {
	deadline time.Time
	ok       bool
}

func (r *deadlineResolver) Resolve(ctx context.Context, ip string) (*model.IPReputation, error) {
	r.deadline, r.ok = ctx.Deadline()
	return &model.IPReputation{IP: ip}, nil
}

func TestEvaluateAppliesConfiguredTimeout(t *testing.T) {
	resolver := &deadlineResolver{}
	svc := NewNetworkService(resolver, nil, &config.NetworkConfig{TimeoutMS: 1500})

	before := time.Now()
	if _, _, err := svc.Evaluate(context.Background(), "203.0.113.9", "", 5); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !resolver.ok {
		t.Fatal("resolver context carried no deadline")
	}
	if d := resolver.deadline.Sub(before); d < time.Second || d > 2*time.Second {
		t.Errorf("deadline %v from call, want ~1.5s", d)
	}
}

func TestEvaluateTimeoutDefaultsWithoutConfig(t *testing.T) {
	resolver := &deadlineResolver{}
	svc := NewNetworkService(resolver, nil, nil)

	before := time.Now()
	if _, _, err := svc.Evaluate(context.Background(), "203.0.113.9", "", 5); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !resolver.ok {
		t.Fatal("resolver context carried no deadline")
	}
	if d := resolver.deadline.Sub(before); d < 4*time.Second || d > 6*time.Second {
		t.Errorf("deadline %v from call, want ~5s", d)
	}
}

func TestHTTPResolverParsesAndFlags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"status": "success",
			"country": "Germany", "countryCode": "DE", "city": "Falkenstein",
			"timezone": "Europe/Berlin",
			"isp": "Hetzner Online GmbH", "org": "Hetzner", "asname": "HETZNER-AS",
			"proxy": false, "hosting": true
		}`))
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(&config.NetworkConfig{BaseURL: srv.URL, TimeoutMS: 2000})
	rep, err := resolver.Resolve(context.Background(), "203.0.113.9")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !rep.IsDatacenter {
		t.Error("hosting range not flagged as datacenter")
	}
	if rep.IsTor {
		t.Error("Tor flagged without indicators")
	}
	if rep.Timezone != "Europe/Berlin" || rep.CountryCode != "DE" {
		t.Errorf("geo fields not populated: %+v", rep)
	}
}

func TestHTTPResolverFailStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "fail", "message": "private range"}`))
	}))
	defer srv.Close()

	resolver := NewHTTPResolver(&config.NetworkConfig{BaseURL: srv.URL, TimeoutMS: 2000})
	if _, err := resolver.Resolve(context.Background(), "10.0.0.1"); err == nil {
		t.Fatal("expected failure for fail status")
	}
}

func signalPresent(signals []model.EvidenceSignal, id model.CheckID) bool {
	for _, s := range signals {
		if s.CheckID == id {
			return true
		}
	}
	return false
}
