package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"surveycipher/internal/config"
	"surveycipher/internal/detector"
	"surveycipher/internal/model"
	"surveycipher/internal/tier"
)

// failedDetectorPenalty scales confidence down once per degraded
// detector, so partial results are always distinguishable from
// complete ones.
const failedDetectorPenalty = 0.8

// AssessmentSink receives every finished assessment. Implementations
// must not block for long; the assessor calls them synchronously after
// the result is final.
type AssessmentSink interface {
	RecordAssessment(ctx context.Context, result *model.AssessmentResult)
}

// AssessorService runs the tiered assessment pipeline: schedule the
// detectors the tier pays for, fan them out, join, fuse, and update
// reputation. One request in, one immutable result out.
type AssessorService struct {
	behavioral    *detector.BehavioralAnalyzer
	device        *detector.DeviceChecker
	content       *detector.ContentChecker
	contradiction *ContradictionService
	network       *NetworkService
	reputation    *ReputationService
	fusion        *FusionEngine
	sink          AssessmentSink
}

func NewAssessorService(
	contradiction *ContradictionService,
	network *NetworkService,
	reputation *ReputationService,
	fusionCfg *config.FusionConfig,
	sink AssessmentSink,
) *AssessorService {
	return &AssessorService{
		behavioral:    detector.NewBehavioralAnalyzer(),
		device:        detector.NewDeviceChecker(),
		content:       detector.NewContentChecker(),
		contradiction: contradiction,
		network:       network,
		reputation:    reputation,
		fusion:        NewFusionEngine(fusionCfg),
		sink:          sink,
	}
}

// detectorOutcome is one detector's contribution, collected at the
// join barrier.
type detectorOutcome struct {
	signals []model.EvidenceSignal
	hints   []string
	failure string
}

// Assess scores one submission. Invalid tier or missing telemetry is
// rejected before any detector runs; individual detector failures
// degrade to zero signals and lower confidence; an invalid signal
// reaching fusion aborts with an internal error.
func (s *AssessorService) Assess(ctx context.Context, req *model.AssessmentRequest) (*model.AssessmentResult, error) {
	start := time.Now()

	if err := tier.Validate(req.Tier); err != nil {
		return nil, err
	}
	if !req.Telemetry.HasAnyStream() {
		return nil, model.ErrNoTelemetry
	}

	var (
		mu            sync.Mutex
		outcomes      []detectorOutcome
		aiCalls       int
		estimatedCost float64
		report        *detector.BehavioralReport
		consistency   *model.ContradictionReport
	)
	collect := func(o detectorOutcome) {
		mu.Lock()
		outcomes = append(outcomes, o)
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		rep, err := s.behavioral.Analyze(req.Telemetry, req.Tier)
		if err != nil {
			return asDetectorFailure("behavioral analyzer", err, collect)
		}
		mu.Lock()
		report = rep
		mu.Unlock()
		collect(detectorOutcome{signals: rep.Signals, hints: rep.HumanHints})
		return nil
	})

	if req.Tier >= 2 {
		g.Go(func() error {
			signals, hints, err := s.device.Check(req.Device, req.Tier)
			if err != nil {
				return asDetectorFailure("device checker", err, collect)
			}
			collect(detectorOutcome{signals: signals, hints: hints})
			return nil
		})
		g.Go(func() error {
			signals, hints, err := s.content.Check(req.Answers, req.Tier)
			if err != nil {
				return asDetectorFailure("content checker", err, collect)
			}
			collect(detectorOutcome{signals: signals, hints: hints})
			return nil
		})
	}

	if tier.UsesAI(req.Tier) && s.contradiction != nil && s.contradiction.Enabled() {
		g.Go(func() error {
			rep, signals, calls, err := s.contradiction.CheckConsistency(gctx, req.Answers, req.Tier)
			mu.Lock()
			aiCalls += calls
			estimatedCost += float64(calls) * model.TierCostUSD[req.Tier]
			mu.Unlock()
			if err != nil {
				return asDetectorFailure("contradiction detector", err, collect)
			}
			mu.Lock()
			consistency = rep
			mu.Unlock()
			collect(detectorOutcome{signals: signals})
			return nil
		})
	}

	if tier.UsesNetwork(req.Tier) && s.network != nil {
		g.Go(func() error {
			var tz string
			if req.Device != nil {
				tz = req.Device.Timezone
			}
			signals, _, err := s.network.Evaluate(gctx, req.IP, tz, req.Tier)
			if err != nil {
				return asDetectorFailure("network resolver", err, collect)
			}
			collect(detectorOutcome{signals: signals})
			return nil
		})
	}

	if tier.UsesNetwork(req.Tier) && s.reputation != nil {
		g.Go(func() error {
			signals, _, err := s.reputation.EvaluateIdentifier(gctx, s.identifierFor(req), req.Tier)
			if err != nil {
				return asDetectorFailure("reputation store", err, collect)
			}
			collect(detectorOutcome{signals: signals})
			return nil
		})
	}

	// Join barrier. Only ErrInvalidSignal escapes the goroutines; every
	// other failure was folded into an outcome above.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var signals []model.EvidenceSignal
	var hints, diagnostics []string
	failed := 0
	for _, o := range outcomes {
		signals = append(signals, o.signals...)
		hints = append(hints, o.hints...)
		if o.failure != "" {
			diagnostics = append(diagnostics, o.failure)
			failed++
		}
	}
	sort.Slice(signals, func(i, j int) bool { return signals[i].CheckID < signals[j].CheckID })

	probability, confidence, err := s.fusion.Fuse(signals)
	if err != nil {
		return nil, err
	}
	for i := 0; i < failed; i++ {
		confidence *= failedDetectorPenalty
	}

	var stats *model.BehavioralSummary
	if report != nil {
		stats = &report.Summary
	}

	result := &model.AssessmentResult{
		AssessmentID:     uuid.New().String(),
		SubmissionID:     req.SubmissionID,
		SurveyID:         req.SurveyID,
		Identifier:       s.identifierFor(req),
		Tier:             req.Tier,
		FraudProbability: probability,
		Confidence:       confidence,
		RiskLevel:        RiskLevelFor(probability, confidence),
		Signals:          signals,
		CategoryScores:   categoryScores(signals, consistency),
		Flags:            flagsFor(signals),
		HumanIndicators:  hints,
		Diagnostics:      diagnostics,
		BehavioralStats:  stats,
		AICallsMade:      aiCalls,
		EstimatedCost:    estimatedCost,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
		CreatedAt:        time.Now().UTC(),
	}

	s.recordOutcome(ctx, req, result)

	return result, nil
}

// recordOutcome feeds the result back into reputation history and the
// optional sink. Neither may fail the assessment.
func (s *AssessorService) recordOutcome(ctx context.Context, req *model.AssessmentRequest, result *model.AssessmentResult) {
	flagged := result.RiskLevel == model.RiskHigh || result.RiskLevel == model.RiskCritical
	if s.reputation != nil {
		if id := s.identifierFor(req); id != "" {
			s.reputation.Update(ctx, id, req.SurveyID, result.FraudProbability, flagged)
		}
	}
	if s.sink != nil {
		s.sink.RecordAssessment(ctx, result)
	}
}

// identifierFor picks the reputation key: explicit identifier first,
// then fingerprint hash, then raw IP.
func (s *AssessorService) identifierFor(req *model.AssessmentRequest) string {
	if req.Identifier != "" {
		return req.Identifier
	}
	if req.Device != nil && req.Device.FingerprintHash != "" {
		return "fp:" + req.Device.FingerprintHash
	}
	if req.IP != "" {
		return "ip:" + req.IP
	}
	return ""
}

// asDetectorFailure converts a detector error into a degraded outcome,
// except for signal contract violations, which are programming defects
// and abort the assessment.
func asDetectorFailure(name string, err error, collect func(detectorOutcome)) error {
	if errors.Is(err, model.ErrInvalidSignal) {
		return err
	}
	log.Printf("[Assessor] %s degraded: %v", name, err)
	collect(detectorOutcome{failure: fmt.Sprintf("%s unavailable: %v", name, err)})
	return nil
}

// categoryScores averages fired-signal scores per category. The
// contradiction category instead reflects the model's consistency
// verdict directly.
func categoryScores(signals []model.EvidenceSignal, consistency *model.ContradictionReport) map[model.CheckCategory]float64 {
	sums := make(map[model.CheckCategory]float64)
	counts := make(map[model.CheckCategory]int)
	for _, sig := range signals {
		sums[sig.Category] += sig.Score
		counts[sig.Category]++
	}

	scores := map[model.CheckCategory]float64{
		model.CategoryBehavioral:    0,
		model.CategoryDevice:        0,
		model.CategoryContent:       0,
		model.CategoryContradiction: 0,
		model.CategoryNetwork:       0,
		model.CategoryReputation:    0,
	}
	for cat, sum := range sums {
		scores[cat] = sum / float64(counts[cat])
	}
	if consistency != nil {
		scores[model.CategoryContradiction] = 1 - consistency.ConsistencyScore
	}
	return scores
}

func flagsFor(signals []model.EvidenceSignal) []string {
	flags := make([]string, 0, len(signals))
	for _, sig := range signals {
		if sig.Passed {
			continue
		}
		if spec, ok := model.LookupCheck(sig.CheckID); ok {
			flags = append(flags, spec.Name)
		}
	}
	return flags
}
