package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"surveycipher/internal/config"
	"surveycipher/internal/model"
)

// ContradictionService delegates semantic answer comparison to the
// Gemini API. Its own job is input shaping, strict response
// validation, and mapping severities to evidence scores. A malformed
// response is retried once, then the detector degrades to no signal.
type ContradictionService struct {
	config *config.AIConfig
	client *http.Client
}

// NewContradictionService creates a new contradiction service
func NewContradictionService(cfg *config.AIConfig) *ContradictionService {
	return &ContradictionService{
		config: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.DeepTimeoutMS) * time.Millisecond,
		},
	}
}

// Enabled reports whether the Gemini API is configured.
func (s *ContradictionService) Enabled() bool {
	return s.config.IsEnabled()
}

// CheckConsistency analyzes the answer set for contradictions. Tier 5
// uses the deep model with the longest timeout; tiers 3 and 4 use the
// light model. Returns the validated report, the evidence signals it
// maps to, and the number of billed calls made (including retries).
func (s *ContradictionService) CheckConsistency(ctx context.Context, answers []model.Answer, tierLevel int) (*model.ContradictionReport, []model.EvidenceSignal, int, error) {
	if !s.config.IsEnabled() || len(answers) < 2 {
		return nil, nil, 0, nil
	}

	modelName := s.config.Models.Light
	timeoutMS := s.config.LightTimeoutMS
	checkID := model.CheckContradictionBasic
	if tierLevel >= 5 {
		modelName = s.config.Models.Deep
		timeoutMS = s.config.DeepTimeoutMS
		checkID = model.CheckContradictionFull
	}

	prompt := s.buildPrompt(answers)

	calls := 0
	var report *model.ContradictionReport
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMS)*time.Millisecond)
		raw, err := s.callGemini(callCtx, modelName, prompt)
		cancel()
		calls++
		if err != nil {
			lastErr = err
			log.Printf("[Contradiction] call failed (attempt %d): %v", attempt+1, err)
			continue
		}
		report, err = parseContradictionReport(raw)
		if err != nil {
			lastErr = err
			log.Printf("[Contradiction] malformed response (attempt %d): %v", attempt+1, err)
			continue
		}
		lastErr = nil
		break
	}
	if report == nil {
		return nil, nil, calls, fmt.Errorf("contradiction analysis degraded: %w", lastErr)
	}

	signals, err := s.signalsFromReport(report, checkID)
	if err != nil {
		return nil, nil, calls, err
	}
	return report, signals, calls, nil
}

// signalsFromReport maps the report to at most one evidence signal,
// scored by the worst severity found.
func (s *ContradictionService) signalsFromReport(report *model.ContradictionReport, checkID model.CheckID) ([]model.EvidenceSignal, error) {
	if !report.HasContradictions {
		return nil, nil
	}

	score := 0.0
	worst := ""
	for _, c := range report.Contradictions {
		if sev := severityScore(c.Severity); sev > score {
			score = sev
			worst = c.Description
		}
	}
	sig, err := model.NewSignal(checkID, score,
		fmt.Sprintf("%d contradictions, worst: %s", len(report.Contradictions), worst))
	if err != nil {
		return nil, err
	}
	return []model.EvidenceSignal{sig}, nil
}

func severityScore(s model.ContradictionSeverity) float64 {
	switch s {
	case model.SeverityHigh:
		return 0.9
	case model.SeverityMedium:
		return 0.5
	case model.SeverityLow:
		return 0.2
	default:
		return 0
	}
}

// parseContradictionReport enforces the response contract. Missing
// required fields and unknown shapes are rejected, never passed
// through.
func parseContradictionReport(raw string) (*model.ContradictionReport, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	for _, required := range []string{"hasContradictions", "contradictions", "consistencyScore"} {
		if _, ok := fields[required]; !ok {
			return nil, fmt.Errorf("missing field %q", required)
		}
	}

	var report model.ContradictionReport
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if report.ConsistencyScore < 0 || report.ConsistencyScore > 1 {
		return nil, fmt.Errorf("consistencyScore %v outside [0,1]", report.ConsistencyScore)
	}
	if report.HasContradictions != (len(report.Contradictions) > 0) {
		return nil, fmt.Errorf("hasContradictions inconsistent with %d listed contradictions", len(report.Contradictions))
	}
	for i, c := range report.Contradictions {
		if c.Description == "" {
			return nil, fmt.Errorf("contradiction %d missing description", i)
		}
		switch c.Severity {
		case model.SeverityLow, model.SeverityMedium, model.SeverityHigh:
		default:
			return nil, fmt.Errorf("contradiction %d has unknown severity %q", i, c.Severity)
		}
	}
	return &report, nil
}

// callGemini makes a request to the Gemini API
func (s *ContradictionService) callGemini(ctx context.Context, modelName, prompt string) (string, error) {
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"parts": []map[string]string{
					{"text": prompt},
				},
			},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
		},
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s?key=%s", s.config.ModelEndpoint(modelName), s.config.APIKey)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini status %d", resp.StatusCode)
	}

	// Parse Gemini response structure
	var geminiResp struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}

	if err := json.Unmarshal(body, &geminiResp); err != nil {
		return "", err
	}

	if len(geminiResp.Candidates) > 0 && len(geminiResp.Candidates[0].Content.Parts) > 0 {
		return geminiResp.Candidates[0].Content.Parts[0].Text, nil
	}

	return "", fmt.Errorf("empty response from Gemini")
}

func (s *ContradictionService) buildPrompt(answers []model.Answer) string {
	var sb strings.Builder
	for _, a := range answers {
		sb.WriteString(fmt.Sprintf("Question %s: %s\nAnswer: %s\n\n", a.QuestionID, a.Question, a.Response))
	}

	return fmt.Sprintf(`You are checking a survey submission for internal contradictions. Return ONLY valid JSON matching this schema:
{
  "hasContradictions": true or false,
  "contradictions": [{"description": "what conflicts with what", "severity": "low" or "medium" or "high"}],
  "consistencyScore": 0.0 to 1.0,
  "reasoning": "one sentence"
}

%s
Compare every answer against every other answer. Flag logical, temporal, and demographic conflicts.
consistencyScore is 1.0 when all answers cohere and 0.0 when they are irreconcilable.
hasContradictions must be true exactly when the contradictions list is non-empty.`, sb.String())
}
