// Package judge implements the llm_judge capability surface: scoring
// content against weighted criteria and comparing candidate outputs.
// Scores come from deterministic text heuristics, so identical input
// always yields the identical evaluation.
package judge

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avinashfc/agentic-visionxtract/domain/call"
	"github.com/avinashfc/agentic-visionxtract/ports"
)

// ModuleName is the canonical name this surface registers under.
const ModuleName = "llm_judge"

// Criterion describes one axis of an evaluation.
type Criterion struct {
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
}

// Score is the result for a single criterion.
type Score struct {
	Criteria  string  `json:"criteria"`
	Score     float64 `json:"score"`
	Reasoning string  `json:"reasoning"`
	Weight    float64 `json:"weight"`
}

// EvaluateRequest asks for a single piece of content to be scored.
type EvaluateRequest struct {
	Content         string         `json:"content"`
	Reference       string         `json:"reference,omitempty"`
	Criteria        []Criterion    `json:"criteria,omitempty"`
	TaskDescription string         `json:"task_description,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
}

// EvaluateResponse is the full evaluation for one piece of content.
type EvaluateResponse struct {
	OverallScore    float64  `json:"overall_score"`
	Scores          []Score  `json:"scores"`
	Reasoning       string   `json:"reasoning"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	Recommendations []string `json:"recommendations"`
	EvaluationID    string   `json:"evaluation_id"`
}

// CompareRequest asks for several candidate outputs to be ranked.
type CompareRequest struct {
	Outputs         []string    `json:"outputs"`
	Criteria        []Criterion `json:"criteria,omitempty"`
	TaskDescription string      `json:"task_description,omitempty"`
	Rank            *bool       `json:"rank,omitempty"`
}

// CompareResult is the evaluation of one candidate within a comparison.
type CompareResult struct {
	OutputIndex  int     `json:"output_index"`
	OverallScore float64 `json:"overall_score"`
	Scores       []Score `json:"scores"`
	Reasoning    string  `json:"reasoning"`
	Rank         int     `json:"rank,omitempty"`
}

// CompareResponse ranks all candidates and names the best one.
type CompareResponse struct {
	Results         []CompareResult `json:"results"`
	BestOutputIndex int             `json:"best_output_index"`
	Summary         string          `json:"summary"`
	ComparisonID    string          `json:"comparison_id"`
}

// Deps holds the judge surface dependencies.
type Deps struct {
	IDGen  ports.IDGenerator
	Logger zerolog.Logger
}

// Surface exposes the evaluate and compare operations.
type Surface struct {
	idGen  ports.IDGenerator
	logger zerolog.Logger
}

// New creates the llm_judge surface.
func New(deps Deps) *Surface {
	return &Surface{
		idGen:  deps.IDGen,
		logger: deps.Logger.With().Str("module", ModuleName).Logger(),
	}
}

// Module returns the module name this surface serves.
func (s *Surface) Module() string { return ModuleName }

// Operation looks up a named operation.
func (s *Surface) Operation(name string) (ports.Handler, bool) {
	switch name {
	case "evaluate":
		return s.evaluate, true
	case "compare":
		return s.compare, true
	}
	return nil, false
}

// Operations lists the operation names this surface exposes.
func (s *Surface) Operations() []string {
	return []string{"compare", "evaluate"}
}

func (s *Surface) evaluate(ctx context.Context, payload map[string]any) (map[string]any, error) {
	var req EvaluateRequest
	if err := call.DecodePayload(payload, &req); err != nil {
		return nil, call.WrapFailure(call.KindApplication, err, "evaluate: invalid request")
	}
	if req.Content == "" {
		return nil, call.NewFailure(call.KindApplication, "evaluate: content is required")
	}

	criteria := req.Criteria
	if len(criteria) == 0 {
		criteria = DefaultCriteria()
	}

	resp := s.evaluateContent(req.Content, req.Reference, req.TaskDescription, criteria)
	resp.EvaluationID = s.idGen.New()

	s.logger.Debug().
		Str("evaluation_id", resp.EvaluationID).
		Float64("overall_score", resp.OverallScore).
		Msg("content evaluated")

	return call.EncodePayload(resp)
}

func (s *Surface) compare(ctx context.Context, payload map[string]any) (map[string]any, error) {
	var req CompareRequest
	if err := call.DecodePayload(payload, &req); err != nil {
		return nil, call.WrapFailure(call.KindApplication, err, "compare: invalid request")
	}
	if len(req.Outputs) < 2 {
		return nil, call.NewFailure(call.KindApplication, "compare: at least 2 outputs required, got %d", len(req.Outputs))
	}

	criteria := req.Criteria
	if len(criteria) == 0 {
		criteria = DefaultCriteria()
	}

	results := make([]CompareResult, len(req.Outputs))
	for i, output := range req.Outputs {
		eval := s.evaluateContent(output, "", req.TaskDescription, criteria)
		results[i] = CompareResult{
			OutputIndex:  i,
			OverallScore: eval.OverallScore,
			Scores:       eval.Scores,
			Reasoning:    eval.Reasoning,
		}
	}

	// Rank by score, ties broken by input order.
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].OverallScore > results[order[b]].OverallScore
	})

	rank := req.Rank == nil || *req.Rank
	if rank {
		for pos, idx := range order {
			results[idx].Rank = pos + 1
		}
	}

	best := order[0]
	resp := CompareResponse{
		Results:         results,
		BestOutputIndex: best,
		Summary: fmt.Sprintf("compared %d outputs; output %d scored highest at %.2f",
			len(results), best, results[best].OverallScore),
		ComparisonID: s.idGen.New(),
	}

	s.logger.Debug().
		Str("comparison_id", resp.ComparisonID).
		Int("outputs", len(results)).
		Int("best_output_index", best).
		Msg("outputs compared")

	return call.EncodePayload(resp)
}

// DefaultCriteria returns the criteria used when a request supplies none.
func DefaultCriteria() []Criterion {
	return []Criterion{
		{Name: "accuracy", Weight: 0.3, Description: "Factual accuracy and correctness"},
		{Name: "relevance", Weight: 0.25, Description: "Relevance to the task"},
		{Name: "completeness", Weight: 0.2, Description: "Completeness of the response"},
		{Name: "clarity", Weight: 0.15, Description: "Clarity and coherence"},
		{Name: "quality", Weight: 0.1, Description: "Overall quality"},
	}
}

func (s *Surface) evaluateContent(content, reference, task string, criteria []Criterion) EvaluateResponse {
	scores := make([]Score, len(criteria))
	var weighted, totalWeight, plainSum float64

	// quality averages the other criteria, so score it last.
	qualityIdx := -1
	for i, c := range criteria {
		if c.Name == "quality" {
			qualityIdx = i
			continue
		}
		sc := scoreCriterion(c, content, reference, task)
		scores[i] = sc
		plainSum += sc.Score
	}
	if qualityIdx >= 0 {
		avg := 0.6
		if n := len(criteria) - 1; n > 0 {
			avg = round2(plainSum / float64(n))
		}
		scores[qualityIdx] = Score{
			Criteria:  "quality",
			Score:     avg,
			Reasoning: "average of the other criteria scores",
			Weight:    criteria[qualityIdx].Weight,
		}
	}

	for _, sc := range scores {
		weighted += sc.Score * sc.Weight
		totalWeight += sc.Weight
	}
	overall := 0.0
	if totalWeight > 0 {
		overall = round2(weighted / totalWeight)
	}

	var strengths, weaknesses, recommendations []string
	for _, sc := range scores {
		switch {
		case sc.Score >= 0.8:
			strengths = append(strengths, fmt.Sprintf("strong %s", sc.Criteria))
		case sc.Score < 0.5:
			weaknesses = append(weaknesses, fmt.Sprintf("weak %s", sc.Criteria))
			recommendations = append(recommendations, fmt.Sprintf("improve %s", sc.Criteria))
		}
	}
	if strengths == nil {
		strengths = []string{}
	}
	if weaknesses == nil {
		weaknesses = []string{}
	}
	if recommendations == nil {
		recommendations = []string{}
	}

	return EvaluateResponse{
		OverallScore: overall,
		Scores:       scores,
		Reasoning: fmt.Sprintf("weighted average of %d criteria scores yields %.2f",
			len(scores), overall),
		Strengths:       strengths,
		Weaknesses:      weaknesses,
		Recommendations: recommendations,
	}
}

func scoreCriterion(c Criterion, content, reference, task string) Score {
	var value float64
	var reasoning string

	switch c.Name {
	case "accuracy":
		if reference != "" {
			value = 0.4 + 0.6*tokenOverlap(content, reference)
			reasoning = "token overlap with the reference content"
		} else {
			value = 0.7
			reasoning = "no reference supplied, neutral accuracy assumed"
		}
	case "relevance":
		if task != "" {
			value = 0.4 + 0.6*tokenOverlap(content, task)
			reasoning = "token overlap with the task description"
		} else {
			value = 0.7
			reasoning = "no task description supplied, neutral relevance assumed"
		}
	case "completeness":
		words := len(strings.Fields(content))
		value = math.Min(1.0, float64(words)/100.0)
		reasoning = fmt.Sprintf("content length of %d words against a 100-word target", words)
	case "clarity":
		value = clarityScore(content)
		reasoning = "average sentence length within readable bounds"
	default:
		value = 0.6
		reasoning = fmt.Sprintf("no specific heuristic for %q, neutral score assumed", c.Name)
	}

	return Score{
		Criteria:  c.Name,
		Score:     round2(clamp01(value)),
		Reasoning: reasoning,
		Weight:    c.Weight,
	}
}

// tokenOverlap returns the fraction of distinct tokens in a that also
// appear in b.
func tokenOverlap(a, b string) float64 {
	at := tokens(a)
	if len(at) == 0 {
		return 0
	}
	bt := make(map[string]struct{})
	for _, t := range tokens(b) {
		bt[t] = struct{}{}
	}
	seen := make(map[string]struct{})
	matched := 0
	for _, t := range at {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := bt[t]; ok {
			matched++
		}
	}
	return float64(matched) / float64(len(seen))
}

func tokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})
}

// clarityScore rewards sentences between 5 and 25 words and decays
// linearly outside that band.
func clarityScore(content string) float64 {
	sentences := strings.FieldsFunc(content, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	var counted int
	var totalWords int
	for _, s := range sentences {
		w := len(strings.Fields(s))
		if w == 0 {
			continue
		}
		counted++
		totalWords += w
	}
	if counted == 0 {
		return 0.3
	}
	avg := float64(totalWords) / float64(counted)
	if avg >= 5 && avg <= 25 {
		return 0.9
	}
	if avg < 5 {
		return 0.5 + 0.4*(avg/5)
	}
	return math.Max(0.3, 0.9-(avg-25)/50)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
