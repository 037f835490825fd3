// Package ocr implements the ocr capability surface: text extraction
// and key-value parsing over caller-supplied document text, with
// optional quality evaluation through the llm_judge module.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/avinashfc/agentic-visionxtract/domain/call"
	"github.com/avinashfc/agentic-visionxtract/ports"
)

// ModuleName is the canonical name this surface registers under.
const ModuleName = "ocr"

// Synthetic block geometry for text supplied without layout data.
const (
	lineHeight = 24.0
	charWidth  = 8.0
)

// JudgeClient calls the llm_judge module. *app.ModuleClient satisfies
// this; tests substitute a local stub.
type JudgeClient interface {
	Call(ctx context.Context, operation string, payload map[string]any) (map[string]any, error)
}

// TextBlock is one detected region of text with its position.
type TextBlock struct {
	Text       string   `json:"text"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Width      float64  `json:"width"`
	Height     float64  `json:"height"`
	Confidence *float64 `json:"confidence,omitempty"`
	Language   string   `json:"language,omitempty"`
}

// ExtractTextRequest carries the document text to segment.
type ExtractTextRequest struct {
	DocumentID    string   `json:"document_id"`
	Content       string   `json:"content"`
	LanguageHints []string `json:"language_hints,omitempty"`
}

// ExtractTextResponse is the segmented document.
type ExtractTextResponse struct {
	DocumentID        string         `json:"document_id"`
	FullText          string         `json:"full_text"`
	TextBlocks        []TextBlock    `json:"text_blocks"`
	LanguagesDetected []string       `json:"languages_detected"`
	ProcessingTime    float64        `json:"processing_time"`
	Status            string         `json:"status"`
	Metadata          map[string]any `json:"metadata"`
}

// KeyValuePair is one extracted field.
type KeyValuePair struct {
	Key        string   `json:"key"`
	Value      string   `json:"value"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ExtractKeyValuesRequest carries the document text to parse, plus
// optional judge evaluation settings.
type ExtractKeyValuesRequest struct {
	DocumentID           string           `json:"document_id"`
	Content              string           `json:"content"`
	DocumentName         string           `json:"document_name,omitempty"`
	LanguageHints        []string         `json:"language_hints,omitempty"`
	EvaluateWithJudge    bool             `json:"evaluate_with_judge,omitempty"`
	JudgeCriteria        []map[string]any `json:"judge_criteria,omitempty"`
	JudgeTaskDescription string           `json:"judge_task_description,omitempty"`
}

// KeyValueResponse is the parsed document.
type KeyValueResponse struct {
	DocumentID     string         `json:"document_id"`
	KeyValuePairs  []KeyValuePair `json:"key_value_pairs"`
	RawText        string         `json:"raw_text"`
	ProcessingTime float64        `json:"processing_time"`
	Status         string         `json:"status"`
	Metadata       map[string]any `json:"metadata"`
}

// Deps holds the ocr surface dependencies. Judge may be nil when no
// judge module is reachable; evaluation requests then record an error
// in metadata instead of failing.
type Deps struct {
	Clock  ports.Clock
	Judge  JudgeClient
	Logger zerolog.Logger
}

// Surface exposes the extract_text and extract_key_values operations.
type Surface struct {
	clock  ports.Clock
	judge  JudgeClient
	logger zerolog.Logger
}

// New creates the ocr surface.
func New(deps Deps) *Surface {
	return &Surface{
		clock:  deps.Clock,
		judge:  deps.Judge,
		logger: deps.Logger.With().Str("module", ModuleName).Logger(),
	}
}

// Module returns the module name this surface serves.
func (s *Surface) Module() string { return ModuleName }

// Operation looks up a named operation.
func (s *Surface) Operation(name string) (ports.Handler, bool) {
	switch name {
	case "extract_text":
		return s.extractText, true
	case "extract_key_values":
		return s.extractKeyValues, true
	}
	return nil, false
}

// Operations lists the operation names this surface exposes.
func (s *Surface) Operations() []string {
	return []string{"extract_key_values", "extract_text"}
}

func (s *Surface) extractText(ctx context.Context, payload map[string]any) (map[string]any, error) {
	var req ExtractTextRequest
	if err := call.DecodePayload(payload, &req); err != nil {
		return nil, call.WrapFailure(call.KindApplication, err, "extract_text: invalid request")
	}
	if req.Content == "" {
		return nil, call.NewFailure(call.KindApplication, "extract_text: content is required")
	}

	started := s.clock.Now()

	var blocks []TextBlock
	for i, line := range strings.Split(req.Content, "\n") {
		line = strings.TrimRight(line, " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		blocks = append(blocks, TextBlock{
			Text:   line,
			X:      0,
			Y:      float64(i) * lineHeight,
			Width:  float64(len(line)) * charWidth,
			Height: lineHeight,
		})
	}
	if blocks == nil {
		blocks = []TextBlock{}
	}

	languages := req.LanguageHints
	if languages == nil {
		languages = []string{}
	}

	resp := ExtractTextResponse{
		DocumentID:        req.DocumentID,
		FullText:          req.Content,
		TextBlocks:        blocks,
		LanguagesDetected: languages,
		ProcessingTime:    s.clock.Now().Sub(started).Seconds(),
		Status:            "success",
		Metadata:          map[string]any{},
	}

	s.logger.Debug().
		Str("document_id", req.DocumentID).
		Int("blocks", len(blocks)).
		Msg("text extracted")

	return call.EncodePayload(resp)
}

func (s *Surface) extractKeyValues(ctx context.Context, payload map[string]any) (map[string]any, error) {
	var req ExtractKeyValuesRequest
	if err := call.DecodePayload(payload, &req); err != nil {
		return nil, call.WrapFailure(call.KindApplication, err, "extract_key_values: invalid request")
	}
	if req.Content == "" {
		return nil, call.NewFailure(call.KindApplication, "extract_key_values: content is required")
	}

	started := s.clock.Now()

	resp := &KeyValueResponse{
		DocumentID:     req.DocumentID,
		KeyValuePairs:  ParseKeyValues(req.Content),
		RawText:        req.Content,
		ProcessingTime: s.clock.Now().Sub(started).Seconds(),
		Status:         "success",
		Metadata:       map[string]any{},
	}

	s.logger.Debug().
		Str("document_id", req.DocumentID).
		Int("pairs", len(resp.KeyValuePairs)).
		Msg("key-value pairs extracted")

	if req.EvaluateWithJudge {
		s.EvaluateWithJudge(ctx, resp, EvaluateOptions{
			DocumentName:    req.DocumentName,
			LanguageHints:   req.LanguageHints,
			Criteria:        req.JudgeCriteria,
			TaskDescription: req.JudgeTaskDescription,
		})
	}

	return call.EncodePayload(resp)
}

// ParseKeyValues extracts key: value pairs from text, one per line.
// Lines without a colon, or with an empty key or value, are skipped.
func ParseKeyValues(text string) []KeyValuePair {
	pairs := []KeyValuePair{}
	for _, line := range strings.Split(text, "\n") {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		pairs = append(pairs, KeyValuePair{Key: key, Value: value})
	}
	return pairs
}

// EvaluateOptions controls a judge evaluation of an extraction result.
type EvaluateOptions struct {
	DocumentName    string
	LanguageHints   []string
	Criteria        []map[string]any
	TaskDescription string
}

// EvaluateWithJudge asks the llm_judge module to score the extraction
// and attaches the result to the response metadata. Judge failures are
// recorded in metadata, never returned: an extraction must not fail
// because its quality check did.
func (s *Surface) EvaluateWithJudge(ctx context.Context, resp *KeyValueResponse, opts EvaluateOptions) {
	if len(resp.KeyValuePairs) == 0 {
		return
	}
	if resp.Metadata == nil {
		resp.Metadata = map[string]any{}
	}
	if s.judge == nil {
		resp.Metadata["evaluation_error"] = "no judge client configured"
		resp.Metadata["evaluated"] = false
		return
	}

	lines := make([]string, len(resp.KeyValuePairs))
	for i, kv := range resp.KeyValuePairs {
		lines[i] = fmt.Sprintf("%s: %s", kv.Key, kv.Value)
	}

	task := opts.TaskDescription
	if task == "" {
		task = fmt.Sprintf("Evaluate key-value extraction quality for document: %s", opts.DocumentName)
	}

	payload := map[string]any{
		"content":          strings.Join(lines, "\n"),
		"task_description": task,
		"context": map[string]any{
			"document_name":         opts.DocumentName,
			"language_hints":        opts.LanguageHints,
			"key_value_pairs_count": len(resp.KeyValuePairs),
			"raw_text_length":       len(resp.RawText),
		},
	}
	if len(opts.Criteria) > 0 {
		payload["criteria"] = opts.Criteria
	}

	evaluation, err := s.judge.Call(ctx, "evaluate", payload)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("document_id", resp.DocumentID).
			Msg("judge evaluation failed")
		resp.Metadata["evaluation_error"] = err.Error()
		resp.Metadata["evaluated"] = false
		return
	}

	resp.Metadata["evaluation"] = evaluation
	resp.Metadata["evaluated"] = true
}
