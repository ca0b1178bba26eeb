package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/smarthealth/portal/pkg/config"
	"github.com/smarthealth/portal/pkg/logger"
	"github.com/smarthealth/portal/pkg/monitoring"
	"github.com/smarthealth/portal/pkg/types"
)

// Client is the portal's view of the generative-AI gateway: two stateless,
// network-bound, fallible calls. Callers absorb failures at this boundary;
// nothing past it ever crashes the portal.
type Client interface {
	Chat(ctx context.Context, history []types.ChatMessage, message string, attachment *types.Attachment) (string, error)
	AnalyzePrescription(ctx context.Context, dictation string, patient types.PatientContext) (types.PrescriptionAnalysis, error)
}

// GeminiClient implements Client against the Gemini generateContent REST API
type GeminiClient struct {
	httpClient    *http.Client
	baseURL       string
	model         string
	apiKey        string
	temperature   float64
	historyWindow int
	logger        *logger.Logger
	metrics       *monitoring.MetricsCollector
}

// NewGeminiClient creates a new Gemini gateway client. metrics may be nil.
func NewGeminiClient(cfg config.AssistantConfig, log *logger.Logger, metrics *monitoring.MetricsCollector) *GeminiClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	window := cfg.HistoryWindow
	if window <= 0 {
		window = 5
	}

	return &GeminiClient{
		httpClient:    &http.Client{Timeout: timeout},
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		model:         cfg.Model,
		apiKey:        cfg.APIKey,
		temperature:   cfg.Temperature,
		historyWindow: window,
		logger:        log,
		metrics:       metrics,
	}
}

// Gemini wire format

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type generationConfig struct {
	Temperature      float64         `json:"temperature,omitempty"`
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Chat sends one assistant turn. Recent transcript context is folded into
// the prompt; an attachment rides as inline base64 data. Single attempt, no
// retries.
func (c *GeminiClient) Chat(ctx context.Context, history []types.ChatMessage, message string, attachment *types.Attachment) (string, error) {
	parts := []part{{Text: message}}
	if attachment != nil {
		parts = append(parts, part{InlineData: &inlineData{
			MimeType: attachment.MimeType,
			Data:     attachment.Data,
		}})
	}

	// Without an attachment the recent transcript is appended to the prompt
	// to give the stateless call memory
	if attachment == nil {
		parts = []part{{Text: c.chatPrompt(history, message)}}
	}

	req := &generateRequest{
		Contents:          []content{{Role: "user", Parts: parts}},
		SystemInstruction: &content{Parts: []part{{Text: systemInstructionChat}}},
		GenerationConfig:  &generationConfig{Temperature: c.temperature},
	}

	text, err := c.generate(ctx, "chat", req)
	if err != nil {
		return "", err
	}

	if text == "" {
		return emptyReplyFallback, nil
	}
	return text, nil
}

// chatPrompt folds the most recent transcript turns into a single prompt
func (c *GeminiClient) chatPrompt(history []types.ChatMessage, message string) string {
	recent := history
	if len(recent) > c.historyWindow {
		recent = recent[len(recent)-c.historyWindow:]
	}

	lines := lo.Map(recent, func(m types.ChatMessage, _ int) string {
		speaker := "Assistant"
		if m.Role == types.ChatRoleUser {
			speaker = "Patient"
		}
		return fmt.Sprintf("%s: %s", speaker, m.Text)
	})

	return fmt.Sprintf("PREVIOUS CONVERSATION:\n%s\n\nCURRENT REQUEST:\n%s\n\nAssistant:",
		strings.Join(lines, "\n\n"), message)
}

// analysisSchema constrains the prescription-analysis response to the
// structured result shape
var analysisSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "structuredPrescription": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "name": {"type": "STRING"},
          "dosage": {"type": "STRING"},
          "frequency": {"type": "STRING"},
          "duration": {"type": "STRING"}
        }
      }
    },
    "safe": {"type": "BOOLEAN"},
    "warnings": {"type": "ARRAY", "items": {"type": "STRING"}}
  }
}`)

// AnalyzePrescription extracts structured medications from a dictation and
// checks them against the patient context
func (c *GeminiClient) AnalyzePrescription(ctx context.Context, dictation string, patient types.PatientContext) (types.PrescriptionAnalysis, error) {
	prompt := fmt.Sprintf(
		"Patient Context:\n- Allergies: %s\n- Conditions: %s\n- Age: %d\n\nDoctor's Dictation: %q\n\nPlease extract the medication details and check for safety issues against the patient context.",
		orNone(patient.Allergies), orNone(patient.ChronicConditions), patient.Age, dictation)

	req := &generateRequest{
		Contents:          []content{{Role: "user", Parts: []part{{Text: prompt}}}},
		SystemInstruction: &content{Parts: []part{{Text: systemInstructionPrescription}}},
		GenerationConfig: &generationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   analysisSchema,
		},
	}

	text, err := c.generate(ctx, "analyze_prescription", req)
	if err != nil {
		return types.PrescriptionAnalysis{}, err
	}

	if text == "" {
		return types.PrescriptionAnalysis{}, types.NewExternalError(types.ErrCodeAssistantFailed, "empty response from model", nil)
	}

	var result types.PrescriptionAnalysis
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return types.PrescriptionAnalysis{}, types.NewExternalError(types.ErrCodeAssistantFailed, "malformed analysis response", err)
	}

	return result, nil
}

// generate performs one generateContent call and extracts the first
// candidate's text
func (c *GeminiClient) generate(ctx context.Context, operation string, payload *generateRequest) (string, error) {
	start := time.Now()

	text, err := c.doGenerate(ctx, payload)

	status := "ok"
	if err != nil {
		status = "error"
	}
	if c.metrics != nil {
		c.metrics.RecordAssistantCall(operation, status, time.Since(start))
	}
	c.logger.AssistantCall(operation, err == nil, time.Since(start).Milliseconds(), nil)

	return text, err
}

func (c *GeminiClient) doGenerate(ctx context.Context, payload *generateRequest) (string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return "", types.NewInternalError(types.ErrCodeInternalError, "failed to marshal model request", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", types.NewInternalError(types.ErrCodeInternalError, "failed to build model request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", types.NewExternalError(types.ErrCodeAssistantFailed, "model request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", types.NewExternalError(types.ErrCodeAssistantFailed,
			fmt.Sprintf("model returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", types.NewExternalError(types.ErrCodeAssistantFailed, "failed to decode model response", err)
	}

	if len(out.Candidates) == 0 || len(out.Candidates[0].Content.Parts) == 0 {
		return "", nil
	}
	return out.Candidates[0].Content.Parts[0].Text, nil
}

func orNone(values []string) string {
	if len(values) == 0 {
		return "None"
	}
	return strings.Join(values, ", ")
}

// FallbackAnalysis is the valid negative result substituted when the
// analysis call fails; the prescription-writer flow treats it as a normal
// (if negative) answer, never as an exception.
func FallbackAnalysis() types.PrescriptionAnalysis {
	return types.PrescriptionAnalysis{
		Medications: []types.Medication{},
		Safe:        false,
		Warnings:    []string{analysisFallbackWarning},
	}
}
