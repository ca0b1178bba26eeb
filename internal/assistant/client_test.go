package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smarthealth/portal/pkg/config"
	"github.com/smarthealth/portal/pkg/logger"
	"github.com/smarthealth/portal/pkg/types"
)

func candidateJSON(text string) string {
	out := map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	}
	b, _ := json.Marshal(out)
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *GeminiClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewGeminiClient(config.AssistantConfig{
		BaseURL:        server.URL,
		Model:          "gemini-2.5-flash",
		APIKey:         "test-key",
		TimeoutSeconds: 5,
		Temperature:    0.7,
		HistoryWindow:  5,
	}, logger.New("assistant-test", "error"), nil)
}

func TestGeminiClient_Chat(t *testing.T) {
	t.Run("returns the first candidate text", func(t *testing.T) {
		var gotPath, gotKey string
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			gotPath = r.URL.Path
			gotKey = r.Header.Get("x-goog-api-key")
			w.Write([]byte(candidateJSON("Drink plenty of fluids.")))
		})

		reply, err := client.Chat(context.Background(), nil, "I have a cold", nil)

		require.NoError(t, err)
		assert.Equal(t, "Drink plenty of fluids.", reply)
		assert.Equal(t, "/models/gemini-2.5-flash:generateContent", gotPath)
		assert.Equal(t, "test-key", gotKey)
	})

	t.Run("folds only the last five turns into the prompt", func(t *testing.T) {
		var req generateRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			w.Write([]byte(candidateJSON("ok")))
		})

		history := make([]types.ChatMessage, 0, 7)
		for _, text := range []string{"one", "two", "three", "four", "five", "six", "seven"} {
			history = append(history, types.ChatMessage{
				Role: types.ChatRoleUser, Text: text, Timestamp: time.Now(),
			})
		}

		_, err := client.Chat(context.Background(), history, "current question", nil)

		require.NoError(t, err)
		require.Len(t, req.Contents, 1)
		prompt := req.Contents[0].Parts[0].Text
		assert.Contains(t, prompt, "three")
		assert.Contains(t, prompt, "seven")
		assert.NotContains(t, prompt, "one")
		assert.NotContains(t, prompt, "two")
		assert.Contains(t, prompt, "current question")
		require.NotNil(t, req.SystemInstruction)
		assert.Contains(t, req.SystemInstruction.Parts[0].Text, "SmartHealth AI")
	})

	t.Run("attachment rides as inline data", func(t *testing.T) {
		var req generateRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			w.Write([]byte(candidateJSON("Looks like a normal X-ray.")))
		})

		attachment := &types.Attachment{MimeType: "image/png", Data: "AAAA", Name: "xray.png"}
		_, err := client.Chat(context.Background(), nil, "what is this", attachment)

		require.NoError(t, err)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, "what is this", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "image/png", req.Contents[0].Parts[1].InlineData.MimeType)
		assert.Equal(t, "AAAA", req.Contents[0].Parts[1].InlineData.Data)
	})

	t.Run("empty candidates fall back to the apology reply", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		})

		reply, err := client.Chat(context.Background(), nil, "hello", nil)

		require.NoError(t, err)
		assert.Equal(t, emptyReplyFallback, reply)
	})

	t.Run("server error surfaces as an external error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		})

		_, err := client.Chat(context.Background(), nil, "hello", nil)

		require.Error(t, err)
		var pe *types.PortalError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, types.ErrorKindExternal, pe.Kind)
	})
}

func TestGeminiClient_AnalyzePrescription(t *testing.T) {
	t.Run("parses the structured result", func(t *testing.T) {
		var req generateRequest
		analysis := `{"structuredPrescription":[{"name":"Amoxicillin","dosage":"500mg","frequency":"3x/day","duration":"7 days"}],"safe":false,"warnings":["Patient is allergic to Penicillin"]}`
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			w.Write([]byte(candidateJSON(analysis)))
		})

		result, err := client.AnalyzePrescription(context.Background(), "amoxicillin 500 three times a day for a week", types.PatientContext{
			Allergies:         []string{"Penicillin", "Peanuts"},
			ChronicConditions: []string{"Hypertension"},
			Age:               45,
		})

		require.NoError(t, err)
		assert.False(t, result.Safe)
		require.Len(t, result.Medications, 1)
		assert.Equal(t, "Amoxicillin", result.Medications[0].Name)
		assert.Equal(t, []string{"Patient is allergic to Penicillin"}, result.Warnings)

		// Request carries the patient context and the schema constraint
		prompt := req.Contents[0].Parts[0].Text
		assert.Contains(t, prompt, "Penicillin, Peanuts")
		assert.Contains(t, prompt, "Age: 45")
		require.NotNil(t, req.GenerationConfig)
		assert.Equal(t, "application/json", req.GenerationConfig.ResponseMimeType)
		assert.NotEmpty(t, req.GenerationConfig.ResponseSchema)
	})

	t.Run("empty context lists read as None", func(t *testing.T) {
		var req generateRequest
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			w.Write([]byte(candidateJSON(`{"structuredPrescription":[],"safe":true,"warnings":[]}`)))
		})

		_, err := client.AnalyzePrescription(context.Background(), "vitamin d daily", types.PatientContext{Age: 32})

		require.NoError(t, err)
		assert.Contains(t, req.Contents[0].Parts[0].Text, "Allergies: None")
	})

	t.Run("malformed JSON surfaces as an external error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(candidateJSON("not json at all")))
		})

		_, err := client.AnalyzePrescription(context.Background(), "whatever", types.PatientContext{})

		require.Error(t, err)
		var pe *types.PortalError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, types.ErrorKindExternal, pe.Kind)
	})

	t.Run("empty model output surfaces as an external error", func(t *testing.T) {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"candidates":[]}`))
		})

		_, err := client.AnalyzePrescription(context.Background(), "whatever", types.PatientContext{})

		require.Error(t, err)
	})
}

func TestFallbackAnalysis(t *testing.T) {
	result := FallbackAnalysis()

	assert.False(t, result.Safe)
	assert.Empty(t, result.Medications)
	require.Len(t, result.Warnings, 1)
	assert.True(t, strings.HasPrefix(result.Warnings[0], "System error"))
}
