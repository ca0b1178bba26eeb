package assistant

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/smarthealth/portal/pkg/logger"
	"github.com/smarthealth/portal/pkg/types"
)

// ChatSession holds the append-only transcript of one assistant
// conversation. The transcript lives only for the session; it is not
// persisted to the patient record.
type ChatSession struct {
	// sendMu serializes whole send cycles so replies land in the transcript
	// in request order even when callers overlap
	sendMu   sync.Mutex
	mu       sync.Mutex
	client   Client
	logger   *logger.Logger
	messages []types.ChatMessage
}

// NewChatSession creates an empty chat session backed by the given client
func NewChatSession(client Client, log *logger.Logger) *ChatSession {
	return &ChatSession{
		client: client,
		logger: log,
	}
}

// Send records the user's message, asks the model for a reply, and records
// the reply. A failed gateway call is absorbed into the fixed fallback
// reply; the user's message is never rolled back.
func (s *ChatSession) Send(ctx context.Context, text string, attachment *types.Attachment) (types.ChatMessage, error) {
	if text == "" && attachment == nil {
		return types.ChatMessage{}, types.NewValidationError(types.ErrCodeInvalidInput, "message text or attachment is required")
	}

	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	history := append([]types.ChatMessage(nil), s.messages...)
	userMsg := types.ChatMessage{
		ID:         uuid.New().String(),
		Role:       types.ChatRoleUser,
		Text:       text,
		Timestamp:  time.Now(),
		Attachment: attachment,
	}
	s.messages = append(s.messages, userMsg)
	s.mu.Unlock()

	reply, err := s.client.Chat(ctx, history, text, attachment)
	if err != nil {
		s.logger.WithComponent("chat").WithError(err).Warn("Assistant chat failed, recording fallback reply")
		reply = ChatFallback
	}

	modelMsg := types.ChatMessage{
		ID:        uuid.New().String(),
		Role:      types.ChatRoleModel,
		Text:      reply,
		Timestamp: time.Now(),
	}

	s.mu.Lock()
	s.messages = append(s.messages, modelMsg)
	s.mu.Unlock()

	return modelMsg, nil
}

// History returns a copy of the transcript in order
func (s *ChatSession) History() []types.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.ChatMessage(nil), s.messages...)
}

// Reset clears the transcript
func (s *ChatSession) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = nil
}
