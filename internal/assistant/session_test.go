package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smarthealth/portal/pkg/logger"
	"github.com/smarthealth/portal/pkg/types"
)

// MockClient mocks the generative-AI gateway
type MockClient struct {
	mock.Mock
}

func (m *MockClient) Chat(ctx context.Context, history []types.ChatMessage, message string, attachment *types.Attachment) (string, error) {
	args := m.Called(ctx, history, message, attachment)
	return args.String(0), args.Error(1)
}

func (m *MockClient) AnalyzePrescription(ctx context.Context, dictation string, patient types.PatientContext) (types.PrescriptionAnalysis, error) {
	args := m.Called(ctx, dictation, patient)
	return args.Get(0).(types.PrescriptionAnalysis), args.Error(1)
}

func newTestSession(client Client) *ChatSession {
	return NewChatSession(client, logger.New("session-test", "error"))
}

func TestChatSession_Send(t *testing.T) {
	t.Run("successful turn appends user and model messages", func(t *testing.T) {
		client := &MockClient{}
		client.On("Chat", mock.Anything, mock.Anything, "I have a headache", (*types.Attachment)(nil)).
			Return("Try resting in a dark room.", nil)
		session := newTestSession(client)

		reply, err := session.Send(context.Background(), "I have a headache", nil)

		require.NoError(t, err)
		assert.Equal(t, types.ChatRoleModel, reply.Role)
		assert.Equal(t, "Try resting in a dark room.", reply.Text)

		history := session.History()
		require.Len(t, history, 2)
		assert.Equal(t, types.ChatRoleUser, history[0].Role)
		assert.Equal(t, "I have a headache", history[0].Text)
		assert.Equal(t, reply.ID, history[1].ID)
		assert.NotEqual(t, history[0].ID, history[1].ID)
		client.AssertExpectations(t)
	})

	t.Run("gateway failure records the fallback and keeps the user message", func(t *testing.T) {
		client := &MockClient{}
		client.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return("", errors.New("network down"))
		session := newTestSession(client)

		reply, err := session.Send(context.Background(), "are my meds safe?", nil)

		require.NoError(t, err)
		assert.Equal(t, ChatFallback, reply.Text)

		history := session.History()
		require.Len(t, history, 2)
		assert.Equal(t, "are my meds safe?", history[0].Text)
		assert.Equal(t, ChatFallback, history[1].Text)
	})

	t.Run("prior turns are passed as history, excluding the current message", func(t *testing.T) {
		client := &MockClient{}
		var gotHistory []types.ChatMessage
		client.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				gotHistory = args.Get(1).([]types.ChatMessage)
			}).
			Return("reply", nil)
		session := newTestSession(client)

		_, err := session.Send(context.Background(), "first", nil)
		require.NoError(t, err)
		_, err = session.Send(context.Background(), "second", nil)
		require.NoError(t, err)

		require.Len(t, gotHistory, 2)
		assert.Equal(t, "first", gotHistory[0].Text)
		assert.Equal(t, "reply", gotHistory[1].Text)
	})

	t.Run("attachment is kept on the recorded user message", func(t *testing.T) {
		client := &MockClient{}
		attachment := &types.Attachment{MimeType: "application/pdf", Data: "QkFTRTY0", Name: "report.pdf"}
		client.On("Chat", mock.Anything, mock.Anything, mock.Anything, attachment).
			Return("Your report looks unremarkable.", nil)
		session := newTestSession(client)

		_, err := session.Send(context.Background(), "please review", attachment)

		require.NoError(t, err)
		history := session.History()
		require.NotNil(t, history[0].Attachment)
		assert.Equal(t, "report.pdf", history[0].Attachment.Name)
	})

	t.Run("empty message without attachment is rejected", func(t *testing.T) {
		client := &MockClient{}
		session := newTestSession(client)

		_, err := session.Send(context.Background(), "", nil)

		assert.True(t, types.IsValidation(err))
		assert.Empty(t, session.History())
	})
}

func TestChatSession_Reset(t *testing.T) {
	client := &MockClient{}
	client.On("Chat", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return("hi", nil)
	session := newTestSession(client)

	_, err := session.Send(context.Background(), "hello", nil)
	require.NoError(t, err)
	require.NotEmpty(t, session.History())

	session.Reset()

	assert.Empty(t, session.History())
}
