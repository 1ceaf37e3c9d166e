package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type fakeProvider struct {
	completeFunc  func(ctx context.Context, req CompletionRequest) (string, error)
	chatFunc      func(ctx context.Context, messages []ChatMessage, contextSummary string) (*ChatResponse, error)
	summarizeFunc func(ctx context.Context, history []ChatMessage) (string, error)
}

func (f *fakeProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if f.completeFunc != nil {
		return f.completeFunc(ctx, req)
	}
	return "", errors.New("complete not configured")
}

func (f *fakeProvider) Chat(ctx context.Context, messages []ChatMessage, contextSummary string) (*ChatResponse, error) {
	if f.chatFunc != nil {
		return f.chatFunc(ctx, messages, contextSummary)
	}
	return nil, errors.New("chat not configured")
}

func (f *fakeProvider) SummarizeContext(ctx context.Context, history []ChatMessage) (string, error) {
	if f.summarizeFunc != nil {
		return f.summarizeFunc(ctx, history)
	}
	return "", errors.New("summarize not configured")
}

var _ CompletionProvider = (*fakeProvider)(nil)

func TestChatService_AddMessageBoundsHistory(t *testing.T) {
	t.Parallel()

	svc := NewChatService(&fakeProvider{})
	session := svc.GetOrCreateSession(uuid.New())

	for i := 1; i <= MaxSessionMessages+5; i++ {
		svc.AddMessage(session, "user", fmt.Sprintf("msg %d", i))
	}

	if len(session.Messages) != MaxSessionMessages {
		t.Fatalf("Expected %d messages after eviction, got %d", MaxSessionMessages, len(session.Messages))
	}
	if session.Messages[0].Content != "msg 6" {
		t.Errorf("Expected oldest surviving message to be 'msg 6', got %q", session.Messages[0].Content)
	}
	if session.Messages[len(session.Messages)-1].Content != "msg 25" {
		t.Errorf("Expected newest message to be 'msg 25', got %q", session.Messages[len(session.Messages)-1].Content)
	}
	if !session.NeedsSummaryUpdate {
		t.Error("Expected NeedsSummaryUpdate to be set after adding messages")
	}
}

func TestChatService_GetOrCreateSession(t *testing.T) {
	t.Parallel()

	svc := NewChatService(&fakeProvider{})
	userA := uuid.New()
	userB := uuid.New()

	sessionA := svc.GetOrCreateSession(userA)
	svc.AddMessage(sessionA, "user", "remember me")

	again := svc.GetOrCreateSession(userA)
	if again != sessionA {
		t.Error("Expected the same session instance on repeat lookup")
	}
	if len(again.Messages) != 1 || again.Messages[0].Content != "remember me" {
		t.Errorf("Expected session history to survive repeat lookup, got %v", again.Messages)
	}

	sessionB := svc.GetOrCreateSession(userB)
	if sessionB == sessionA {
		t.Error("Expected a distinct session per user")
	}
	if len(sessionB.Messages) != 0 {
		t.Errorf("Expected a fresh session to start empty, got %d messages", len(sessionB.Messages))
	}
}

func TestChatService_GetResponse(t *testing.T) {
	t.Parallel()

	var gotSummary string
	var gotMessageCount int
	provider := &fakeProvider{
		chatFunc: func(_ context.Context, messages []ChatMessage, contextSummary string) (*ChatResponse, error) {
			gotSummary = contextSummary
			gotMessageCount = len(messages)
			return &ChatResponse{Message: "here is a plan", NeedsUpdate: true}, nil
		},
	}

	svc := NewChatService(provider)
	session := svc.GetOrCreateSession(uuid.New())
	svc.AddMessage(session, "user", "help me schedule my week")

	resp, err := svc.GetResponse(context.Background(), session, "prefers mornings")
	if err != nil {
		t.Fatalf("GetResponse returned error: %v", err)
	}
	if resp.Message != "here is a plan" {
		t.Errorf("Expected provider reply to pass through, got %q", resp.Message)
	}
	if gotSummary != "prefers mornings" {
		t.Errorf("Expected context summary to reach the provider, got %q", gotSummary)
	}
	if gotMessageCount != 1 {
		t.Errorf("Expected provider to see 1 message, got %d", gotMessageCount)
	}

	// The assistant reply is recorded in the session
	if len(session.Messages) != 2 {
		t.Fatalf("Expected 2 messages after response, got %d", len(session.Messages))
	}
	last := session.Messages[len(session.Messages)-1]
	if last.Role != "assistant" || last.Content != "here is a plan" {
		t.Errorf("Expected assistant reply appended to session, got %+v", last)
	}
}

func TestChatService_GetResponsePropagatesError(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{
		chatFunc: func(context.Context, []ChatMessage, string) (*ChatResponse, error) {
			return nil, errors.New("model unavailable")
		},
	}

	svc := NewChatService(provider)
	session := svc.GetOrCreateSession(uuid.New())
	svc.AddMessage(session, "user", "hello")

	_, err := svc.GetResponse(context.Background(), session, "")
	if err == nil {
		t.Fatal("Expected error when provider fails")
	}
	if !strings.Contains(err.Error(), "failed to get chat response") {
		t.Errorf("Expected wrapped error, got %v", err)
	}
	if len(session.Messages) != 1 {
		t.Errorf("Expected no assistant message on failure, got %d messages", len(session.Messages))
	}
}

func TestChatService_SummarizeSession(t *testing.T) {
	t.Parallel()

	summarizeCalled := false
	provider := &fakeProvider{
		summarizeFunc: func(_ context.Context, history []ChatMessage) (string, error) {
			summarizeCalled = true
			return "user likes batching errands", nil
		},
	}

	svc := NewChatService(provider)

	empty := svc.GetOrCreateSession(uuid.New())
	summary, err := svc.SummarizeSession(context.Background(), empty)
	if err != nil {
		t.Fatalf("SummarizeSession on empty session returned error: %v", err)
	}
	if summary != "" {
		t.Errorf("Expected empty summary for empty session, got %q", summary)
	}
	if summarizeCalled {
		t.Error("Expected no provider call for an empty session")
	}

	session := svc.GetOrCreateSession(uuid.New())
	svc.AddMessage(session, "user", "I hate morning errands")

	summary, err = svc.SummarizeSession(context.Background(), session)
	if err != nil {
		t.Fatalf("SummarizeSession returned error: %v", err)
	}
	if summary != "user likes batching errands" {
		t.Errorf("Expected provider summary, got %q", summary)
	}
	if session.ContextSummary != summary {
		t.Errorf("Expected summary stored on session, got %q", session.ContextSummary)
	}
	if session.NeedsSummaryUpdate {
		t.Error("Expected NeedsSummaryUpdate cleared after summarizing")
	}
}

func TestChatService_CloseSession(t *testing.T) {
	t.Parallel()

	svc := NewChatService(&fakeProvider{})
	userID := uuid.New()

	session := svc.GetOrCreateSession(userID)
	svc.AddMessage(session, "user", "soon to be forgotten")
	svc.CloseSession(userID)

	fresh := svc.GetOrCreateSession(userID)
	if fresh == session {
		t.Error("Expected a new session after close")
	}
	if len(fresh.Messages) != 0 {
		t.Errorf("Expected fresh session to start empty, got %d messages", len(fresh.Messages))
	}
}
