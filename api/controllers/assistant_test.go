package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/mathmindlabs/mathmind-backend/pkg/errors"
	"github.com/mathmindlabs/mathmind-backend/pkg/upstream/wolfram"
)

type stubCompleter struct {
	lastMessage string
	reply       string
	err         error
}

func (s *stubCompleter) Complete(_ context.Context, userMessage string) (string, error) {
	s.lastMessage = userMessage
	if s.err != nil {
		return "", s.err
	}
	if strings.TrimSpace(userMessage) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "User message cannot be empty.")
	}
	return s.reply, nil
}

type stubComputer struct {
	lastQuery string
	result    string
	err       error
}

func (s *stubComputer) Result(_ context.Context, query string) (string, error) {
	s.lastQuery = query
	if s.err != nil {
		return "", s.err
	}
	if strings.TrimSpace(query) == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Query is required")
	}
	return s.result, nil
}

func TestAssistantChatReturnsReply(t *testing.T) {
	client := &stubCompleter{reply: "x equals 2"}
	handler := AssistantChat(client, nil)

	body := `{"userMessage":"solve 2x=4"}`
	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if client.lastMessage != "solve 2x=4" {
		t.Fatalf("unexpected message %q", client.lastMessage)
	}
	var envelope struct {
		Data chatResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Reply != "x equals 2" {
		t.Fatalf("unexpected reply %q", envelope.Data.Reply)
	}
}

func TestAssistantChatRejectsEmptyMessage(t *testing.T) {
	handler := AssistantChat(&stubCompleter{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/chat", bytes.NewBufferString(`{"userMessage":"  "}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "User message cannot be empty." {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestAssistantComputeFromQueryParam(t *testing.T) {
	client := &stubComputer{result: "4"}
	handler := AssistantCompute(client, nil)

	req := httptest.NewRequest(http.MethodGet, "/compute?query=2%2B2", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if client.lastQuery != "2+2" {
		t.Fatalf("unexpected query %q", client.lastQuery)
	}
	var envelope struct {
		Data computeResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Result != "4" {
		t.Fatalf("unexpected result %q", envelope.Data.Result)
	}
}

func TestAssistantComputeFromBody(t *testing.T) {
	client := &stubComputer{result: "42"}
	handler := AssistantCompute(client, nil)

	req := httptest.NewRequest(http.MethodPost, "/compute", bytes.NewBufferString(`{"query":"6*7"}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if client.lastQuery != "6*7" {
		t.Fatalf("unexpected query %q", client.lastQuery)
	}
}

func TestAssistantComputeRequiresQuery(t *testing.T) {
	handler := AssistantCompute(&stubComputer{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/compute", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != "Query is required" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}

func TestAssistantComputeSurfacesUnsupportedOperation(t *testing.T) {
	client := &stubComputer{err: pkgerrors.New(pkgerrors.CodeDependency, wolfram.MessageUnsupported)}
	handler := AssistantCompute(client, nil)

	req := httptest.NewRequest(http.MethodGet, "/compute?query=draw+a+cat", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 got %d", rec.Code)
	}
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Message != wolfram.MessageUnsupported {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
}
