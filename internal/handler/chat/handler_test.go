package chat

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/danteocualesjr/ai-chatbot/internal/config"
	chatmodel "github.com/danteocualesjr/ai-chatbot/internal/model/chat"
	"github.com/danteocualesjr/ai-chatbot/internal/service/ai"
	"github.com/danteocualesjr/ai-chatbot/internal/service/session"
	"github.com/danteocualesjr/ai-chatbot/internal/storage"
	"github.com/danteocualesjr/ai-chatbot/internal/store"
)

func setupRouter(t *testing.T) (*chi.Mux, *session.Controller, *store.Store) {
	t.Helper()
	st := store.New(storage.NewMemoryKV(0), 0)
	sessions := session.New(st, 10*time.Millisecond)
	t.Cleanup(sessions.Close)

	// No credential configured, so sends are answered locally.
	aiSvc := ai.NewService(config.AIConfig{})
	handler := New(sessions, aiSvc, st, nil)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, sessions, st
}

func postJSON(t *testing.T, r http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func decodeState(t *testing.T, resp *httptest.ResponseRecorder) (string, []chatmodel.Message) {
	t.Helper()
	var state struct {
		ID       string              `json:"id"`
		Messages []chatmodel.Message `json:"messages"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	return state.ID, state.Messages
}

func TestGetChatReturnsSeedState(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/chat", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	id, msgs := decodeState(t, resp)
	if id != "" {
		t.Fatalf("fresh session must have no id, got %q", id)
	}
	if len(msgs) != 1 || msgs[0].Content != chatmodel.Greeting {
		t.Fatalf("unexpected seed state: %+v", msgs)
	}
}

func TestSendWithoutCredentialAnswersLocally(t *testing.T) {
	r, _, _ := setupRouter(t)

	resp := postJSON(t, r, "/chat/send", map[string]string{"text": "hello"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	_, msgs := decodeState(t, resp)
	last := msgs[len(msgs)-1]
	if last.Content != chatmodel.NotConfiguredNotice || !last.Local {
		t.Fatalf("expected local not-configured notice, got %+v", last)
	}
	// The user's turn stays in history.
	if msgs[len(msgs)-2].Content != "hello" {
		t.Fatalf("user turn missing: %+v", msgs)
	}
}

func TestSendRejectsEmptyTurn(t *testing.T) {
	r, _, _ := setupRouter(t)

	resp := postJSON(t, r, "/chat/send", map[string]string{"text": ""})
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestSendRejectsInvalidBody(t *testing.T) {
	r, _, _ := setupRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/chat/send", bytes.NewReader([]byte("{not json")))
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestNewChatResetsSession(t *testing.T) {
	r, _, _ := setupRouter(t)

	postJSON(t, r, "/chat/send", map[string]string{"text": "hello"})
	resp := postJSON(t, r, "/chat/new", nil)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	id, msgs := decodeState(t, resp)
	if id != "" || len(msgs) != 1 {
		t.Fatalf("session not reset: id=%q messages=%d", id, len(msgs))
	}
}

func TestSelectUnknownConversation(t *testing.T) {
	r, _, _ := setupRouter(t)

	resp := postJSON(t, r, "/chat/select", map[string]string{"id": "conv_0_missing"})
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
}

func TestSelectAndListRoundTrip(t *testing.T) {
	r, sessions, _ := setupRouter(t)

	postJSON(t, r, "/chat/send", map[string]string{"text": "persist me"})
	sessions.Flush()
	savedID := sessions.ID()
	if savedID == "" {
		t.Fatal("expected a minted id after flush")
	}

	listReq := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	listResp := httptest.NewRecorder()
	r.ServeHTTP(listResp, listReq)

	var summaries []struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	}
	if err := json.Unmarshal(listResp.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(summaries) != 1 || summaries[0].ID != savedID || summaries[0].Title != "persist me" {
		t.Fatalf("unexpected listing: %+v", summaries)
	}

	postJSON(t, r, "/chat/new", nil)
	resp := postJSON(t, r, "/chat/select", map[string]string{"id": savedID})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	id, msgs := decodeState(t, resp)
	if id != savedID {
		t.Fatalf("expected id %q, got %q", savedID, id)
	}
	if len(msgs) == 0 || msgs[0].Content != "persist me" {
		t.Fatalf("hydrated messages wrong: %+v", msgs)
	}
}

func TestDeleteOpenConversationClearsSession(t *testing.T) {
	r, sessions, st := setupRouter(t)

	postJSON(t, r, "/chat/send", map[string]string{"text": "delete me"})
	sessions.Flush()
	id := sessions.ID()

	req := httptest.NewRequest(http.MethodDelete, "/conversations/"+id, nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if len(st.LoadAll()) != 0 {
		t.Fatal("conversation still stored after delete")
	}
	if sessions.ID() != "" {
		t.Fatal("open session must clear when its conversation is deleted")
	}
}

func TestClearAllConversations(t *testing.T) {
	r, sessions, st := setupRouter(t)

	postJSON(t, r, "/chat/send", map[string]string{"text": "one"})
	sessions.Flush()

	req := httptest.NewRequest(http.MethodDelete, "/conversations", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	if len(st.LoadAll()) != 0 {
		t.Fatal("expected empty store after clear")
	}
	if sessions.ID() != "" {
		t.Fatal("session must reset after clearing all conversations")
	}
}
