package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/leadpilot/internal/activity"
	"github.com/matthewbaird/leadpilot/internal/chat"
	"github.com/matthewbaird/leadpilot/internal/event"
	"github.com/matthewbaird/leadpilot/internal/eventbus"
	"github.com/matthewbaird/leadpilot/internal/settings"
	"github.com/matthewbaird/leadpilot/internal/types"
	"github.com/matthewbaird/leadpilot/internal/workspace"
)

type stubBackend struct {
	mu    sync.Mutex
	leads []types.ChatLead
}

func (b *stubBackend) SendChatMessage(_ context.Context, message string) (string, error) {
	return "echo: " + message, nil
}

func (b *stubBackend) CreateChatLead(_ context.Context, lead types.ChatLead) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.leads = append(b.leads, lead)
	return int64(len(b.leads)), nil
}

type testEnv struct {
	srv     *httptest.Server
	model   *workspace.Model
	backend *stubBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	bus := eventbus.New(nil)
	store := activity.NewMemoryStore()
	bus.Subscribe("activity", event.NewActivityRecorder(store))

	svc := settings.NewService(settings.NewMemoryStore(), bus)
	model, err := workspace.NewModel(ctx, workspace.Options{Settings: svc, Bus: bus})
	require.NoError(t, err)

	backend := &stubBackend{}
	manager := chat.NewManager(chat.ManagerOptions{Backend: backend, Bus: bus})

	srv := httptest.NewServer(NewRouter(Config{
		Model:    model,
		Bus:      bus,
		Activity: store,
		Chat:     manager,
	}))
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, model: model, backend: backend}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, e.srv.URL+path, &buf)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	}
	return resp, out
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestExplain(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/v1/explanations", map[string]any{
		"subject": "Urgent pricing quote",
		"body":    "We need a demo and security review asap",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	conf := body["confidence"].(map[string]any)
	assert.Equal(t, float64(98), conf["score"])
	assert.Equal(t, "High", conf["level"])
	assert.Len(t, body["signals"], 4)
}

func TestExplain_EmptyBody(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodPost, "/v1/explanations", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_JSON", body["code"])
}

func TestDigest(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodPost, "/v1/explanations/digest", map[string]any{
		"items": []map[string]any{
			{"subject": "pricing please", "priority": "high"},
			{"subject": "budget review"},
			{"subject": "error on login"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["explanations"], 3)
	digest := body["digest"].(map[string]any)
	assert.Equal(t, float64(3), digest["total"])
	assert.Equal(t, "Pricing inquiry", digest["dominant_intent"])
}

func TestAnalyzeEmail(t *testing.T) {
	env := newTestEnv(t)
	resp, body := env.do(t, http.MethodPost, "/v1/emails/analyze", map[string]any{
		"subject": "Urgent: pricing",
		"body":    "Can we get a quote?",
		"lead":    map[string]any{"name": "Jordan", "email": "jordan@example.com"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	analysis := body["analysis"].(map[string]any)
	assert.Equal(t, "Lead", analysis["category"])
	assert.Equal(t, "high", analysis["priority"])
	assert.Equal(t, "AI reply", body["explanation"].(map[string]any)["action_type"])
	assert.Equal(t, "lead decision", body["lead_explanation"].(map[string]any)["action_type"])
}

func TestWorkspaces_ListAndSwitch(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/v1/workspaces", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["workspaces"], 4)
	assert.Equal(t, "northwind", body["active_id"])

	resp, body = env.do(t, http.MethodPost, "/v1/workspaces/active", map[string]string{"id": "atlas"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "atlas", body["workspace"].(map[string]any)["id"])
	assert.Equal(t, float64(1), body["generation"])
	assert.Equal(t, "atlas", env.model.Active().ID)

	resp, body = env.do(t, http.MethodPost, "/v1/workspaces/active", map[string]string{"id": "nope"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "UNKNOWN_WORKSPACE", body["code"])
	assert.Equal(t, "atlas", env.model.Active().ID)
}

func TestPermissions(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodGet, "/v1/permissions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Owner", body["role"])
	for _, p := range body["permissions"].([]any) {
		assert.True(t, p.(map[string]any)["allowed"].(bool))
	}

	env.do(t, http.MethodPost, "/v1/workspaces/active", map[string]string{"id": "atlas"})

	resp, body = env.do(t, http.MethodGet, "/v1/permissions/regenerate_reply", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["allowed"])
	assert.Equal(t, "Only Owner, Admin, and Agent can regenerate AI replies.", body["hint"])

	resp, body = env.do(t, http.MethodGet, "/v1/permissions/view_system_status", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["allowed"])

	resp, _ = env.do(t, http.MethodGet, "/v1/permissions/launch_rockets", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSettingsRequireManageSettings(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPut, "/v1/workspaces/active/pitch-mode", map[string]bool{"enabled": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["pitch_mode"])

	resp, body = env.do(t, http.MethodPut, "/v1/workspaces/active/consent", map[string]bool{"autoRepliesEnabled": false})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	consent := body["consent"].(map[string]any)
	assert.Equal(t, false, consent["autoRepliesEnabled"])
	assert.Equal(t, true, consent["aiAssistanceEnabled"])

	resp, body = env.do(t, http.MethodPut, "/v1/workspaces/active/consent", map[string]string{"aiAssistanceEnabled": "nope"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_JSON", body["code"])
	assert.True(t, env.model.Consent().AIAssistanceEnabled)

	resp, body = env.do(t, http.MethodPut, "/v1/workspaces/active/enterprise-mode", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_FIELD", body["code"])

	env.do(t, http.MethodPost, "/v1/workspaces/active", map[string]string{"id": "juniper"})

	resp, body = env.do(t, http.MethodPut, "/v1/workspaces/active/consent", map[string]bool{"autoRepliesEnabled": true})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "PERMISSION_DENIED", body["code"])
	assert.Equal(t, "Only Owner and Admin can edit workspace settings.", body["error"])
	assert.False(t, env.model.EnterpriseMode())
}

func TestAdjustMetric(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/v1/metrics/adjust", map[string]any{"value": 1280})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1485), body["adjusted"])
	assert.Equal(t, "northwind", body["workspace_id"])

	env.do(t, http.MethodPost, "/v1/workspaces/active", map[string]string{"id": "atlas"})
	_, body = env.do(t, http.MethodPost, "/v1/metrics/adjust", map[string]any{"value": 12.5, "decimals": 2})
	assert.Equal(t, 16.75, body["adjusted"])

	resp, _ = env.do(t, http.MethodPost, "/v1/metrics/adjust", map[string]any{"value": 1, "decimals": -1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestScopeCollection(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/v1/collections/scope", map[string]any{
		"items": []string{"a", "b", "c", "d", "e", "f"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []any{"d", "e", "f", "a", "b", "c"}, body["items"])

	env.do(t, http.MethodPost, "/v1/workspaces/active", map[string]string{"id": "atlas"})
	_, body = env.do(t, http.MethodPost, "/v1/collections/scope", map[string]any{
		"items":      []int{0, 1, 2, 3, 4},
		"min_length": 4,
	})
	assert.Equal(t, []any{float64(1), float64(2), float64(3), float64(4)}, body["items"])

	_, body = env.do(t, http.MethodPost, "/v1/collections/scope", map[string]any{"items": []int{}})
	assert.Equal(t, []any{}, body["items"])
}

func TestChatSession(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.do(t, http.MethodPost, "/v1/chat/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := body["id"].(string)
	require.NotEmpty(t, id)
	msgs := body["state"].(map[string]any)["messages"].([]any)
	require.Len(t, msgs, 1)
	assert.Equal(t, chat.WelcomeMessage, msgs[0].(map[string]any)["content"])

	resp, body = env.do(t, http.MethodPost, "/v1/chat/sessions/"+id+"/messages", map[string]string{
		"message": "I'm Dana from Acme Corp, dana@acme.io",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["lead_submitted"])
	assert.Equal(t, float64(1), body["lead_id"])
	lead := body["lead"].(map[string]any)
	assert.Equal(t, "dana@acme.io", lead["email"])

	resp, body = env.do(t, http.MethodPost, "/v1/chat/sessions/"+id+"/messages", map[string]string{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "EMPTY_MESSAGE", body["code"])

	resp, body = env.do(t, http.MethodPost, "/v1/chat/sessions/"+id+"/messages", map[string]string{
		"message": "hola", "language": "Klingon",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_LANGUAGE", body["code"])

	resp, _ = env.do(t, http.MethodGet, "/v1/chat/sessions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.backend.mu.Lock()
	assert.Len(t, env.backend.leads, 1)
	env.backend.mu.Unlock()
}

func TestAuditLogs(t *testing.T) {
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/v1/workspaces/active", map[string]string{"id": "brightline"})
	env.do(t, http.MethodPut, "/v1/workspaces/active/pitch-mode", map[string]bool{"enabled": true})

	resp, body := env.do(t, http.MethodGet, "/v1/audit-logs", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "brightline", body["workspace_id"])
	assert.Equal(t, float64(2), body["total_count"])

	var got []string
	for _, e := range body["entries"].([]any) {
		got = append(got, e.(map[string]any)["event_type"].(string))
	}
	assert.ElementsMatch(t, []string{event.TypeWorkspaceSwitched, event.TypePitchModeUpdated}, got)

	resp, _ = env.do(t, http.MethodGet, "/v1/audit-logs?since=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type streamMessage struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data"`
}

func TestEventStream(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/v1/events"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	var msg streamMessage
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	require.Equal(t, "hello", msg.Type)

	require.NoError(t, wsjson.Write(ctx, conn, map[string]string{"type": "ping", "id": "p1"}))
	require.NoError(t, wsjson.Read(ctx, conn, &msg))
	assert.Equal(t, "pong", msg.Type)
	assert.Equal(t, "p1", msg.RequestID)

	env.do(t, http.MethodPost, "/v1/workspaces/active", map[string]string{"id": "juniper"})

	var switched event.DomainEvent
	for switched.EventType != event.TypeWorkspaceSwitched {
		require.NoError(t, wsjson.Read(ctx, conn, &msg))
		require.Equal(t, "event", msg.Type)
		require.NoError(t, json.Unmarshal(msg.Data, &switched))
	}
	assert.Equal(t, "juniper", switched.WorkspaceID)

	conn.Close(websocket.StatusNormalClosure, "")
}
