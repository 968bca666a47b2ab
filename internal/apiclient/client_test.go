package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matthewbaird/leadpilot/internal/settings"
	"github.com/matthewbaird/leadpilot/internal/types"
)

func newTestClient(t *testing.T, h http.Handler) (*Client, *settings.Service) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	svc := settings.NewService(settings.NewMemoryStore(), nil)
	return New(Options{BaseURL: srv.URL + "/", Settings: svc}), svc
}

func TestLogin_StoresTokens(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "ops@northwind.io", r.PostForm.Get("username"))
		assert.Equal(t, "secret", r.PostForm.Get("password"))
		json.NewEncoder(w).Encode(Token{AccessToken: "a1", RefreshToken: "r1", TokenType: "bearer", ExpiresIn: 900})
	})
	c, svc := newTestClient(t, mux)

	tok, err := c.Login(ctx, "ops@northwind.io", "secret")
	require.NoError(t, err)
	assert.Equal(t, "a1", tok.AccessToken)

	access, _ := svc.Get(ctx, settings.KeyAccessToken)
	refresh, _ := svc.Get(ctx, settings.KeyRefreshToken)
	email, _ := svc.Get(ctx, settings.KeyUserEmail)
	assert.Equal(t, "a1", access)
	assert.Equal(t, "r1", refresh)
	assert.Equal(t, "ops@northwind.io", email)

	require.NoError(t, c.Logout(ctx))
	_, err = svc.Get(ctx, settings.KeyAccessToken)
	assert.ErrorIs(t, err, settings.ErrNotFound)
}

func TestBearerToken(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /leads", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Write([]byte(`[{"id":1,"name":"Jordan","email":"j@acme.com","status":"new","created_at":"2026-01-02T03:04:05Z"}]`))
	})
	c, svc := newTestClient(t, mux)
	svc.Set(ctx, settings.KeyAccessToken, "tok")

	leads, err := c.ListLeads(ctx)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Jordan", leads[0].Name)
}

func TestRefreshAndRetryOnce(t *testing.T) {
	ctx := context.Background()
	var leadCalls, refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dashboard/stats", func(w http.ResponseWriter, r *http.Request) {
		leadCalls.Add(1)
		if r.Header.Get("Authorization") != "Bearer fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"total_leads":12,"leads_today":2,"emails_today":5,"replies_sent":4}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "r-old", body["refresh_token"])
		json.NewEncoder(w).Encode(Token{AccessToken: "fresh", RefreshToken: "r-new"})
	})
	c, svc := newTestClient(t, mux)
	svc.Set(ctx, settings.KeyAccessToken, "stale")
	svc.Set(ctx, settings.KeyRefreshToken, "r-old")

	stats, err := c.DashboardStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, stats.TotalLeads)
	assert.Equal(t, int32(2), leadCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())

	refresh, _ := svc.Get(ctx, settings.KeyRefreshToken)
	assert.Equal(t, "r-new", refresh)
}

func TestRetryOnlyOnce(t *testing.T) {
	ctx := context.Background()
	var calls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /emails", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"not authenticated"}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Token{AccessToken: "still-bad"})
	})
	c, svc := newTestClient(t, mux)
	svc.Set(ctx, settings.KeyRefreshToken, "r")

	_, err := c.ListEmails(ctx)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, "Not authenticated", ErrorMessage(err, ""))
}

func TestRefreshFailureClearsTokens(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /companies/me", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Invalid refresh token"}`))
	})
	c, svc := newTestClient(t, mux)
	svc.Set(ctx, settings.KeyAccessToken, "a")
	svc.Set(ctx, settings.KeyRefreshToken, "r")

	_, err := c.GetCompany(ctx)
	assert.ErrorIs(t, err, ErrSessionExpired)

	_, err = svc.Get(ctx, settings.KeyAccessToken)
	assert.ErrorIs(t, err, settings.ErrNotFound)
	_, err = svc.Get(ctx, settings.KeyRefreshToken)
	assert.ErrorIs(t, err, settings.ErrNotFound)
}

func TestMissingRefreshToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /analytics/overview", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	c, _ := newTestClient(t, mux)

	_, err := c.AnalyticsOverview(context.Background())
	assert.ErrorIs(t, err, ErrSessionExpired)
}

func TestAuthEndpointsNotRetried(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"incorrect email or password"}`))
	})
	mux.HandleFunc("POST /auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})
	c, _ := newTestClient(t, mux)

	_, err := c.Login(context.Background(), "a@b.co", "nope")
	require.Error(t, err)
	assert.Equal(t, "Incorrect email or password", ErrorMessage(err, ""))
	assert.Zero(t, refreshCalls.Load())
}

func TestUpdateLeadStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PATCH /leads/7", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"status":"qualified"}`, string(body))
		w.Write([]byte(`{"id":7,"name":"A","email":"a@b.co","status":"qualified","created_at":"2026-01-02T03:04:05Z"}`))
	})
	c, _ := newTestClient(t, mux)

	lead, err := c.UpdateLeadStatus(context.Background(), 7, "qualified")
	require.NoError(t, err)
	assert.Equal(t, "qualified", lead.Status)

	_, err = c.UpdateLeadStatus(context.Background(), 7, "archived")
	assert.Error(t, err)
}

func TestTemplatesCRUD(t *testing.T) {
	ctx := context.Background()
	var deleted bool
	mux := http.NewServeMux()
	mux.HandleFunc("POST /templates", func(w http.ResponseWriter, r *http.Request) {
		var tpl Template
		json.NewDecoder(r.Body).Decode(&tpl)
		tpl.ID = 3
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(tpl)
	})
	mux.HandleFunc("PUT /templates/3", func(w http.ResponseWriter, r *http.Request) {
		var tpl Template
		json.NewDecoder(r.Body).Decode(&tpl)
		tpl.ID = 3
		json.NewEncoder(w).Encode(tpl)
	})
	mux.HandleFunc("DELETE /templates/3", func(w http.ResponseWriter, r *http.Request) {
		deleted = true
		w.WriteHeader(http.StatusNoContent)
	})
	c, _ := newTestClient(t, mux)

	created, err := c.CreateTemplate(ctx, Template{TriggerType: "lead", SubjectTemplate: "Hi", BodyTemplate: "Thanks"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), created.ID)

	created.Tone = "friendly"
	updated, err := c.UpdateTemplate(ctx, created.ID, *created)
	require.NoError(t, err)
	assert.Equal(t, "friendly", updated.Tone)

	require.NoError(t, c.DeleteTemplate(ctx, 3))
	assert.True(t, deleted)
}

func TestChatEndpoints(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat/message", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"reply":"Happy to help!"}`))
	})
	mux.HandleFunc("POST /api/chat/lead", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"Jordan","email":"j@acme.com","message":"hi","language":"French"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":42}`))
	})
	c, _ := newTestClient(t, mux)

	reply, err := c.SendChatMessage(ctx, "hi")
	require.NoError(t, err)
	assert.Equal(t, "Happy to help!", reply)

	id, err := c.CreateChatLead(ctx, types.ChatLead{Name: "Jordan", Email: "j@acme.com", Message: "hi", Language: "French"})
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	c := New(Options{BaseURL: srv.URL})

	_, err := c.ListLeads(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
	assert.Equal(t, NetworkErrorMessage, ErrorMessage(err, ""))
}
