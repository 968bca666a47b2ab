package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"slices"

	"github.com/matthewbaird/leadpilot/internal/settings"
	"github.com/matthewbaird/leadpilot/internal/signals"
	"github.com/matthewbaird/leadpilot/internal/types"
)

// ── Auth ────────────────────────────────────────────────────────────────────

// Login posts form-encoded credentials and stores the returned tokens and
// the user's email.
func (c *Client) Login(ctx context.Context, email, password string) (*Token, error) {
	form := url.Values{}
	form.Set("username", email)
	form.Set("password", password)

	var tok Token
	if err := c.do(ctx, http.MethodPost, "/auth/login", &requestBody{form: form}, &tok); err != nil {
		return nil, err
	}
	if err := c.storeTokens(ctx, tok); err != nil {
		return nil, fmt.Errorf("storing tokens: %w", err)
	}
	if err := c.settings.Set(ctx, settings.KeyUserEmail, email); err != nil {
		return nil, fmt.Errorf("storing user email: %w", err)
	}
	return &tok, nil
}

func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/auth/register", jsonBody(req), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Refresh forces a token refresh.
func (c *Client) Refresh(ctx context.Context) error {
	return c.refresh(ctx)
}

// Logout forgets the stored tokens and user email.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.settings.ClearTokens(ctx); err != nil {
		return err
	}
	return c.settings.Delete(ctx, settings.KeyUserEmail)
}

// ── Leads ───────────────────────────────────────────────────────────────────

func (c *Client) ListLeads(ctx context.Context) ([]Lead, error) {
	var leads []Lead
	err := c.do(ctx, http.MethodGet, "/leads", nil, &leads)
	return leads, err
}

func (c *Client) GetLead(ctx context.Context, id int64) (*Lead, error) {
	var lead Lead
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leads/%d", id), nil, &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

func (c *Client) LeadEmails(ctx context.Context, leadID int64) ([]Email, error) {
	var emails []Email
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/leads/%d/emails", leadID), nil, &emails)
	return emails, err
}

// UpdateLeadStatus moves a lead to one of LeadStatuses.
func (c *Client) UpdateLeadStatus(ctx context.Context, id int64, status string) (*Lead, error) {
	if !slices.Contains(LeadStatuses, status) {
		return nil, fmt.Errorf("unknown lead status %q", status)
	}
	var lead Lead
	path := fmt.Sprintf("/leads/%d", id)
	if err := c.do(ctx, http.MethodPatch, path, jsonBody(map[string]string{"status": status}), &lead); err != nil {
		return nil, err
	}
	return &lead, nil
}

// ── Emails ──────────────────────────────────────────────────────────────────

func (c *Client) ListEmails(ctx context.Context) ([]Email, error) {
	var emails []Email
	err := c.do(ctx, http.MethodGet, "/emails", nil, &emails)
	return emails, err
}

func (c *Client) EmailThread(ctx context.Context, id int64) (*EmailThread, error) {
	var thread EmailThread
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/emails/%d/thread", id), nil, &thread); err != nil {
		return nil, err
	}
	return &thread, nil
}

func (c *Client) RegenerateReply(ctx context.Context, id int64) (*RegeneratedReply, error) {
	var out RegeneratedReply
	if err := c.do(ctx, http.MethodPost, fmt.Sprintf("/emails/%d/regenerate-reply", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) EmailAnalysis(ctx context.Context, id int64) (*signals.Analysis, error) {
	var out signals.Analysis
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/emails/%d/analysis", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Templates ───────────────────────────────────────────────────────────────

func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var out []Template
	err := c.do(ctx, http.MethodGet, "/templates", nil, &out)
	return out, err
}

func (c *Client) GetTemplate(ctx context.Context, id int64) (*Template, error) {
	var out Template
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/templates/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTemplate(ctx context.Context, t Template) (*Template, error) {
	var out Template
	if err := c.do(ctx, http.MethodPost, "/templates", jsonBody(t), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTemplate(ctx context.Context, id int64, t Template) (*Template, error) {
	var out Template
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/templates/%d", id), jsonBody(t), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTemplate(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/templates/%d", id), nil, nil)
}

// ── Company ─────────────────────────────────────────────────────────────────

func (c *Client) GetCompany(ctx context.Context) (*Company, error) {
	var out Company
	if err := c.do(ctx, http.MethodGet, "/companies/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateCompany(ctx context.Context, u CompanyUpdate) (*Company, error) {
	var out Company
	if err := c.do(ctx, http.MethodPut, "/companies/me", jsonBody(u), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RotateCompanyKey(ctx context.Context) (*Company, error) {
	var out Company
	if err := c.do(ctx, http.MethodPost, "/companies/me/rotate-key", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Integrations, dashboard, analytics ──────────────────────────────────────

func (c *Client) EmailIntegrationStatus(ctx context.Context) ([]IntegrationStatus, error) {
	var out []IntegrationStatus
	err := c.do(ctx, http.MethodGet, "/integrations/email/status", nil, &out)
	return out, err
}

func (c *Client) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var out DashboardStats
	if err := c.do(ctx, http.MethodGet, "/dashboard/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AnalyticsOverview(ctx context.Context) (*AnalyticsOverview, error) {
	var out AnalyticsOverview
	if err := c.do(ctx, http.MethodGet, "/analytics/overview", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ── Chat ────────────────────────────────────────────────────────────────────

// SendChatMessage returns the assistant reply for one visitor message.
func (c *Client) SendChatMessage(ctx context.Context, message string) (string, error) {
	var out struct {
		Reply string `json:"reply"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/chat/message", jsonBody(map[string]string{"message": message}), &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}

// CreateChatLead submits a captured chat lead and returns its id.
func (c *Client) CreateChatLead(ctx context.Context, lead types.ChatLead) (int64, error) {
	var out struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/chat/lead", jsonBody(lead), &out); err != nil {
		return 0, err
	}
	return out.ID, nil
}
