package apiclient

import "time"

// Token is the auth response.
type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	CompanyName string `json:"company_name"`
}

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CompanyID int64     `json:"company_id"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

type Lead struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Message   string    `json:"message,omitempty"`
	Source    string    `json:"source,omitempty"`
	Status    string    `json:"status"`
	Score     int       `json:"score,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	CompanyID *int64    `json:"company_id,omitempty"`
}

// Lead statuses accepted by UpdateLeadStatus.
var LeadStatuses = []string{"new", "contacted", "qualified", "closed"}

type Email struct {
	ID         int64     `json:"id"`
	FromEmail  string    `json:"from_email"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"`
	ReceivedAt time.Time `json:"received_at"`
	Processed  bool      `json:"processed"`
	LeadID     *int64    `json:"lead_id,omitempty"`
	CompanyID  *int64    `json:"company_id,omitempty"`
	Priority   string    `json:"priority,omitempty"`
	Category   string    `json:"category,omitempty"`
}

type EmailThread struct {
	Email    Email   `json:"email"`
	Messages []Email `json:"messages"`
}

type ReplyPreview struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type RegeneratedReply struct {
	Reply ReplyPreview `json:"reply"`
}

type Template struct {
	ID              int64     `json:"id,omitempty"`
	Name            string    `json:"name,omitempty"`
	Category        string    `json:"category,omitempty"`
	Tone            string    `json:"tone,omitempty"`
	TriggerType     string    `json:"trigger_type"`
	SubjectTemplate string    `json:"subject_template"`
	BodyTemplate    string    `json:"body_template"`
	CompanyID       *int64    `json:"company_id,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
}

type Company struct {
	ID               int64     `json:"id"`
	Name             string    `json:"name"`
	APIKey           string    `json:"api_key"`
	AutoReplyEnabled bool      `json:"auto_reply_enabled"`
	AIModel          string    `json:"ai_model"`
	AIPromptTemplate string    `json:"ai_prompt_template"`
	CreatedAt        time.Time `json:"created_at"`
}

// CompanyUpdate carries only the fields to change.
type CompanyUpdate struct {
	Name             *string `json:"name,omitempty"`
	AutoReplyEnabled *bool   `json:"auto_reply_enabled,omitempty"`
	AIModel          *string `json:"ai_model,omitempty"`
	AIPromptTemplate *string `json:"ai_prompt_template,omitempty"`
}

type IntegrationStatus struct {
	Provider     string     `json:"provider"`
	EmailAddress string     `json:"email_address"`
	Status       string     `json:"status"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type DashboardStats struct {
	TotalLeads  int `json:"total_leads"`
	LeadsToday  int `json:"leads_today"`
	EmailsToday int `json:"emails_today"`
	RepliesSent int `json:"replies_sent"`
}

type LeadTrendPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type AnalyticsOverview struct {
	EmailsProcessed        int              `json:"emails_processed"`
	EmailsAutoReplied      int              `json:"emails_auto_replied"`
	LeadsGenerated         int              `json:"leads_generated"`
	AIAccuracy             float64          `json:"ai_accuracy"`
	TimeSavedHours         float64          `json:"time_saved_hours"`
	EditedRate             float64          `json:"edited_rate"`
	LeadTrend              []LeadTrendPoint `json:"lead_trend"`
	EmailCategoryBreakdown []CategoryCount  `json:"email_category_breakdown"`
}
