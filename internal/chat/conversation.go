package chat

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/matthewbaird/leadpilot/internal/event"
	"github.com/matthewbaird/leadpilot/internal/types"
)

var (
	// ErrBusy is returned when a turn is sent while the previous one is
	// still in flight.
	ErrBusy = errors.New("chat: a message is already being sent")

	// ErrEmptyMessage is returned for blank input.
	ErrEmptyMessage = errors.New("chat: message is empty")
)

// Fixed assistant copy.
const (
	WelcomeMessage  = "Hi! How can I help you today?"
	FollowUpPrompt  = "If you’d like a follow-up, share your name and email anytime."
	ErrorMessage    = "Sorry, I ran into an issue. Please try again in a moment."
	DefaultLeadName = "Website Visitor"
	DefaultLanguage = "English"
)

// Languages the widget offers.
var Languages = []string{"English", "Spanish", "French", "German", "Portuguese"}

// Role of a chat message author.
type Role string

const (
	RoleAssistant Role = "assistant"
	RoleUser      Role = "user"
)

type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Backend is the remote chat API.
type Backend interface {
	SendChatMessage(ctx context.Context, message string) (reply string, err error)
	CreateChatLead(ctx context.Context, lead types.ChatLead) (id int64, err error)
}

// Persister saves conversation state after every change.
type Persister interface {
	SaveChatState(ctx context.Context, conversationID string, state State) error
	DeleteChatState(ctx context.Context, conversationID string) error
}

// State is the persisted conversation. JSON keys match the stored format.
type State struct {
	Messages      []Message      `json:"messages"`
	Lead          types.ChatLead `json:"leadInfo"`
	LeadSubmitted bool           `json:"leadSubmitted"`
	LeadPrompted  bool           `json:"leadPrompted"`
	Language      string         `json:"language"`
}

// NewState returns a fresh conversation holding only the welcome message.
func NewState() State {
	return State{
		Messages: []Message{{ID: "welcome", Role: RoleAssistant, Content: WelcomeMessage}},
		Language: DefaultLanguage,
	}
}

func (s State) clone() State {
	s.Messages = slices.Clone(s.Messages)
	return s
}

// Turn is the outcome of one user message.
type Turn struct {
	Messages      []Message      `json:"messages"` // appended this turn, user message first
	Lead          types.ChatLead `json:"lead"`
	LeadSubmitted bool           `json:"lead_submitted"`
	LeadID        int64          `json:"lead_id,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// Conversation is one visitor's chat. Turns are serialized; a second Send
// while one is in flight fails with ErrBusy.
type Conversation struct {
	id          string
	workspaceID string
	backend     Backend
	persister   Persister
	bus         event.Publisher
	logger      *zap.Logger

	mu           sync.Mutex
	state        State
	sending      bool
	createdAt    time.Time
	lastActiveAt time.Time
}

// Options configures a Conversation. Only Backend is required.
type Options struct {
	ID          string
	WorkspaceID string
	Backend     Backend
	Persister   Persister
	Bus         event.Publisher
	Logger      *zap.Logger
	State       *State
}

// NewConversation starts a conversation, restoring opts.State when given.
func NewConversation(opts Options) *Conversation {
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	state := NewState()
	if opts.State != nil {
		state = restore(*opts.State)
	}
	now := time.Now()
	return &Conversation{
		id:           id,
		workspaceID:  opts.WorkspaceID,
		backend:      opts.Backend,
		persister:    opts.Persister,
		bus:          opts.Bus,
		logger:       logger.With(zap.String("conversation_id", id)),
		state:        state,
		createdAt:    now,
		lastActiveAt: now,
	}
}

// restore keeps the welcome message when the stored list is empty and
// replaces an unknown language with the default.
func restore(s State) State {
	out := s.clone()
	if len(out.Messages) == 0 {
		out.Messages = NewState().Messages
	}
	if !slices.Contains(Languages, out.Language) {
		out.Language = DefaultLanguage
	}
	return out
}

func (c *Conversation) ID() string { return c.id }

// State returns a copy of the current state.
func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// SetLanguage changes the language sent with the captured lead.
func (c *Conversation) SetLanguage(ctx context.Context, language string) error {
	if !slices.Contains(Languages, language) {
		return fmt.Errorf("unsupported language %q", language)
	}
	c.mu.Lock()
	c.state.Language = language
	snapshot := c.state.clone()
	c.mu.Unlock()
	c.save(ctx, snapshot)
	return nil
}

// Send runs one turn: record the user message, merge lead fields, await the
// assistant reply, then prompt for contact details once or submit the lead
// once. Backend failures become an apology message and Turn.Error; the lead
// stays unsubmitted so a later turn retries.
func (c *Conversation) Send(ctx context.Context, text string) (Turn, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Turn{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return Turn{}, ErrBusy
	}
	c.sending = true
	c.lastActiveAt = time.Now()
	userMsg := Message{ID: uuid.New().String(), Role: RoleUser, Content: text}
	c.state.Messages = append(c.state.Messages, userMsg)
	c.state.Lead = MergeLead(c.state.Lead, text)
	lead := c.state.Lead
	prompted := c.state.LeadPrompted
	submitted := c.state.LeadSubmitted
	language := c.state.Language
	snapshot := c.state.clone()
	c.mu.Unlock()

	c.save(ctx, snapshot)

	turn := Turn{Messages: []Message{userMsg}, Lead: lead}
	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	appendMsg := func(content string) {
		msg := Message{ID: uuid.New().String(), Role: RoleAssistant, Content: content}
		turn.Messages = append(turn.Messages, msg)
		c.mu.Lock()
		c.state.Messages = append(c.state.Messages, msg)
		c.mu.Unlock()
	}

	err := c.exchange(ctx, text, lead, prompted, submitted, language, &turn, appendMsg)
	if err != nil {
		c.logger.Warn("chat turn failed", zap.Error(err))
		turn.Error = err.Error()
		appendMsg(ErrorMessage)
	}

	c.mu.Lock()
	turn.LeadSubmitted = c.state.LeadSubmitted
	snapshot = c.state.clone()
	c.mu.Unlock()
	c.save(ctx, snapshot)
	return turn, nil
}

func (c *Conversation) exchange(ctx context.Context, text string, lead types.ChatLead, prompted, submitted bool, language string, turn *Turn, appendMsg func(string)) error {
	reply, err := c.backend.SendChatMessage(ctx, text)
	if err != nil {
		return fmt.Errorf("sending chat message: %w", err)
	}
	appendMsg(reply)

	if lead.Email == "" && !prompted {
		c.mu.Lock()
		c.state.LeadPrompted = true
		c.mu.Unlock()
		appendMsg(FollowUpPrompt)
	}

	if lead.Email == "" || submitted {
		return nil
	}

	payload := types.ChatLead{
		Name:     lead.Name,
		Email:    lead.Email,
		Company:  lead.Company,
		Message:  lead.Message,
		Language: language,
	}
	if payload.Name == "" {
		payload.Name = DefaultLeadName
	}
	id, err := c.backend.CreateChatLead(ctx, payload)
	if err != nil {
		c.publish(ctx, event.NewChatLeadCaptureFailed(c.workspaceID, event.ChatLeadPayload{
			ConversationID: c.id,
			Lead:           payload,
			Error:          err.Error(),
		}))
		return fmt.Errorf("creating chat lead: %w", err)
	}

	c.mu.Lock()
	c.state.LeadSubmitted = true
	c.mu.Unlock()
	turn.LeadID = id
	appendMsg(fmt.Sprintf("Thanks! We’ll follow up at %s.", lead.Email))

	c.publish(ctx, event.NewChatLeadCaptured(c.workspaceID, event.ChatLeadPayload{
		ConversationID: c.id,
		LeadID:         id,
		Lead:           payload,
	}))
	return nil
}

func (c *Conversation) isExpired(maxAge time.Duration) bool {
	return time.Since(c.createdAt) > maxAge
}

func (c *Conversation) isIdle(timeout time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.sending && time.Since(c.lastActiveAt) > timeout
}

func (c *Conversation) save(ctx context.Context, s State) {
	if c.persister == nil {
		return
	}
	if err := c.persister.SaveChatState(ctx, c.id, s); err != nil {
		c.logger.Warn("saving chat state", zap.Error(err))
	}
}

func (c *Conversation) publish(ctx context.Context, evt event.DomainEvent) {
	if c.bus != nil {
		c.bus.Publish(ctx, evt)
	}
}
