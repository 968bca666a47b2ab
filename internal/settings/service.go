package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/matthewbaird/leadpilot/internal/event"
)

// Service wraps a Store and publishes a setting_changed event after every
// successful write. Values never travel on the bus.
type Service struct {
	store Store
	bus   event.Publisher
}

// NewService creates a Service. bus may be nil.
func NewService(store Store, bus event.Publisher) *Service {
	return &Service{store: store, bus: bus}
}

// WithoutEvents returns a Service over the same store that publishes nothing.
// It is used for high-churn keys that do not belong in the audit log.
func (s *Service) WithoutEvents() *Service {
	return &Service{store: s.store}
}

func (s *Service) Get(ctx context.Context, key string) (string, error) {
	return s.store.Get(ctx, key)
}

// GetOr returns the stored value, or def when the key is missing.
func (s *Service) GetOr(ctx context.Context, key, def string) (string, error) {
	v, err := s.store.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return v, err
}

func (s *Service) Set(ctx context.Context, key, value string) error {
	if err := s.store.Set(ctx, key, value); err != nil {
		return err
	}
	s.publish(ctx, event.NewSettingChanged(key, false))
	return nil
}

func (s *Service) Delete(ctx context.Context, key string) error {
	if err := s.store.Delete(ctx, key); err != nil {
		return err
	}
	s.publish(ctx, event.NewSettingChanged(key, true))
	return nil
}

// GetJSON decodes the stored value into v. A missing key returns ErrNotFound
// and leaves v untouched.
func (s *Service) GetJSON(ctx context.Context, key string, v any) error {
	raw, err := s.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return fmt.Errorf("decoding setting %q: %w", key, err)
	}
	return nil
}

func (s *Service) SetJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding setting %q: %w", key, err)
	}
	return s.Set(ctx, key, string(b))
}

// GetFlag reads a "1"/"0" flag. Missing keys are false.
func (s *Service) GetFlag(ctx context.Context, key string) (bool, error) {
	v, err := s.GetOr(ctx, key, "0")
	return v == "1", err
}

func (s *Service) SetFlag(ctx context.Context, key string, on bool) error {
	v := "0"
	if on {
		v = "1"
	}
	return s.Set(ctx, key, v)
}

// RolePreference returns the stored persona, defaulting to Sales.
func (s *Service) RolePreference(ctx context.Context) (RolePreference, error) {
	v, err := s.GetOr(ctx, KeyRolePreference, string(RoleSales))
	if err != nil {
		return RoleSales, err
	}
	r, _ := ParseRolePreference(v)
	return r, nil
}

// SetRolePreference stores a persona and publishes role_preference_updated.
func (s *Service) SetRolePreference(ctx context.Context, role string) error {
	r, ok := ParseRolePreference(role)
	if !ok {
		return fmt.Errorf("unknown role preference %q", role)
	}
	if err := s.Set(ctx, KeyRolePreference, string(r)); err != nil {
		return err
	}
	s.publish(ctx, event.NewRolePreferenceUpdated(string(r)))
	return nil
}

// ClearTokens removes both auth tokens.
func (s *Service) ClearTokens(ctx context.Context) error {
	return errors.Join(
		s.Delete(ctx, KeyAccessToken),
		s.Delete(ctx, KeyRefreshToken),
	)
}

func (s *Service) publish(ctx context.Context, evt event.DomainEvent) {
	if s.bus != nil {
		s.bus.Publish(ctx, evt)
	}
}
