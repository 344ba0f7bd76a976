package models

import (
	"maps"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAssistant || r == RoleSystem
}

const (
	maxMessageLength = 4000
	maxContextKeys   = 50
	maxContextKey    = 64
	maxContextValue  = 1000
)

// Message is one turn of the conversation.
type Message struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at"`
}

// Session binds a conversation and its in-progress applications to a fixed
// window that starts at creation.
//
// Invariants:
//   - History is append-only
//   - at most one application per scheme is bound at a time
//   - ExpiresAt never moves; activity does not extend the window
type Session struct {
	ID           id.SessionID                     `json:"id"`
	Language     string                           `json:"language"`
	History      []Message                        `json:"history"`
	Context      map[string]string                `json:"context"`
	Applications map[id.SchemeID]id.ApplicationID `json:"applications"`
	CreatedAt    time.Time                        `json:"createdAt"`
	ExpiresAt    time.Time                        `json:"expiresAt"`
	UpdatedAt    time.Time                        `json:"updatedAt"`
}

func NewSession(sessionID id.SessionID, language string, now time.Time, ttl time.Duration) (*Session, error) {
	if sessionID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session ID is required")
	}
	if ttl <= 0 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "session TTL must be positive")
	}
	return &Session{
		ID:           sessionID,
		Language:     language,
		History:      []Message{},
		Context:      map[string]string{},
		Applications: map[id.SchemeID]id.ApplicationID{},
		CreatedAt:    now,
		ExpiresAt:    now.Add(ttl),
		UpdatedAt:    now,
	}, nil
}

// IsExpired reports whether now is past the window. The boundary instant itself
// is still inside the window.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// CanAppendMessage validates a conversation turn.
func CanAppendMessage(role Role, content string) error {
	if !role.IsValid() {
		return dErrors.New(dErrors.CodeValidation, "unknown message role").WithDetail("role", string(role))
	}
	if strings.TrimSpace(content) == "" {
		return dErrors.New(dErrors.CodeValidation, "message content is required")
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return dErrors.New(dErrors.CodeValidation, "message is too long")
	}
	return nil
}

func (s *Session) ApplyMessage(role Role, content string, now time.Time) {
	s.History = append(s.History, Message{Role: role, Content: content, At: now})
	s.UpdatedAt = now
}

// CanUpdateContext validates a context patch against the keys already held.
func (s *Session) CanUpdateContext(patch map[string]string) error {
	keys := len(s.Context)
	for k, v := range patch {
		if k == "" || len(k) > maxContextKey {
			return dErrors.New(dErrors.CodeValidation, "invalid context key").WithDetail("key", k)
		}
		if len(v) > maxContextValue {
			return dErrors.New(dErrors.CodeValidation, "context value is too long").WithDetail("key", k)
		}
		if _, ok := s.Context[k]; !ok && v != "" {
			keys++
		}
	}
	if keys > maxContextKeys {
		return dErrors.New(dErrors.CodeValidation, "too many context keys")
	}
	return nil
}

// ApplyContext merges patch into Context. An empty value removes the key.
func (s *Session) ApplyContext(patch map[string]string, now time.Time) {
	for k, v := range patch {
		if v == "" {
			delete(s.Context, k)
			continue
		}
		s.Context[k] = v
	}
	s.UpdatedAt = now
}

// ApplyLanguage changes the presentation language only.
func (s *Session) ApplyLanguage(language string, now time.Time) {
	s.Language = language
	s.UpdatedAt = now
}

// ActiveApplication returns the application bound for schemeID.
func (s *Session) ActiveApplication(schemeID id.SchemeID) (id.ApplicationID, bool) {
	appID, ok := s.Applications[schemeID]
	return appID, ok
}

// CanBind rejects binding a second application for a scheme that already has one.
func (s *Session) CanBind(schemeID id.SchemeID, appID id.ApplicationID) error {
	if bound, ok := s.Applications[schemeID]; ok && bound != appID {
		return dErrors.New(dErrors.CodeConflict, "session already has an application in progress for this scheme").
			WithDetail("schemeId", string(schemeID)).
			WithDetail("applicationId", bound.String())
	}
	return nil
}

func (s *Session) ApplyBind(schemeID id.SchemeID, appID id.ApplicationID, now time.Time) {
	s.Applications[schemeID] = appID
	s.UpdatedAt = now
}

func (s *Session) ApplyRelease(schemeID id.SchemeID, now time.Time) {
	delete(s.Applications, schemeID)
	s.UpdatedAt = now
}

// BoundSchemes returns schemes with an in-progress application, sorted.
func (s *Session) BoundSchemes() []id.SchemeID {
	return slices.Sorted(maps.Keys(s.Applications))
}

func (s *Session) Clone() *Session {
	c := *s
	c.History = slices.Clone(s.History)
	if c.History == nil {
		c.History = []Message{}
	}
	c.Context = maps.Clone(s.Context)
	if c.Context == nil {
		c.Context = map[string]string{}
	}
	c.Applications = maps.Clone(s.Applications)
	if c.Applications == nil {
		c.Applications = map[id.SchemeID]id.ApplicationID{}
	}
	return &c
}
