package domain

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	dErrors "schemeflow/pkg/domain-errors"
)

// Typed identifiers keep application, session and scheme keys from being mixed up
// at compile time. UUID-backed IDs reject the nil UUID at parse time.
type (
	ApplicationID uuid.UUID
	SessionID     uuid.UUID
)

// SchemeID is a catalog slug such as "senior-pension".
type SchemeID string

// TrackingReference is the caller-visible identifier of a submitted application.
type TrackingReference string

var schemeIDPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

const maxSchemeIDLength = 64

func (a ApplicationID) String() string { return uuid.UUID(a).String() }
func (a ApplicationID) IsNil() bool    { return uuid.UUID(a) == uuid.Nil }

func (s SessionID) String() string { return uuid.UUID(s).String() }
func (s SessionID) IsNil() bool    { return uuid.UUID(s) == uuid.Nil }

func (a ApplicationID) MarshalText() ([]byte, error) { return uuid.UUID(a).MarshalText() }

func (a *ApplicationID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(a).UnmarshalText(b)
}

func (s SessionID) MarshalText() ([]byte, error) { return uuid.UUID(s).MarshalText() }

func (s *SessionID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(s).UnmarshalText(b)
}

func (s SchemeID) String() string          { return string(s) }
func (t TrackingReference) String() string { return string(t) }

// NewApplicationID returns a fresh random application ID.
func NewApplicationID() ApplicationID { return ApplicationID(uuid.New()) }

// NewSessionID returns a fresh random session ID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

// ParseApplicationID parses and validates an application ID.
func ParseApplicationID(s string) (ApplicationID, error) {
	u, err := parseUUID(s, "application ID")
	return ApplicationID(u), err
}

// ParseSessionID parses and validates a session ID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session ID")
	return SessionID(u), err
}

// ParseSchemeID normalizes and validates a scheme slug.
func ParseSchemeID(s string) (SchemeID, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "scheme ID is required")
	}
	if len(s) > maxSchemeIDLength || !schemeIDPattern.MatchString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid scheme ID")
	}
	return SchemeID(s), nil
}

// ParseTrackingReference normalizes a caller-supplied tracking reference.
func ParseTrackingReference(s string) (TrackingReference, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "tracking reference is required")
	}
	if len(s) > 64 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid tracking reference")
	}
	return TrackingReference(s), nil
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return u, nil
}
