// Package analytics carries fire-and-forget usage events away from request paths.
//
// Events describe what happened to which scheme and nothing else. They never hold
// session, application or applicant identifiers.
package analytics

import (
	"context"
	"time"

	id "schemeflow/pkg/domain"
)

type EventType string

const (
	EventSchemeViewed         EventType = "scheme_viewed"
	EventEligibilityChecked   EventType = "eligibility_checked"
	EventDocumentsListed      EventType = "documents_listed"
	EventApplicationStarted   EventType = "application_started"
	EventApplicationSubmitted EventType = "application_submitted"
)

// Outcome labels for EventEligibilityChecked.
const (
	OutcomeEligible   = "eligible"
	OutcomeIneligible = "ineligible"
)

type Event struct {
	Type      EventType   `json:"type"`
	SchemeID  id.SchemeID `json:"schemeId"`
	Outcome   string      `json:"outcome,omitempty"`
	Count     int         `json:"count,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Sink persists or forwards events. Implementations must be safe for use by a single worker.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// Emitter is the producer side used by services.
type Emitter interface {
	Publish(ctx context.Context, event Event)
}

// Discard is an Emitter that drops everything; services default to it.
var Discard Emitter = discard{}

type discard struct{}

func (discard) Publish(context.Context, Event) {}
