// Package status tracks what happens to an application after submission.
//
// Review decisions are made outside this system. The tracker records the initial
// Submitted state when an application is frozen and accepts later transitions from
// the reviewing side through UpdateStatus.
package status

import (
	"time"

	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
)

type ReviewStatus string

const (
	Submitted   ReviewStatus = "submitted"
	UnderReview ReviewStatus = "under_review"
	Approved    ReviewStatus = "approved"
	Rejected    ReviewStatus = "rejected"
)

func (s ReviewStatus) IsValid() bool {
	switch s {
	case Submitted, UnderReview, Approved, Rejected:
		return true
	}
	return false
}

// IsFinal reports whether no further transition is possible.
func (s ReviewStatus) IsFinal() bool {
	return s == Approved || s == Rejected
}

// ParseReviewStatus validates a status string supplied by the reviewing side.
func ParseReviewStatus(s string) (ReviewStatus, error) {
	st := ReviewStatus(s)
	if !st.IsValid() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown review status").WithDetail("status", s)
	}
	return st, nil
}

var transitions = map[ReviewStatus][]ReviewStatus{
	Submitted:   {UnderReview, Approved, Rejected},
	UnderReview: {Approved, Rejected},
}

// Record is the post-submission view of one application.
type Record struct {
	Reference   id.TrackingReference
	SchemeID    id.SchemeID
	Status      ReviewStatus
	SubmittedAt time.Time
	UpdatedAt   time.Time
}

// CanTransition checks that the record may move to next.
func (r *Record) CanTransition(next ReviewStatus) error {
	if !next.IsValid() {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown review status").WithDetail("status", string(next))
	}
	for _, allowed := range transitions[r.Status] {
		if allowed == next {
			return nil
		}
	}
	return dErrors.New(dErrors.CodeConflict, "status transition not allowed").
		WithDetail("from", string(r.Status)).
		WithDetail("to", string(next))
}

func (r *Record) ApplyTransition(next ReviewStatus, now time.Time) {
	r.Status = next
	r.UpdatedAt = now
}

// StatusMessage is the citizen-facing summary of a review status.
func StatusMessage(s ReviewStatus) string {
	switch s {
	case Submitted:
		return "Your application has been received and is waiting to be reviewed."
	case UnderReview:
		return "Your application is being reviewed by the scheme office."
	case Approved:
		return "Your application has been approved."
	case Rejected:
		return "Your application was not approved."
	}
	return "Status unavailable."
}

// NextSteps lists what the citizen should do while in status s.
func NextSteps(s ReviewStatus) []string {
	switch s {
	case Submitted:
		return []string{
			"Keep your tracking reference safe.",
			"Check back in a few days for review progress.",
		}
	case UnderReview:
		return []string{
			"Keep your original documents ready in case the office asks to verify them.",
		}
	case Approved:
		return []string{
			"Benefits will be paid to the bank account given in your application.",
			"Contact your district office if you have not received them within 30 days.",
		}
	case Rejected:
		return []string{
			"Visit your district office to learn the reason and how to reapply.",
		}
	}
	return []string{}
}
