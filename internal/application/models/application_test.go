package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	schememodels "schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
)

type ApplicationSuite struct {
	suite.Suite
	now time.Time
	app *Application
}

func TestApplicationSuite(t *testing.T) {
	suite.Run(t, new(ApplicationSuite))
}

func (s *ApplicationSuite) SetupTest() {
	s.now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	app, err := NewApplication(id.NewApplicationID(), "student-scholarship", id.NewSessionID(), 3, s.now)
	s.Require().NoError(err)
	s.app = app
}

func (s *ApplicationSuite) save(step int, value schememodels.Value) {
	s.Require().NoError(s.app.CanSaveStep(step))
	s.app.ApplyStep(step, value, s.now)
}

func (s *ApplicationSuite) TestNewApplication() {
	s.Equal(1, s.app.CurrentStep)
	s.Equal(StatusInProgress, s.app.Status)
	s.Empty(s.app.Responses)
	s.Nil(s.app.SubmittedAt)

	_, err := NewApplication(id.NewApplicationID(), "x", id.NewSessionID(), 0, s.now)
	s.True(dErrors.HasCode(err, dErrors.CodeInvariantViolation))
	_, err = NewApplication(id.ApplicationID{}, "x", id.NewSessionID(), 1, s.now)
	s.Error(err)
	_, err = NewApplication(id.NewApplicationID(), "x", id.SessionID{}, 1, s.now)
	s.Error(err)
}

func (s *ApplicationSuite) TestProgression() {
	s.Run("advances one step at a time", func() {
		s.save(1, schememodels.Text("Asha"))
		s.Equal(2, s.app.CurrentStep)
		next, ok := s.app.NextStep()
		s.True(ok)
		s.Equal(2, next)
	})

	s.Run("cannot skip ahead", func() {
		err := s.app.CanSaveStep(3)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("step_skipped", dErrors.DetailsOf(err)["reason"])
	})

	s.Run("rejects out of range steps", func() {
		for _, step := range []int{0, -1, 4} {
			err := s.app.CanSaveStep(step)
			s.True(dErrors.HasCode(err, dErrors.CodeValidation), "step %d", step)
			s.Equal("out_of_range", dErrors.DetailsOf(err)["reason"])
		}
	})

	s.Run("overwriting an earlier step keeps the current step", func() {
		s.save(2, schememodels.Text("Government College"))
		s.Equal(3, s.app.CurrentStep)
		s.save(1, schememodels.Text("Asha Devi"))
		s.Equal(3, s.app.CurrentStep)
		s.Equal(schememodels.Text("Asha Devi"), s.app.Responses[1])
	})

	s.Run("final step completes without moving past the end", func() {
		s.save(3, schememodels.Number(88))
		s.Equal(3, s.app.CurrentStep)
		s.True(s.app.Completed())
		_, ok := s.app.NextStep()
		s.False(ok)
		s.Equal(StatusInProgress, s.app.Status, "completion never auto-submits")
	})
}

func (s *ApplicationSuite) TestSubmission() {
	s.Run("incomplete application reports missing steps", func() {
		s.save(1, schememodels.Text("Asha"))
		err := s.app.CanSubmit()
		s.True(dErrors.HasCode(err, dErrors.CodeApplicationIncomplete))
		details := dErrors.DetailsOf(err)
		s.Equal(1, details["completedSteps"])
		s.Equal(3, details["totalSteps"])
		s.Equal([]int{2, 3}, details["missingSteps"])
	})

	s.Run("complete application submits once", func() {
		s.save(2, schememodels.Text("Government College"))
		s.save(3, schememodels.Number(88))
		s.Require().NoError(s.app.CanSubmit())

		submittedAt := s.now.Add(time.Minute)
		s.app.ApplySubmission("SCH-20260401-ABCDEFGHJK", submittedAt)
		s.True(s.app.IsSubmitted())
		s.Equal(id.TrackingReference("SCH-20260401-ABCDEFGHJK"), s.app.TrackingReference)
		s.Equal(submittedAt, *s.app.SubmittedAt)

		s.True(dErrors.HasCode(s.app.CanSubmit(), dErrors.CodeApplicationAlreadySubmitted))
		s.True(dErrors.HasCode(s.app.CanSaveStep(1), dErrors.CodeApplicationAlreadySubmitted))
	})
}

func (s *ApplicationSuite) TestClone() {
	s.save(1, schememodels.Text("Asha"))
	s.app.ApplySubmission("REF", s.now)

	clone := s.app.Clone()
	clone.Responses[1] = schememodels.Text("changed")
	*clone.SubmittedAt = s.now.Add(time.Hour)

	s.Equal(schememodels.Text("Asha"), s.app.Responses[1])
	s.Equal(s.now, *s.app.SubmittedAt)
	s.Equal([]int{1}, s.app.AnsweredSteps())
}
