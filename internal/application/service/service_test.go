package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"schemeflow/internal/analytics"
	"schemeflow/internal/application/models"
	"schemeflow/internal/application/service/mocks"
	"schemeflow/internal/application/status"
	"schemeflow/internal/application/store"
	"schemeflow/internal/application/tracking"
	schememodels "schemeflow/internal/scheme/models"
	schemestore "schemeflow/internal/scheme/store"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
	"schemeflow/pkg/platform/sentinel"
	"schemeflow/pkg/requestcontext"
)

// fakeSessions is a minimal stateful session binding.
type fakeSessions struct {
	mu       sync.Mutex
	expired  map[id.SessionID]bool
	bindings map[id.SessionID]map[id.SchemeID]id.ApplicationID
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		expired:  map[id.SessionID]bool{},
		bindings: map[id.SessionID]map[id.SchemeID]id.ApplicationID{},
	}
}

func (f *fakeSessions) EnsureActive(_ context.Context, sessionID id.SessionID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expired[sessionID] {
		return dErrors.New(dErrors.CodeSessionExpired, "session has expired")
	}
	return nil
}

func (f *fakeSessions) ActiveApplication(_ context.Context, sessionID id.SessionID, schemeID id.SchemeID) (id.ApplicationID, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	appID, ok := f.bindings[sessionID][schemeID]
	return appID, ok, nil
}

func (f *fakeSessions) BindApplication(_ context.Context, sessionID id.SessionID, schemeID id.SchemeID, appID id.ApplicationID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bindings[sessionID] == nil {
		f.bindings[sessionID] = map[id.SchemeID]id.ApplicationID{}
	}
	f.bindings[sessionID][schemeID] = appID
	return nil
}

func (f *fakeSessions) ReleaseApplication(_ context.Context, sessionID id.SessionID, schemeID id.SchemeID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bindings[sessionID], schemeID)
	return nil
}

type ApplicationServiceSuite struct {
	suite.Suite
	service  *Service
	store    *store.InMemory
	sessions *fakeSessions
	tracker  *status.InMemory
	sink     *analytics.MemorySink
	ctx      context.Context
	now      time.Time
}

func TestApplicationServiceSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceSuite))
}

// recordingEmitter writes straight to a memory sink so tests can count events.
type recordingEmitter struct{ sink *analytics.MemorySink }

func (r recordingEmitter) Publish(ctx context.Context, e analytics.Event) { _ = r.sink.Write(ctx, e) }

func (s *ApplicationServiceSuite) SetupTest() {
	catalog, err := schemestore.NewDefault()
	s.Require().NoError(err)

	s.store = store.NewInMemory()
	s.sessions = newFakeSessions()
	s.tracker = status.NewInMemory()
	s.sink = analytics.NewMemorySink()
	s.service = New(s.store, catalog, s.sessions,
		tracking.NewGenerator(tracking.NewInMemoryRegistry()), s.tracker,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAnalytics(recordingEmitter{sink: s.sink}),
	)
	s.now = time.Date(2026, 6, 10, 11, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *ApplicationServiceSuite) start(schemeID id.SchemeID) *StartResult {
	res, err := s.service.StartApplication(s.ctx, schemeID, id.NewSessionID())
	s.Require().NoError(err)
	return res
}

func (s *ApplicationServiceSuite) save(appID id.ApplicationID, step int, v schememodels.Value) *ProgressResult {
	res, err := s.service.SaveProgress(s.ctx, appID, step, v)
	s.Require().NoError(err)
	return res
}

func (s *ApplicationServiceSuite) completeScholarship(appID id.ApplicationID) {
	s.save(appID, 1, schememodels.Text("Ravi Kumar"))
	s.save(appID, 2, schememodels.Text("Government College"))
	s.save(appID, 3, schememodels.Number(81.5))
}

func (s *ApplicationServiceSuite) TestStartApplication() {
	s.Run("returns the first step", func() {
		res := s.start("senior-pension")
		s.False(res.ApplicationID.IsNil())
		s.Equal(1, res.FirstStep.Number)
		s.Equal("full_name", res.FirstStep.Field)
		s.Equal(4, res.TotalSteps)
		s.False(res.Resumed)

		app, err := s.service.GetApplication(s.ctx, res.ApplicationID)
		s.Require().NoError(err)
		s.Equal(models.StatusInProgress, app.Status)
		s.Equal(1, app.CurrentStep)
		s.Empty(app.Responses)
	})

	s.Run("unknown scheme", func() {
		_, err := s.service.StartApplication(s.ctx, "moon-colony-grant", id.NewSessionID())
		s.True(dErrors.HasCode(err, dErrors.CodeSchemeNotFound))
	})

	s.Run("inactive scheme", func() {
		_, err := s.service.StartApplication(s.ctx, "legacy-housing-grant", id.NewSessionID())
		s.True(dErrors.HasCode(err, dErrors.CodeSchemeNotFound))
	})

	s.Run("expired session", func() {
		sessionID := id.NewSessionID()
		s.sessions.expired[sessionID] = true
		_, err := s.service.StartApplication(s.ctx, "senior-pension", sessionID)
		s.True(dErrors.HasCode(err, dErrors.CodeSessionExpired))
	})

	s.Run("nil session", func() {
		_, err := s.service.StartApplication(s.ctx, "senior-pension", id.SessionID{})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Equal(1, s.sink.Count(analytics.EventApplicationStarted, "senior-pension"))
}

func (s *ApplicationServiceSuite) TestResume() {
	sessionID := id.NewSessionID()
	first, err := s.service.StartApplication(s.ctx, "student-scholarship", sessionID)
	s.Require().NoError(err)
	s.save(first.ApplicationID, 1, schememodels.Text("Ravi Kumar"))

	again, err := s.service.StartApplication(s.ctx, "student-scholarship", sessionID)
	s.Require().NoError(err)
	s.True(again.Resumed)
	s.Equal(first.ApplicationID, again.ApplicationID)
	s.Equal(2, again.CurrentStep.Number)

	s.Run("another scheme in the same session is independent", func() {
		other, err := s.service.StartApplication(s.ctx, "senior-pension", sessionID)
		s.Require().NoError(err)
		s.False(other.Resumed)
		s.NotEqual(first.ApplicationID, other.ApplicationID)
	})

	s.Run("a submitted application is not resumed", func() {
		s.save(first.ApplicationID, 2, schememodels.Text("Government College"))
		s.save(first.ApplicationID, 3, schememodels.Number(70))
		_, err := s.service.SubmitApplication(s.ctx, first.ApplicationID)
		s.Require().NoError(err)

		fresh, err := s.service.StartApplication(s.ctx, "student-scholarship", sessionID)
		s.Require().NoError(err)
		s.False(fresh.Resumed)
		s.NotEqual(first.ApplicationID, fresh.ApplicationID)
	})
}

func (s *ApplicationServiceSuite) TestConcurrentStartCreatesOneApplication() {
	sessionID := id.NewSessionID()
	const callers = 20
	ids := make([]id.ApplicationID, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.service.StartApplication(s.ctx, "senior-pension", sessionID)
			s.NoError(err)
			if res != nil {
				ids[i] = res.ApplicationID
			}
		}()
	}
	wg.Wait()
	for _, appID := range ids {
		s.Equal(ids[0], appID)
	}
}

// TestThreeStepScenario walks a three-step scheme from start to submission.
func (s *ApplicationServiceSuite) TestThreeStepScenario() {
	res := s.start("student-scholarship")
	s.Equal(3, res.TotalSteps)

	s.save(res.ApplicationID, 1, schememodels.Text("Ravi Kumar"))
	s.save(res.ApplicationID, 2, schememodels.Text("Government College"))

	next, err := s.service.GetNextStep(s.ctx, res.ApplicationID)
	s.Require().NoError(err)
	s.Equal(3, next.CurrentStep)
	s.False(next.Completed)
	s.Require().NotNil(next.NextStep)
	s.Equal(3, next.NextStep.Number)

	app, err := s.service.GetApplication(s.ctx, res.ApplicationID)
	s.Require().NoError(err)
	s.Equal([]int{1, 2}, app.AnsweredSteps())

	done := s.save(res.ApplicationID, 3, schememodels.Number(81.5))
	s.True(done.Completed)
	s.Nil(done.NextStep)

	app, err = s.service.GetApplication(s.ctx, res.ApplicationID)
	s.Require().NoError(err)
	s.Equal(models.StatusInProgress, app.Status, "completing the last step does not submit")

	submitted, err := s.service.SubmitApplication(s.ctx, res.ApplicationID)
	s.Require().NoError(err)
	s.NotEmpty(submitted.TrackingReference)
	s.Equal(s.now, submitted.SubmittedAt)

	other := s.start("student-scholarship")
	s.completeScholarship(other.ApplicationID)
	second, err := s.service.SubmitApplication(s.ctx, other.ApplicationID)
	s.Require().NoError(err)
	s.NotEqual(submitted.TrackingReference, second.TrackingReference)

	s.Equal(2, s.sink.Count(analytics.EventApplicationSubmitted, "student-scholarship"))
}

func (s *ApplicationServiceSuite) TestRoundTripAndMonotonicProgression() {
	res := s.start("senior-pension")
	answers := []schememodels.Value{
		schememodels.Text("Asha Devi"),
		schememodels.Text("1952-08-14"),
		schememodels.Text("north"),
		schememodels.Text("123456789012"),
	}
	last := 0
	for i, v := range answers {
		n := i + 1
		out := s.save(res.ApplicationID, n, v)
		s.GreaterOrEqual(out.CurrentStep, last)
		last = out.CurrentStep
		if n < len(answers) {
			s.GreaterOrEqual(out.CurrentStep, n+1)
		} else {
			s.True(out.Completed)
		}
	}

	app, err := s.service.GetApplication(s.ctx, res.ApplicationID)
	s.Require().NoError(err)
	s.Equal(schememodels.Text("Asha Devi"), app.Responses[1])
	dob, _ := schememodels.ParseDate("1952-08-14")
	s.Equal(dob, app.Responses[2], "date answers are stored as dates")
	s.Equal(schememodels.Select("North"), app.Responses[3], "select answers take the catalog spelling")

	s.Run("revising an earlier step keeps the current step", func() {
		out := s.save(res.ApplicationID, 1, schememodels.Text("Asha Devi Sharma"))
		s.Equal(4, out.CurrentStep)

		app, err := s.service.GetApplication(s.ctx, res.ApplicationID)
		s.Require().NoError(err)
		s.Equal(schememodels.Text("Asha Devi Sharma"), app.Responses[1])
		s.Len(app.Responses, 4)
	})
}

func (s *ApplicationServiceSuite) TestSaveProgressValidation() {
	res := s.start("senior-pension")

	s.Run("cannot skip ahead", func() {
		_, err := s.service.SaveProgress(s.ctx, res.ApplicationID, 2, schememodels.Text("1950-01-01"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("step_skipped", dErrors.DetailsOf(err)["reason"])
	})

	s.Run("step out of range", func() {
		_, err := s.service.SaveProgress(s.ctx, res.ApplicationID, 9, schememodels.Text("x"))
		s.Equal("out_of_range", dErrors.DetailsOf(err)["reason"])
	})

	s.Run("answer fails the step rule", func() {
		_, err := s.service.SaveProgress(s.ctx, res.ApplicationID, 1, schememodels.Text("A"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		details := dErrors.DetailsOf(err)
		s.Equal("full_name", details["field"])
		s.Equal(1, details["step"])
		s.Equal("too_short", details["reason"])

		app, err := s.service.GetApplication(s.ctx, res.ApplicationID)
		s.Require().NoError(err)
		s.Empty(app.Responses, "a rejected answer is not stored")
	})

	s.Run("unknown application", func() {
		_, err := s.service.SaveProgress(s.ctx, id.NewApplicationID(), 1, schememodels.Text("Asha"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("another session cannot edit", func() {
		ctx := requestcontext.WithSessionID(s.ctx, id.NewSessionID())
		_, err := s.service.SaveProgress(ctx, res.ApplicationID, 1, schememodels.Text("Asha"))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("expired session cannot edit", func() {
		app, err := s.service.GetApplication(s.ctx, res.ApplicationID)
		s.Require().NoError(err)
		s.sessions.expired[app.SessionID] = true
		defer delete(s.sessions.expired, app.SessionID)

		_, err = s.service.SaveProgress(s.ctx, res.ApplicationID, 1, schememodels.Text("Asha"))
		s.True(dErrors.HasCode(err, dErrors.CodeSessionExpired))
	})
}

func (s *ApplicationServiceSuite) TestSubmissionGating() {
	res := s.start("senior-pension")
	s.save(res.ApplicationID, 1, schememodels.Text("Asha Devi"))
	s.save(res.ApplicationID, 2, schememodels.Text("1952-08-14"))

	_, err := s.service.SubmitApplication(s.ctx, res.ApplicationID)
	s.True(dErrors.HasCode(err, dErrors.CodeApplicationIncomplete))
	details := dErrors.DetailsOf(err)
	s.Equal([]int{3, 4}, details["missingSteps"])
	s.Equal(2, details["completedSteps"])
	s.Equal(4, details["totalSteps"])
	s.Zero(s.sink.Count(analytics.EventApplicationSubmitted, "senior-pension"))
}

func (s *ApplicationServiceSuite) TestImmutabilityAfterSubmission() {
	res := s.start("student-scholarship")
	s.completeScholarship(res.ApplicationID)
	submitted, err := s.service.SubmitApplication(s.ctx, res.ApplicationID)
	s.Require().NoError(err)

	before, err := s.service.GetApplication(s.ctx, res.ApplicationID)
	s.Require().NoError(err)

	_, err = s.service.SaveProgress(s.ctx, res.ApplicationID, 1, schememodels.Text("Someone Else"))
	s.True(dErrors.HasCode(err, dErrors.CodeApplicationAlreadySubmitted))

	_, err = s.service.SubmitApplication(s.ctx, res.ApplicationID)
	s.True(dErrors.HasCode(err, dErrors.CodeApplicationAlreadySubmitted))

	after, err := s.service.GetApplication(s.ctx, res.ApplicationID)
	s.Require().NoError(err)
	s.Equal(before, after)
	s.Equal(submitted.TrackingReference, after.TrackingReference)
}

// TestConcurrentSubmissionsAreUnique submits many applications in parallel and
// checks that every tracking reference is distinct.
func (s *ApplicationServiceSuite) TestConcurrentSubmissionsAreUnique() {
	const n = 1000
	appIDs := make([]id.ApplicationID, n)
	for i := range n {
		res := s.start("farmer-income-support")
		s.save(res.ApplicationID, 1, schememodels.Text("Gopal Rao"))
		s.save(res.ApplicationID, 2, schememodels.Number(3))
		s.save(res.ApplicationID, 3, schememodels.Text("paddy"))
		appIDs[i] = res.ApplicationID
	}

	refs := make([]id.TrackingReference, n)
	var wg sync.WaitGroup
	for i, appID := range appIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := s.service.SubmitApplication(s.ctx, appID)
			s.NoError(err)
			if out != nil {
				refs[i] = out.TrackingReference
			}
		}()
	}
	wg.Wait()

	seen := make(map[id.TrackingReference]bool, n)
	for _, ref := range refs {
		s.Require().NotEmpty(ref)
		s.Require().False(seen[ref], "duplicate tracking reference %s", ref)
		seen[ref] = true
	}
}

func (s *ApplicationServiceSuite) TestConcurrentSubmitSameApplication() {
	res := s.start("student-scholarship")
	s.completeScholarship(res.ApplicationID)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.SubmitApplication(s.ctx, res.ApplicationID)
			if err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
				return
			}
			s.True(dErrors.HasCode(err, dErrors.CodeApplicationAlreadySubmitted))
		}()
	}
	wg.Wait()
	s.Equal(1, successes)
}

func (s *ApplicationServiceSuite) TestGetApplicationStatus() {
	res := s.start("student-scholarship")
	s.completeScholarship(res.ApplicationID)
	submitted, err := s.service.SubmitApplication(s.ctx, res.ApplicationID)
	s.Require().NoError(err)

	st, err := s.service.GetApplicationStatus(s.ctx, submitted.TrackingReference)
	s.Require().NoError(err)
	s.Equal(status.Submitted, st.Status)
	s.Equal(id.SchemeID("student-scholarship"), st.SchemeID)
	s.Equal(status.StatusMessage(status.Submitted), st.StatusMessage)
	s.NotEmpty(st.NextSteps)
	s.Equal(s.now, st.SubmittedAt)

	s.Run("reflects review progress", func() {
		later := requestcontext.WithTime(context.Background(), s.now.Add(72*time.Hour))
		updated, err := s.service.UpdateApplicationStatus(later, submitted.TrackingReference, status.UnderReview)
		s.Require().NoError(err)
		s.Equal(status.UnderReview, updated.Status)
		s.Equal(status.StatusMessage(status.UnderReview), updated.StatusMessage)

		_, err = s.service.UpdateApplicationStatus(later, submitted.TrackingReference, status.Approved)
		s.Require().NoError(err)

		st, err := s.service.GetApplicationStatus(s.ctx, submitted.TrackingReference)
		s.Require().NoError(err)
		s.Equal(status.Approved, st.Status)
		s.Equal(s.now.Add(72*time.Hour), st.UpdatedAt)
	})

	s.Run("final status cannot change", func() {
		_, err := s.service.UpdateApplicationStatus(s.ctx, submitted.TrackingReference, status.Rejected)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown reference", func() {
		_, err := s.service.GetApplicationStatus(s.ctx, "SCH-20260610-ZZZZZZZZZZ")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

		_, err = s.service.UpdateApplicationStatus(s.ctx, "SCH-20260610-ZZZZZZZZZZ", status.UnderReview)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// ApplicationServiceMockSuite covers collaborator failures with gomock.
type ApplicationServiceMockSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	store      *mocks.MockStore
	catalog    *mocks.MockCatalog
	sessions   *mocks.MockSessions
	references *mocks.MockReferenceGenerator
	tracker    *mocks.MockStatusTracker
	service    *Service
	ctx        context.Context
	scheme     *schememodels.Scheme
}

func TestApplicationServiceMockSuite(t *testing.T) {
	suite.Run(t, new(ApplicationServiceMockSuite))
}

func (s *ApplicationServiceMockSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.catalog = mocks.NewMockCatalog(s.ctrl)
	s.sessions = mocks.NewMockSessions(s.ctrl)
	s.references = mocks.NewMockReferenceGenerator(s.ctrl)
	s.tracker = mocks.NewMockStatusTracker(s.ctrl)
	s.service = New(s.store, s.catalog, s.sessions, s.references, s.tracker,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.ctx = context.Background()
	s.scheme = &schememodels.Scheme{
		ID:     "one-step",
		Active: true,
		Steps:  []schememodels.Step{{Number: 1, Field: "name", FieldType: schememodels.FieldText}},
	}
}

func (s *ApplicationServiceMockSuite) completedApplication() *models.Application {
	app, err := models.NewApplication(id.NewApplicationID(), s.scheme.ID, id.NewSessionID(), 1, time.Now())
	s.Require().NoError(err)
	app.ApplyStep(1, schememodels.Text("x"), time.Now())
	return app
}

func (s *ApplicationServiceMockSuite) TestStoreFailureIsInternal() {
	s.catalog.EXPECT().GetScheme(gomock.Any(), s.scheme.ID).Return(s.scheme, nil)
	s.sessions.EXPECT().EnsureActive(gomock.Any(), gomock.Any()).Return(nil)
	s.sessions.EXPECT().ActiveApplication(gomock.Any(), gomock.Any(), s.scheme.ID).Return(id.ApplicationID{}, false, nil)
	gomock.InOrder(
		s.sessions.EXPECT().BindApplication(gomock.Any(), gomock.Any(), s.scheme.ID, gomock.Any()).Return(nil),
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("disk full")),
		s.sessions.EXPECT().ReleaseApplication(gomock.Any(), gomock.Any(), s.scheme.ID).Return(nil),
	)

	_, err := s.service.StartApplication(s.ctx, s.scheme.ID, id.NewSessionID())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ApplicationServiceMockSuite) TestBindFailureCreatesNoApplication() {
	sessionID := id.NewSessionID()
	s.catalog.EXPECT().GetScheme(gomock.Any(), s.scheme.ID).Return(s.scheme, nil)
	s.sessions.EXPECT().EnsureActive(gomock.Any(), sessionID).Return(nil)
	s.sessions.EXPECT().ActiveApplication(gomock.Any(), sessionID, s.scheme.ID).Return(id.ApplicationID{}, false, nil)
	s.sessions.EXPECT().BindApplication(gomock.Any(), sessionID, s.scheme.ID, gomock.Any()).
		Return(dErrors.New(dErrors.CodeSessionExpired, "session has expired"))
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

	_, err := s.service.StartApplication(s.ctx, s.scheme.ID, sessionID)
	s.True(dErrors.HasCode(err, dErrors.CodeSessionExpired))
}

func (s *ApplicationServiceMockSuite) TestStaleBindingIsReleasedBeforeStart() {
	sessionID := id.NewSessionID()
	submitted := s.completedApplication()
	submitted.ApplySubmission(id.TrackingReference("SCH-20260610-ABCDEFGHJK"), time.Now())

	s.catalog.EXPECT().GetScheme(gomock.Any(), s.scheme.ID).Return(s.scheme, nil)
	s.sessions.EXPECT().EnsureActive(gomock.Any(), sessionID).Return(nil)
	s.sessions.EXPECT().ActiveApplication(gomock.Any(), sessionID, s.scheme.ID).Return(submitted.ID, true, nil)
	s.store.EXPECT().FindByID(gomock.Any(), submitted.ID).Return(submitted, nil)
	gomock.InOrder(
		s.sessions.EXPECT().ReleaseApplication(gomock.Any(), sessionID, s.scheme.ID).Return(nil),
		s.sessions.EXPECT().BindApplication(gomock.Any(), sessionID, s.scheme.ID, gomock.Any()).Return(nil),
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
	)

	out, err := s.service.StartApplication(s.ctx, s.scheme.ID, sessionID)
	s.Require().NoError(err)
	s.False(out.Resumed)
	s.NotEqual(submitted.ID, out.ApplicationID)
}

func (s *ApplicationServiceMockSuite) TestCatalogFailureIsInternal() {
	s.catalog.EXPECT().GetScheme(gomock.Any(), s.scheme.ID).Return(nil, errors.New("catalog offline"))

	_, err := s.service.StartApplication(s.ctx, s.scheme.ID, id.NewSessionID())
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ApplicationServiceMockSuite) TestGeneratorFailureLeavesApplicationInProgress() {
	app := s.completedApplication()
	s.store.EXPECT().FindByID(gomock.Any(), app.ID).Return(app, nil)
	s.sessions.EXPECT().EnsureActive(gomock.Any(), app.SessionID).Return(nil)
	s.references.EXPECT().Generate(gomock.Any()).
		Return(id.TrackingReference(""), dErrors.New(dErrors.CodeInternal, "could not reserve a unique tracking reference"))

	_, err := s.service.SubmitApplication(s.ctx, app.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ApplicationServiceMockSuite) TestTrackerFailureDoesNotFailSubmission() {
	app := s.completedApplication()
	ref := id.TrackingReference("SCH-20260610-ABCDEFGHJK")
	submitted := app.Clone()
	submitted.ApplySubmission(ref, time.Now())

	s.store.EXPECT().FindByID(gomock.Any(), app.ID).Return(app, nil)
	s.sessions.EXPECT().EnsureActive(gomock.Any(), app.SessionID).Return(nil)
	s.references.EXPECT().Generate(gomock.Any()).Return(ref, nil)
	s.store.EXPECT().Execute(gomock.Any(), app.ID, gomock.Any(), gomock.Any()).Return(submitted, nil)
	s.tracker.EXPECT().Record(gomock.Any(), ref, s.scheme.ID, gomock.Any()).Return(errors.New("tracker down"))
	s.sessions.EXPECT().ReleaseApplication(gomock.Any(), app.SessionID, s.scheme.ID).
		Return(dErrors.New(dErrors.CodeSessionExpired, "session has expired"))

	out, err := s.service.SubmitApplication(s.ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(ref, out.TrackingReference)
}

func (s *ApplicationServiceMockSuite) TestStatusFallsBackToStore() {
	ref := id.TrackingReference("SCH-20260610-ABCDEFGHJK")
	app := s.completedApplication()
	submittedAt := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	app.ApplySubmission(ref, submittedAt)

	s.tracker.EXPECT().Lookup(gomock.Any(), ref).Return(nil, sentinel.ErrNotFound)
	s.store.EXPECT().FindByTrackingReference(gomock.Any(), ref).Return(app, nil)

	st, err := s.service.GetApplicationStatus(s.ctx, ref)
	s.Require().NoError(err)
	s.Equal(status.Submitted, st.Status)
	s.Equal(submittedAt, st.SubmittedAt)
}

func (s *ApplicationServiceMockSuite) TestStatusUpdateSeedsMissingRecord() {
	ref := id.TrackingReference("SCH-20260610-ABCDEFGHJK")
	app := s.completedApplication()
	submittedAt := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)
	app.ApplySubmission(ref, submittedAt)
	reviewed := &status.Record{
		Reference:   ref,
		SchemeID:    s.scheme.ID,
		Status:      status.UnderReview,
		SubmittedAt: submittedAt,
		UpdatedAt:   submittedAt.Add(time.Hour),
	}

	gomock.InOrder(
		s.tracker.EXPECT().UpdateStatus(gomock.Any(), ref, status.UnderReview).Return(nil, sentinel.ErrNotFound),
		s.store.EXPECT().FindByTrackingReference(gomock.Any(), ref).Return(app, nil),
		s.tracker.EXPECT().Record(gomock.Any(), ref, s.scheme.ID, submittedAt).Return(nil),
		s.tracker.EXPECT().UpdateStatus(gomock.Any(), ref, status.UnderReview).Return(reviewed, nil),
	)

	st, err := s.service.UpdateApplicationStatus(s.ctx, ref, status.UnderReview)
	s.Require().NoError(err)
	s.Equal(status.UnderReview, st.Status)
	s.Equal(submittedAt, st.SubmittedAt)
}

func (s *ApplicationServiceMockSuite) TestStatusUpdateTrackerFailureIsInternal() {
	ref := id.TrackingReference("SCH-20260610-ABCDEFGHJK")
	s.tracker.EXPECT().UpdateStatus(gomock.Any(), ref, status.Approved).Return(nil, errors.New("tracker down"))

	_, err := s.service.UpdateApplicationStatus(s.ctx, ref, status.Approved)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ApplicationServiceMockSuite) TestTimeoutFromStore() {
	s.store.EXPECT().FindByID(gomock.Any(), gomock.Any()).Return(nil, context.DeadlineExceeded)

	_, err := s.service.GetApplication(s.ctx, id.NewApplicationID())
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}
