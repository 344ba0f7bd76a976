package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"schemeflow/internal/application/handler/mocks"
	"schemeflow/internal/application/models"
	"schemeflow/internal/application/service"
	"schemeflow/internal/application/status"
	schememodels "schemeflow/internal/scheme/models"
	id "schemeflow/pkg/domain"
	dErrors "schemeflow/pkg/domain-errors"
	"schemeflow/pkg/requestcontext"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type ApplicationHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
	appID   id.ApplicationID
}

func TestApplicationHandlerSuite(t *testing.T) {
	suite.Run(t, new(ApplicationHandlerSuite))
}

func (s *ApplicationHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil))).Register(s.router)
	s.appID = id.NewApplicationID()
}

func (s *ApplicationHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ApplicationHandlerSuite) errorCode(w *httptest.ResponseRecorder) string {
	var body struct {
		Error   string         `json:"error"`
		Details map[string]any `json:"details"`
	}
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
	return body.Error
}

var nameStep = schememodels.Step{
	Number:    1,
	Field:     "full_name",
	FieldType: schememodels.FieldText,
	Question:  schememodels.LocalizedText{"en": "What is your full name?", "hi": "आपका पूरा नाम क्या है?"},
}

func (s *ApplicationHandlerSuite) TestStart() {
	sessionID := id.NewSessionID()

	s.Run("session from body", func() {
		s.service.EXPECT().StartApplication(gomock.Any(), id.SchemeID("senior-pension"), sessionID).
			Return(&service.StartResult{
				ApplicationID: s.appID,
				SchemeID:      "senior-pension",
				FirstStep:     nameStep,
				CurrentStep:   nameStep,
				TotalSteps:    4,
			}, nil)

		body := `{"schemeId":" senior-pension ","sessionId":"` + sessionID.String() + `"}`
		w := s.do(httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(body)))

		s.Equal(http.StatusCreated, w.Code)
		var resp StartResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(s.appID.String(), resp.ApplicationID)
		s.Equal(1, resp.FirstStep.StepNumber)
		s.Equal("What is your full name?", resp.FirstStep.Question)
		s.False(resp.Resumed)
	})

	s.Run("session from context and hindi question on resume", func() {
		s.service.EXPECT().StartApplication(gomock.Any(), id.SchemeID("senior-pension"), sessionID).
			Return(&service.StartResult{
				ApplicationID: s.appID,
				SchemeID:      "senior-pension",
				FirstStep:     nameStep,
				CurrentStep:   nameStep,
				TotalSteps:    4,
				Resumed:       true,
			}, nil)

		req := httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(`{"schemeId":"senior-pension"}`))
		ctx := requestcontext.WithSessionID(req.Context(), sessionID)
		ctx = requestcontext.WithLanguage(ctx, "hi-IN")
		w := s.do(req.WithContext(ctx))

		s.Equal(http.StatusOK, w.Code)
		var resp StartResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.True(resp.Resumed)
		s.Equal("आपका पूरा नाम क्या है?", resp.CurrentStep.Question)
	})

	s.Run("missing session", func() {
		w := s.do(httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(`{"schemeId":"senior-pension"}`)))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("missing scheme", func() {
		w := s.do(httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(`{}`)))
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("unknown scheme", func() {
		s.service.EXPECT().StartApplication(gomock.Any(), id.SchemeID("moon-grant"), sessionID).
			Return(nil, dErrors.New(dErrors.CodeSchemeNotFound, "scheme not found"))

		body := `{"schemeId":"moon-grant","sessionId":"` + sessionID.String() + `"}`
		w := s.do(httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(body)))
		s.Equal(http.StatusNotFound, w.Code)
		s.Equal("scheme_not_found", s.errorCode(w))
	})

	s.Run("expired session", func() {
		s.service.EXPECT().StartApplication(gomock.Any(), gomock.Any(), sessionID).
			Return(nil, dErrors.New(dErrors.CodeSessionExpired, "session has expired"))

		body := `{"schemeId":"senior-pension","sessionId":"` + sessionID.String() + `"}`
		w := s.do(httptest.NewRequest(http.MethodPost, "/applications", strings.NewReader(body)))
		s.Equal(http.StatusGone, w.Code)
	})
}

func (s *ApplicationHandlerSuite) TestSaveStep() {
	path := "/applications/" + s.appID.String() + "/steps/1"

	s.Run("saves a tagged date", func() {
		dob, err := schememodels.ParseDate("1952-08-14")
		s.Require().NoError(err)
		s.service.EXPECT().SaveProgress(gomock.Any(), s.appID, 2, dob).
			Return(&service.ProgressResult{ApplicationID: s.appID, CurrentStep: 3, TotalSteps: 4, MissingSteps: []int{3, 4}}, nil)

		w := s.do(httptest.NewRequest(http.MethodPut, "/applications/"+s.appID.String()+"/steps/2",
			strings.NewReader(`{"value":{"type":"date","value":"1952-08-14"}}`)))

		s.Equal(http.StatusOK, w.Code)
		var resp ProgressResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(3, resp.CurrentStep)
		s.Equal([]int{3, 4}, resp.MissingSteps)
		s.False(resp.Completed)
	})

	s.Run("completion", func() {
		s.service.EXPECT().SaveProgress(gomock.Any(), s.appID, 1, schememodels.Text("Asha")).
			Return(&service.ProgressResult{ApplicationID: s.appID, CurrentStep: 1, TotalSteps: 1, Completed: true}, nil)

		w := s.do(httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"value":"Asha"}`)))
		s.Equal(http.StatusOK, w.Code)
		var resp ProgressResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.True(resp.Completed)
		s.Nil(resp.NextStep)
		s.Equal([]int{}, resp.MissingSteps)
	})

	s.Run("field validation error carries details", func() {
		s.service.EXPECT().SaveProgress(gomock.Any(), s.appID, 1, schememodels.Text("A")).
			Return(nil, dErrors.New(dErrors.CodeValidation, "answer is too short").
				WithDetail("field", "full_name").WithDetail("step", 1).WithDetail("reason", "too_short"))

		w := s.do(httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"value":"A"}`)))
		s.Equal(http.StatusUnprocessableEntity, w.Code)
		var body struct {
			Details map[string]any `json:"details"`
		}
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal("full_name", body.Details["field"])
		s.Equal("too_short", body.Details["reason"])
	})

	s.Run("already submitted", func() {
		s.service.EXPECT().SaveProgress(gomock.Any(), s.appID, 1, gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeApplicationAlreadySubmitted, "application has already been submitted"))

		w := s.do(httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{"value":"Asha"}`)))
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("non-numeric step", func() {
		w := s.do(httptest.NewRequest(http.MethodPut, "/applications/"+s.appID.String()+"/steps/first", strings.NewReader(`{"value":"Asha"}`)))
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("missing value", func() {
		w := s.do(httptest.NewRequest(http.MethodPut, path, strings.NewReader(`{}`)))
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("invalid application ID", func() {
		w := s.do(httptest.NewRequest(http.MethodPut, "/applications/not-a-uuid/steps/1", strings.NewReader(`{"value":"Asha"}`)))
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *ApplicationHandlerSuite) TestSubmit() {
	path := "/applications/" + s.appID.String() + "/submit"
	submittedAt := time.Date(2026, 6, 10, 11, 0, 0, 0, time.UTC)

	s.Run("success", func() {
		s.service.EXPECT().SubmitApplication(gomock.Any(), s.appID).
			Return(&service.SubmitResult{ApplicationID: s.appID, TrackingReference: "SCH-20260610-ABCDEFGHJK", SubmittedAt: submittedAt}, nil)

		w := s.do(httptest.NewRequest(http.MethodPost, path, nil))
		s.Equal(http.StatusOK, w.Code)
		var resp SubmitResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("SCH-20260610-ABCDEFGHJK", resp.TrackingReference)
		s.True(submittedAt.Equal(resp.SubmittedAt))
	})

	s.Run("incomplete lists missing steps", func() {
		s.service.EXPECT().SubmitApplication(gomock.Any(), s.appID).
			Return(nil, dErrors.New(dErrors.CodeApplicationIncomplete, "application has unanswered steps").
				WithDetail("missingSteps", []int{3, 4}))

		w := s.do(httptest.NewRequest(http.MethodPost, path, nil))
		s.Equal(http.StatusUnprocessableEntity, w.Code)
		var body struct {
			Error   string         `json:"error"`
			Details map[string]any `json:"details"`
		}
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &body))
		s.Equal("application_incomplete", body.Error)
		s.Equal([]any{float64(3), float64(4)}, body.Details["missingSteps"])
	})

	s.Run("internal errors hide their description", func() {
		s.service.EXPECT().SubmitApplication(gomock.Any(), s.appID).
			Return(nil, dErrors.New(dErrors.CodeInternal, "could not reserve a unique tracking reference"))

		w := s.do(httptest.NewRequest(http.MethodPost, path, nil))
		s.Equal(http.StatusInternalServerError, w.Code)
		s.NotContains(w.Body.String(), "tracking reference")
	})
}

func (s *ApplicationHandlerSuite) TestGetAndNextStep() {
	now := time.Date(2026, 6, 10, 11, 0, 0, 0, time.UTC)
	app, err := models.NewApplication(s.appID, "senior-pension", id.NewSessionID(), 4, now)
	s.Require().NoError(err)
	app.ApplyStep(1, schememodels.Text("Asha"), now)

	s.service.EXPECT().GetApplication(gomock.Any(), s.appID).Return(app, nil)
	w := s.do(httptest.NewRequest(http.MethodGet, "/applications/"+s.appID.String(), nil))
	s.Equal(http.StatusOK, w.Code)
	var resp ApplicationResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("in_progress", resp.Status)
	s.Equal(2, resp.CurrentStep)
	s.Equal(schememodels.Text("Asha"), resp.Responses[1])
	s.Empty(resp.TrackingReference)

	next := nameStep
	next.Number = 2
	s.service.EXPECT().GetNextStep(gomock.Any(), s.appID).
		Return(&service.ProgressResult{ApplicationID: s.appID, CurrentStep: 2, TotalSteps: 4, NextStep: &next, MissingSteps: []int{2, 3, 4}}, nil)
	w = s.do(httptest.NewRequest(http.MethodGet, "/applications/"+s.appID.String()+"/next-step", nil))
	s.Equal(http.StatusOK, w.Code)
	var progress ProgressResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &progress))
	s.Require().NotNil(progress.NextStep)
	s.Equal(2, progress.NextStep.StepNumber)

	s.service.EXPECT().GetApplication(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "application not found"))
	w = s.do(httptest.NewRequest(http.MethodGet, "/applications/"+id.NewApplicationID().String(), nil))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ApplicationHandlerSuite) TestStatus() {
	submittedAt := time.Date(2026, 6, 10, 11, 0, 0, 0, time.UTC)
	s.service.EXPECT().GetApplicationStatus(gomock.Any(), id.TrackingReference("SCH-20260610-ABCDEFGHJK")).
		Return(&service.StatusResult{
			TrackingReference: "SCH-20260610-ABCDEFGHJK",
			SchemeID:          "senior-pension",
			Status:            status.UnderReview,
			StatusMessage:     status.StatusMessage(status.UnderReview),
			NextSteps:         status.NextSteps(status.UnderReview),
			SubmittedAt:       submittedAt,
			UpdatedAt:         submittedAt.Add(24 * time.Hour),
		}, nil)

	w := s.do(httptest.NewRequest(http.MethodGet, "/tracking/sch-20260610-abcdefghjk", nil))
	s.Equal(http.StatusOK, w.Code)
	var resp StatusResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("under_review", resp.Status)
	s.NotEmpty(resp.StatusMessage)
	s.NotEmpty(resp.NextSteps)

	s.service.EXPECT().GetApplicationStatus(gomock.Any(), gomock.Any()).
		Return(nil, dErrors.New(dErrors.CodeNotFound, "tracking reference not found"))
	w = s.do(httptest.NewRequest(http.MethodGet, "/tracking/SCH-20260610-ZZZZZZZZZZ", nil))
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ApplicationHandlerSuite) TestUpdateStatus() {
	ref := id.TrackingReference("SCH-20260610-ABCDEFGHJK")
	submittedAt := time.Date(2026, 6, 10, 11, 0, 0, 0, time.UTC)
	put := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/tracking/"+string(ref)+"/status", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		return s.do(req)
	}

	s.Run("records a review decision", func() {
		s.service.EXPECT().UpdateApplicationStatus(gomock.Any(), ref, status.Approved).
			Return(&service.StatusResult{
				TrackingReference: ref,
				SchemeID:          "senior-pension",
				Status:            status.Approved,
				StatusMessage:     status.StatusMessage(status.Approved),
				NextSteps:         status.NextSteps(status.Approved),
				SubmittedAt:       submittedAt,
				UpdatedAt:         submittedAt.Add(48 * time.Hour),
			}, nil)

		w := put(`{"status":" Approved "}`)
		s.Equal(http.StatusOK, w.Code)
		var resp StatusResponse
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal("approved", resp.Status)
	})

	s.Run("missing status", func() {
		w := put(`{}`)
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("unknown status", func() {
		w := put(`{"status":"pending"}`)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal(string(dErrors.CodeInvalidInput), s.errorCode(w))
	})

	s.Run("transition out of a final state", func() {
		s.service.EXPECT().UpdateApplicationStatus(gomock.Any(), ref, status.Rejected).
			Return(nil, dErrors.New(dErrors.CodeConflict, "status transition not allowed"))
		w := put(`{"status":"rejected"}`)
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("oversized reference", func() {
		req := httptest.NewRequest(http.MethodPut, "/tracking/"+strings.Repeat("A", 65)+"/status", strings.NewReader(`{"status":"approved"}`))
		w := s.do(req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}
