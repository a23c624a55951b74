package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "kpr/internal/errors"
	"kpr/internal/models"
	"kpr/internal/pagination"
	"kpr/internal/services"
	"kpr/internal/wizard"
)

type mockWizardService struct {
	enterFn      func(userID string, propertyID int64) (*services.EnterResult, error)
	nextFn       func(userID string, data wizard.FormData) (*wizard.Draft, error)
	updateFormFn func(userID string, data wizard.FormData) (*wizard.Draft, error)
	setStepFn    func(userID string, step int) (*wizard.Draft, error)
	attachFn     func(userID string, a wizard.Attachment) error
	detachFn     func(userID, field string) error
	documentsFn  func(userID string) (*services.DocumentStatus, error)
	resets       int
}

func (m *mockWizardService) Enter(_ context.Context, userID string, propertyID int64) (*services.EnterResult, error) {
	if m.enterFn != nil {
		return m.enterFn(userID, propertyID)
	}
	return &services.EnterResult{Draft: wizard.NewDraft()}, nil
}

func (m *mockWizardService) Current(_ context.Context, _ string) (*wizard.Draft, error) {
	return wizard.NewDraft(), nil
}

func (m *mockWizardService) Next(_ context.Context, userID string, data wizard.FormData) (*wizard.Draft, error) {
	if m.nextFn != nil {
		return m.nextFn(userID, data)
	}
	return wizard.NewDraft(), nil
}

func (m *mockWizardService) Prev(_ context.Context, _ string) (*wizard.Draft, error) {
	return wizard.NewDraft(), nil
}

func (m *mockWizardService) UpdateForm(_ context.Context, userID string, data wizard.FormData) (*wizard.Draft, error) {
	if m.updateFormFn != nil {
		return m.updateFormFn(userID, data)
	}
	return wizard.NewDraft(), nil
}

func (m *mockWizardService) SetStep(_ context.Context, userID string, step int) (*wizard.Draft, error) {
	if m.setStepFn != nil {
		return m.setStepFn(userID, step)
	}
	return wizard.NewDraft(), nil
}

func (m *mockWizardService) Reset(_ context.Context, _ string) (*wizard.Draft, error) {
	m.resets++
	return wizard.NewDraft(), nil
}

func (m *mockWizardService) AttachDocument(_ context.Context, userID string, a wizard.Attachment) error {
	if m.attachFn != nil {
		return m.attachFn(userID, a)
	}
	return nil
}

func (m *mockWizardService) DetachDocument(_ context.Context, userID, field string) error {
	if m.detachFn != nil {
		return m.detachFn(userID, field)
	}
	return nil
}

func (m *mockWizardService) Documents(_ context.Context, userID string) (*services.DocumentStatus, error) {
	if m.documentsFn != nil {
		return m.documentsFn(userID)
	}
	return &services.DocumentStatus{Required: []string{}, Uploaded: []string{}, Missing: []string{}}, nil
}

type mockApplicationService struct {
	submitFn           func(userID, ip string) (*models.LoanApplication, error)
	listApplicationsFn func(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.LoanApplication], error)
	getApplicationFn   func(userID, appID string) (*models.LoanApplication, error)
	updateStatusFn     func(appID string, status models.ApplicationStatus, note string) (*models.LoanApplication, error)
}

func (m *mockApplicationService) Submit(_ context.Context, userID, ip string) (*models.LoanApplication, error) {
	if m.submitFn != nil {
		return m.submitFn(userID, ip)
	}
	return &models.LoanApplication{}, nil
}

func (m *mockApplicationService) ListApplications(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.LoanApplication], error) {
	if m.listApplicationsFn != nil {
		return m.listApplicationsFn(userID, page)
	}
	return pagination.NewPageResponse[models.LoanApplication](nil, pagination.PageRequest{Page: 1, PageSize: 20}, 0), nil
}

func (m *mockApplicationService) GetApplication(userID, appID string) (*models.LoanApplication, error) {
	if m.getApplicationFn != nil {
		return m.getApplicationFn(userID, appID)
	}
	return &models.LoanApplication{}, nil
}

func (m *mockApplicationService) UpdateStatus(appID string, status models.ApplicationStatus, note string) (*models.LoanApplication, error) {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(appID, status, note)
	}
	return &models.LoanApplication{}, nil
}

func setupWizardRouter(handler *WizardHandler) *gin.Engine {
	r := gin.New()
	g := r.Group("/kpr-apply", injectUserID(testUserID))
	g.POST("/:property_id/enter", handler.Enter)
	g.GET("/draft", handler.GetDraft)
	g.PATCH("/draft", handler.UpdateForm)
	g.DELETE("/draft", handler.Reset)
	g.POST("/draft/next", handler.Next)
	g.POST("/draft/prev", handler.Prev)
	g.PUT("/draft/step", handler.SetStep)
	g.GET("/draft/documents", handler.ListDocuments)
	g.POST("/draft/documents/:field", handler.UploadDocument)
	g.DELETE("/draft/documents/:field", handler.DeleteDocument)
	g.POST("/submit", handler.Submit)
	return r
}

func uploadRequest(t *testing.T, r *gin.Engine, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/kpr-apply/draft/documents/"+field, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

var pdfBytes = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF")

func TestWizardHandler_Enter(t *testing.T) {
	t.Run("binds the draft to the property", func(t *testing.T) {
		var gotUser string
		var gotProperty int64
		svc := &mockWizardService{enterFn: func(userID string, propertyID int64) (*services.EnterResult, error) {
			gotUser, gotProperty = userID, propertyID
			return &services.EnterResult{Draft: wizard.NewDraft(), Discarded: true}, nil
		}}
		r := setupWizardRouter(NewWizardHandler(svc, &mockApplicationService{}, 2<<20))

		rec := doRequest(r, "POST", "/kpr-apply/42/enter", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotUser != testUserID || gotProperty != 42 {
			t.Errorf("unexpected call (%s, %d)", gotUser, gotProperty)
		}
		if parseJSON(t, rec)["discarded"] != true {
			t.Error("expected discarded flag in response")
		}
	})

	t.Run("unknown property is 404", func(t *testing.T) {
		svc := &mockWizardService{enterFn: func(string, int64) (*services.EnterResult, error) {
			return nil, apperrors.ErrPropertyNotFound
		}}
		r := setupWizardRouter(NewWizardHandler(svc, &mockApplicationService{}, 2<<20))

		if rec := doRequest(r, "POST", "/kpr-apply/42/enter", ""); rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestWizardHandler_DraftActions(t *testing.T) {
	t.Run("next without a body advances with no data", func(t *testing.T) {
		called := false
		svc := &mockWizardService{nextFn: func(_ string, data wizard.FormData) (*wizard.Draft, error) {
			called = true
			if len(data) != 0 {
				t.Errorf("expected no data, got %v", data)
			}
			return wizard.NewDraft(), nil
		}}
		r := setupWizardRouter(NewWizardHandler(svc, &mockApplicationService{}, 2<<20))

		req := httptest.NewRequest(http.MethodPost, "/kpr-apply/draft/next", http.NoBody)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK || !called {
			t.Fatalf("expected 200 and a call, got %d", rec.Code)
		}
	})

	t.Run("next passes step data", func(t *testing.T) {
		var got wizard.FormData
		svc := &mockWizardService{nextFn: func(_ string, data wizard.FormData) (*wizard.Draft, error) {
			got = data
			return wizard.NewDraft(), nil
		}}
		r := setupWizardRouter(NewWizardHandler(svc, &mockApplicationService{}, 2<<20))

		rec := doRequest(r, "POST", "/kpr-apply/draft/next", `{"data":{"full_name":"Budi","is_married":true}}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got["full_name"] != "Budi" || got["is_married"] != true {
			t.Errorf("unexpected data %v", got)
		}
	})

	t.Run("patch requires data", func(t *testing.T) {
		r := setupWizardRouter(NewWizardHandler(&mockWizardService{}, &mockApplicationService{}, 2<<20))
		if rec := doRequest(r, "PATCH", "/kpr-apply/draft", `{"data":{}}`); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("step zero is accepted", func(t *testing.T) {
		got := -1
		svc := &mockWizardService{setStepFn: func(_ string, step int) (*wizard.Draft, error) {
			got = step
			return wizard.NewDraft(), nil
		}}
		r := setupWizardRouter(NewWizardHandler(svc, &mockApplicationService{}, 2<<20))

		if rec := doRequest(r, "PUT", "/kpr-apply/draft/step", `{"step":0}`); rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got != 0 {
			t.Errorf("expected step 0, got %d", got)
		}
	})

	t.Run("step is required", func(t *testing.T) {
		r := setupWizardRouter(NewWizardHandler(&mockWizardService{}, &mockApplicationService{}, 2<<20))
		if rec := doRequest(r, "PUT", "/kpr-apply/draft/step", `{}`); rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("delete resets the draft", func(t *testing.T) {
		svc := &mockWizardService{}
		r := setupWizardRouter(NewWizardHandler(svc, &mockApplicationService{}, 2<<20))

		rec := doRequest(r, "DELETE", "/kpr-apply/draft", "")
		if rec.Code != http.StatusOK || svc.resets != 1 {
			t.Fatalf("expected one reset, got %d with status %d", svc.resets, rec.Code)
		}
		draft := parseJSON(t, rec)["draft"].(map[string]interface{})
		if draft["current_step"] != float64(0) {
			t.Errorf("expected step 0, got %v", draft["current_step"])
		}
	})
}

func TestWizardHandler_UploadDocument(t *testing.T) {
	t.Run("sniffs the content type", func(t *testing.T) {
		var got wizard.Attachment
		svc := &mockWizardService{
			attachFn: func(_ string, a wizard.Attachment) error { got = a; return nil },
			documentsFn: func(string) (*services.DocumentStatus, error) {
				return &services.DocumentStatus{Required: []string{"id_card"}, Uploaded: []string{"id_card"}, Missing: []string{}}, nil
			},
		}
		r := setupWizardRouter(NewWizardHandler(svc, &mockApplicationService{}, 2<<20))

		rec := uploadRequest(t, r, "id_card", "../ktp.pdf", pdfBytes)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.ContentType != "application/pdf" || got.Filename != "ktp.pdf" || got.Size != int64(len(pdfBytes)) {
			t.Errorf("unexpected attachment %+v", got)
		}
		if missing := parseJSON(t, rec)["missing"].([]interface{}); len(missing) != 0 {
			t.Errorf("expected nothing missing, got %v", missing)
		}
	})

	t.Run("unknown field is rejected before reading", func(t *testing.T) {
		svc := &mockWizardService{attachFn: func(string, wizard.Attachment) error {
			t.Error("attach should not be called")
			return nil
		}}
		r := setupWizardRouter(NewWizardHandler(svc, &mockApplicationService{}, 2<<20))

		rec := uploadRequest(t, r, "selfie", "me.pdf", pdfBytes)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_DOCUMENT")
	})

	t.Run("oversized body is rejected", func(t *testing.T) {
		r := setupWizardRouter(NewWizardHandler(&mockWizardService{}, &mockApplicationService{}, 1024))

		rec := uploadRequest(t, r, "id_card", "big.pdf", bytes.Repeat([]byte("a"), 200<<10))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_DOCUMENT")
	})

	t.Run("session mismatch surfaces as 409", func(t *testing.T) {
		svc := &mockWizardService{attachFn: func(string, wizard.Attachment) error {
			return apperrors.ErrDraftSessionMismatch
		}}
		r := setupWizardRouter(NewWizardHandler(svc, &mockApplicationService{}, 2<<20))

		rec := uploadRequest(t, r, "tax_id", "npwp.pdf", pdfBytes)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
	})

	t.Run("missing file part", func(t *testing.T) {
		r := setupWizardRouter(NewWizardHandler(&mockWizardService{}, &mockApplicationService{}, 2<<20))
		rec := doRequest(r, "POST", "/kpr-apply/draft/documents/id_card", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestWizardHandler_DeleteDocument(t *testing.T) {
	var detached string
	svc := &mockWizardService{detachFn: func(_, field string) error {
		if field == "selfie" {
			return apperrors.ErrInvalidDocument
		}
		detached = field
		return nil
	}}
	r := setupWizardRouter(NewWizardHandler(svc, &mockApplicationService{}, 2<<20))

	if rec := doRequest(r, "DELETE", "/kpr-apply/draft/documents/salary_slip", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if detached != "salary_slip" {
		t.Errorf("expected salary_slip detached, got %q", detached)
	}
	if rec := doRequest(r, "DELETE", "/kpr-apply/draft/documents/selfie", ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestWizardHandler_Submit(t *testing.T) {
	t.Run("returns 201 with the application", func(t *testing.T) {
		apps := &mockApplicationService{submitFn: func(userID, _ string) (*models.LoanApplication, error) {
			return &models.LoanApplication{Base: models.Base{ID: "app-1"}, UserID: userID, Status: models.ApplicationStatusSubmitted}, nil
		}}
		r := setupWizardRouter(NewWizardHandler(&mockWizardService{}, apps, 2<<20))

		rec := doRequest(r, "POST", "/kpr-apply/submit", "")
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		app := parseJSON(t, rec)["application"].(map[string]interface{})
		if app["status"] != "submitted" || app["user_id"] != testUserID {
			t.Errorf("unexpected application %v", app)
		}
	})

	errs := []struct {
		err  error
		code int
	}{
		{apperrors.ErrAgreementRequired, http.StatusUnprocessableEntity},
		{apperrors.ErrMissingDocuments, http.StatusUnprocessableEntity},
		{apperrors.ErrDraftSessionMismatch, http.StatusConflict},
	}
	for _, tc := range errs {
		t.Run(tc.err.Error(), func(t *testing.T) {
			apps := &mockApplicationService{submitFn: func(string, string) (*models.LoanApplication, error) { return nil, tc.err }}
			r := setupWizardRouter(NewWizardHandler(&mockWizardService{}, apps, 2<<20))

			if rec := doRequest(r, "POST", "/kpr-apply/submit", ""); rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}
}
