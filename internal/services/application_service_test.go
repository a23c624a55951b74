package services

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpr/internal/models"
	"kpr/internal/pagination"
	"kpr/internal/storage"
	"kpr/internal/testutil"
	"kpr/internal/wizard"
)

type applicationFixture struct {
	*wizardFixture
	app     ApplicationServicer
	docsDir string
}

func newApplicationFixture(t *testing.T, docs storage.DocumentStorage) *applicationFixture {
	t.Helper()
	wf := newWizardFixture(t)
	dir := t.TempDir()
	if docs == nil {
		docs = storage.NewLocalStorage(dir)
	}
	properties := NewPropertyService(wf.db)
	return &applicationFixture{
		wizardFixture: wf,
		app:           NewApplicationService(wf.db, wf.controller, properties, newTestCalculator(t), docs, NewAuditService(wf.db)),
		docsDir:       dir,
	}
}

// prepare walks a user through a complete single applicant draft.
func (f *applicationFixture) prepare(t *testing.T, userID string, propertyID int64, extra wizard.FormData) {
	t.Helper()
	ctx := context.Background()

	_, err := f.svc.Enter(ctx, userID, propertyID)
	require.NoError(t, err)

	form := wizard.FormData{
		"full_name":             "Budi Santoso",
		KeyDownPayment:          100_000_000.0,
		KeyTenorYears:           15.0,
		KeyRateID:               1.0,
		KeyAgreeDataTruth:       true,
		KeyAgreeDocumentClarify: true,
	}
	for k, v := range extra {
		form[k] = v
	}
	_, err = f.svc.UpdateForm(ctx, userID, form)
	require.NoError(t, err)

	for _, field := range wizard.RequiredDocuments(form) {
		require.NoError(t, f.svc.AttachDocument(ctx, userID, pdfUpload(field)))
	}
}

func TestApplicationService_Submit(t *testing.T) {
	ctx := context.Background()
	f := newApplicationFixture(t, nil)
	user := testutil.CreateTestUser(t, f.db)
	p := testutil.CreateTestProperty(t, f.db)

	f.prepare(t, user.ID, p.ID, nil)

	app, err := f.app.Submit(ctx, user.ID, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusSubmitted, app.Status)
	assert.Equal(t, p.ID, app.PropertyID)
	testutil.AssertDecimal(t, "500000000", app.PropertyPrice)
	assert.Equal(t, 15, app.TenorYears)
	assert.True(t, app.MonthlyPayment.IsPositive())
	assert.Len(t, app.Documents, 4)

	for _, doc := range app.Documents {
		_, statErr := os.Stat(doc.StoragePath)
		assert.NoError(t, statErr, doc.Field)
	}
	assert.NotContains(t, app.FormData, "%PDF")

	draft, err := f.svc.Current(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, draft.UserID, "draft is reset after submission")
	attachments, err := f.controller.Attachments(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, attachments)

	_, err = f.app.Submit(ctx, user.ID, "10.0.0.1")
	testutil.AssertAppError(t, err, "DRAFT_SESSION_MISMATCH")

	var audits int64
	f.db.Model(&models.AuditLog{}).Where("action = ? AND resource_id = ?", "SUBMIT_APPLICATION", app.ID).Count(&audits)
	assert.EqualValues(t, 1, audits)
}

func TestApplicationService_SubmitMarried(t *testing.T) {
	f := newApplicationFixture(t, nil)
	user := testutil.CreateTestUser(t, f.db)
	p := testutil.CreateTestProperty(t, f.db)

	f.prepare(t, user.ID, p.ID, wizard.FormData{
		wizard.KeyIsMarried:         true,
		wizard.KeySpouseInformation: map[string]any{"name": "Siti"},
	})

	app, err := f.app.Submit(context.Background(), user.ID, "")
	require.NoError(t, err)
	assert.Len(t, app.Documents, 6)
}

func TestApplicationService_SubmitRejections(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(t *testing.T, f *applicationFixture, userID string)
		code   string
	}{
		{
			name: "missing agreement",
			mutate: func(t *testing.T, f *applicationFixture, userID string) {
				_, err := f.svc.UpdateForm(ctx, userID, wizard.FormData{KeyAgreeDocumentClarify: false})
				require.NoError(t, err)
			},
			code: "AGREEMENT_REQUIRED",
		},
		{
			name: "missing document",
			mutate: func(t *testing.T, f *applicationFixture, userID string) {
				require.NoError(t, f.svc.DetachDocument(ctx, userID, wizard.FieldSalarySlip))
			},
			code: "MISSING_DOCUMENTS",
		},
		{
			name: "spouse documents when married",
			mutate: func(t *testing.T, f *applicationFixture, userID string) {
				_, err := f.svc.UpdateForm(ctx, userID, wizard.FormData{wizard.KeyIsMarried: true})
				require.NoError(t, err)
			},
			code: "MISSING_DOCUMENTS",
		},
		{
			name: "missing tenor",
			mutate: func(t *testing.T, f *applicationFixture, userID string) {
				_, err := f.svc.UpdateForm(ctx, userID, wizard.FormData{KeyTenorYears: nil})
				require.NoError(t, err)
			},
			code: "DRAFT_INCOMPLETE",
		},
		{
			name: "tenor below rate minimum",
			mutate: func(t *testing.T, f *applicationFixture, userID string) {
				_, err := f.svc.UpdateForm(ctx, userID, wizard.FormData{KeyTenorYears: 3.0})
				require.NoError(t, err)
			},
			code: "DRAFT_INCOMPLETE",
		},
		{
			name: "down payment above price",
			mutate: func(t *testing.T, f *applicationFixture, userID string) {
				_, err := f.svc.UpdateForm(ctx, userID, wizard.FormData{KeyDownPayment: "600000000"})
				require.NoError(t, err)
			},
			code: "DRAFT_INCOMPLETE",
		},
		{
			name: "unknown rate",
			mutate: func(t *testing.T, f *applicationFixture, userID string) {
				_, err := f.svc.UpdateForm(ctx, userID, wizard.FormData{KeyRateID: 42.0})
				require.NoError(t, err)
			},
			code: "RATE_NOT_FOUND",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newApplicationFixture(t, nil)
			user := testutil.CreateTestUser(t, f.db)
			p := testutil.CreateTestProperty(t, f.db)
			f.prepare(t, user.ID, p.ID, nil)
			tc.mutate(t, f, user.ID)

			_, err := f.app.Submit(ctx, user.ID, "")
			testutil.AssertAppError(t, err, tc.code)

			draft, err := f.svc.Current(ctx, user.ID)
			require.NoError(t, err)
			assert.NotNil(t, draft.UserID, "a failed submission keeps the draft")

			var count int64
			f.db.Model(&models.LoanApplication{}).Count(&count)
			assert.Zero(t, count)
		})
	}
}

type failingStorage struct {
	inner   storage.DocumentStorage
	failOn  string
	removed []string
}

func (s *failingStorage) Save(ctx context.Context, appID, field, filename string, data []byte) (string, error) {
	if field == s.failOn {
		return "", errors.New("disk full")
	}
	return s.inner.Save(ctx, appID, field, filename, data)
}

func (s *failingStorage) Remove(ctx context.Context, path string) error {
	s.removed = append(s.removed, path)
	return s.inner.Remove(ctx, path)
}

func TestApplicationService_SubmitStorageFailure(t *testing.T) {
	ctx := context.Background()
	docs := &failingStorage{inner: storage.NewLocalStorage(t.TempDir()), failOn: wizard.FieldTaxID}
	f := newApplicationFixture(t, docs)
	user := testutil.CreateTestUser(t, f.db)
	p := testutil.CreateTestProperty(t, f.db)
	f.prepare(t, user.ID, p.ID, nil)

	_, err := f.app.Submit(ctx, user.ID, "")
	testutil.AssertAppError(t, err, "INTERNAL_ERROR")

	assert.NotEmpty(t, docs.removed, "documents saved before the failure are cleaned up")
	var count int64
	f.db.Model(&models.LoanApplication{}).Count(&count)
	assert.Zero(t, count)
	attachments, err := f.controller.Attachments(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, attachments, 4, "attachments survive a failed submission")
}

func TestApplicationService_ListAndGet(t *testing.T) {
	f := newApplicationFixture(t, nil)
	user := testutil.CreateTestUser(t, f.db)
	other := testutil.CreateTestUser(t, f.db)
	p := testutil.CreateTestProperty(t, f.db)

	mine := testutil.CreateTestApplication(t, f.db, user.ID, p.ID)
	testutil.CreateTestApplication(t, f.db, user.ID, p.ID)
	theirs := testutil.CreateTestApplication(t, f.db, other.ID, p.ID)

	resp, err := f.app.ListApplications(user.ID, pagination.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.TotalItems)
	assert.Equal(t, p.Title, resp.Data[0].Property.Title)

	got, err := f.app.GetApplication(user.ID, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, got.ID)

	_, err = f.app.GetApplication(user.ID, theirs.ID)
	testutil.AssertAppError(t, err, "APPLICATION_NOT_FOUND")
}

func TestApplicationService_UpdateStatus(t *testing.T) {
	f := newApplicationFixture(t, nil)
	user := testutil.CreateTestUser(t, f.db)
	p := testutil.CreateTestProperty(t, f.db)
	app := testutil.CreateTestApplication(t, f.db, user.ID, p.ID)

	_, err := f.app.UpdateStatus(app.ID, models.ApplicationStatusApproved, "")
	testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")

	updated, err := f.app.UpdateStatus(app.ID, models.ApplicationStatusInReview, "documents received")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusInReview, updated.Status)

	updated, err = f.app.UpdateStatus(app.ID, models.ApplicationStatusRejected, "income too low")
	require.NoError(t, err)
	assert.Equal(t, "income too low", updated.StatusNote)

	_, err = f.app.UpdateStatus(app.ID, models.ApplicationStatusApproved, "")
	testutil.AssertAppError(t, err, "INVALID_STATUS_TRANSITION")

	_, err = f.app.UpdateStatus("00000000-0000-0000-0000-000000000000", models.ApplicationStatusInReview, "")
	testutil.AssertAppError(t, err, "APPLICATION_NOT_FOUND")

	var audits int64
	f.db.Model(&models.AuditLog{}).Where("action = ?", "UPDATE_APPLICATION_STATUS").Count(&audits)
	assert.EqualValues(t, 2, audits)
}
