package services

import (
	"encoding/json"
	"testing"

	"kpr/internal/models"
	"kpr/internal/testutil"
)

func TestAuditService_Log(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	user := testutil.CreateTestUser(t, db)
	svc.Log(user.ID, "RESET_PASSWORD", "user", user.ID, "10.0.0.1", map[string]any{"via": "otp"})
	svc.Log(user.ID, "LOGIN", "user", user.ID, "10.0.0.1", nil)

	var entries []models.AuditLog
	db.Where("user_id = ?", user.ID).Order("created_at, id").Find(&entries)
	if len(entries) != 2 {
		t.Fatalf("expected 2 audit entries, got %d", len(entries))
	}
	if entries[0].Changes != `{"via":"otp"}` {
		t.Errorf("unexpected changes payload %q", entries[0].Changes)
	}
	if entries[1].Changes != "" {
		t.Errorf("nil changes should be stored empty, got %q", entries[1].Changes)
	}
}

func TestAuditService_LogRedactsSensitiveValues(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAuditService(db)

	user := testutil.CreateTestUser(t, db)
	svc.Log(user.ID, "SUBMIT_APPLICATION", "loan_application", "app-1", "", map[string]any{
		"rate_id":  2,
		"Password": "123Admin!",
		"form": map[string]any{
			"nik":       "3174000000000001",
			"full_name": "Budi",
		},
	})

	var entry models.AuditLog
	if err := db.Where("user_id = ?", user.ID).First(&entry).Error; err != nil {
		t.Fatalf("audit entry not stored: %v", err)
	}
	var changes map[string]any
	if err := json.Unmarshal([]byte(entry.Changes), &changes); err != nil {
		t.Fatalf("changes are not JSON: %v", err)
	}
	if changes["Password"] != redactedValue {
		t.Errorf("password should be redacted, got %v", changes["Password"])
	}
	form := changes["form"].(map[string]any)
	if form["nik"] != redactedValue || form["full_name"] != "Budi" {
		t.Errorf("unexpected nested form %v", form)
	}
	if changes["rate_id"] != float64(2) {
		t.Errorf("rate_id should be kept, got %v", changes["rate_id"])
	}
}

func TestAuditService_LogWithoutUserIsDropped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)

	NewAuditService(db).Log("", "LOGIN", "user", "", "10.0.0.1", nil)

	var count int64
	db.Model(&models.AuditLog{}).Count(&count)
	if count != 0 {
		t.Errorf("expected no audit rows, got %d", count)
	}
}
