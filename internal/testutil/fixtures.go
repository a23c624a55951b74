package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"kpr/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain-text password of every fixture user.
const TestPassword = "123Admin!"

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a verified user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a verified user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now()
	user := &models.User{
		FullName:        "Test User",
		PhoneNumber:     "081234567890",
		Email:           email,
		Password:        string(hash),
		EmailVerifiedAt: &now,
		IsActive:        true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateUnverifiedUser creates a user that has not confirmed their email.
func CreateUnverifiedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("email_verified_at", nil).Error; err != nil {
		t.Fatalf("failed to unverify test user: %v", err)
	}
	user.EmailVerifiedAt = nil
	return user
}

// CreateTestProperty creates an active listing priced at 500,000,000.
func CreateTestProperty(t *testing.T, db *gorm.DB) *models.Property {
	t.Helper()
	return CreateTestPropertyWithPrice(t, db, decimal.NewFromInt(500_000_000))
}

// CreateTestPropertyWithPrice creates an active listing with the given price.
func CreateTestPropertyWithPrice(t *testing.T, db *gorm.DB, price decimal.Decimal) *models.Property {
	t.Helper()

	n := nextID()
	p := &models.Property{
		Title:        fmt.Sprintf("Test Residence %d", n),
		Developer:    "Test Developer",
		Cluster:      "Cluster A",
		Location:     "Tangerang Selatan",
		Price:        price,
		LandArea:     90,
		BuildingArea: 72,
		IsActive:     true,
	}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("failed to create test property: %v", err)
	}
	return p
}

// CreateTestApplication creates a submitted application for user and property.
func CreateTestApplication(t *testing.T, db *gorm.DB, userID string, propertyID int64) *models.LoanApplication {
	t.Helper()

	app := &models.LoanApplication{
		UserID:         userID,
		PropertyID:     propertyID,
		RateID:         1,
		Status:         models.ApplicationStatusSubmitted,
		PropertyPrice:  decimal.NewFromInt(500_000_000),
		DownPayment:    decimal.NewFromInt(100_000_000),
		TenorYears:     10,
		MonthlyPayment: decimal.RequireFromString("3958112.07"),
		FormData:       "{}",
		SubmittedAt:    time.Now(),
	}
	if err := db.Create(app).Error; err != nil {
		t.Fatalf("failed to create test application: %v", err)
	}
	return app
}
