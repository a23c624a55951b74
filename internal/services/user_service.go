package services

import (
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	apperrors "kpr/internal/errors"
	"kpr/internal/models"
)

// LoginPolicy controls account lockout after repeated failed logins.
type LoginPolicy struct {
	MaxAttempts  int
	LockDuration time.Duration
}

// DefaultLoginPolicy locks an account for 15 minutes after 5 failures.
func DefaultLoginPolicy() LoginPolicy {
	return LoginPolicy{MaxAttempts: 5, LockDuration: 15 * time.Minute}
}

// userService handles user-related business logic.
type userService struct {
	db     *gorm.DB
	policy LoginPolicy
	now    func() time.Time
}

// NewUserService creates a new UserServicer.
func NewUserService(db *gorm.DB, policy LoginPolicy) UserServicer {
	if policy.MaxAttempts <= 0 {
		policy = DefaultLoginPolicy()
	}
	return &userService{db: db, policy: policy, now: time.Now}
}

// CreateUser registers a new, unverified user
func (s *userService) CreateUser(fullName, phoneNumber, email, password string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "email and password are required")
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.ErrDuplicateEmail
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	user := &models.User{
		FullName:    strings.TrimSpace(fullName),
		PhoneNumber: phoneNumber,
		Email:       email,
		Password:    string(hashedPassword),
		IsActive:    true,
	}
	if err := s.db.Create(user).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return user, nil
}

// GetUserByEmail retrieves an active user by email
func (s *userService) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("email = ? AND is_active = ?", strings.ToLower(strings.TrimSpace(email)), true).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// GetUserByID retrieves a user by ID
func (s *userService) GetUserByID(id string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &user, nil
}

// VerifyPassword checks if the provided password matches the stored hash
func (s *userService) VerifyPassword(user *models.User, password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	return err == nil
}

// AttemptLogin checks credentials and applies the lockout policy. Unknown
// emails and wrong passwords both return ErrInvalidCredentials.
func (s *userService) AttemptLogin(email, password string) (*models.User, error) {
	user, err := s.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if user.LockedUntil != nil && user.LockedUntil.After(now) {
		return nil, apperrors.ErrAccountLocked
	}

	if !s.VerifyPassword(user, password) {
		if err := s.recordFailedLogin(user.ID, now); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil, apperrors.ErrInvalidCredentials
	}

	updates := map[string]any{
		"failed_login_attempts": 0,
		"locked_until":          nil,
		"last_login_at":         now,
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now
	return user, nil
}

// recordFailedLogin increments the counter in the database and locks the
// account once it reaches the policy limit.
func (s *userService) recordFailedLogin(userID string, now time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Update("failed_login_attempts", gorm.Expr("failed_login_attempts + 1")).Error; err != nil {
			return err
		}

		var attempts []int
		if err := tx.Model(&models.User{}).Where("id = ?", userID).Pluck("failed_login_attempts", &attempts).Error; err != nil {
			return err
		}
		if len(attempts) == 0 || attempts[0] < s.policy.MaxAttempts {
			return nil
		}
		return tx.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
			"failed_login_attempts": 0,
			"locked_until":          now.Add(s.policy.LockDuration),
		}).Error
	})
}

// MarkEmailVerified records that the user confirmed their email. Verifying
// twice keeps the first timestamp.
func (s *userService) MarkEmailVerified(userID string) error {
	res := s.db.Model(&models.User{}).
		Where("id = ? AND email_verified_at IS NULL", userID).
		Update("email_verified_at", s.now())
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetUserByID(userID); err != nil {
			return err
		}
	}
	return nil
}

// UpdatePassword replaces the password and revokes the refresh token.
func (s *userService) UpdatePassword(userID, newPassword string) error {
	if newPassword == "" {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "password is required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Updates(map[string]any{
		"password":              string(hashed),
		"refresh_token_hash":    "",
		"failed_login_attempts": 0,
		"locked_until":          nil,
	})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// UpdateProfile changes the contact details. Empty values are left unchanged.
func (s *userService) UpdateProfile(userID, fullName, phoneNumber string) (*models.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if name := strings.TrimSpace(fullName); name != "" {
		updates["full_name"] = name
	}
	if phoneNumber != "" {
		updates["phone_number"] = phoneNumber
	}
	if len(updates) == 0 {
		return user, nil
	}
	if err := s.db.Model(user).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return s.GetUserByID(userID)
}

// StoreRefreshTokenHash saves the SHA-256 hash of the user's current refresh token.
func (s *userService) StoreRefreshTokenHash(userID, tokenHash string) error {
	res := s.db.Model(&models.User{}).Where("id = ?", userID).Update("refresh_token_hash", tokenHash)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrUserNotFound
	}
	return nil
}

// GetRefreshTokenHash returns the stored refresh token hash.
func (s *userService) GetRefreshTokenHash(userID string) (string, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return "", err
	}
	return user.RefreshTokenHash, nil
}
