package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "kpr/internal/errors"
	"kpr/internal/logger"
	"kpr/internal/middleware"
	"kpr/internal/models"
	"kpr/internal/services"
)

const otpSentMessage = "If the account exists, a verification code has been sent"

// AuthHandler handles registration, email verification, login and password reset.
type AuthHandler struct {
	userService  services.UserServicer
	otpService   services.OTPServicer
	tokens       *middleware.TokenManager
	auditService services.AuditServicer
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(
	userService services.UserServicer,
	otpService services.OTPServicer,
	tokens *middleware.TokenManager,
	auditService services.AuditServicer,
) *AuthHandler {
	return &AuthHandler{
		userService:  userService,
		otpService:   otpService,
		tokens:       tokens,
		auditService: auditService,
	}
}

// RegisterRequest represents the registration request payload
type RegisterRequest struct {
	FullName        string `json:"full_name" binding:"required,min=2,max=100,full_name"`
	PhoneNumber     string `json:"phone_number" binding:"required,phone_id"`
	Email           string `json:"email" binding:"required,email,max=255"`
	Password        string `json:"password" binding:"required,max=128,strong_password"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
	AgreeToTerms    bool   `json:"agree_to_terms" binding:"required"`
}

// VerifyOTPRequest carries an email and the code sent to it.
type VerifyOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,otp_code"`
}

// ResendOTPRequest asks for a fresh code.
type ResendOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Purpose string `json:"purpose" binding:"required,oneof=register reset_password"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the token refresh payload.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// ForgotPasswordRequest starts a password reset.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes a password reset.
type ResetPasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Token           string `json:"token" binding:"required"`
	Password        string `json:"password" binding:"required,max=128,strong_password"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=Password"`
}

// UpdateProfileRequest carries optional profile changes.
type UpdateProfileRequest struct {
	FullName    string `json:"full_name" binding:"omitempty,min=2,max=100,full_name"`
	PhoneNumber string `json:"phone_number" binding:"omitempty,phone_id"`
}

// UserResponse represents the user data in the response
type UserResponse struct {
	ID            string `json:"id"`
	FullName      string `json:"full_name"`
	PhoneNumber   string `json:"phone_number"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
}

// AuthResponse represents the authentication response with tokens
type AuthResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ResetTokenResponse carries the short-lived password reset token.
type ResetTokenResponse struct {
	ResetToken string `json:"reset_token"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:            u.ID,
		FullName:      u.FullName,
		PhoneNumber:   u.PhoneNumber,
		Email:         u.Email,
		EmailVerified: u.IsVerified(),
	}
}

// Register handles user registration
// @Summary     Register a new user
// @Description Create an unverified account and email a 4-digit verification code
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RegisterRequest true "User registration data"
// @Success     201 {object} map[string]interface{} "User registered, verification code sent"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Email already registered"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	user, err := h.userService.CreateUser(req.FullName, req.PhoneNumber, req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.otpService.Issue(c.Request.Context(), services.OTPPurposeRegister, user.Email); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "REGISTER", "user", user.ID, c.ClientIP(), nil)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Verification code sent to " + user.Email,
		"user":    toUserResponse(user),
	})
}

// VerifyEmail handles email verification
// @Summary     Verify email
// @Description Verify the registration code and sign the user in
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body VerifyOTPRequest true "Email and code"
// @Success     200 {object} AuthResponse "Email verified and tokens generated"
// @Failure     400 {object} ErrorResponse "Invalid code"
// @Failure     410 {object} ErrorResponse "Code expired"
// @Router      /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	if err := h.otpService.Verify(c.Request.Context(), services.OTPPurposeRegister, req.Email, req.OTP); err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByEmail(req.Email)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.userService.MarkEmailVerified(user.ID); err != nil {
		respondWithError(c, err)
		return
	}
	user, err = h.userService.GetUserByID(user.ID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(user.ID, "VERIFY_EMAIL", "user", user.ID, c.ClientIP(), nil)
	h.respondWithTokens(c, user)
}

// ResendOTP handles code resend requests
// @Summary     Resend verification code
// @Description Send a new code for registration or password reset, at most once per cooldown
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResendOTPRequest true "Email and purpose"
// @Success     200 {object} MessageResponse "Code sent"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     429 {object} ErrorResponse "Cooldown active"
// @Router      /auth/resend-otp [post]
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	purpose := services.OTPPurpose(req.Purpose)
	user, err := h.userService.GetUserByEmail(req.Email)
	switch {
	case errors.Is(err, apperrors.ErrUserNotFound):
		c.JSON(http.StatusOK, MessageResponse{Message: otpSentMessage})
		return
	case err != nil:
		respondWithError(c, err)
		return
	case purpose == services.OTPPurposeRegister && user.IsVerified():
		c.JSON(http.StatusOK, MessageResponse{Message: otpSentMessage})
		return
	}

	if err := h.otpService.Issue(c.Request.Context(), purpose, user.Email); err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: otpSentMessage})
}

// Login handles user login
// @Summary     Login user
// @Description Authenticate a verified user and get tokens
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body LoginRequest true "User login credentials"
// @Success     200 {object} AuthResponse "User authenticated and tokens generated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid credentials"
// @Failure     403 {object} ErrorResponse "Email not verified"
// @Failure     423 {object} ErrorResponse "Account locked"
// @Router      /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	user, err := h.userService.AttemptLogin(req.Email, req.Password)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if !user.IsVerified() {
		respondWithError(c, apperrors.ErrEmailNotVerified)
		return
	}

	h.auditService.Log(user.ID, "LOGIN", "user", user.ID, c.ClientIP(), nil)
	h.respondWithTokens(c, user)
}

// Refresh handles token rotation
// @Summary     Refresh tokens
// @Description Exchange a refresh token for a new token pair; the old refresh token stops working
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body RefreshRequest true "Refresh token"
// @Success     200 {object} AuthResponse "New tokens"
// @Failure     401 {object} ErrorResponse "Invalid token"
// @Router      /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	claims, err := h.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	stored, err := h.userService.GetRefreshTokenHash(claims.UserID)
	if err != nil || stored == "" || stored != middleware.HashToken(req.RefreshToken) {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	user, err := h.userService.GetUserByID(claims.UserID)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidToken)
		return
	}

	h.respondWithTokens(c, user)
}

// ForgotPassword handles password reset requests
// @Summary     Request password reset
// @Description Email a reset code. The response is the same whether or not the account exists.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ForgotPasswordRequest true "Account email"
// @Success     200 {object} MessageResponse "Request accepted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Router      /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	user, err := h.userService.GetUserByEmail(req.Email)
	if err == nil {
		err = h.otpService.Issue(c.Request.Context(), services.OTPPurposeResetPassword, user.Email)
	}
	switch {
	case err == nil, errors.Is(err, apperrors.ErrUserNotFound), errors.Is(err, apperrors.ErrOTPCooldown):
		c.JSON(http.StatusOK, MessageResponse{Message: otpSentMessage})
	default:
		respondWithError(c, err)
	}
}

// VerifyResetOTP exchanges a reset code for a reset token
// @Summary     Verify password reset code
// @Description Verify the emailed code and return a short-lived reset token
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body VerifyOTPRequest true "Email and code"
// @Success     200 {object} ResetTokenResponse "Reset token"
// @Failure     400 {object} ErrorResponse "Invalid code"
// @Failure     410 {object} ErrorResponse "Code expired"
// @Router      /auth/forgot-password/verify [post]
func (h *AuthHandler) VerifyResetOTP(c *gin.Context) {
	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	if err := h.otpService.Verify(c.Request.Context(), services.OTPPurposeResetPassword, req.Email, req.OTP); err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByEmail(req.Email)
	if err != nil {
		respondWithError(c, apperrors.ErrInvalidOTP)
		return
	}

	token, err := h.tokens.GeneratePasswordResetToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	c.JSON(http.StatusOK, ResetTokenResponse{ResetToken: token})
}

// ResetPassword sets a new password with a reset token
// @Summary     Reset password
// @Description Set a new password using the token from the verify step. Signs out other sessions.
// @Tags        auth
// @Accept      json
// @Produce     json
// @Param       request body ResetPasswordRequest true "Reset data"
// @Success     200 {object} MessageResponse "Password updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid reset token"
// @Router      /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	claims, err := h.tokens.ValidatePasswordResetToken(req.Token)
	if err != nil || !strings.EqualFold(claims.Email, strings.TrimSpace(req.Email)) {
		respondWithError(c, apperrors.ErrInvalidResetToken)
		return
	}
	if err := h.tokens.ConsumePasswordResetToken(c.Request.Context(), claims); err != nil {
		if errors.Is(err, middleware.ErrTokenAlreadyUsed) {
			respondWithError(c, apperrors.ErrInvalidResetToken)
		} else {
			respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		}
		return
	}

	if err := h.userService.UpdatePassword(claims.UserID, req.Password); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(claims.UserID, "RESET_PASSWORD", "user", claims.UserID, c.ClientIP(), nil)
	c.JSON(http.StatusOK, MessageResponse{Message: "Password has been reset"})
}

// GetProfile returns the user's profile
// @Summary     Get user profile
// @Description Get the authenticated user's profile information
// @Tags        user
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} UserResponse "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	user, err := h.userService.GetUserByID(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// UpdateProfile changes the user's name or phone number
// @Summary     Update user profile
// @Tags        user
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body UpdateProfileRequest true "Profile changes"
// @Success     200 {object} UserResponse "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, invalidInput(err))
		return
	}

	user, err := h.userService.UpdateProfile(userID, req.FullName, req.PhoneNumber)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_PROFILE", "user", userID, c.ClientIP(), map[string]any{
		"full_name":    req.FullName,
		"phone_number": req.PhoneNumber,
	})
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}

// respondWithTokens issues a token pair and stores the refresh token hash,
// which revokes any earlier refresh token.
func (h *AuthHandler) respondWithTokens(c *gin.Context, user *models.User) {
	accessToken, err := h.tokens.GenerateAccessToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	refreshToken, err := h.tokens.GenerateRefreshToken(user)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}
	if err := h.userService.StoreRefreshTokenHash(user.ID, middleware.HashToken(refreshToken)); err != nil {
		respondWithError(c, err)
		return
	}

	logger.With("user_id", user.ID).Debugw("tokens issued")
	c.JSON(http.StatusOK, AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(h.tokens.AccessTTL().Seconds()),
		User:         toUserResponse(user),
	})
}
