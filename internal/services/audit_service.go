package services

import (
	"encoding/json"
	"strings"

	"gorm.io/gorm"

	"kpr/internal/logger"
	"kpr/internal/models"
)

const redactedValue = "[REDACTED]"

// sensitiveAuditKeys never reach the audit table in clear text.
var sensitiveAuditKeys = map[string]struct{}{
	"password":      {},
	"code":          {},
	"otp":           {},
	"token":         {},
	"refresh_token": {},
	"reset_token":   {},
	"nik":           {},
}

// auditService appends entries to the audit_logs table.
type auditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditServicer.
func NewAuditService(db *gorm.DB) AuditServicer {
	return &auditService{db: db}
}

// Log records an audit event. Failures are logged and swallowed so the
// audited operation still succeeds. Events without a user are dropped.
func (s *auditService) Log(userID, action, resourceType, resourceID, ipAddress string, changes map[string]any) {
	log := logger.With("action", action, "resource_type", resourceType, "resource_id", resourceID)
	if userID == "" {
		log.Warnw("audit event without user dropped")
		return
	}

	entry := &models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
		Changes:      encodeChanges(changes),
	}
	if err := s.db.Create(entry).Error; err != nil {
		log.Errorw("failed to create audit log entry", "error", err, "user_id", userID)
	}
}

// encodeChanges renders changes as JSON with sensitive values masked.
func encodeChanges(changes map[string]any) string {
	if len(changes) == 0 {
		return ""
	}
	data, err := json.Marshal(redact(changes))
	if err != nil {
		logger.Get().Errorw("failed to marshal audit log changes", "error", err)
		return "{}"
	}
	return string(data)
}

func redact(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, ok := sensitiveAuditKeys[strings.ToLower(k)]; ok {
			out[k] = redactedValue
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			v = redact(nested)
		}
		out[k] = v
	}
	return out
}
