package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "kpr/internal/errors"
	"kpr/internal/models"
	"kpr/internal/pagination"
)

// propertyService reads active listings.
type propertyService struct {
	db *gorm.DB
}

// NewPropertyService creates a new PropertyServicer.
func NewPropertyService(db *gorm.DB) PropertyServicer {
	return &propertyService{db: db}
}

// GetProperty returns an active listing by ID.
func (s *propertyService) GetProperty(id int64) (*models.Property, error) {
	var property models.Property
	if err := s.db.Where("id = ? AND is_active = ?", id, true).First(&property).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPropertyNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &property, nil
}

// ListProperties pages through active listings, newest first.
func (s *propertyService) ListProperties(page pagination.PageRequest) (*pagination.PageResponse[models.Property], error) {
	page.Defaults()

	query := s.db.Model(&models.Property{}).Where("is_active = ?", true)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var properties []models.Property
	if err := query.Scopes(pagination.Paginate(page)).Order("id DESC").Find(&properties).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return pagination.NewPageResponse(properties, page, total), nil
}
