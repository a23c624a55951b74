package services

import (
	"context"
	"errors"

	apperrors "kpr/internal/errors"
	"kpr/internal/logger"
	"kpr/internal/metrics"
	"kpr/internal/models"
	"kpr/internal/wizard"
)

// wizardService exposes the draft controller with catalog lookups and
// AppError mapping.
type wizardService struct {
	controller       *wizard.Controller
	properties       PropertyServicer
	maxDocumentBytes int64
}

// NewWizardService creates a new WizardServicer.
func NewWizardService(controller *wizard.Controller, properties PropertyServicer, maxDocumentBytes int64) WizardServicer {
	return &wizardService{controller: controller, properties: properties, maxDocumentBytes: maxDocumentBytes}
}

// Enter binds the user's draft to a property. A draft left over from another
// user or property is discarded first.
func (s *wizardService) Enter(ctx context.Context, userID string, propertyID int64) (*EnterResult, error) {
	property, err := s.properties.GetProperty(propertyID)
	if err != nil {
		return nil, err
	}

	draft, discarded, err := s.controller.Enter(ctx, userID, PropertyDetailOf(property))
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	metrics.WizardTransitions.WithLabelValues("enter").Inc()
	if discarded {
		metrics.DraftsDiscarded.Inc()
		logger.Get().Infow("stale draft discarded", "user_id", userID, "property_id", propertyID)
	}
	return &EnterResult{Draft: draft, Discarded: discarded}, nil
}

func (s *wizardService) Current(ctx context.Context, userID string) (*wizard.Draft, error) {
	d, err := s.controller.Current(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return d, nil
}

func (s *wizardService) Next(ctx context.Context, userID string, stepData wizard.FormData) (*wizard.Draft, error) {
	return s.transition("next", func() (*wizard.Draft, error) { return s.controller.Next(ctx, userID, stepData) })
}

func (s *wizardService) Prev(ctx context.Context, userID string) (*wizard.Draft, error) {
	return s.transition("prev", func() (*wizard.Draft, error) { return s.controller.Prev(ctx, userID) })
}

func (s *wizardService) UpdateForm(ctx context.Context, userID string, data wizard.FormData) (*wizard.Draft, error) {
	return s.transition("update", func() (*wizard.Draft, error) { return s.controller.UpdateForm(ctx, userID, data) })
}

func (s *wizardService) SetStep(ctx context.Context, userID string, step int) (*wizard.Draft, error) {
	return s.transition("set_step", func() (*wizard.Draft, error) { return s.controller.SetCurrentStep(ctx, userID, step) })
}

func (s *wizardService) Reset(ctx context.Context, userID string) (*wizard.Draft, error) {
	return s.transition("reset", func() (*wizard.Draft, error) { return s.controller.Reset(ctx, userID) })
}

// AttachDocument validates and holds one upload for the bound draft.
func (s *wizardService) AttachDocument(ctx context.Context, userID string, a wizard.Attachment) error {
	err := s.controller.Attach(ctx, userID, a, s.maxDocumentBytes)
	switch {
	case err == nil:
		metrics.WizardTransitions.WithLabelValues("attach").Inc()
		return nil
	case errors.Is(err, wizard.ErrNoSession):
		return apperrors.WithMessage(apperrors.ErrDraftSessionMismatch, "Start an application for a property before uploading documents")
	case errors.Is(err, wizard.ErrUnknownDocumentField),
		errors.Is(err, wizard.ErrUnsupportedContentType),
		errors.Is(err, wizard.ErrDocumentTooLarge),
		errors.Is(err, wizard.ErrEmptyDocument):
		return apperrors.WithMessage(apperrors.ErrInvalidDocument, err.Error())
	default:
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// DetachDocument drops one upload.
func (s *wizardService) DetachDocument(_ context.Context, userID, field string) error {
	if !wizard.IsAttachmentField(field) {
		return apperrors.WithMessage(apperrors.ErrInvalidDocument, "unknown document field "+field)
	}
	s.controller.Detach(userID, field)
	metrics.WizardTransitions.WithLabelValues("detach").Inc()
	return nil
}

// Documents compares the uploads against what the current form requires.
func (s *wizardService) Documents(ctx context.Context, userID string) (*DocumentStatus, error) {
	d, err := s.Current(ctx, userID)
	if err != nil {
		return nil, err
	}

	attachments, err := s.controller.Attachments(ctx, userID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	set := wizard.NewAttachmentSet()
	uploaded := []string{}
	for _, a := range attachments {
		set.Put(a)
		uploaded = append(uploaded, a.Field)
	}
	required := wizard.RequiredDocuments(d.FormData)
	missing := set.Missing(required)
	if missing == nil {
		missing = []string{}
	}
	return &DocumentStatus{Required: required, Uploaded: uploaded, Missing: missing}, nil
}

func (s *wizardService) transition(action string, fn func() (*wizard.Draft, error)) (*wizard.Draft, error) {
	d, err := fn()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	metrics.WizardTransitions.WithLabelValues(action).Inc()
	return d, nil
}

// PropertyDetailOf snapshots a listing for the draft.
func PropertyDetailOf(p *models.Property) wizard.PropertyDetail {
	return wizard.PropertyDetail{
		ID:           p.ID,
		Title:        p.Title,
		Developer:    p.Developer,
		Cluster:      p.Cluster,
		Location:     p.Location,
		Price:        p.Price,
		LandArea:     p.LandArea,
		BuildingArea: p.BuildingArea,
		ImageURL:     p.ImageURL,
	}
}
