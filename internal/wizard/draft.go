// Package wizard holds the KPR application wizard: a bounded step machine over
// an accumulating form, the draft's identity binding to a (user, property)
// pair, and the persisted snapshot that never carries document attachments.
package wizard

import (
	"github.com/shopspring/decimal"
)

// MaxStep is the last step index of the wizard.
const MaxStep = 5

// Step indexes.
const (
	StepPersonalInfo = iota
	StepEmployment
	StepDocuments
	StepSpouseInfo
	StepSummary
	StepConfirmation
)

// FormData accumulates the fields of every step.
type FormData map[string]any

// PropertyDetail is the snapshot of the property being financed.
type PropertyDetail struct {
	ID           int64           `json:"id"`
	Title        string          `json:"title"`
	Developer    string          `json:"developer"`
	Cluster      string          `json:"cluster,omitempty"`
	Location     string          `json:"location"`
	Price        decimal.Decimal `json:"price"`
	LandArea     int             `json:"land_area,omitempty"`
	BuildingArea int             `json:"building_area,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
}

// Draft is the in-progress application. The zero value is not ready for use;
// call NewDraft.
type Draft struct {
	CurrentStep int             `json:"current_step"`
	FormData    FormData        `json:"form_data"`
	Property    *PropertyDetail `json:"property"`
	UserID      *string         `json:"user_id"`
	PropertyID  *int64          `json:"property_id"`
}

// NewDraft returns an empty draft at step 0.
func NewDraft() *Draft {
	return &Draft{FormData: FormData{}}
}

// SetCurrentStep jumps to step, clamped to [0, MaxStep].
func (d *Draft) SetCurrentStep(step int) {
	d.CurrentStep = clamp(step, 0, MaxStep)
}

// Next merges stepData into the form, then advances one step. At MaxStep the
// step stays put.
func (d *Draft) Next(stepData FormData) {
	if stepData != nil {
		d.UpdateForm(stepData)
	}
	d.CurrentStep = clamp(d.CurrentStep+1, 0, MaxStep)
}

// Prev goes back one step, stopping at 0.
func (d *Draft) Prev() {
	d.CurrentStep = clamp(d.CurrentStep-1, 0, MaxStep)
}

// UpdateForm shallow-merges data into the form; later keys win.
func (d *Draft) UpdateForm(data FormData) {
	if d.FormData == nil {
		d.FormData = FormData{}
	}
	for k, v := range data {
		d.FormData[k] = v
	}
}

// Reset returns the draft to its initial state, clearing the identity binding.
func (d *Draft) Reset() {
	d.CurrentStep = 0
	d.FormData = FormData{}
	d.Property = nil
	d.UserID = nil
	d.PropertyID = nil
}

// SetProperty stores a copy of p.
func (d *Draft) SetProperty(p PropertyDetail) {
	d.Property = &p
}

func (d *Draft) ClearProperty() {
	d.Property = nil
}

// InitSession binds the draft to a user and property.
func (d *Draft) InitSession(userID string, propertyID int64) {
	d.UserID = &userID
	d.PropertyID = &propertyID
}

// IsValidSession reports whether the draft is bound to exactly this pair.
// An unbound draft matches nothing.
func (d *Draft) IsValidSession(userID string, propertyID int64) bool {
	return d.UserID != nil && d.PropertyID != nil &&
		*d.UserID == userID && *d.PropertyID == propertyID
}

func clamp(n, lo, hi int) int {
	return min(max(n, lo), hi)
}
