package wizard

import (
	"errors"
	"fmt"
	"slices"
	"sort"
)

// Document fields collected by the upload step.
const (
	FieldIDCard                = "id_card"
	FieldTaxID                 = "tax_id"
	FieldEmploymentCertificate = "employment_certificate"
	FieldSalarySlip            = "salary_slip"
	FieldSpouseIDCard          = "spouse_id_card"
	FieldMarriageCertificate   = "marriage_certificate"
)

// Form keys that drive branching.
const (
	KeyIsMarried         = "is_married"
	KeySpouseInformation = "spouse_information"
)

var (
	baseDocuments   = []string{FieldIDCard, FieldTaxID, FieldEmploymentCertificate, FieldSalarySlip}
	spouseDocuments = []string{FieldSpouseIDCard, FieldMarriageCertificate}
)

// Allowed upload content types.
var allowedContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"application/pdf": true,
}

var (
	ErrUnknownDocumentField   = errors.New("unknown document field")
	ErrUnsupportedContentType = errors.New("document must be a JPEG, PNG or PDF")
	ErrDocumentTooLarge       = errors.New("document exceeds the size limit")
	ErrEmptyDocument          = errors.New("document is empty")
)

// AttachmentFields lists every document field, spouse documents included.
func AttachmentFields() []string {
	return slices.Concat(baseDocuments, spouseDocuments)
}

// IsAttachmentField reports whether name is a document field.
func IsAttachmentField(name string) bool {
	return slices.Contains(baseDocuments, name) || slices.Contains(spouseDocuments, name)
}

// IsMarried reads the is_married flag. Only a boolean true counts.
func IsMarried(form FormData) bool {
	married, _ := form[KeyIsMarried].(bool)
	return married
}

// RequiredDocuments returns the document fields the upload step must collect.
func RequiredDocuments(form FormData) []string {
	if IsMarried(form) {
		return slices.Concat(baseDocuments, spouseDocuments)
	}
	return slices.Clone(baseDocuments)
}

// ShowSpouseSection reports whether the summary renders spouse information.
func ShowSpouseSection(form FormData) bool {
	if !IsMarried(form) {
		return false
	}
	info, ok := form[KeySpouseInformation]
	return ok && info != nil
}

// Attachment is an uploaded document held in memory until submission.
type Attachment struct {
	Field       string `json:"field"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

// Validate checks field, type and size. maxBytes <= 0 disables the size check.
func (a Attachment) Validate(maxBytes int64) error {
	if !IsAttachmentField(a.Field) {
		return fmt.Errorf("%w: %q", ErrUnknownDocumentField, a.Field)
	}
	if !allowedContentTypes[a.ContentType] {
		return fmt.Errorf("%w: got %s", ErrUnsupportedContentType, a.ContentType)
	}
	if len(a.Data) == 0 {
		return ErrEmptyDocument
	}
	if maxBytes > 0 && int64(len(a.Data)) >= maxBytes {
		return fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, len(a.Data))
	}
	return nil
}

// AttachmentSet holds at most one attachment per field. It is not safe for
// concurrent use; Controller serializes access.
type AttachmentSet struct {
	items map[string]Attachment
}

func NewAttachmentSet() *AttachmentSet {
	return &AttachmentSet{items: make(map[string]Attachment)}
}

// Put stores a, replacing any previous upload for the same field.
func (s *AttachmentSet) Put(a Attachment) {
	s.items[a.Field] = a
}

func (s *AttachmentSet) Get(field string) (Attachment, bool) {
	a, ok := s.items[field]
	return a, ok
}

func (s *AttachmentSet) Remove(field string) {
	delete(s.items, field)
}

func (s *AttachmentSet) Len() int { return len(s.items) }

// Missing returns the required fields that have no attachment, in order.
func (s *AttachmentSet) Missing(required []string) []string {
	var missing []string
	for _, field := range required {
		if _, ok := s.items[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}

// List returns the attachments sorted by field name.
func (s *AttachmentSet) List() []Attachment {
	out := make([]Attachment, 0, len(s.items))
	for _, a := range s.items {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
