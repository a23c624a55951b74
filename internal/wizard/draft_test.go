package wizard

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestDraft_Steps(t *testing.T) {
	t.Run("next advances and merges", func(t *testing.T) {
		d := NewDraft()
		d.Next(FormData{"full_name": "Budi", "nik": "3171"})
		d.Next(FormData{"nik": "3172", "company_name": "PT Maju"})

		assert.Equal(t, 2, d.CurrentStep)
		want := FormData{"full_name": "Budi", "nik": "3172", "company_name": "PT Maju"}
		if diff := cmp.Diff(want, d.FormData); diff != "" {
			t.Errorf("form mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("next without data only advances", func(t *testing.T) {
		d := NewDraft()
		d.UpdateForm(FormData{"a": 1})
		d.Next(nil)
		assert.Equal(t, 1, d.CurrentStep)
		assert.Equal(t, FormData{"a": 1}, d.FormData)
	})

	t.Run("next clamps at max step", func(t *testing.T) {
		d := NewDraft()
		d.SetCurrentStep(MaxStep)
		d.Next(FormData{"late": true})
		assert.Equal(t, MaxStep, d.CurrentStep)
		assert.Equal(t, true, d.FormData["late"])
	})

	t.Run("prev clamps at zero", func(t *testing.T) {
		d := NewDraft()
		d.Prev()
		assert.Equal(t, 0, d.CurrentStep)
		d.SetCurrentStep(3)
		d.Prev()
		assert.Equal(t, 2, d.CurrentStep)
	})

	t.Run("set current step clamps", func(t *testing.T) {
		d := NewDraft()
		d.SetCurrentStep(42)
		assert.Equal(t, MaxStep, d.CurrentStep)
		d.SetCurrentStep(-3)
		assert.Equal(t, 0, d.CurrentStep)
	})

	t.Run("update form keeps step", func(t *testing.T) {
		d := NewDraft()
		d.SetCurrentStep(2)
		d.UpdateForm(FormData{"x": "y"})
		assert.Equal(t, 2, d.CurrentStep)
		assert.Equal(t, "y", d.FormData["x"])
	})
}

func TestDraft_Reset(t *testing.T) {
	d := NewDraft()
	d.InitSession("u1", 7)
	d.SetProperty(PropertyDetail{ID: 7, Title: "Rumah Cluster A"})
	d.Next(FormData{"full_name": "Budi"})

	d.Reset()

	assert.Equal(t, 0, d.CurrentStep)
	assert.Empty(t, d.FormData)
	assert.Nil(t, d.Property)
	assert.Nil(t, d.UserID)
	assert.Nil(t, d.PropertyID)
	for _, pair := range []struct {
		user string
		prop int64
	}{{"u1", 7}, {"", 0}, {"u2", 8}} {
		assert.False(t, d.IsValidSession(pair.user, pair.prop))
	}
}

func TestDraft_Session(t *testing.T) {
	d := NewDraft()
	assert.False(t, d.IsValidSession("", 0), "unbound draft matches nothing")

	d.InitSession("u1", 7)
	assert.True(t, d.IsValidSession("u1", 7))
	assert.False(t, d.IsValidSession("u1", 8))
	assert.False(t, d.IsValidSession("u2", 7))
}

func TestDraft_Property(t *testing.T) {
	d := NewDraft()
	p := PropertyDetail{ID: 3, Title: "Griya Asri"}
	d.SetProperty(p)
	p.Title = "changed"
	assert.Equal(t, "Griya Asri", d.Property.Title)

	d.ClearProperty()
	assert.Nil(t, d.Property)
}

func TestRequiredDocuments(t *testing.T) {
	single := RequiredDocuments(FormData{})
	assert.Equal(t, []string{FieldIDCard, FieldTaxID, FieldEmploymentCertificate, FieldSalarySlip}, single)

	married := RequiredDocuments(FormData{KeyIsMarried: true})
	assert.Equal(t, []string{
		FieldIDCard, FieldTaxID, FieldEmploymentCertificate, FieldSalarySlip,
		FieldSpouseIDCard, FieldMarriageCertificate,
	}, married)

	assert.Len(t, RequiredDocuments(FormData{KeyIsMarried: "true"}), 4)
}

func TestShowSpouseSection(t *testing.T) {
	assert.False(t, ShowSpouseSection(FormData{}))
	assert.False(t, ShowSpouseSection(FormData{KeyIsMarried: true}))
	assert.False(t, ShowSpouseSection(FormData{KeySpouseInformation: map[string]any{"full_name": "Siti"}}))
	assert.True(t, ShowSpouseSection(FormData{
		KeyIsMarried:         true,
		KeySpouseInformation: map[string]any{"full_name": "Siti"},
	}))
}
