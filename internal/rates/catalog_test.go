package rates

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kpr/internal/loan"
)

func TestDefault(t *testing.T) {
	entries, err := Default()
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for i, e := range entries {
		if i > 0 {
			assert.Less(t, entries[i-1].Spec.ID, e.Spec.ID)
		}
		assert.Positive(t, e.Rate.MinimumTenor())
	}

	reg := NewRegistry(entries)
	tiered, ok := reg.Get(3)
	require.True(t, ok)
	tf, ok := tiered.Rate.(loan.TieredFixed)
	require.True(t, ok)
	assert.False(t, tf.Malformed)
	require.Len(t, tf.Tiers, 3)
	assert.Equal(t, "8.0%", loan.FormatRatePercent(tf.Tiers[1].AnnualRatePercent))
}

func TestParse(t *testing.T) {
	t.Run("malformed tiers degrade", func(t *testing.T) {
		entries, err := Parse([]byte(`
rates:
  - id: 1
    title: Broken
    type: tiered-fixed
    interest_rate: "invalid data"
    minimum_tenor: 5
`))
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.True(t, entries[0].Rate.(loan.TieredFixed).Malformed)
	})

	cases := map[string]string{
		"duplicate id": `
rates:
  - {id: 1, title: A, type: single-fixed, interest_rate: 5, minimum_tenor: 5}
  - {id: 1, title: B, type: single-fixed, interest_rate: 6, minimum_tenor: 5}
`,
		"unknown type": `
rates:
  - {id: 1, title: A, type: floating, interest_rate: 5, minimum_tenor: 5}
`,
		"zero minimum tenor": `
rates:
  - {id: 1, title: A, type: single-fixed, interest_rate: 5, minimum_tenor: 0}
`,
		"missing id": `
rates:
  - {title: A, type: single-fixed, interest_rate: 5, minimum_tenor: 5}
`,
		"not yaml": `rates: [`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	entries, err := Load("")
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	path := filepath.Join(t.TempDir(), "rates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
rates:
  - {id: 9, title: Promo, type: single-fixed, interest_rate: 2.99, minimum_tenor: 1}
`), 0o600))
	entries, err = Load(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 9, entries[0].Spec.ID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(nil)
	assert.Equal(t, 0, reg.Len())
	_, ok := reg.Get(1)
	assert.False(t, ok)

	entries, err := Default()
	require.NoError(t, err)
	reg.Replace(entries)
	assert.Equal(t, len(entries), reg.Len())

	list := reg.List()
	list[0] = Entry{}
	first, ok := reg.Get(entries[0].Spec.ID)
	require.True(t, ok)
	assert.Equal(t, entries[0].Spec.Title, first.Spec.Title)
	assert.Equal(t, entries[0].Spec.Title, reg.List()[0].Spec.Title)
}
