package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ziltek/calcombine/internal/models"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, len(DefaultLabels()), c.Len())

	skips := 0
	for _, l := range c.Labels() {
		if l.Offset == Skip {
			skips++
		}
	}
	assert.Equal(t, 3, skips)
	assert.Len(t, c.LabelsFor(models.ColSingleBeamSpectrum4200), 2)
	assert.Len(t, c.LabelsFor(models.ColClient), 1)
	assert.Empty(t, c.LabelsFor(models.ColMKType))
	assert.Equal(t, models.ColumnNames(), c.Columns())
}

func TestNew_rejectsBadSpecs(t *testing.T) {
	tests := []struct {
		name  string
		specs []LabelSpec
	}{
		{"empty list", nil},
		{"empty label", []LabelSpec{{Text: "", Column: models.ColClient}}},
		{"duplicate label", []LabelSpec{
			{Text: "Client", Column: models.ColClient},
			{Text: "Client", Column: models.ColCountry},
		}},
		{"unknown column", []LabelSpec{{Text: "Client", Column: "Customer"}}},
		{"source column", []LabelSpec{{Text: "Type", Column: models.ColMKType}}},
		{"bad offset", []LabelSpec{{Text: "Client", Offset: 3, Column: models.ColClient}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.specs)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidCatalog))
		})
	}
}

func TestNew_zeroOffsetDefaultsToAdjacent(t *testing.T) {
	c, err := New([]LabelSpec{{Text: "Client", Column: models.ColClient}})
	require.NoError(t, err)
	assert.Equal(t, Adjacent, c.Labels()[0].Offset)
}

func TestLabels_returnsCopy(t *testing.T) {
	c := Default()
	labels := c.Labels()
	labels[0].Text = "changed"
	assert.Equal(t, "Client", c.Labels()[0].Text)
}

func TestOffsetKind_YAML(t *testing.T) {
	var specs []LabelSpec
	src := `
- text: Client
  column: Client
- text: Spectrum
  offset: skip
  column: Single_beam_spectrum_2600_3000
- text: Country
  offset: 1
  column: Country
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &specs))
	require.Len(t, specs, 3)
	assert.Equal(t, OffsetKind(0), specs[0].Offset)
	assert.Equal(t, Skip, specs[1].Offset)
	assert.Equal(t, Adjacent, specs[2].Offset)

	out, err := yaml.Marshal(LabelSpec{Text: "x", Offset: Skip, Column: models.ColClient})
	require.NoError(t, err)
	assert.Contains(t, string(out), "offset: skip")

	var bad LabelSpec
	assert.Error(t, yaml.Unmarshal([]byte("text: x\noffset: far\n"), &bad))
}
