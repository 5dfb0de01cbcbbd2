package catalog

import "github.com/ziltek/calcombine/internal/models"

// DefaultLabels returns the labels used by the RemScan technical test master copies.
// The two single beam spectrum labels carry a wide run of spaces copied from the
// templates; match is by substring so the exact spacing matters.
func DefaultLabels() []LabelSpec {
	return []LabelSpec{
		{Text: "Client", Offset: Adjacent, Column: models.ColClient},
		{Text: "Country", Offset: Adjacent, Column: models.ColCountry},
		{Text: "Service date", Offset: Adjacent, Column: models.ColServiceDate},
		{Text: "Reason for Service", Offset: Adjacent, Column: models.ColReasonForService},
		{Text: "RemScan Serial #", Offset: Adjacent, Column: models.ColRemScanSerial},
		{Text: "User ID", Offset: Adjacent, Column: models.ColUserID},
		{Text: "Password", Offset: Adjacent, Column: models.ColUserPassword},
		{Text: "Background Cap (Minimum requirement = 4500 @ Gain = 255)", Offset: Adjacent, Column: models.ColBackgroundCap},
		{Text: "Polystyrene P/S Cap (Minimum requirement = 4000 @ Gain = 255)", Offset: Adjacent, Column: models.ColPolystyrenePSCap},
		{Text: "SNR: (1142 - 1042 cm-1) (Recommended requirement = 4500)", Offset: Adjacent, Column: models.ColSNR1142to1042},
		{Text: "SNR: (2600 - 2500 cm-1) ", Offset: Adjacent, Column: models.ColSNR2600to2500},
		{Text: "Centre burst intensity (Interferogram) (Minmum requirement =20,000)", Offset: Adjacent, Column: models.ColCentreBurstIntensity},
		{Text: "Single beam spectrum (Counts: 4200-4500 / Total Counts)x100                  (Minimum requirement =1%)", Offset: Skip, Column: models.ColSingleBeamSpectrum4200},
		// Later template revision spells the requirement with a space.
		{Text: "Single beam spectrum (Counts: 4200-4500 / Total Counts)x100                  (Minimum requirement = 1%)", Offset: Skip, Column: models.ColSingleBeamSpectrum4200},
		{Text: "Single beam spectrum (Counts: 2600-3000 / Total Counts)x100                  (Minimum requirement = 7%)", Offset: Skip, Column: models.ColSingleBeamSpectrum2600},
	}
}

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := New(DefaultLabels())
	if err != nil {
		panic("catalog: built-in labels invalid: " + err.Error())
	}
	return c
}
