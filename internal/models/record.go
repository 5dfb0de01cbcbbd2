// Package models defines core data structures for calibration records and their sources.
package models

import "fmt"

// Canonical column names, in output order.
const (
	ColMKType                 = "MK_Type"
	ColSheet                  = "Sheet"
	ColClient                 = "Client"
	ColCountry                = "Country"
	ColServiceDate            = "Service_date"
	ColReasonForService       = "Reason_for_Service"
	ColRemScanSerial          = "RemScan_Serial"
	ColUserID                 = "User_ID"
	ColUserPassword           = "User_Password"
	ColBackgroundCap          = "Background_Cap"
	ColPolystyrenePSCap       = "Polystyrene_PS_Cap"
	ColSNR1142to1042          = "SNR_1142_1042_cm1"
	ColSNR2600to2500          = "SNR_2600_2500_cm1"
	ColCentreBurstIntensity   = "Centre_burst_intensity"
	ColSingleBeamSpectrum4200 = "Single_beam_spectrum_4200_4500"
	ColSingleBeamSpectrum2600 = "Single_beam_spectrum_2600_3000"
)

const (
	// NotAvailable marks a service date that was found but could not be parsed.
	NotAvailable = "N/A"
	// ServiceDateLayout is the canonical service date format.
	ServiceDateLayout = "2006-01-02"
)

// ColumnKind is the value domain of a canonical column.
type ColumnKind int

const (
	// KindText columns hold free text or nil.
	KindText ColumnKind = iota
	// KindDate columns hold an ISO date, NotAvailable, or nil.
	KindDate
	// KindNumber columns hold a float or nil.
	KindNumber
)

// Column describes one canonical output column.
type Column struct {
	Name string
	Kind ColumnKind
	// DB is the column name used by the record store.
	DB string
}

// Columns is the fixed canonical column order of every record and output table.
var Columns = []Column{
	{ColMKType, KindText, "mk_type"},
	{ColSheet, KindText, "sheet"},
	{ColClient, KindText, "client"},
	{ColCountry, KindText, "country"},
	{ColServiceDate, KindDate, "service_date"},
	{ColReasonForService, KindText, "reason_for_service"},
	{ColRemScanSerial, KindText, "remscan_serial"},
	{ColUserID, KindText, "user_id"},
	{ColUserPassword, KindText, "user_password"},
	{ColBackgroundCap, KindNumber, "background_cap"},
	{ColPolystyrenePSCap, KindNumber, "polystyrene_ps_cap"},
	{ColSNR1142to1042, KindNumber, "snr_1142_1042_cm1"},
	{ColSNR2600to2500, KindNumber, "snr_2600_2500_cm1"},
	{ColCentreBurstIntensity, KindNumber, "centre_burst_intensity"},
	{ColSingleBeamSpectrum4200, KindNumber, "single_beam_spectrum_4200_4500"},
	{ColSingleBeamSpectrum2600, KindNumber, "single_beam_spectrum_2600_3000"},
}

// ColumnNames returns the canonical column names in order.
func ColumnNames() []string {
	names := make([]string, len(Columns))
	for i, c := range Columns {
		names[i] = c.Name
	}
	return names
}

// LookupColumn returns the column descriptor for name.
func LookupColumn(name string) (Column, bool) {
	for _, c := range Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// MeasurementColumns returns the names of the numeric measurement columns.
func MeasurementColumns() []string {
	var names []string
	for _, c := range Columns {
		if c.Kind == KindNumber {
			names = append(names, c.Name)
		}
	}
	return names
}

// Record is one normalized row: the values scraped from a single worksheet.
// A nil field means the value is absent.
type Record struct {
	ID string `json:"id" db:"id"`

	MKType           *string `json:"MK_Type" db:"mk_type"`
	Sheet            *string `json:"Sheet" db:"sheet"`
	Client           *string `json:"Client" db:"client"`
	Country          *string `json:"Country" db:"country"`
	ServiceDate      *string `json:"Service_date" db:"service_date"`
	ReasonForService *string `json:"Reason_for_Service" db:"reason_for_service"`
	RemScanSerial    *string `json:"RemScan_Serial" db:"remscan_serial"`
	UserID           *string `json:"User_ID" db:"user_id"`
	UserPassword     *string `json:"User_Password" db:"user_password"`

	BackgroundCap          *float64 `json:"Background_Cap" db:"background_cap"`
	PolystyrenePSCap       *float64 `json:"Polystyrene_PS_Cap" db:"polystyrene_ps_cap"`
	SNR1142to1042          *float64 `json:"SNR_1142_1042_cm1" db:"snr_1142_1042_cm1"`
	SNR2600to2500          *float64 `json:"SNR_2600_2500_cm1" db:"snr_2600_2500_cm1"`
	CentreBurstIntensity   *float64 `json:"Centre_burst_intensity" db:"centre_burst_intensity"`
	SingleBeamSpectrum4200 *float64 `json:"Single_beam_spectrum_4200_4500" db:"single_beam_spectrum_4200_4500"`
	SingleBeamSpectrum2600 *float64 `json:"Single_beam_spectrum_2600_3000" db:"single_beam_spectrum_2600_3000"`
}

func (r *Record) textSlot(name string) **string {
	switch name {
	case ColMKType:
		return &r.MKType
	case ColSheet:
		return &r.Sheet
	case ColClient:
		return &r.Client
	case ColCountry:
		return &r.Country
	case ColServiceDate:
		return &r.ServiceDate
	case ColReasonForService:
		return &r.ReasonForService
	case ColRemScanSerial:
		return &r.RemScanSerial
	case ColUserID:
		return &r.UserID
	case ColUserPassword:
		return &r.UserPassword
	}
	return nil
}

func (r *Record) numberSlot(name string) **float64 {
	switch name {
	case ColBackgroundCap:
		return &r.BackgroundCap
	case ColPolystyrenePSCap:
		return &r.PolystyrenePSCap
	case ColSNR1142to1042:
		return &r.SNR1142to1042
	case ColSNR2600to2500:
		return &r.SNR2600to2500
	case ColCentreBurstIntensity:
		return &r.CentreBurstIntensity
	case ColSingleBeamSpectrum4200:
		return &r.SingleBeamSpectrum4200
	case ColSingleBeamSpectrum2600:
		return &r.SingleBeamSpectrum2600
	}
	return nil
}

// Text returns the value of a text or date column.
func (r *Record) Text(name string) *string {
	if slot := r.textSlot(name); slot != nil {
		return *slot
	}
	return nil
}

// Number returns the value of a measurement column.
func (r *Record) Number(name string) *float64 {
	if slot := r.numberSlot(name); slot != nil {
		return *slot
	}
	return nil
}

// SetText sets a text or date column. Passing nil clears it.
func (r *Record) SetText(name string, v *string) error {
	slot := r.textSlot(name)
	if slot == nil {
		return fmt.Errorf("not a text column: %q", name)
	}
	*slot = v
	return nil
}

// SetNumber sets a measurement column. Passing nil clears it.
func (r *Record) SetNumber(name string, v *float64) error {
	slot := r.numberSlot(name)
	if slot == nil {
		return fmt.Errorf("not a numeric column: %q", name)
	}
	*slot = v
	return nil
}

// Value returns the column value as string, float64, or nil.
func (r *Record) Value(name string) interface{} {
	if s := r.Text(name); s != nil {
		return *s
	}
	if n := r.Number(name); n != nil {
		return *n
	}
	return nil
}

// Table is an ordered sequence of records, one per processed worksheet.
type Table []Record

// SourceFile is an input workbook and the template family that produced it.
type SourceFile struct {
	Path string `json:"path" yaml:"path"`
	Type string `json:"type" yaml:"type"`
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// FloatPtr returns a pointer to f.
func FloatPtr(f float64) *float64 { return &f }
