package models

import "testing"

func TestSourceTypeFromFilename(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"mk1 Technical test Master copy.xlsm", "mk1"},
		{"/data/in/mk2 Technical test Master copy.xlsx", "mk2"},
		{"mk3_visits.xlsx", "mk3"},
		{".xlsx", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SourceTypeFromFilename(tt.name); got != tt.want {
			t.Errorf("SourceTypeFromFilename(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIsWorkbook(t *testing.T) {
	for name, want := range map[string]bool{
		"a.xlsx":      true,
		"B.XLSM":      true,
		"notes.txt":   false,
		"~$a.xlsx":    false,
		"dir/old.xls": false,
		"combine.csv": false,
	} {
		if got := IsWorkbook(name); got != want {
			t.Errorf("IsWorkbook(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRecordAccessors(t *testing.T) {
	var r Record
	if err := r.SetText(ColClient, StringPtr("Acme")); err != nil {
		t.Fatal(err)
	}
	if err := r.SetNumber(ColBackgroundCap, FloatPtr(4500)); err != nil {
		t.Fatal(err)
	}
	if err := r.SetNumber(ColClient, FloatPtr(1)); err == nil {
		t.Error("SetNumber on a text column should fail")
	}
	if err := r.SetText("Nope", nil); err == nil {
		t.Error("SetText on an unknown column should fail")
	}
	if got := r.Value(ColClient); got != "Acme" {
		t.Errorf("Value(Client) = %v", got)
	}
	if got := r.Value(ColBackgroundCap); got != 4500.0 {
		t.Errorf("Value(Background_Cap) = %v", got)
	}
	if got := r.Value(ColCountry); got != nil {
		t.Errorf("Value(Country) = %v, want nil", got)
	}
	if len(MeasurementColumns()) != 7 {
		t.Errorf("MeasurementColumns() = %v", MeasurementColumns())
	}
}
