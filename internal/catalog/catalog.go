// Package catalog holds the immutable label catalog: which label strings to look for
// in a worksheet, where their value sits relative to the label, and which canonical
// column the value lands in.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ziltek/calcombine/internal/models"
	"gopkg.in/yaml.v3"
)

// OffsetKind is the column distance from a label cell to its value cell.
type OffsetKind int

const (
	// Adjacent values sit one column to the right of the label.
	Adjacent OffsetKind = 1
	// Skip values sit two columns to the right of the label.
	Skip OffsetKind = 2
)

// String returns the YAML spelling of k.
func (k OffsetKind) String() string {
	switch k {
	case Adjacent:
		return "adjacent"
	case Skip:
		return "skip"
	}
	return fmt.Sprintf("OffsetKind(%d)", int(k))
}

// MarshalYAML encodes k as "adjacent" or "skip".
func (k OffsetKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// UnmarshalYAML accepts "adjacent", "skip", 1 or 2.
func (k *OffsetKind) UnmarshalYAML(node *yaml.Node) error {
	switch strings.ToLower(strings.TrimSpace(node.Value)) {
	case "adjacent", "1", "":
		*k = Adjacent
	case "skip", "2":
		*k = Skip
	default:
		return fmt.Errorf("line %d: unknown offset %q (want adjacent or skip)", node.Line, node.Value)
	}
	return nil
}

// LabelSpec is one label to search for.
type LabelSpec struct {
	Text   string     `yaml:"text"`
	Offset OffsetKind `yaml:"offset"`
	Column string     `yaml:"column"`
}

// Catalog is the validated, read-only label configuration. Construct it with New or
// Default and share the pointer; it is never mutated after construction.
type Catalog struct {
	labels   []LabelSpec
	byColumn map[string][]LabelSpec
}

// ErrInvalidCatalog is returned by New when the label list is unusable.
var ErrInvalidCatalog = errors.New("invalid label catalog")

// New validates specs and returns a catalog. Labels must be non-empty and unique, and
// every label must target a canonical column other than MK_Type and Sheet (those are
// filled from the source, not the sheet).
func New(specs []LabelSpec) (*Catalog, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no labels", ErrInvalidCatalog)
	}
	c := &Catalog{
		labels:   make([]LabelSpec, 0, len(specs)),
		byColumn: make(map[string][]LabelSpec),
	}
	seen := make(map[string]bool, len(specs))
	for i, s := range specs {
		if s.Text == "" {
			return nil, fmt.Errorf("%w: label %d is empty", ErrInvalidCatalog, i)
		}
		if seen[s.Text] {
			return nil, fmt.Errorf("%w: duplicate label %q", ErrInvalidCatalog, s.Text)
		}
		seen[s.Text] = true
		if s.Offset == 0 {
			s.Offset = Adjacent
		}
		if s.Offset != Adjacent && s.Offset != Skip {
			return nil, fmt.Errorf("%w: label %q has offset %d", ErrInvalidCatalog, s.Text, int(s.Offset))
		}
		if s.Column == models.ColMKType || s.Column == models.ColSheet {
			return nil, fmt.Errorf("%w: label %q cannot target %s", ErrInvalidCatalog, s.Text, s.Column)
		}
		if _, ok := models.LookupColumn(s.Column); !ok {
			return nil, fmt.Errorf("%w: label %q targets unknown column %q", ErrInvalidCatalog, s.Text, s.Column)
		}
		c.labels = append(c.labels, s)
		c.byColumn[s.Column] = append(c.byColumn[s.Column], s)
	}
	return c, nil
}

// Labels returns a copy of the label specs in catalog order.
func (c *Catalog) Labels() []LabelSpec {
	return append([]LabelSpec(nil), c.labels...)
}

// Len returns the number of labels.
func (c *Catalog) Len() int { return len(c.labels) }

// LabelsFor returns the labels that feed column, in catalog order.
func (c *Catalog) LabelsFor(column string) []LabelSpec {
	return append([]LabelSpec(nil), c.byColumn[column]...)
}

// Columns returns the canonical output column order.
func (c *Catalog) Columns() []string {
	return models.ColumnNames()
}
