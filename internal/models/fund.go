// Package models defines data structures for FundFolio
package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// Canonical field names produced by header normalization. Any other header
// still normalizes to some canonical name and is carried in MutualFund.Extra.
const (
	FieldName                   = "name"
	FieldAum                    = "aum"
	FieldSharpeRatio            = "sharpeRatio"
	FieldSortinoRatio           = "sortinoRatio"
	FieldPercentLargecapHolding = "percentLargecapHolding"
	FieldPercentMidcapHolding   = "percentMidcapHolding"
	FieldPercentSmallcapHolding = "percentSmallcapHolding"
	FieldCagr3y                 = "cagr3y"
	FieldExpenseRatio           = "expenseRatio"
)

// FieldKind discriminates the scalar variants of a parsed CSV cell.
type FieldKind int

const (
	FieldNull FieldKind = iota
	FieldNumber
	FieldText
)

// FieldValue is a scalar parsed from one CSV cell: null, number, or text.
type FieldValue struct {
	Kind FieldKind
	Num  float64
	Text string
}

// NullField returns the null FieldValue.
func NullField() FieldValue {
	return FieldValue{Kind: FieldNull}
}

// NumberField returns a numeric FieldValue.
func NumberField(n float64) FieldValue {
	return FieldValue{Kind: FieldNumber, Num: n}
}

// TextField returns a text FieldValue.
func TextField(s string) FieldValue {
	return FieldValue{Kind: FieldText, Text: s}
}

// IsNull reports whether the value is the null variant.
func (v FieldValue) IsNull() bool {
	return v.Kind == FieldNull
}

// Number returns the numeric value and whether the variant is a number.
func (v FieldValue) Number() (float64, bool) {
	return v.Num, v.Kind == FieldNumber
}

// String returns the textual value and whether the variant is text.
func (v FieldValue) String() (string, bool) {
	return v.Text, v.Kind == FieldText
}

// MarshalJSON renders the value as a native JSON scalar.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case FieldNumber:
		return json.Marshal(v.Num)
	case FieldText:
		return json.Marshal(v.Text)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a JSON scalar: null, number, or string.
// Any other shape degrades to its textual rendering.
func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = NullField()
	case float64:
		*v = NumberField(t)
	case string:
		*v = TextField(t)
	case bool:
		*v = TextField(strconv.FormatBool(t))
	default:
		*v = TextField(fmt.Sprintf("%v", t))
	}
	return nil
}

// FundRecord is a partial per-source record: canonical field name to value.
// Produced by the ingestion pipeline and discarded after reconciliation.
type FundRecord map[string]FieldValue

// Name returns the record's fund name, or "" when absent or non-text.
func (r FundRecord) Name() string {
	s, _ := r[FieldName].String()
	return s
}

// MutualFund is the merged canonical fund entity. Well-known numeric metrics
// are typed optional fields; anything else the sheets report lands in Extra
// keyed by its canonical name. A nil metric means "not reported" — never zero.
type MutualFund struct {
	ID   string
	Name string

	Aum                    *float64
	SharpeRatio            *float64
	SortinoRatio           *float64
	PercentLargecapHolding *float64
	PercentMidcapHolding   *float64
	PercentSmallcapHolding *float64
	Cagr3y                 *float64
	ExpenseRatio           *float64

	Extra map[string]FieldValue
}

// knownNumericFields maps canonical names to their typed field accessors.
func (f *MutualFund) knownNumericFields() map[string]**float64 {
	return map[string]**float64{
		FieldAum:                    &f.Aum,
		FieldSharpeRatio:            &f.SharpeRatio,
		FieldSortinoRatio:           &f.SortinoRatio,
		FieldPercentLargecapHolding: &f.PercentLargecapHolding,
		FieldPercentMidcapHolding:   &f.PercentMidcapHolding,
		FieldPercentSmallcapHolding: &f.PercentSmallcapHolding,
		FieldCagr3y:                 &f.Cagr3y,
		FieldExpenseRatio:           &f.ExpenseRatio,
	}
}

// SetField assigns a canonical field on the fund. Numeric values land on the
// typed field when the name is well-known; everything else goes to Extra.
func (f *MutualFund) SetField(name string, value FieldValue) {
	if name == FieldName {
		if s, ok := value.String(); ok {
			f.Name = s
		}
		return
	}
	if slot, ok := f.knownNumericFields()[name]; ok {
		if n, isNum := value.Number(); isNum {
			v := n
			*slot = &v
			return
		}
		// Non-numeric value for a numeric field: null clears, text falls through to Extra.
		if value.IsNull() {
			*slot = nil
			return
		}
	}
	if f.Extra == nil {
		f.Extra = make(map[string]FieldValue)
	}
	f.Extra[name] = value
}

// Field retrieves a canonical field, checking typed fields before Extra.
// The second return is false when the field was never reported.
func (f *MutualFund) Field(name string) (FieldValue, bool) {
	if name == FieldName {
		return TextField(f.Name), f.Name != ""
	}
	if slot, ok := f.knownNumericFields()[name]; ok && *slot != nil {
		return NumberField(**slot), true
	}
	v, ok := f.Extra[name]
	return v, ok
}

// MarshalJSON renders the fund as a flat object: id, name, present metrics,
// and extra fields, matching the sheet-derived document shape.
func (f MutualFund) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.asMap())
}

func (f MutualFund) asMap() map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	put := func(key string, v interface{}) {
		b, err := json.Marshal(v)
		if err != nil {
			return
		}
		out[key] = b
	}

	put("id", f.ID)
	put(FieldName, f.Name)

	ff := f
	for name, slot := range ff.knownNumericFields() {
		if *slot != nil {
			put(name, **slot)
		}
	}

	// Deterministic handling of extras; map iteration order is irrelevant
	// because keys are distinct, but sort anyway for stable test fixtures.
	keys := make([]string, 0, len(f.Extra))
	for k := range f.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		put(k, f.Extra[k])
	}

	return out
}

// UnmarshalJSON parses a flat fund object back into typed fields plus Extra.
func (f *MutualFund) UnmarshalJSON(data []byte) error {
	var raw map[string]FieldValue
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*f = MutualFund{}
	for key, value := range raw {
		switch key {
		case "id":
			if s, ok := value.String(); ok {
				f.ID = s
			}
		default:
			f.SetField(key, value)
		}
	}
	return nil
}
