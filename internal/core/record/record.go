// Package record defines the tenant-scoped fact row the engine filters,
// groups and lists
package record

import (
	"math"
	"strings"
	"time"
)

// Field names with fixed meaning on every entity kind
const (
	FieldID        = "id"
	FieldParentKey = "parent_key"

	// CustomPrefix marks free-form custom fields, i.e. customfield_10020
	CustomPrefix = "customfield_"
)

// Record is one fact row of an entity kind
// a field absent from every map is null
type Record struct {
	ID        string               `json:"id"`
	Tenant    string               `json:"-"`
	Kind      string               `json:"kind,omitempty"`
	ParentKey string               `json:"parent_key,omitempty"`
	Strings   map[string]string    `json:"strings,omitempty"`
	Lists     map[string][]string  `json:"lists,omitempty"`
	Numbers   map[string]float64   `json:"numbers,omitempty"`
	Times     map[string]time.Time `json:"times,omitempty"`
	Custom    map[string]string    `json:"custom,omitempty"`
}

// New returns an empty record of kind with id
func New(kind, id string) *Record {
	return &Record{ID: id, Kind: kind}
}

// SetString sets a categorical field
func (r *Record) SetString(field, v string) *Record {
	if r.Strings == nil {
		r.Strings = map[string]string{}
	}
	r.Strings[field] = v
	return r
}

// SetList sets a multi-valued categorical field
func (r *Record) SetList(field string, v ...string) *Record {
	if r.Lists == nil {
		r.Lists = map[string][]string{}
	}
	r.Lists[field] = v
	return r
}

// SetNumber sets a numeric field
func (r *Record) SetNumber(field string, v float64) *Record {
	if r.Numbers == nil {
		r.Numbers = map[string]float64{}
	}
	r.Numbers[field] = v
	return r
}

// SetTime sets a timestamp field, stored in UTC
func (r *Record) SetTime(field string, v time.Time) *Record {
	if r.Times == nil {
		r.Times = map[string]time.Time{}
	}
	r.Times[field] = v.UTC()
	return r
}

// SetCustom sets a custom field by its full field id
func (r *Record) SetCustom(field, v string) *Record {
	if r.Custom == nil {
		r.Custom = map[string]string{}
	}
	r.Custom[field] = v
	return r
}

// Values returns the string values of field, nil when null
func (r *Record) Values(field string) []string {
	switch field {
	case FieldID:
		return nonEmpty(r.ID)
	case FieldParentKey:
		return nonEmpty(r.ParentKey)
	}
	if strings.HasPrefix(field, CustomPrefix) {
		if v, ok := r.Custom[field]; ok {
			return []string{v}
		}
		return nil
	}
	if v, ok := r.Strings[field]; ok {
		return []string{v}
	}
	if v, ok := r.Lists[field]; ok && len(v) > 0 {
		return v
	}
	return nil
}

// Value returns the single string value of field
func (r *Record) Value(field string) (string, bool) {
	vs := r.Values(field)
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// Number returns a numeric field, or a time field as unix seconds
func (r *Record) Number(field string) (float64, bool) {
	if v, ok := r.Numbers[field]; ok {
		return v, true
	}
	if t, ok := r.Times[field]; ok {
		return UnixSeconds(t), true
	}
	return 0, false
}

// Time returns a timestamp field
func (r *Record) Time(field string) (time.Time, bool) {
	t, ok := r.Times[field]
	return t, ok
}

// UnixSeconds converts t to fractional unix seconds
func UnixSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/1e9
}

// FromUnixSeconds is the inverse of UnixSeconds at microsecond precision
func FromUnixSeconds(s float64) time.Time {
	return time.UnixMicro(int64(math.Round(s * 1e6))).UTC()
}

func nonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	return []string{s}
}
