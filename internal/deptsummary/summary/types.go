package summary

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// AgeRange is the inclusive [Min, Max] of member ages. It encodes as the
// string "min-max"; the zero value is "0-0".
type AgeRange struct {
	Min float64
	Max float64
}

func (r AgeRange) String() string {
	return formatAge(r.Min) + "-" + formatAge(r.Max)
}

func (r AgeRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

func (r *AgeRange) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseAgeRange(s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

// ParseAgeRange reads the "min-max" form, including negative bounds such as "-3--1".
func ParseAgeRange(s string) (AgeRange, error) {
	s = strings.TrimSpace(s)
	for i := 1; i < len(s); i++ {
		if s[i] != '-' {
			continue
		}
		lo, err := strconv.ParseFloat(s[:i], 64)
		if err != nil {
			continue
		}
		hi, err := strconv.ParseFloat(s[i+1:], 64)
		if err != nil {
			continue
		}
		return AgeRange{Min: lo, Max: hi}, nil
	}
	return AgeRange{}, fmt.Errorf("invalid age range %q", s)
}

func formatAge(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DepartmentSummary aggregates every user of one department.
type DepartmentSummary struct {
	Male        int               `json:"male"`
	Female      int               `json:"female"`
	AgeRange    AgeRange          `json:"ageRange"`
	Hair        map[string]int    `json:"hair"`
	AddressUser map[string]string `json:"addressUser"`
}

func newDepartmentSummary() *DepartmentSummary {
	return &DepartmentSummary{
		Hair:        map[string]int{},
		AddressUser: map[string]string{},
	}
}

// Members is the number of users folded into the summary. Every user adds
// exactly one hair tally, so this is the histogram total.
func (s *DepartmentSummary) Members() int {
	n := 0
	for _, c := range s.Hair {
		n += c
	}
	return n
}

// Groups maps department name to its summary. Iteration and JSON encoding
// follow the order in which departments were first seen.
type Groups struct {
	order  []string
	byName map[string]*DepartmentSummary
}

func NewGroups() *Groups {
	return &Groups{byName: map[string]*DepartmentSummary{}}
}

func (g *Groups) Len() int { return len(g.order) }

// Departments returns the department names in first-seen order.
func (g *Groups) Departments() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

func (g *Groups) Get(department string) (*DepartmentSummary, bool) {
	s, ok := g.byName[department]
	return s, ok
}

// Each calls fn for every department in first-seen order.
func (g *Groups) Each(fn func(department string, s *DepartmentSummary)) {
	for _, name := range g.order {
		fn(name, g.byName[name])
	}
}

func (g *Groups) ensure(department string) (*DepartmentSummary, bool) {
	if s, ok := g.byName[department]; ok {
		return s, false
	}
	s := newDepartmentSummary()
	g.byName[department] = s
	g.order = append(g.order, department)
	return s, true
}

func (g *Groups) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(g.byName[name])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (g *Groups) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("groups: expected object, got %v", tok)
	}
	out := NewGroups()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("groups: expected department name, got %v", tok)
		}
		s, _ := out.ensure(name)
		if err := dec.Decode(s); err != nil {
			return fmt.Errorf("groups: department %q: %w", name, err)
		}
		if s.Hair == nil {
			s.Hair = map[string]int{}
		}
		if s.AddressUser == nil {
			s.AddressUser = map[string]string{}
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*g = *out
	return nil
}
