package summary

import (
	"strings"

	"github.com/yungbote/deptsummary/internal/deptsummary/domain"
)

const (
	genderMale   = "male"
	genderFemale = "female"
)

// GroupByDepartment folds users, in order, into per-department summaries.
// Age ranges are tracked during the same pass, so the result is final.
func GroupByDepartment(users []domain.User) *Groups {
	g := NewGroups()
	for _, u := range users {
		g.Add(u)
	}
	return g
}

// Add folds one user into the summary of its department, creating it on
// first sight.
func (g *Groups) Add(u domain.User) {
	s, created := g.ensure(u.Department())

	switch strings.ToLower(u.Gender) {
	case genderMale:
		s.Male++
	case genderFemale:
		s.Female++
	}

	s.Hair[u.Hair.Color]++

	// Last write wins on a full-name collision.
	s.AddressUser[u.FullName()] = u.Address.PostalCode

	if created {
		s.AgeRange = AgeRange{Min: u.Age, Max: u.Age}
		return
	}
	if u.Age < s.AgeRange.Min {
		s.AgeRange.Min = u.Age
	}
	if u.Age > s.AgeRange.Max {
		s.AgeRange.Max = u.Age
	}
}

// AgeRangeOf returns the min and max age of users, or 0-0 when empty.
func AgeRangeOf(users []domain.User) AgeRange {
	if len(users) == 0 {
		return AgeRange{}
	}
	r := AgeRange{Min: users[0].Age, Max: users[0].Age}
	for _, u := range users[1:] {
		if u.Age < r.Min {
			r.Min = u.Age
		}
		if u.Age > r.Max {
			r.Max = u.Age
		}
	}
	return r
}

// FilterByDepartment returns the users whose department equals department,
// preserving input order.
func FilterByDepartment(users []domain.User, department string) []domain.User {
	var out []domain.User
	for _, u := range users {
		if u.Department() == department {
			out = append(out, u)
		}
	}
	return out
}

// ApplyAgeRanges recomputes every department's range by re-scanning users.
// It costs O(departments * len(users)) and yields the same ranges Add tracks.
func (g *Groups) ApplyAgeRanges(users []domain.User) {
	for _, name := range g.order {
		g.byName[name].AgeRange = AgeRangeOf(FilterByDepartment(users, name))
	}
}
