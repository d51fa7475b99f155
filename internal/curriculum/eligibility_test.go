package curriculum_test

import (
	"reflect"
	"testing"

	"github.com/classkit/planner/internal/curriculum"
)

func cat(name string, eligibility map[string]bool) curriculum.Category {
	return curriculum.Category{ID: name, Name: name, Eligibility: eligibility}
}

func TestIsUnassigned(t *testing.T) {
	tests := []struct {
		name        string
		eligibility map[string]bool
		want        bool
	}{
		{"nil map", nil, true},
		{"empty map", map[string]bool{}, true},
		{
			"legacy default triple",
			map[string]bool{"LKG": true, "UKG": true, "Reception": true},
			true,
		},
		{
			"triple with one false",
			map[string]bool{"LKG": true, "UKG": false, "Reception": true},
			false,
		},
		{
			"triple plus extra key",
			map[string]bool{"LKG": true, "UKG": true, "Reception": true, "Year 1": false},
			false,
		},
		{
			"deliberate single assignment",
			map[string]bool{"Reception": true},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := curriculum.IsUnassigned(tt.eligibility); got != tt.want {
				t.Errorf("IsUnassigned() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEligibleCategories_FiltersByPrimaryKey(t *testing.T) {
	all := []curriculum.Category{
		cat("Singing", map[string]bool{"Reception": true}),
		cat("Percussion", map[string]bool{"Reception": false, "UKG": true}),
		cat("Movement", map[string]bool{"UKG": true}),
	}

	got := curriculum.EligibleCategories("Reception Music", all)
	want := []string{"Singing"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EligibleCategories() = %v, want %v", got, want)
	}
}

func TestEligibleCategories_ExcludesUnassigned(t *testing.T) {
	// Scenario: "Warm-Up" has an empty map and the legacy import wrote the
	// default triple onto "Listening"; neither was deliberately enabled.
	all := []curriculum.Category{
		cat("Warm-Up", map[string]bool{}),
		cat("Listening", map[string]bool{"LKG": true, "UKG": true, "Reception": true}),
		cat("Singing", map[string]bool{"Reception": true}),
	}

	for _, context := range []string{"Reception", "Reception Music", "UKG"} {
		got := curriculum.EligibleCategories(context, all)
		for _, name := range got {
			if name == "Warm-Up" || name == "Listening" {
				t.Errorf("EligibleCategories(%q) offered unassigned category %q", context, name)
			}
		}
	}
}

func TestEligibleCategories_FailOpenOnUnresolvedContext(t *testing.T) {
	all := []curriculum.Category{
		cat("Warm-Up", map[string]bool{}),
		cat("Singing", map[string]bool{"Reception": true}),
		cat("Movement", map[string]bool{"UKG": true}),
	}

	got := curriculum.EligibleCategories("Year 9 Chemistry", all)
	want := []string{"Movement", "Singing", "Warm-Up"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EligibleCategories(unresolved) = %v, want all categories %v", got, want)
	}
}

func TestEligibleCategories_AbbreviationPairs(t *testing.T) {
	tests := []struct {
		name    string
		context string
		saved   map[string]bool
		wantHit bool
	}{
		{
			"long context, abbreviated key",
			"Lower Kindergarten Music",
			map[string]bool{"LKG": true},
			true,
		},
		{
			"abbreviated context, long key",
			"LKG",
			map[string]bool{"Lower Kindergarten": true},
			true,
		},
		{
			"upper pair, long context",
			"Upper Kindergarten Art",
			map[string]bool{"UKG": true},
			true,
		},
		{
			"upper pair, abbreviated context",
			"UKG",
			map[string]bool{"Upper Kindergarten": true},
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			all := []curriculum.Category{cat("Rhythm", tt.saved)}
			got := curriculum.EligibleCategories(tt.context, all)
			hit := len(got) == 1 && got[0] == "Rhythm"
			if hit != tt.wantHit {
				t.Errorf("EligibleCategories(%q, saved=%v) hit = %v, want %v", tt.context, tt.saved, hit, tt.wantHit)
			}
		})
	}
}

func TestEligibleCategories_LowerDoesNotMatchUpper(t *testing.T) {
	all := []curriculum.Category{
		cat("Rhythm", map[string]bool{"Upper Kindergarten": true}),
		cat("Beat", map[string]bool{"Lower Kindergarten": true}),
	}
	got := curriculum.EligibleCategories("LKG", all)
	want := []string{"Beat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EligibleCategories(LKG) = %v, want %v", got, want)
	}
}

func TestEligibleCategories_EmptyResultIsValid(t *testing.T) {
	all := []curriculum.Category{
		cat("Singing", map[string]bool{"Reception": false}),
	}
	got := curriculum.EligibleCategories("Reception", all)
	if len(got) != 0 {
		t.Errorf("EligibleCategories() = %v, want empty set", got)
	}
}

func TestEligibleCategories_OrdersNames(t *testing.T) {
	all := []curriculum.Category{
		cat("percussion", map[string]bool{"Reception": true}),
		cat("Movement", map[string]bool{"Reception": true}),
		cat("singing", map[string]bool{"Reception": true}),
	}
	got := curriculum.EligibleCategories("Reception", all)
	want := []string{"Movement", "percussion", "singing"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("EligibleCategories() order = %v, want %v", got, want)
	}
}
