package attendance

import (
	"reflect"
	"testing"
)

func directory() ([]StudentInfo, []ClassInfo) {
	classes := []ClassInfo{
		{
			ID:   "5",
			Name: "Grade 5",
			Sections: []SectionInfo{
				{ID: "51", Name: "A", Staff: "S1"},
				{ID: "52", Name: "B", Staff: "S2"},
			},
		},
		{
			ID:   "6",
			Name: "Grade 6",
			Sections: []SectionInfo{
				{Name: "A"}, // legacy section without id
			},
		},
	}
	students := []StudentInfo{
		{ID: "john", FullName: "John", Class: "5", Section: "51"},
		{ID: "mary", FullName: "Mary", Class: "5", SectionName: "A"},
		{ID: "omar", FullName: "Omar", Class: "5", Section: "52"},
		{ID: "lena", FullName: "Lena", Class: "6", SectionName: "A"},
		{ID: "noel", FullName: "Noel", Class: "6"}, // no section assignment at all
		{ID: "raj", FullName: "Raj", Class: "5", Section: map[string]interface{}{"$oid": "51"}},
	}
	return students, classes
}

func TestResolveRosterByID(t *testing.T) {
	students, classes := directory()

	roster := ResolveRoster("5", "51", students, classes)
	if roster.Section == nil || roster.Section.Name != "A" {
		t.Fatalf("expected section A, got %+v", roster.Section)
	}

	want := []string{"john", "mary", "raj"}
	got := make([]string, 0, len(roster.Students))
	for _, s := range roster.Students {
		got = append(got, s.StudentID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected roster %v, got %v", want, got)
	}
}

func TestResolveRosterByName(t *testing.T) {
	students, classes := directory()

	roster := ResolveRoster("5", "A", students, classes)
	if roster.Section == nil || roster.Section.ID != "51" {
		t.Fatalf("expected section id 51, got %+v", roster.Section)
	}
	// Name key resolves the same section, so id-referenced students still match.
	want := []string{"john", "mary", "raj"}
	got := make([]string, 0, len(roster.Students))
	for _, s := range roster.Students {
		got = append(got, s.StudentID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected roster %v, got %v", want, got)
	}
}

func TestResolveRosterIDPrecedence(t *testing.T) {
	// A section whose id collides with another section's name: id match wins.
	classes := []ClassInfo{
		{
			ID: "1",
			Sections: []SectionInfo{
				{ID: "A", Name: "Alpha"},
				{ID: "2", Name: "A"},
			},
		},
	}
	students := []StudentInfo{
		{ID: "s1", Class: "1", Section: "A"},
	}
	roster := ResolveRoster("1", "A", students, classes)
	if roster.Section == nil || roster.Section.Name != "Alpha" {
		t.Fatalf("expected id match (Alpha), got %+v", roster.Section)
	}
	if len(roster.Students) != 1 {
		t.Fatalf("expected 1 student, got %d", len(roster.Students))
	}
}

func TestResolveRosterNoMatch(t *testing.T) {
	students, classes := directory()

	tests := []struct {
		name       string
		classID    string
		sectionKey string
	}{
		{name: "unknown class", classID: "99", sectionKey: "A"},
		{name: "unknown section", classID: "5", sectionKey: "Z"},
		{name: "empty section key", classID: "5", sectionKey: ""},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			roster := ResolveRoster(tc.classID, tc.sectionKey, students, classes)
			if roster.Section != nil {
				t.Fatalf("expected nil section, got %+v", roster.Section)
			}
			if len(roster.Students) != 0 {
				t.Fatalf("expected empty roster, got %d students", len(roster.Students))
			}
		})
	}
}

func TestResolveRosterIdempotent(t *testing.T) {
	students, classes := directory()

	first := ResolveRoster("5", "A", students, classes)
	second := ResolveRoster("5", "A", students, classes)
	if !reflect.DeepEqual(first.Students, second.Students) {
		t.Fatalf("resolution not idempotent: %v vs %v", first.Students, second.Students)
	}
}

func TestResolveRosterLegacySectionWithoutID(t *testing.T) {
	students, classes := directory()

	// Grade 6's only section has no id; a student with no section reference
	// and no denormalized name must not slip in through the empty id.
	roster := ResolveRoster("6", "A", students, classes)
	if roster.Section == nil || roster.Section.Name != "A" {
		t.Fatalf("expected legacy section A, got %+v", roster.Section)
	}
	want := []string{"lena"}
	got := make([]string, 0, len(roster.Students))
	for _, s := range roster.Students {
		got = append(got, s.StudentID)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected roster %v, got %v", want, got)
	}
}

func TestResolveRosterExcludesOtherSections(t *testing.T) {
	students, classes := directory()

	roster := ResolveRoster("5", "B", students, classes)
	if len(roster.Students) != 1 || roster.Students[0].StudentID != "omar" {
		t.Fatalf("expected only omar, got %+v", roster.Students)
	}
}
