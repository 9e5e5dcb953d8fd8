package controllers

import (
	"testing"
	"time"
)

func TestBuildImportColumnIndex(t *testing.T) {
	header := []string{"Student Name", "Roll No", "Class", "Section", "DOB", "Phone", "Admission Number"}
	col := buildImportColumnIndex(header)

	cases := []struct {
		name string
		key  string
		want int
	}{
		{"canonical full name from alias", "full name", 0},
		{"roll number from alias", "roll number", 1},
		{"class kept as-is", "class", 2},
		{"section kept as-is", "section", 3},
		{"date of birth from dob", "date of birth", 4},
		{"mobile from phone", "mobile", 5},
		{"admission no from long form", "admission no", 6},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, ok := col[tc.key]
			if !ok {
				t.Fatalf("key %q not indexed", tc.key)
			}
			if got != tc.want {
				t.Errorf("col[%q] = %d, want %d", tc.key, got, tc.want)
			}
		})
	}
}

func TestParseStudentImportRow(t *testing.T) {
	col := buildImportColumnIndex([]string{"Full Name", "Roll Number", "Class", "Section", "Date of Birth"})

	cases := []struct {
		name    string
		row     []string
		wantErr bool
	}{
		{"complete row", []string{"John Mathew", "12", "Grade 5", "A", "2014-06-01"}, false},
		{"missing full name", []string{"", "12", "Grade 5", "A", ""}, true},
		{"missing class", []string{"John Mathew", "12", "", "A", ""}, true},
		{"missing section", []string{"John Mathew", "12", "Grade 5", "", ""}, true},
		{"bad date of birth", []string{"John Mathew", "12", "Grade 5", "A", "June 1st"}, true},
		{"short row without optionals", []string{"John Mathew", "12", "Grade 5", "A"}, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			parsed, err := parseStudentImportRow(tc.row, col, 2)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if parsed.FullName != "John Mathew" {
				t.Errorf("FullName = %q", parsed.FullName)
			}
			if parsed.ClassRef != "Grade 5" || parsed.SectionName != "A" {
				t.Errorf("placement = %q/%q", parsed.ClassRef, parsed.SectionName)
			}
		})
	}
}

func TestParseImportDate(t *testing.T) {
	cases := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2014-06-01", time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"01/06/2014", time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"1/6/2014", time.Date(2014, 6, 1, 0, 0, 0, 0, time.UTC), true},
		{"not-a-date", time.Time{}, false},
	}
	for _, tc := range cases {
		got, err := parseImportDate(tc.in)
		if tc.ok && err != nil {
			t.Errorf("parseImportDate(%q) error: %v", tc.in, err)
			continue
		}
		if !tc.ok {
			if err == nil {
				t.Errorf("parseImportDate(%q) expected error", tc.in)
			}
			continue
		}
		if !got.Equal(tc.want) {
			t.Errorf("parseImportDate(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestIsImportRowEmpty(t *testing.T) {
	if !isImportRowEmpty([]string{"", "  ", "\t"}) {
		t.Error("whitespace-only row should be empty")
	}
	if isImportRowEmpty([]string{"", "x"}) {
		t.Error("row with a value should not be empty")
	}
}
