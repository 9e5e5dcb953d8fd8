package utils

import "testing"

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{name: "superadmin", input: "SuperAdmin", want: true},
		{name: "admin", input: "Admin", want: true},
		{name: "staff", input: "Staff", want: true},
		{name: "student", input: "Student", want: true},
		{name: "lowercase admin", input: "admin", want: false},
		{name: "unknown", input: "Teacher", want: false},
		{name: "empty", input: "", want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidRole(tc.input); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestIsValidFileExtension(t *testing.T) {
	allowed := []string{"jpg", "png", "pdf"}

	tests := []struct {
		name     string
		filename string
		want     bool
	}{
		{name: "allowed jpg", filename: "photo.jpg", want: true},
		{name: "uppercase extension", filename: "scan.PDF", want: true},
		{name: "disallowed", filename: "malware.exe", want: false},
		{name: "no extension", filename: "README", want: false},
		{name: "empty", filename: "", want: false},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := IsValidFileExtension(tc.filename, allowed); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := CheckPassword("s3cret-pass", hash); err != nil {
		t.Fatalf("expected password to match: %v", err)
	}
	if err := CheckPassword("wrong", hash); err == nil {
		t.Fatalf("expected mismatch error")
	}
}
