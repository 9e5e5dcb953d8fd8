package attendance

import "testing"

func TestCanMark(t *testing.T) {
	section := &SectionInfo{ID: "51", Name: "A", Staff: "S1"}

	tests := []struct {
		name    string
		user    CurrentUser
		section *SectionInfo
		want    bool
	}{
		{
			name:    "admin always allowed",
			user:    CurrentUser{ID: "u9", Role: "Admin"},
			section: section,
			want:    true,
		},
		{
			name:    "superadmin always allowed",
			user:    CurrentUser{ID: "u9", Role: "SuperAdmin"},
			section: section,
			want:    true,
		},
		{
			name:    "admin allowed even without section",
			user:    CurrentUser{ID: "u9", Role: "Admin"},
			section: nil,
			want:    true,
		},
		{
			name:    "staff matching user id",
			user:    CurrentUser{ID: "S1", Role: "Staff"},
			section: section,
			want:    true,
		},
		{
			name:    "staff matching linked staff id",
			user:    CurrentUser{ID: "u7", Role: "Staff", StaffID: "S1"},
			section: section,
			want:    true,
		},
		{
			name:    "unassigned staff denied",
			user:    CurrentUser{ID: "S2", Role: "Staff", StaffID: "S2"},
			section: section,
			want:    false,
		},
		{
			name:    "staff denied without section",
			user:    CurrentUser{ID: "S1", Role: "Staff"},
			section: nil,
			want:    false,
		},
		{
			name:    "unassigned section denies staff",
			user:    CurrentUser{ID: "S1", Role: "Staff"},
			section: &SectionInfo{ID: "51", Name: "A"},
			want:    false,
		},
		{
			name:    "assignment stored as wrapper object",
			user:    CurrentUser{ID: "u7", Role: "Staff", StaffID: "S1"},
			section: &SectionInfo{ID: "51", Name: "A", Staff: map[string]interface{}{"_id": "S1"}},
			want:    true,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := CanMark(tc.user, tc.section); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
