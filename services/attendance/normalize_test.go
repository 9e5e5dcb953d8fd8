package attendance

import "testing"

func TestExtractID(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{name: "nil", input: nil, want: ""},
		{name: "plain string", input: "66f1a2b3", want: "66f1a2b3"},
		{name: "numeric", input: 42, want: "42"},
		{name: "json number", input: float64(7), want: "7"},
		{name: "oid wrapper", input: map[string]interface{}{"$oid": "abc123"}, want: "abc123"},
		{name: "underscore id wrapper", input: map[string]interface{}{"_id": "def456"}, want: "def456"},
		{name: "id wrapper", input: map[string]interface{}{"id": 9}, want: "9"},
		{name: "nested wrapper", input: map[string]interface{}{"_id": map[string]interface{}{"$oid": "xyz"}}, want: "xyz"},
		{name: "empty map", input: map[string]interface{}{}, want: ""},
		{name: "nil string pointer", input: (*string)(nil), want: ""},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractID(tc.input); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
