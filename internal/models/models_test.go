package models

import "testing"

func TestUserIsAdmin(t *testing.T) {
	cases := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RoleUser, false},
		{"", false},
		{"Admin", false},
	}
	for _, tc := range cases {
		if got := (User{Role: tc.role}).IsAdmin(); got != tc.want {
			t.Errorf("role %q: expected %v, got %v", tc.role, tc.want, got)
		}
	}
}
