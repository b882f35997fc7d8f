package domain

import "testing"

func TestUser_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{"ok", User{ID: "u1", Name: "Asha", Email: "asha@example.com"}, false},
		{"missing id", User{Name: "Asha", Email: "asha@example.com"}, true},
		{"blank name", User{ID: "u1", Name: "  ", Email: "asha@example.com"}, true},
		{"bad email", User{ID: "u1", Name: "Asha", Email: "asha"}, true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.user.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Asha@Example.COM "); got != "asha@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
