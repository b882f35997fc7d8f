package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
)

func TestNewTeam_CreatorIsOwner(t *testing.T) {
	now := time.Now().UTC()
	team, err := NewTeam("t1", "  Platform  ", "", "u1", now)
	if err != nil {
		t.Fatalf("NewTeam: %v", err)
	}
	if team.Name != "Platform" {
		t.Errorf("Name = %q, want trimmed", team.Name)
	}
	if len(team.Members) != 1 {
		t.Fatalf("members = %d, want 1", len(team.Members))
	}
	if role, ok := team.MemberRole("u1"); !ok || role != RoleOwner {
		t.Errorf("MemberRole(u1) = %q, %v", role, ok)
	}
	if team.HasMember("u2") {
		t.Error("HasMember(u2) should be false")
	}
}

func TestNewTeam_Validation(t *testing.T) {
	testCases := []struct {
		name, teamName, desc, creator string
	}{
		{"short name", "a", "", "u1"},
		{"long name", strings.Repeat("n", MaxNameLen+1), "", "u1"},
		{"long description", "ok", strings.Repeat("d", MaxDescriptionLen+1), "u1"},
		{"no creator", "ok", "", ""},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewTeam("t1", tc.teamName, tc.desc, tc.creator, time.Now())
			if !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
				t.Errorf("err = %v, want INVALID_INPUT", err)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleOwner, RoleAdmin, RoleMember} {
		if !r.Valid() {
			t.Errorf("%q should be valid", r)
		}
	}
	if Role("guest").Valid() {
		t.Error("guest should be invalid")
	}
}
