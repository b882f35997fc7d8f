package service

import (
	"context"
	"sync"
	"testing"

	"github.com/Piyush-Singh-Chauhan/team-board/internal/db"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/platform/apperrors"
	"github.com/Piyush-Singh-Chauhan/team-board/internal/team/domain"
	userdomain "github.com/Piyush-Singh-Chauhan/team-board/internal/user/domain"
)

type memTeamRepo struct {
	mu sync.Mutex
	m  map[string]*domain.Team
}

func (r *memTeamRepo) clone(t *domain.Team) *domain.Team {
	cp := *t
	cp.Members = append([]domain.Member(nil), t.Members...)
	return &cp
}

func (r *memTeamRepo) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.m[id]; ok {
		return r.clone(t), nil
	}
	return nil, nil
}

func (r *memTeamRepo) ListByUser(ctx context.Context, userID string) ([]*domain.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Team
	for _, t := range r.m {
		if t.HasMember(userID) {
			out = append(out, r.clone(t))
		}
	}
	return out, nil
}

func (r *memTeamRepo) Create(ctx context.Context, t *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[t.ID] = r.clone(t)
	return nil
}

func (r *memTeamRepo) Update(ctx context.Context, t *domain.Team) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.m[t.ID]; ok {
		stored.Name, stored.Description, stored.UpdatedAt = t.Name, t.Description, t.UpdatedAt
	}
	return nil
}

func (r *memTeamRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.m, id)
	return nil
}

func (r *memTeamRepo) AddMember(ctx context.Context, teamID string, m domain.Member) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.m[teamID]
	if !ok || t.HasMember(m.UserID) {
		return false, nil
	}
	t.Members = append(t.Members, m)
	return true, nil
}

func (r *memTeamRepo) GetMember(ctx context.Context, teamID, userID string) (*domain.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.m[teamID]; ok {
		for _, m := range t.Members {
			if m.UserID == userID {
				mm := m
				return &mm, nil
			}
		}
	}
	return nil, nil
}

type memUsers map[string]*userdomain.User

func (u memUsers) GetByEmail(ctx context.Context, email string) (*userdomain.User, error) {
	return u[email], nil
}

type recordingCascade struct {
	boards, invites []string
}

func (c *recordingCascade) DeleteBoardsByTeam(ctx context.Context, teamID string) error {
	c.boards = append(c.boards, teamID)
	return nil
}

func (c *recordingCascade) DeleteByTeam(ctx context.Context, teamID string) error {
	c.invites = append(c.invites, teamID)
	return nil
}

func newTestService(cascade *recordingCascade) (*Service, *memTeamRepo) {
	repo := &memTeamRepo{m: make(map[string]*domain.Team)}
	users := memUsers{
		"bob@example.com": {ID: "u2", Name: "Bob", Email: "bob@example.com"},
	}
	return NewService(repo, users, cascade, cascade, db.NoTx{}, nil, nil), repo
}

func TestCreateTeam_CreatorIsOwner(t *testing.T) {
	svc, _ := newTestService(&recordingCascade{})
	ctx := context.Background()
	team, err := svc.CreateTeam(ctx, "Platform", "infra", "u1")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}
	m, err := svc.GetMember(ctx, team.ID, "u1")
	if err != nil || m == nil || m.Role != domain.RoleOwner {
		t.Fatalf("GetMember(u1) = %+v, %v", m, err)
	}
	if m, err := svc.GetMember(ctx, team.ID, "u2"); err != nil || m != nil {
		t.Errorf("GetMember(u2) = %+v, %v; want nil, nil", m, err)
	}
	if _, err := svc.GetMember(ctx, "missing", "u1"); !apperrors.IsCode(err, apperrors.CodeTeamNotFound) {
		t.Errorf("GetMember(missing team) err = %v, want TEAM_NOT_FOUND", err)
	}
	teams, err := svc.ListTeams(ctx, "u1")
	if err != nil || len(teams) != 1 {
		t.Errorf("ListTeams = %d, %v", len(teams), err)
	}
	if teams, _ := svc.ListTeams(ctx, "u2"); len(teams) != 0 {
		t.Errorf("u2 should see no teams, got %d", len(teams))
	}
}

func TestAddMemberByEmail(t *testing.T) {
	svc, _ := newTestService(&recordingCascade{})
	ctx := context.Background()
	team, err := svc.CreateTeam(ctx, "Platform", "", "u1")
	if err != nil {
		t.Fatalf("CreateTeam: %v", err)
	}

	m, err := svc.AddMemberByEmail(ctx, team.ID, "  BOB@example.com ", "", "u1")
	if err != nil {
		t.Fatalf("AddMemberByEmail: %v", err)
	}
	if m.UserID != "u2" || m.Role != domain.RoleMember {
		t.Errorf("member = %+v", m)
	}

	testCases := []struct {
		name   string
		teamID string
		email  string
		role   domain.Role
		code   apperrors.Code
	}{
		{"already member", team.ID, "bob@example.com", "", apperrors.CodeAlreadyMember},
		{"unknown user", team.ID, "eve@example.com", "", apperrors.CodeUserNotFound},
		{"unknown team", "nope", "bob@example.com", "", apperrors.CodeTeamNotFound},
		{"owner role", team.ID, "bob@example.com", domain.RoleOwner, apperrors.CodeInvalidInput},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.AddMemberByEmail(ctx, tc.teamID, tc.email, tc.role, "u1"); !apperrors.IsCode(err, tc.code) {
				t.Errorf("err = %v, want %s", err, tc.code)
			}
		})
	}
	got, _ := svc.GetTeam(ctx, team.ID)
	if len(got.Members) != 2 {
		t.Errorf("members = %d, want 2", len(got.Members))
	}
}

func TestEditTeam(t *testing.T) {
	svc, _ := newTestService(&recordingCascade{})
	ctx := context.Background()
	team, _ := svc.CreateTeam(ctx, "Platform", "", "u1")

	name := "Platform Eng"
	updated, err := svc.EditTeam(ctx, team.ID, EditTeamInput{Name: &name}, "u1")
	if err != nil {
		t.Fatalf("EditTeam: %v", err)
	}
	if updated.Name != name {
		t.Errorf("Name = %q", updated.Name)
	}
	short := "x"
	if _, err := svc.EditTeam(ctx, team.ID, EditTeamInput{Name: &short}, "u1"); !apperrors.IsCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("short name: err = %v", err)
	}
	if stored, _ := svc.GetTeam(ctx, team.ID); stored.Name != name {
		t.Errorf("invalid edit was saved: %q", stored.Name)
	}
}

func TestDeleteTeam_Cascades(t *testing.T) {
	cascade := &recordingCascade{}
	svc, _ := newTestService(cascade)
	ctx := context.Background()
	team, _ := svc.CreateTeam(ctx, "Platform", "", "u1")

	if err := svc.DeleteTeam(ctx, team.ID, "u1"); err != nil {
		t.Fatalf("DeleteTeam: %v", err)
	}
	if len(cascade.boards) != 1 || len(cascade.invites) != 1 {
		t.Errorf("cascade = %+v", cascade)
	}
	if _, err := svc.GetTeam(ctx, team.ID); !apperrors.IsCode(err, apperrors.CodeTeamNotFound) {
		t.Errorf("GetTeam after delete: err = %v", err)
	}
	if err := svc.DeleteTeam(ctx, team.ID, "u1"); !apperrors.IsCode(err, apperrors.CodeTeamNotFound) {
		t.Errorf("second DeleteTeam: err = %v", err)
	}
}
