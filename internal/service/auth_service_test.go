package service

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/civic-kit/complaint-service/internal/config"
	"github.com/civic-kit/complaint-service/internal/domain"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeCitizenRepo, *fakeStaffRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("bcrypt: %v", err)
	}
	citizens := &fakeCitizenRepo{citizens: map[string]*domain.Citizen{}}
	staff := &fakeStaffRepo{staff: map[string]*domain.StaffUser{
		"staff-1": {ID: "staff-1", Email: "officer@city.gov", RoleID: "role-officer", Active: true, PasswordHash: string(hash)},
		"staff-2": {ID: "staff-2", Email: "retired@city.gov", RoleID: "role-officer", Active: false, PasswordHash: string(hash)},
	}}
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 30
	cfg.Auth.BcryptCost = bcrypt.MinCost
	svc := NewAuthService(cfg, AuthDependencies{CitizenRepo: citizens, StaffRepo: staff})
	return svc, citizens, staff
}

func TestLoginStaffIssuesRoleBearingToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	staff, token, _, err := svc.LoginStaff(context.Background(), "officer@city.gov", "correct horse")
	if err != nil {
		t.Fatalf("LoginStaff: %v", err)
	}
	if staff.ID != "staff-1" {
		t.Errorf("staff = %s, want staff-1", staff.ID)
	}

	claims, err := svc.TokenManager().ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.Subject != domain.SubjectTypeStaff || claims.SubjectID != "staff-1" {
		t.Errorf("claims = %+v, want staff-1 STAFF", claims)
	}
	if claims.RoleID == nil || *claims.RoleID != "role-officer" {
		t.Errorf("role id = %v, want role-officer", claims.RoleID)
	}
}

func TestLoginStaffRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	if _, _, _, err := svc.LoginStaff(context.Background(), "officer@city.gov", "wrong"); err == nil {
		t.Fatal("expected rejection for wrong password")
	}
	if _, _, _, err := svc.LoginStaff(context.Background(), "nobody@city.gov", "correct horse"); err == nil {
		t.Fatal("expected rejection for unknown email")
	}
	if _, _, _, err := svc.LoginStaff(context.Background(), "retired@city.gov", "correct horse"); err == nil {
		t.Fatal("expected rejection for inactive staff")
	}
}

func TestIdentifyCitizenUpsertsByPhone(t *testing.T) {
	svc, citizens, _ := newAuthFixture(t)

	first, token, _, err := svc.IdentifyCitizen(context.Background(), "Amina Yusuf", "+254700000001")
	if err != nil {
		t.Fatalf("IdentifyCitizen: %v", err)
	}
	if token == "" {
		t.Error("no token issued")
	}

	second, _, _, err := svc.IdentifyCitizen(context.Background(), "Amina Y.", "+254700000001")
	if err != nil {
		t.Fatalf("second IdentifyCitizen: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("same phone produced two citizens: %s and %s", first.ID, second.ID)
	}
	if len(citizens.citizens) != 1 {
		t.Errorf("citizens = %d, want 1", len(citizens.citizens))
	}

	if _, _, _, err := svc.IdentifyCitizen(context.Background(), "Nameless", "  "); err == nil {
		t.Fatal("expected validation error for blank phone")
	}
}
