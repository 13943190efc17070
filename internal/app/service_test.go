package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"minutes/api/internal/auth"
	"minutes/api/internal/rbac"
)

func TestExchangeIdentity(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	assertion, err := auth.IssueIdentityAssertion([]byte(testIdentitySecret), auth.IdentityClaims{
		ExternalID: "idp_123",
		Email:      "Dana@Acme.io",
		FirstName:  "Dana",
		LastName:   "Oak",
		OrgRole:    "admin",
		Exp:        time.Now().Add(time.Minute).Unix(),
	})
	if err != nil {
		t.Fatalf("issue assertion: %v", err)
	}

	session, err := env.service.ExchangeIdentity(ctx, assertion)
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if session.Role != rbac.RoleAdmin {
		t.Errorf("role = %q, want admin", session.Role)
	}
	if session.Email != "dana@acme.io" {
		t.Errorf("email = %q, want lowercased", session.Email)
	}
	if session.Token == "" || session.RefreshToken == "" {
		t.Fatal("missing tokens")
	}

	// The same external identity resolves to the same user row.
	again, err := env.service.ExchangeIdentity(ctx, assertion)
	if err != nil {
		t.Fatalf("second exchange: %v", err)
	}
	if again.UserID != session.UserID {
		t.Errorf("user id changed across exchanges: %q vs %q", again.UserID, session.UserID)
	}

	// A tampered assertion is rejected.
	if _, err := env.service.ExchangeIdentity(ctx, assertion+"x"); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("tampered assertion: err = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, _ := env.store.EnsureUserByExternalID(ctx, "idp_1", "dana@acme.io", "Dana", "Oak")
	session, err := env.service.createSession(ctx, user, rbac.RoleOrg)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	next, err := env.service.Refresh(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.Role != rbac.RoleOrg {
		t.Errorf("role after refresh = %q, want org", next.Role)
	}
	if next.RefreshToken == session.RefreshToken {
		t.Error("refresh token was not rotated")
	}

	// The old refresh token is dead after rotation.
	if _, err := env.service.Refresh(ctx, session.RefreshToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("reused refresh token: err = %v, want ErrInvalidToken", err)
	}
}

func TestLogoutRevokesAccessToken(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	user, _ := env.store.EnsureUserByExternalID(ctx, "idp_1", "dana@acme.io", "Dana", "Oak")
	session, err := env.service.createSession(ctx, user, rbac.RoleOrg)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	if _, err := env.service.SessionFromToken(ctx, session.Token); err != nil {
		t.Fatalf("session before logout: %v", err)
	}
	if err := env.service.Logout(ctx, session, session.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := env.service.SessionFromToken(ctx, session.Token); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("session after logout: err = %v, want ErrInvalidToken", err)
	}
	if _, err := env.service.Refresh(ctx, session.RefreshToken); !errors.Is(err, auth.ErrInvalidToken) {
		t.Errorf("refresh after logout: err = %v, want ErrInvalidToken", err)
	}
}

func TestAutoShareRulesOnListing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	team, _ := env.store.CreateTeam(ctx, "Platform", "dana@acme.io")
	_, _ = env.store.CreateTeamRule(ctx, team.ID, "summary_topic_exact", "Quarterly Planning", "dana@acme.io")

	addTranscript(env.store, 1, "Topic: Quarterly Planning\nnotes", time.Now(), "dana@acme.io")
	addTranscript(env.store, 2, "Topic: Something Else", time.Now(), "dana@acme.io")

	session := Session{UserID: "u-1", Email: "dana@acme.io", Role: rbac.RoleOrg}
	if _, err := env.service.ListTranscripts(ctx, session, 1, 20); err != nil {
		t.Fatalf("list: %v", err)
	}

	if len(env.store.teamShares[team.ID]) != 1 {
		t.Fatalf("shares after listing = %d, want 1", len(env.store.teamShares[team.ID]))
	}
	if _, ok := env.store.teamShares[team.ID][1]; !ok {
		t.Fatal("transcript 1 should be auto-shared")
	}

	// Re-listing stays idempotent at the ledger level.
	if _, err := env.service.ListTranscripts(ctx, session, 1, 20); err != nil {
		t.Fatalf("second list: %v", err)
	}
	if len(env.store.teamShares[team.ID]) != 1 {
		t.Fatalf("shares after re-listing = %d, want 1", len(env.store.teamShares[team.ID]))
	}

	// Member-tier listings never trigger rule evaluation.
	calls := len(env.store.teamShareCalls)
	memberSession := Session{UserID: "u-2", Email: "dana@acme.io", Role: rbac.RoleMember}
	if _, err := env.service.ListTranscripts(ctx, memberSession, 1, 20); err != nil {
		t.Fatalf("member list: %v", err)
	}
	if len(env.store.teamShareCalls) != calls {
		t.Error("member listing should not evaluate share rules")
	}
}

func TestAutoShareAnnotatesSameListing(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	team, _ := env.store.CreateTeam(ctx, "Platform", "dana@acme.io")
	_, _ = env.store.CreateTeamRule(ctx, team.ID, "summary_topic_exact", "Quarterly Planning", "dana@acme.io")
	addTranscript(env.store, 1, "Topic: Quarterly Planning", time.Now(), "dana@acme.io")

	session := Session{UserID: "u-1", Email: "dana@acme.io", Role: rbac.RoleOrg}
	page, err := env.service.ListTranscripts(ctx, session, 1, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(page.Transcripts) != 1 {
		t.Fatalf("items = %d, want 1", len(page.Transcripts))
	}
	// Rules run before annotation, so the match is visible immediately.
	if got := page.Transcripts[0].SharedInTeams; len(got) != 1 || got[0] != "Platform" {
		t.Errorf("sharedInTeams = %v, want [Platform]", got)
	}
}
