package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"minutes/api/internal/rbac"
)

func jsonReq(method, path, body, token string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &payload); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return payload
}

func TestTeamLifecycle(t *testing.T) {
	env := newTestEnv()
	owner := env.token("u-owner", "dana@acme.io", rbac.RoleOrg)

	// Create a team; the creator becomes owner.
	rr := env.do(jsonReq(http.MethodPost, "/api/teams", `{"name":"Platform"}`, owner))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create team: status = %d, body %s", rr.Code, rr.Body.String())
	}
	created := decodeJSON(t, rr)
	teamID, _ := created["id"].(string)
	if teamID == "" {
		t.Fatalf("create team: missing id in %v", created)
	}
	if created["role"] != "owner" {
		t.Errorf("create team: role = %v, want owner", created["role"])
	}

	// Listing shows the team with the caller's role.
	rr = env.do(jsonReq(http.MethodGet, "/api/teams", "", owner))
	if rr.Code != http.StatusOK {
		t.Fatalf("list teams: status = %d", rr.Code)
	}

	// Owner adds a member.
	rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/members", `{"email":"lee@acme.io"}`, owner))
	if rr.Code != http.StatusCreated {
		t.Fatalf("add member: status = %d, body %s", rr.Code, rr.Body.String())
	}

	// Re-adding the same member is a no-op, not an error.
	rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/members", `{"email":"lee@acme.io"}`, owner))
	if rr.Code != http.StatusCreated {
		t.Fatalf("re-add member: status = %d", rr.Code)
	}
	if got := len(env.store.memberships[teamID]); got != 2 {
		t.Fatalf("memberships = %d, want 2", got)
	}

	// Detail view includes members and rules.
	rr = env.do(jsonReq(http.MethodGet, "/api/teams/"+teamID, "", owner))
	if rr.Code != http.StatusOK {
		t.Fatalf("get team: status = %d", rr.Code)
	}
	detail := decodeJSON(t, rr)
	if members, ok := detail["members"].([]any); !ok || len(members) != 2 {
		t.Errorf("detail members = %v, want 2 entries", detail["members"])
	}

	// Non-owner member cannot mutate.
	member := env.token("u-lee", "lee@acme.io", rbac.RoleOrg)
	rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/members", `{"email":"kim@acme.io"}`, member))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("non-owner add member: status = %d, want 403", rr.Code)
	}

	// Owner cannot remove themselves.
	rr = env.do(jsonReq(http.MethodDelete, "/api/teams/"+teamID+"/members?email=dana@acme.io", "", owner))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("owner remove self: status = %d, want 400", rr.Code)
	}

	// Owner removes the member.
	rr = env.do(jsonReq(http.MethodDelete, "/api/teams/"+teamID+"/members?email=lee@acme.io", "", owner))
	if rr.Code != http.StatusOK {
		t.Fatalf("remove member: status = %d", rr.Code)
	}

	// Removed member can no longer see the team.
	rr = env.do(jsonReq(http.MethodGet, "/api/teams/"+teamID, "", member))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("removed member get team: status = %d, want 404", rr.Code)
	}
}

func TestTeamNameValidation(t *testing.T) {
	env := newTestEnv()
	token := env.token("u-1", "dana@acme.io", rbac.RoleOrg)

	for _, name := range []string{"", "   ", strings.Repeat("x", 81)} {
		body, _ := json.Marshal(map[string]string{"name": name})
		rr := env.do(jsonReq(http.MethodPost, "/api/teams", string(body), token))
		if rr.Code != http.StatusUnprocessableEntity {
			t.Errorf("name %q: status = %d, want 422", name, rr.Code)
		}
	}
}

func TestTeamDomainAllowlist(t *testing.T) {
	env := newTestEnv()
	env.service.emailDomain = "acme.io"

	outsider := env.token("u-x", "eve@other.com", rbac.RoleOrg)
	rr := env.do(jsonReq(http.MethodPost, "/api/teams", `{"name":"Shadow"}`, outsider))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("outsider create team: status = %d, want 403", rr.Code)
	}
	rr = env.do(jsonReq(http.MethodGet, "/api/teams", "", outsider))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("outsider list teams: status = %d, want 403", rr.Code)
	}

	owner := env.token("u-1", "dana@acme.io", rbac.RoleOrg)
	rr = env.do(jsonReq(http.MethodPost, "/api/teams", `{"name":"Platform"}`, owner))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create team: status = %d", rr.Code)
	}
	teamID := decodeJSON(t, rr)["id"].(string)

	// Members outside the domain cannot be added.
	rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/members", `{"email":"eve@other.com"}`, owner))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("add outside member: status = %d, want 400", rr.Code)
	}
}

func TestTeamRules(t *testing.T) {
	env := newTestEnv()
	owner := env.token("u-1", "dana@acme.io", rbac.RoleOrg)

	rr := env.do(jsonReq(http.MethodPost, "/api/teams", `{"name":"Platform"}`, owner))
	teamID := decodeJSON(t, rr)["id"].(string)

	// Wrong type rejected.
	rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/rules", `{"type":"summary_topic_prefix","value":"Standup"}`, owner))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bad rule type: status = %d, want 422", rr.Code)
	}

	// Empty and oversized values rejected.
	rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/rules", `{"type":"summary_topic_exact","value":""}`, owner))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty rule value: status = %d, want 422", rr.Code)
	}
	long, _ := json.Marshal(map[string]string{"type": "summary_topic_exact", "value": strings.Repeat("v", 201)})
	rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/rules", string(long), owner))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("long rule value: status = %d, want 422", rr.Code)
	}

	rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/rules", `{"type":"summary_topic_exact","value":"Quarterly Planning"}`, owner))
	if rr.Code != http.StatusCreated {
		t.Fatalf("create rule: status = %d, body %s", rr.Code, rr.Body.String())
	}
	rule := decodeJSON(t, rr)
	if rule["enabled"] != true {
		t.Errorf("rule enabled = %v, want true", rule["enabled"])
	}

	rr = env.do(jsonReq(http.MethodGet, "/api/teams/"+teamID+"/rules", "", owner))
	if rr.Code != http.StatusOK {
		t.Fatalf("list rules: status = %d", rr.Code)
	}
	listed := decodeJSON(t, rr)
	if ruleSet, ok := listed["rules"].([]any); !ok || len(ruleSet) != 1 {
		t.Errorf("rules = %v, want 1 entry", listed["rules"])
	}
}

func TestShareTranscriptToTeam(t *testing.T) {
	env := newTestEnv()
	addTranscript(env.store, 7, "Topic: Planning", time.Now(), "dana@acme.io")

	owner := env.token("u-1", "dana@acme.io", rbac.RoleOrg)
	rr := env.do(jsonReq(http.MethodPost, "/api/teams", `{"name":"Platform"}`, owner))
	teamID := decodeJSON(t, rr)["id"].(string)

	// Sharing is idempotent.
	for i := 0; i < 2; i++ {
		rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/shares", `{"transcriptId":7}`, owner))
		if rr.Code != http.StatusCreated {
			t.Fatalf("share attempt %d: status = %d, body %s", i, rr.Code, rr.Body.String())
		}
	}
	if len(env.store.teamShares[teamID]) != 1 {
		t.Fatalf("team shares = %d, want 1", len(env.store.teamShares[teamID]))
	}

	// Member-tier callers cannot share.
	env.store.memberships[teamID] = append(env.store.memberships[teamID],
		env.store.memberships[teamID][0])
	memberRow := &env.store.memberships[teamID][1]
	memberRow.UserEmail = "lee@acme.io"
	memberRow.Role = "member"
	memberTier := env.token("u-lee", "lee@acme.io", rbac.RoleMember)
	rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/shares", `{"transcriptId":7}`, memberTier))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("member share: status = %d, want 403", rr.Code)
	}

	// Org callers cannot share meetings they did not attend.
	rr = env.do(jsonReq(http.MethodPost, "/api/teams/"+teamID+"/shares", `{"transcriptId":999}`, owner))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("share foreign transcript: status = %d, want 404", rr.Code)
	}
}
