package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"time"

	"minutes/api/internal/auth"
	"minutes/api/internal/export"
	"minutes/api/internal/rbac"
	"minutes/api/internal/search"
	"minutes/api/internal/store"
)

const (
	testTokenSecret    = "test-token-secret"
	testIdentitySecret = "test-identity-secret"
)

// fakeStore is an in-memory dataStore for handler and service tests.
type fakeStore struct {
	users       map[string]store.User // by external id
	teams       map[string]store.Team
	memberships map[string][]store.TeamMember
	rules       []store.TranscriptRule
	teamShares  map[string]map[int64]string // teamID -> transcriptID -> sharer
	userShares  map[string]map[int64]bool
	transcripts []store.TranscriptWithContent
	revoked     map[string]bool
	audio       []store.AudioRecording

	teamShareCalls []string
	pingErr        error
	nextTeamSeq    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:       map[string]store.User{},
		teams:       map[string]store.Team{},
		memberships: map[string][]store.TeamMember{},
		teamShares:  map[string]map[int64]string{},
		userShares:  map[string]map[int64]bool{},
		revoked:     map[string]bool{},
	}
}

func (f *fakeStore) Ping(context.Context) error { return f.pingErr }

func (f *fakeStore) EnsureUserByExternalID(_ context.Context, externalID, email, firstName, lastName string) (store.User, error) {
	if user, ok := f.users[externalID]; ok {
		user.Email = email
		user.FirstName = firstName
		user.LastName = lastName
		f.users[externalID] = user
		return user, nil
	}
	user := store.User{
		ID:         fmt.Sprintf("user-%d", len(f.users)+1),
		ExternalID: externalID,
		Email:      email,
		FirstName:  firstName,
		LastName:   lastName,
		CreatedAt:  time.Now(),
	}
	f.users[externalID] = user
	return user, nil
}

func (f *fakeStore) RevokeAccessToken(_ context.Context, jti string, _ time.Time) error {
	f.revoked[jti] = true
	return nil
}

func (f *fakeStore) IsAccessTokenRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

func (f *fakeStore) CreateTeam(_ context.Context, name, creatorEmail string) (store.Team, error) {
	f.nextTeamSeq++
	team := store.Team{
		ID:             fmt.Sprintf("team-%d", f.nextTeamSeq),
		Name:           name,
		CreatedByEmail: creatorEmail,
		CreatedAt:      time.Now(),
		Role:           "owner",
	}
	f.teams[team.ID] = team
	f.memberships[team.ID] = append(f.memberships[team.ID], store.TeamMember{
		TeamID:         team.ID,
		UserEmail:      creatorEmail,
		Role:           "owner",
		CreatedByEmail: creatorEmail,
		CreatedAt:      time.Now(),
	})
	return team, nil
}

func (f *fakeStore) ListTeamsByUserEmail(_ context.Context, email string) ([]store.Team, error) {
	var teams []store.Team
	for teamID, members := range f.memberships {
		for _, member := range members {
			if member.UserEmail == email {
				team := f.teams[teamID]
				team.Role = member.Role
				teams = append(teams, team)
			}
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })
	return teams, nil
}

func (f *fakeStore) GetTeamForUser(_ context.Context, teamID, email string) (store.Team, error) {
	for _, member := range f.memberships[teamID] {
		if member.UserEmail == email {
			team := f.teams[teamID]
			team.Role = member.Role
			return team, nil
		}
	}
	return store.Team{}, sql.ErrNoRows
}

func (f *fakeStore) ListTeamMembers(_ context.Context, teamID string) ([]store.TeamMember, error) {
	return append([]store.TeamMember{}, f.memberships[teamID]...), nil
}

func (f *fakeStore) AddTeamMember(_ context.Context, teamID, userEmail, role, createdByEmail string) error {
	for _, member := range f.memberships[teamID] {
		if member.UserEmail == userEmail {
			return nil
		}
	}
	f.memberships[teamID] = append(f.memberships[teamID], store.TeamMember{
		TeamID:         teamID,
		UserEmail:      userEmail,
		Role:           role,
		CreatedByEmail: createdByEmail,
		CreatedAt:      time.Now(),
	})
	return nil
}

func (f *fakeStore) RemoveTeamMember(_ context.Context, teamID, userEmail string) error {
	members := f.memberships[teamID]
	kept := members[:0]
	for _, member := range members {
		if member.UserEmail != userEmail {
			kept = append(kept, member)
		}
	}
	f.memberships[teamID] = kept
	return nil
}

func (f *fakeStore) ListTeamRules(_ context.Context, teamID string) ([]store.TranscriptRule, error) {
	var out []store.TranscriptRule
	for _, rule := range f.rules {
		if rule.TeamID == teamID {
			out = append(out, rule)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTeamRule(_ context.Context, teamID, ruleType, value, createdByEmail string) (store.TranscriptRule, error) {
	rule := store.TranscriptRule{
		ID:             fmt.Sprintf("rule-%d", len(f.rules)+1),
		TeamID:         teamID,
		Type:           ruleType,
		Value:          value,
		Enabled:        true,
		CreatedByEmail: createdByEmail,
		CreatedAt:      time.Now(),
	}
	f.rules = append(f.rules, rule)
	return rule, nil
}

func (f *fakeStore) ListEnabledRulesForMember(_ context.Context, email string) ([]store.TranscriptRule, error) {
	var out []store.TranscriptRule
	for _, rule := range f.rules {
		if !rule.Enabled {
			continue
		}
		for _, member := range f.memberships[rule.TeamID] {
			if member.UserEmail == email {
				out = append(out, rule)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeStore) ShareTranscriptToTeam(_ context.Context, teamID string, transcriptID int64, createdByEmail string) error {
	f.teamShareCalls = append(f.teamShareCalls, fmt.Sprintf("%s:%d", teamID, transcriptID))
	if f.teamShares[teamID] == nil {
		f.teamShares[teamID] = map[int64]string{}
	}
	if _, exists := f.teamShares[teamID][transcriptID]; !exists {
		f.teamShares[teamID][transcriptID] = createdByEmail
	}
	return nil
}

func (f *fakeStore) ShareTranscriptToUser(_ context.Context, userEmail string, transcriptID int64, _ string) error {
	if f.userShares[userEmail] == nil {
		f.userShares[userEmail] = map[int64]bool{}
	}
	f.userShares[userEmail][transcriptID] = true
	return nil
}

func (f *fakeStore) TeamSharesVisibleToUser(_ context.Context, email string) ([]store.TeamShareRow, error) {
	var rows []store.TeamShareRow
	for teamID, shares := range f.teamShares {
		member := false
		for _, m := range f.memberships[teamID] {
			if m.UserEmail == email {
				member = true
				break
			}
		}
		if !member {
			continue
		}
		for transcriptID := range shares {
			rows = append(rows, store.TeamShareRow{
				TranscriptID: transcriptID,
				TeamID:       teamID,
				TeamName:     f.teams[teamID].Name,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].TranscriptID < rows[j].TranscriptID })
	return rows, nil
}

func (f *fakeStore) DirectSharedTranscriptIDs(_ context.Context, email string) ([]int64, error) {
	var ids []int64
	for id := range f.userShares[email] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (f *fakeStore) IsTranscriptShared(ctx context.Context, transcriptID int64, email string) (bool, error) {
	rows, _ := f.TeamSharesVisibleToUser(ctx, email)
	for _, row := range rows {
		if row.TranscriptID == transcriptID {
			return true, nil
		}
	}
	return f.userShares[email][transcriptID], nil
}

func (f *fakeStore) isParticipant(item store.TranscriptWithContent, email string) bool {
	for _, e := range item.VerifiedParticipantEmails {
		if e == email {
			return true
		}
	}
	return false
}

func (f *fakeStore) byParticipant(email string) []store.TranscriptWithContent {
	var out []store.TranscriptWithContent
	for _, item := range f.transcripts {
		if f.isParticipant(item, email) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].RecordingStart, out[j].RecordingStart
		if a == nil {
			return false
		}
		if b == nil {
			return true
		}
		return a.After(*b)
	})
	return out
}

func (f *fakeStore) CountTranscriptsByParticipant(_ context.Context, email string) (int, error) {
	return len(f.byParticipant(email)), nil
}

func (f *fakeStore) ListTranscriptsByParticipant(_ context.Context, email string, limit, offset int) ([]store.Transcript, error) {
	return pageOf(f.byParticipant(email), limit, offset), nil
}

func (f *fakeStore) ListTranscriptsByIDs(_ context.Context, ids []int64, limit, offset int) ([]store.Transcript, error) {
	want := map[int64]bool{}
	for _, id := range ids {
		want[id] = true
	}
	var matched []store.TranscriptWithContent
	for _, item := range f.transcripts {
		if want[item.ID] {
			matched = append(matched, item)
		}
	}
	return pageOf(matched, limit, offset), nil
}

func pageOf(items []store.TranscriptWithContent, limit, offset int) []store.Transcript {
	out := make([]store.Transcript, 0, limit)
	for i := offset; i < len(items) && len(out) < limit; i++ {
		out = append(out, items[i].Transcript)
	}
	return out
}

func (f *fakeStore) IsVerifiedParticipant(_ context.Context, transcriptID int64, email string) (bool, error) {
	for _, item := range f.transcripts {
		if item.ID == transcriptID {
			return f.isParticipant(item, email), nil
		}
	}
	return false, nil
}

func (f *fakeStore) GetTranscriptContent(_ context.Context, transcriptID int64, participantEmail string) (string, error) {
	for _, item := range f.transcripts {
		if item.ID != transcriptID {
			continue
		}
		if participantEmail != "" && !f.isParticipant(item, participantEmail) {
			return "", sql.ErrNoRows
		}
		return item.Content, nil
	}
	return "", sql.ErrNoRows
}

func (f *fakeStore) GetTranscriptForExport(_ context.Context, transcriptID int64, participantEmail string) (store.TranscriptWithContent, error) {
	for _, item := range f.transcripts {
		if item.ID != transcriptID {
			continue
		}
		if participantEmail != "" && !f.isParticipant(item, participantEmail) {
			return store.TranscriptWithContent{}, sql.ErrNoRows
		}
		return item, nil
	}
	return store.TranscriptWithContent{}, sql.ErrNoRows
}

func (f *fakeStore) ListTranscriptsForIndex(_ context.Context) ([]store.TranscriptWithContent, error) {
	return append([]store.TranscriptWithContent{}, f.transcripts...), nil
}

func (f *fakeStore) InsertAudioRecording(_ context.Context, rec store.AudioRecording) error {
	f.audio = append(f.audio, rec)
	return nil
}

func (f *fakeStore) ListAudioRecordingsByUploader(_ context.Context, email string) ([]store.AudioRecording, error) {
	var out []store.AudioRecording
	for _, rec := range f.audio {
		if rec.UploadedByEmail == email {
			out = append(out, rec)
		}
	}
	return out, nil
}

// fakeSessions is an in-memory refresh token store.
type fakeSessions struct {
	data map[string]store.SessionData
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{data: map[string]store.SessionData{}}
}

func (f *fakeSessions) SaveRefreshSession(_ context.Context, hash string, data store.SessionData, _ time.Time) error {
	f.data[hash] = data
	return nil
}

func (f *fakeSessions) LookupRefreshSession(_ context.Context, hash string) (store.SessionData, error) {
	data, ok := f.data[hash]
	if !ok {
		return store.SessionData{}, sql.ErrNoRows
	}
	return data, nil
}

func (f *fakeSessions) RevokeRefreshSession(_ context.Context, hash string) error {
	delete(f.data, hash)
	return nil
}

type fakeSearcher struct {
	lastQuery search.Query
	response  search.Response
}

func (f *fakeSearcher) Search(q search.Query) search.Response {
	f.lastQuery = q
	if f.response.Results == nil {
		f.response.Results = []search.Result{}
	}
	f.response.Query = q.Text
	return f.response
}

func (f *fakeSearcher) ReindexAll(context.Context, []search.TranscriptRecord) {}

type testEnv struct {
	store    *fakeStore
	sessions *fakeSessions
	searcher *fakeSearcher
	service  *Service
	server   *HTTPServer
}

func newTestEnv() *testEnv {
	fs := newFakeStore()
	sessions := newFakeSessions()
	searcher := &fakeSearcher{}
	service := NewService(ServiceOptions{
		Store:          fs,
		Sessions:       sessions,
		Search:         searcher,
		Exporter:       export.NewService(),
		TokenSecret:    testTokenSecret,
		IdentitySecret: testIdentitySecret,
		AccessTTL:      15 * time.Minute,
		RefreshTTL:     24 * time.Hour,
		DownloadTTL:    5 * time.Minute,
	})
	return &testEnv{
		store:    fs,
		sessions: sessions,
		searcher: searcher,
		service:  service,
		server:   NewHTTPServer(service, "*"),
	}
}

func (e *testEnv) token(userID, email string, role rbac.Role) string {
	token, err := auth.IssueToken([]byte(testTokenSecret), auth.Claims{
		Sub:   userID,
		Email: email,
		Name:  email,
		Role:  string(role),
		JTI:   "jti-" + userID,
		Exp:   time.Now().Add(time.Hour).Unix(),
	})
	if err != nil {
		panic(err)
	}
	return token
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(rr, req)
	return rr
}

func addTranscript(fs *fakeStore, id int64, summary string, start time.Time, participants ...string) {
	fs.transcripts = append(fs.transcripts, store.TranscriptWithContent{
		Transcript: store.Transcript{
			ID:                        id,
			RecordingStart:            &start,
			Summary:                   summary,
			MeetingType:               "meeting",
			VerifiedParticipantEmails: participants,
		},
		Content: fmt.Sprintf("full content of transcript %d", id),
	})
}
