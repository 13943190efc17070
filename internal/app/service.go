package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"minutes/api/internal/auth"
	"minutes/api/internal/authpw"
	"minutes/api/internal/export"
	"minutes/api/internal/rbac"
	"minutes/api/internal/rules"
	"minutes/api/internal/search"
	"minutes/api/internal/store"
)

const accessDeniedMessage = "Transcript not found or access denied"

// dataStore is the persistence surface the service needs.
type dataStore interface {
	Ping(ctx context.Context) error

	EnsureUserByExternalID(ctx context.Context, externalID, email, firstName, lastName string) (store.User, error)
	RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error
	IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error)

	CreateTeam(ctx context.Context, name, creatorEmail string) (store.Team, error)
	ListTeamsByUserEmail(ctx context.Context, email string) ([]store.Team, error)
	GetTeamForUser(ctx context.Context, teamID, email string) (store.Team, error)
	ListTeamMembers(ctx context.Context, teamID string) ([]store.TeamMember, error)
	AddTeamMember(ctx context.Context, teamID, userEmail, role, createdByEmail string) error
	RemoveTeamMember(ctx context.Context, teamID, userEmail string) error

	ListTeamRules(ctx context.Context, teamID string) ([]store.TranscriptRule, error)
	CreateTeamRule(ctx context.Context, teamID, ruleType, value, createdByEmail string) (store.TranscriptRule, error)
	ListEnabledRulesForMember(ctx context.Context, email string) ([]store.TranscriptRule, error)

	ShareTranscriptToTeam(ctx context.Context, teamID string, transcriptID int64, createdByEmail string) error
	ShareTranscriptToUser(ctx context.Context, userEmail string, transcriptID int64, createdByEmail string) error
	TeamSharesVisibleToUser(ctx context.Context, email string) ([]store.TeamShareRow, error)
	DirectSharedTranscriptIDs(ctx context.Context, email string) ([]int64, error)
	IsTranscriptShared(ctx context.Context, transcriptID int64, email string) (bool, error)

	CountTranscriptsByParticipant(ctx context.Context, email string) (int, error)
	ListTranscriptsByParticipant(ctx context.Context, email string, limit, offset int) ([]store.Transcript, error)
	ListTranscriptsByIDs(ctx context.Context, ids []int64, limit, offset int) ([]store.Transcript, error)
	IsVerifiedParticipant(ctx context.Context, transcriptID int64, email string) (bool, error)
	GetTranscriptContent(ctx context.Context, transcriptID int64, participantEmail string) (string, error)
	GetTranscriptForExport(ctx context.Context, transcriptID int64, participantEmail string) (store.TranscriptWithContent, error)
	ListTranscriptsForIndex(ctx context.Context) ([]store.TranscriptWithContent, error)

	InsertAudioRecording(ctx context.Context, rec store.AudioRecording) error
	ListAudioRecordingsByUploader(ctx context.Context, email string) ([]store.AudioRecording, error)
}

// sessionStore holds refresh tokens, Redis-backed in production with a
// Postgres fallback.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, data store.SessionData, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.SessionData, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

type searcher interface {
	Search(q search.Query) search.Response
	ReindexAll(ctx context.Context, records []search.TranscriptRecord)
}

type blobStore interface {
	PutAudio(ctx context.Context, objectKey, contentType string, size int64, r io.Reader) error
	PresignedGetURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error)
}

type Service struct {
	store    dataStore
	sessions sessionStore
	search   searcher
	exporter *export.Service
	blob     blobStore
	authpw   *authpw.Service

	tokenSecret    []byte
	identitySecret []byte
	accessTTL      time.Duration
	refreshTTL     time.Duration
	downloadTTL    time.Duration
	emailDomain    string
}

type ServiceOptions struct {
	Store          dataStore
	Sessions       sessionStore
	Search         searcher
	Exporter       *export.Service
	Blob           blobStore
	AuthPW         *authpw.Service
	TokenSecret    string
	IdentitySecret string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	DownloadTTL    time.Duration
	EmailDomain    string
}

func NewService(opts ServiceOptions) *Service {
	return &Service{
		store:          opts.Store,
		sessions:       opts.Sessions,
		search:         opts.Search,
		exporter:       opts.Exporter,
		blob:           opts.Blob,
		authpw:         opts.AuthPW,
		tokenSecret:    []byte(opts.TokenSecret),
		identitySecret: []byte(opts.IdentitySecret),
		accessTTL:      opts.AccessTTL,
		refreshTTL:     opts.RefreshTTL,
		downloadTTL:    opts.DownloadTTL,
		emailDomain:    strings.ToLower(strings.TrimSpace(opts.EmailDomain)),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) Can(role rbac.Role, action rbac.Action) bool {
	return rbac.Can(role, action)
}

// Bootstrap seeds the search index from the database.
func (s *Service) Bootstrap(ctx context.Context) {
	if s.search == nil {
		return
	}
	items, err := s.store.ListTranscriptsForIndex(ctx)
	if err != nil {
		log.Printf("bootstrap: load transcripts for index: %v", err)
		return
	}
	records := make([]search.TranscriptRecord, 0, len(items))
	for _, item := range items {
		records = append(records, toSearchRecord(item))
	}
	s.search.ReindexAll(ctx, records)
}

func toSearchRecord(item store.TranscriptWithContent) search.TranscriptRecord {
	rec := search.TranscriptRecord{
		ID:           item.ID,
		Summary:      item.Summary,
		Content:      item.Content,
		MeetingType:  item.MeetingType,
		Participants: item.VerifiedParticipantEmails,
	}
	if item.RecordingStart != nil {
		rec.RecordingStartUnix = item.RecordingStart.Unix()
	}
	return rec
}

// ── Sessions ──

// Session is an authenticated caller.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	Email        string
	Name         string
	Role         rbac.Role
	JTI          string
	ExpiresAt    time.Time
}

// ExchangeIdentity turns a provider-signed identity assertion into a local
// session. The user row is created or refreshed and the org role is
// classified into an access tier.
func (s *Service) ExchangeIdentity(ctx context.Context, assertion string) (Session, error) {
	claims, err := auth.ParseIdentityAssertion(s.identitySecret, assertion)
	if err != nil {
		return Session{}, err
	}

	user, err := s.store.EnsureUserByExternalID(ctx, claims.ExternalID, strings.ToLower(claims.Email), claims.FirstName, claims.LastName)
	if err != nil {
		return Session{}, fmt.Errorf("resolve identity: %w", err)
	}

	role := rbac.Classify(claims.OrgRole)
	return s.createSession(ctx, user, role)
}

func (s *Service) createSession(ctx context.Context, user store.User, role rbac.Role) (Session, error) {
	jti := uuid.NewString()
	expiresAt := time.Now().Add(s.accessTTL)
	name := strings.TrimSpace(user.FirstName + " " + user.LastName)

	token, err := auth.IssueToken(s.tokenSecret, auth.Claims{
		Sub:   user.ID,
		Email: user.Email,
		Name:  name,
		Role:  string(role),
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	refreshToken, err := randomToken()
	if err != nil {
		return Session{}, fmt.Errorf("issue refresh token: %w", err)
	}
	refreshExpiry := time.Now().Add(s.refreshTTL)
	data := store.SessionData{UserID: user.ID, Email: user.Email, Name: name, Role: string(role)}
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refreshToken), data, refreshExpiry); err != nil {
		return Session{}, fmt.Errorf("save refresh session: %w", err)
	}

	return Session{
		Token:        token,
		RefreshToken: refreshToken,
		UserID:       user.ID,
		Email:        user.Email,
		Name:         name,
		Role:         role,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

// SessionFromToken validates an access token and rejects revoked ones.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken(s.tokenSecret, token)
	if err != nil {
		return Session{}, err
	}
	revoked, err := s.store.IsAccessTokenRevoked(ctx, claims.JTI)
	if err != nil {
		return Session{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Session{}, auth.ErrInvalidToken
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		Email:     claims.Email,
		Name:      claims.Name,
		Role:      rbac.Normalize(claims.Role),
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// session is issued from the stored identity snapshot.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	hash := auth.HashToken(refreshToken)
	data, err := s.sessions.LookupRefreshSession(ctx, hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, auth.ErrInvalidToken
		}
		return Session{}, fmt.Errorf("lookup refresh session: %w", err)
	}
	if err := s.sessions.RevokeRefreshSession(ctx, hash); err != nil {
		return Session{}, fmt.Errorf("rotate refresh session: %w", err)
	}

	nameParts := strings.SplitN(data.Name, " ", 2)
	user := store.User{ID: data.UserID, Email: data.Email, FirstName: nameParts[0]}
	if len(nameParts) > 1 {
		user.LastName = nameParts[1]
	}
	return s.createSession(ctx, user, rbac.Normalize(data.Role))
}

// Logout revokes both halves of the session.
func (s *Service) Logout(ctx context.Context, session Session, refreshToken string) error {
	if refreshToken != "" {
		if err := s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken)); err != nil {
			return fmt.Errorf("revoke refresh session: %w", err)
		}
	}
	if session.JTI != "" {
		if err := s.store.RevokeAccessToken(ctx, session.JTI, session.ExpiresAt); err != nil {
			return fmt.Errorf("revoke access token: %w", err)
		}
	}
	return nil
}

// LocalAuthEnabled reports whether email/password auth is configured.
func (s *Service) LocalAuthEnabled() bool {
	return s.authpw != nil
}

// SignUpLocal registers a local account and opens a session. Local accounts
// always start at the member tier.
func (s *Service) SignUpLocal(ctx context.Context, req authpw.SignUpRequest) (Session, error) {
	if s.authpw == nil {
		return Session{}, domainError(http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Local authentication not configured", nil)
	}
	user, err := s.authpw.SignUp(ctx, req)
	if err != nil {
		return Session{}, mapAuthPWError(err)
	}
	return s.createSession(ctx, user, rbac.RoleMember)
}

func (s *Service) SignInLocal(ctx context.Context, email, password string) (Session, error) {
	if s.authpw == nil {
		return Session{}, domainError(http.StatusServiceUnavailable, "AUTH_UNAVAILABLE", "Local authentication not configured", nil)
	}
	user, err := s.authpw.SignIn(ctx, email, password)
	if err != nil {
		return Session{}, mapAuthPWError(err)
	}
	return s.createSession(ctx, user, rbac.RoleMember)
}

func mapAuthPWError(err error) error {
	switch {
	case errors.Is(err, authpw.ErrEmailTaken):
		return domainError(http.StatusConflict, "EMAIL_TAKEN", "Email already registered", nil)
	case errors.Is(err, authpw.ErrWeakPassword), errors.Is(err, authpw.ErrMissingFields):
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, authpw.ErrInvalidCredentials):
		return domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Invalid email or password", nil)
	default:
		return err
	}
}

// ── Transcript visibility ──

// TranscriptView is a transcript as presented to a caller, with the access
// annotations computed per request.
type TranscriptView struct {
	ID                        int64      `json:"id"`
	RecordingStart            *time.Time `json:"recordingStart"`
	Summary                   string     `json:"summary"`
	Projects                  []string   `json:"projects"`
	Clients                   []string   `json:"clients"`
	MeetingType               string     `json:"meetingType,omitempty"`
	ExtractedParticipants     []string   `json:"extractedParticipants"`
	VerifiedParticipantEmails []string   `json:"verifiedParticipantEmails"`
	CanViewFullContent        bool       `json:"canViewFullContent"`
	SharedInTeams             []string   `json:"sharedInTeams"`
}

// TranscriptPage is a paginated listing envelope.
type TranscriptPage struct {
	Transcripts []TranscriptView `json:"transcripts"`
	Page        int              `json:"page"`
	Limit       int              `json:"limit"`
	Total       int              `json:"total"`
	TotalPages  int              `json:"totalPages"`
	HasNext     bool             `json:"hasNext"`
	HasPrev     bool             `json:"hasPrev"`
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}

func buildPage(items []TranscriptView, page, limit, total int) TranscriptPage {
	totalPages := (total + limit - 1) / limit
	return TranscriptPage{
		Transcripts: items,
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrev:     page > 1 && total > 0,
	}
}

// ListTranscripts returns the caller's meetings, newest first. The verified
// participant filter applies to every role; admins widen their reach on
// single-transcript fetch and download, not here. Auto-share rules for the
// caller's teams are evaluated against the page before annotation.
func (s *Service) ListTranscripts(ctx context.Context, session Session, page, limit int) (TranscriptPage, error) {
	page, limit = clampPage(page, limit)

	total, err := s.store.CountTranscriptsByParticipant(ctx, session.Email)
	if err != nil {
		return TranscriptPage{}, fmt.Errorf("count transcripts: %w", err)
	}
	items, err := s.store.ListTranscriptsByParticipant(ctx, session.Email, limit, (page-1)*limit)
	if err != nil {
		return TranscriptPage{}, fmt.Errorf("list transcripts: %w", err)
	}

	if rbac.Can(session.Role, rbac.ActionShare) {
		s.applyShareRules(ctx, session, items)
	}

	views, err := s.annotate(ctx, session, items)
	if err != nil {
		return TranscriptPage{}, err
	}
	return buildPage(views, page, limit, total), nil
}

// applyShareRules evaluates the enabled rules of the caller's teams against
// the listed transcripts and records matches in the share ledger. Inserts
// are idempotent, so re-listing the same page is harmless.
func (s *Service) applyShareRules(ctx context.Context, session Session, items []store.Transcript) {
	ruleSet, err := s.store.ListEnabledRulesForMember(ctx, session.Email)
	if err != nil {
		log.Printf("share rules: load for %s: %v", session.Email, err)
		return
	}
	if len(ruleSet) == 0 {
		return
	}
	for _, item := range items {
		for _, rule := range ruleSet {
			if !rules.Matches(rule, item.Summary) {
				continue
			}
			if err := s.store.ShareTranscriptToTeam(ctx, rule.TeamID, item.ID, rule.CreatedByEmail); err != nil {
				log.Printf("share rules: apply rule %s to transcript %d: %v", rule.ID, item.ID, err)
			}
		}
	}
}

// annotate attaches per-caller access annotations to a set of transcripts.
func (s *Service) annotate(ctx context.Context, session Session, items []store.Transcript) ([]TranscriptView, error) {
	teamShares, err := s.store.TeamSharesVisibleToUser(ctx, session.Email)
	if err != nil {
		return nil, fmt.Errorf("load team shares: %w", err)
	}
	directIDs, err := s.store.DirectSharedTranscriptIDs(ctx, session.Email)
	if err != nil {
		return nil, fmt.Errorf("load direct shares: %w", err)
	}

	sharedTeams := make(map[int64][]string)
	for _, row := range teamShares {
		sharedTeams[row.TranscriptID] = append(sharedTeams[row.TranscriptID], row.TeamName)
	}
	direct := make(map[int64]bool, len(directIDs))
	for _, id := range directIDs {
		direct[id] = true
	}

	views := make([]TranscriptView, 0, len(items))
	for _, item := range items {
		shared := direct[item.ID] || len(sharedTeams[item.ID]) > 0
		views = append(views, TranscriptView{
			ID:                        item.ID,
			RecordingStart:            item.RecordingStart,
			Summary:                   item.Summary,
			Projects:                  nonNilStrings(item.Projects),
			Clients:                   nonNilStrings(item.Clients),
			MeetingType:               item.MeetingType,
			ExtractedParticipants:     nonNilStrings(item.ExtractedParticipants),
			VerifiedParticipantEmails: nonNilStrings(item.VerifiedParticipantEmails),
			CanViewFullContent:        rbac.Can(session.Role, rbac.ActionViewContent) || shared,
			SharedInTeams:             nonNilStrings(sharedTeams[item.ID]),
		})
	}
	return views, nil
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// ListSharedTranscripts returns transcripts shared to the caller through the
// ledger, regardless of participation.
func (s *Service) ListSharedTranscripts(ctx context.Context, session Session, page, limit int) (TranscriptPage, error) {
	page, limit = clampPage(page, limit)

	teamShares, err := s.store.TeamSharesVisibleToUser(ctx, session.Email)
	if err != nil {
		return TranscriptPage{}, fmt.Errorf("load team shares: %w", err)
	}
	directIDs, err := s.store.DirectSharedTranscriptIDs(ctx, session.Email)
	if err != nil {
		return TranscriptPage{}, fmt.Errorf("load direct shares: %w", err)
	}

	seen := make(map[int64]bool)
	ids := make([]int64, 0, len(teamShares)+len(directIDs))
	for _, row := range teamShares {
		if !seen[row.TranscriptID] {
			seen[row.TranscriptID] = true
			ids = append(ids, row.TranscriptID)
		}
	}
	for _, id := range directIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	items, err := s.store.ListTranscriptsByIDs(ctx, ids, limit, (page-1)*limit)
	if err != nil {
		return TranscriptPage{}, fmt.Errorf("list shared transcripts: %w", err)
	}
	views, err := s.annotate(ctx, session, items)
	if err != nil {
		return TranscriptPage{}, err
	}
	return buildPage(views, page, limit, len(ids)), nil
}

// TranscriptContent returns the cleaned transcript text, enforcing the
// content access rules: members need an explicit share; org users see their
// own meetings plus shares; admins see everything.
func (s *Service) TranscriptContent(ctx context.Context, session Session, transcriptID int64) (string, error) {
	shared, err := s.store.IsTranscriptShared(ctx, transcriptID, session.Email)
	if err != nil {
		return "", fmt.Errorf("check share: %w", err)
	}

	if !rbac.Can(session.Role, rbac.ActionViewContent) && !shared {
		return "", domainError(http.StatusForbidden, "FORBIDDEN", accessDeniedMessage, nil)
	}

	participantEmail := session.Email
	if shared || rbac.Can(session.Role, rbac.ActionBypassParticipantFilter) {
		participantEmail = ""
	}

	content, err := s.store.GetTranscriptContent(ctx, transcriptID, participantEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return "", domainError(http.StatusNotFound, "NOT_FOUND", accessDeniedMessage, nil)
	}
	if err != nil {
		return "", fmt.Errorf("load content: %w", err)
	}
	return content, nil
}

// ── Download ──

// CreateDownloadToken issues a short-lived token bound to one transcript.
// Members cannot download at all; non-admins must be verified participants.
func (s *Service) CreateDownloadToken(ctx context.Context, session Session, transcriptID int64) (string, time.Time, error) {
	if !rbac.Can(session.Role, rbac.ActionDownload) {
		return "", time.Time{}, domainError(http.StatusForbidden, "FORBIDDEN", "Downloads are not available for your role", nil)
	}
	if !rbac.Can(session.Role, rbac.ActionBypassParticipantFilter) {
		ok, err := s.store.IsVerifiedParticipant(ctx, transcriptID, session.Email)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("check participant: %w", err)
		}
		if !ok {
			return "", time.Time{}, domainError(http.StatusNotFound, "NOT_FOUND", accessDeniedMessage, nil)
		}
	}

	expiresAt := time.Now().Add(s.downloadTTL)
	token, err := auth.IssueDownloadToken(s.tokenSecret, auth.DownloadClaims{
		Sub:          session.UserID,
		Email:        session.Email,
		Role:         string(session.Role),
		TranscriptID: transcriptID,
		Exp:          expiresAt.Unix(),
	})
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue download token: %w", err)
	}
	return token, expiresAt, nil
}

// DownloadTranscript validates a download token and renders the transcript.
// The token must match the requested transcript exactly.
func (s *Service) DownloadTranscript(ctx context.Context, token string, transcriptID int64, format export.Format) (*export.Result, error) {
	claims, err := auth.ParseDownloadToken(s.tokenSecret, token)
	if err != nil {
		return nil, err
	}
	if claims.TranscriptID != transcriptID {
		return nil, domainError(http.StatusForbidden, "TOKEN_MISMATCH", "Download token does not match this transcript", nil)
	}

	role := rbac.Normalize(claims.Role)
	if !rbac.Can(role, rbac.ActionDownload) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Downloads are not available for your role", nil)
	}

	participantEmail := claims.Email
	if rbac.Can(role, rbac.ActionBypassParticipantFilter) {
		participantEmail = ""
	}
	item, err := s.store.GetTranscriptForExport(ctx, transcriptID, participantEmail)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", accessDeniedMessage, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("load transcript: %w", err)
	}

	result, err := s.exporter.Export(export.Document{
		TranscriptID:   item.ID,
		RecordingStart: item.RecordingStart,
		MeetingType:    item.MeetingType,
		Summary:        item.Summary,
		Content:        item.Content,
		Participants:   item.VerifiedParticipantEmails,
		Projects:       item.Projects,
		Clients:        item.Clients,
	}, format)
	if errors.Is(err, export.ErrUnsupportedFormat) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be md or pdf", nil)
	}
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF export is not available", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("export transcript: %w", err)
	}
	return result, nil
}

// ── Teams ──

// TeamDetail is a team with its members and rules, returned to members.
type TeamDetail struct {
	Team    store.Team
	Members []store.TeamMember
	Rules   []store.TranscriptRule
}

func (s *Service) emailAllowed(email string) bool {
	if s.emailDomain == "" {
		return true
	}
	return strings.HasSuffix(strings.ToLower(email), "@"+s.emailDomain)
}

// EmailAllowed reports whether an email may use team features.
func (s *Service) EmailAllowed(email string) bool {
	return s.emailAllowed(email)
}

func (s *Service) CreateTeam(ctx context.Context, session Session, name string) (store.Team, error) {
	if !s.emailAllowed(session.Email) {
		return store.Team{}, domainError(http.StatusForbidden, "FORBIDDEN", "Teams are not available for your account", nil)
	}
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 80 {
		return store.Team{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "name must be between 1 and 80 characters", nil)
	}
	team, err := s.store.CreateTeam(ctx, name, session.Email)
	if err != nil {
		return store.Team{}, fmt.Errorf("create team: %w", err)
	}
	return team, nil
}

func (s *Service) ListTeams(ctx context.Context, session Session) ([]store.Team, error) {
	if !s.emailAllowed(session.Email) {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Teams are not available for your account", nil)
	}
	teams, err := s.store.ListTeamsByUserEmail(ctx, session.Email)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

func (s *Service) GetTeam(ctx context.Context, session Session, teamID string) (TeamDetail, error) {
	team, err := s.requireMembership(ctx, session, teamID)
	if err != nil {
		return TeamDetail{}, err
	}
	members, err := s.store.ListTeamMembers(ctx, teamID)
	if err != nil {
		return TeamDetail{}, fmt.Errorf("list members: %w", err)
	}
	ruleSet, err := s.store.ListTeamRules(ctx, teamID)
	if err != nil {
		return TeamDetail{}, fmt.Errorf("list rules: %w", err)
	}
	return TeamDetail{Team: team, Members: members, Rules: ruleSet}, nil
}

// requireMembership loads the team through the caller's membership. Teams
// the caller does not belong to look like they do not exist.
func (s *Service) requireMembership(ctx context.Context, session Session, teamID string) (store.Team, error) {
	if !s.emailAllowed(session.Email) {
		return store.Team{}, domainError(http.StatusForbidden, "FORBIDDEN", "Teams are not available for your account", nil)
	}
	team, err := s.store.GetTeamForUser(ctx, teamID, session.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Team{}, domainError(http.StatusNotFound, "NOT_FOUND", "Team not found", nil)
	}
	if err != nil {
		return store.Team{}, fmt.Errorf("load team: %w", err)
	}
	return team, nil
}

func (s *Service) requireOwnership(ctx context.Context, session Session, teamID string) (store.Team, error) {
	team, err := s.requireMembership(ctx, session, teamID)
	if err != nil {
		return store.Team{}, err
	}
	if team.Role != "owner" {
		return store.Team{}, domainError(http.StatusForbidden, "FORBIDDEN", "Only team owners can do this", nil)
	}
	return team, nil
}

func (s *Service) AddTeamMember(ctx context.Context, session Session, teamID, email, role string) error {
	if _, err := s.requireOwnership(ctx, session, teamID); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "email is required", nil)
	}
	if !s.emailAllowed(email) {
		return domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "email is outside the allowed domain", nil)
	}
	if role == "" {
		role = "member"
	}
	if role != "member" && role != "owner" {
		return domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "role must be member or owner", nil)
	}
	if err := s.store.AddTeamMember(ctx, teamID, email, role, session.Email); err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	return nil
}

func (s *Service) RemoveTeamMember(ctx context.Context, session Session, teamID, email string) error {
	if _, err := s.requireOwnership(ctx, session, teamID); err != nil {
		return err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if strings.EqualFold(email, session.Email) {
		return domainError(http.StatusBadRequest, "INVALID_ARGUMENT", "Owners cannot remove themselves", nil)
	}
	if err := s.store.RemoveTeamMember(ctx, teamID, email); err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	return nil
}

func (s *Service) ListTeamRules(ctx context.Context, session Session, teamID string) ([]store.TranscriptRule, error) {
	if _, err := s.requireMembership(ctx, session, teamID); err != nil {
		return nil, err
	}
	ruleSet, err := s.store.ListTeamRules(ctx, teamID)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}
	return ruleSet, nil
}

func (s *Service) CreateTeamRule(ctx context.Context, session Session, teamID, ruleType, value string) (store.TranscriptRule, error) {
	if _, err := s.requireOwnership(ctx, session, teamID); err != nil {
		return store.TranscriptRule{}, err
	}
	if ruleType != rules.TypeSummaryTopicExact {
		return store.TranscriptRule{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "type must be summary_topic_exact", nil)
	}
	value = strings.TrimSpace(value)
	if value == "" || len(value) > 200 {
		return store.TranscriptRule{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "value must be between 1 and 200 characters", nil)
	}
	rule, err := s.store.CreateTeamRule(ctx, teamID, ruleType, value, session.Email)
	if err != nil {
		return store.TranscriptRule{}, fmt.Errorf("create rule: %w", err)
	}
	return rule, nil
}

// ShareTranscript records a manual share of a transcript to a team. Any team
// member with the share capability can do it; non-admins must themselves be
// verified participants of the transcript.
func (s *Service) ShareTranscript(ctx context.Context, session Session, teamID string, transcriptID int64) error {
	if !rbac.Can(session.Role, rbac.ActionShare) {
		return domainError(http.StatusForbidden, "FORBIDDEN", "Sharing is not available for your role", nil)
	}
	if _, err := s.requireMembership(ctx, session, teamID); err != nil {
		return err
	}
	if !rbac.Can(session.Role, rbac.ActionBypassParticipantFilter) {
		ok, err := s.store.IsVerifiedParticipant(ctx, transcriptID, session.Email)
		if err != nil {
			return fmt.Errorf("check participant: %w", err)
		}
		if !ok {
			return domainError(http.StatusNotFound, "NOT_FOUND", accessDeniedMessage, nil)
		}
	}
	if err := s.store.ShareTranscriptToTeam(ctx, teamID, transcriptID, session.Email); err != nil {
		return fmt.Errorf("share transcript: %w", err)
	}
	return nil
}

// ── Search ──

// SearchTranscripts runs a visibility-scoped keyword search. Non-admins are
// always participant-filtered; members are limited to summaries since they
// cannot view content.
func (s *Service) SearchTranscripts(ctx context.Context, session Session, q search.Query) (search.Response, error) {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}, nil
	}
	if !rbac.Can(session.Role, rbac.ActionBypassParticipantFilter) {
		q.ParticipantEmail = session.Email
	} else {
		q.ParticipantEmail = ""
	}
	if !rbac.Can(session.Role, rbac.ActionViewContent) {
		q.Scope = search.ScopeSummary
	}
	if q.Scope == "" {
		q.Scope = search.ScopeBoth
	}
	return s.search.Search(q), nil
}

// ── Audio ──

// AudioUpload is the result of storing one recording.
type AudioUpload struct {
	ID        string `json:"id"`
	ObjectKey string `json:"objectKey"`
	Filename  string `json:"filename"`
	SizeBytes int64  `json:"sizeBytes"`
	URL       string `json:"url,omitempty"`
}

func (s *Service) UploadAudio(ctx context.Context, session Session, filename, contentType string, size int64, r io.Reader) (AudioUpload, error) {
	if s.blob == nil {
		return AudioUpload{}, domainError(http.StatusServiceUnavailable, "AUDIO_UNAVAILABLE", "Audio storage is not configured", nil)
	}
	if filename == "" {
		return AudioUpload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "filename is required", nil)
	}

	id := uuid.NewString()
	objectKey := id + filepath.Ext(filename)
	if err := s.blob.PutAudio(ctx, objectKey, contentType, size, r); err != nil {
		return AudioUpload{}, fmt.Errorf("store audio: %w", err)
	}

	rec := store.AudioRecording{
		ID:              id,
		ObjectKey:       objectKey,
		Filename:        filename,
		ContentType:     contentType,
		SizeBytes:       size,
		UploadedByEmail: session.Email,
	}
	if err := s.store.InsertAudioRecording(ctx, rec); err != nil {
		return AudioUpload{}, fmt.Errorf("record audio upload: %w", err)
	}

	url, err := s.blob.PresignedGetURL(ctx, objectKey, time.Hour)
	if err != nil {
		log.Printf("audio: presign %s: %v", objectKey, err)
		url = ""
	}
	return AudioUpload{ID: id, ObjectKey: objectKey, Filename: filename, SizeBytes: size, URL: url}, nil
}

func (s *Service) ListAudioRecordings(ctx context.Context, session Session) ([]store.AudioRecording, error) {
	items, err := s.store.ListAudioRecordingsByUploader(ctx, session.Email)
	if err != nil {
		return nil, fmt.Errorf("list audio recordings: %w", err)
	}
	return items, nil
}

func randomToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
