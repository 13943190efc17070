package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ── Users ──

// EnsureUserByExternalID resolves an external identity to a local user row,
// creating it on first sight. The upsert makes concurrent first-touch safe:
// two simultaneous requests for a brand-new identity converge on one row.
func (s *PostgresStore) EnsureUserByExternalID(ctx context.Context, externalID, email, firstName, lastName string) (User, error) {
	if externalID == "" {
		return User{}, fmt.Errorf("ensure user: empty external id")
	}
	const upsert = `
		INSERT INTO users (id, external_id, email, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (external_id) DO UPDATE
			SET email = EXCLUDED.email,
			    first_name = EXCLUDED.first_name,
			    last_name = EXCLUDED.last_name
		RETURNING id, external_id, email, first_name, last_name, created_at
	`
	var user User
	err := s.db.QueryRowContext(ctx, upsert, uuid.NewString(), externalID, email, firstName, lastName).
		Scan(&user.ID, &user.ExternalID, &user.Email, &user.FirstName, &user.LastName, &user.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("ensure user: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User
	err := s.db.QueryRowContext(ctx, `
		SELECT id, external_id, email, first_name, last_name, created_at
		FROM users WHERE id=$1
	`, userID).Scan(&user.ID, &user.ExternalID, &user.Email, &user.FirstName, &user.LastName, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	return user, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (User, error) {
	var user User
	var passwordHash sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, external_id, email, first_name, last_name, COALESCE(password_hash, ''), created_at
		FROM users WHERE LOWER(email)=LOWER($1)
	`, email).Scan(&user.ID, &user.ExternalID, &user.Email, &user.FirstName, &user.LastName, &passwordHash, &user.CreatedAt)
	if err != nil {
		return User{}, err
	}
	user.PasswordHash = passwordHash.String
	return user, nil
}

func (s *PostgresStore) CreateLocalUser(ctx context.Context, user User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, external_id, email, first_name, last_name, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, user.ID, user.ExternalID, user.Email, user.FirstName, user.LastName, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("create local user: %w", err)
	}
	return nil
}

// ── Sessions (Postgres fallback when Redis is not configured) ──

// SessionData is the identity snapshot held against a refresh token. Role is
// the tier classified at exchange time; it is re-derived on the next
// provider exchange, never mutated locally.
type SessionData struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

func (s *PostgresStore) SaveRefreshSession(ctx context.Context, tokenHash string, data SessionData, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO refresh_sessions (token_hash, user_id, user_email, user_name, user_role, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (token_hash) DO UPDATE
			SET user_id=EXCLUDED.user_id, user_email=EXCLUDED.user_email,
			    user_name=EXCLUDED.user_name, user_role=EXCLUDED.user_role,
			    expires_at=EXCLUDED.expires_at, revoked_at=NULL
	`, tokenHash, data.UserID, data.Email, data.Name, data.Role, expiresAt)
	if err != nil {
		return fmt.Errorf("save refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) LookupRefreshSession(ctx context.Context, tokenHash string) (SessionData, error) {
	const query = `
		SELECT user_id, user_email, user_name, user_role
		FROM refresh_sessions
		WHERE token_hash = $1
			AND revoked_at IS NULL
			AND expires_at > NOW()
	`
	var data SessionData
	err := s.db.QueryRowContext(ctx, query, tokenHash).Scan(&data.UserID, &data.Email, &data.Name, &data.Role)
	if err != nil {
		return SessionData{}, err
	}
	return data, nil
}

func (s *PostgresStore) RevokeRefreshSession(ctx context.Context, tokenHash string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE refresh_sessions SET revoked_at=NOW() WHERE token_hash=$1`, tokenHash)
	if err != nil {
		return fmt.Errorf("revoke refresh session: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeAccessToken(ctx context.Context, jti string, exp time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO revoked_access_tokens (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO NOTHING
	`, jti, exp)
	if err != nil {
		return fmt.Errorf("revoke access token: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsAccessTokenRevoked(ctx context.Context, jti string) (bool, error) {
	var revoked bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM revoked_access_tokens WHERE jti=$1)`, jti).Scan(&revoked)
	if err != nil {
		return false, fmt.Errorf("check revoked token: %w", err)
	}
	return revoked, nil
}

// ── Teams ──

// CreateTeam inserts the team and the creator's owner membership in one
// transaction, so a team can never exist without an owner.
func (s *PostgresStore) CreateTeam(ctx context.Context, name, creatorEmail string) (Team, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Team{}, fmt.Errorf("begin create team: %w", err)
	}

	team := Team{ID: uuid.NewString(), Name: name, CreatedByEmail: creatorEmail, Role: "owner"}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO teams (id, name, created_by_email)
		VALUES ($1, $2, $3)
		RETURNING created_at
	`, team.ID, team.Name, team.CreatedByEmail).Scan(&team.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return Team{}, fmt.Errorf("insert team: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO team_memberships (team_id, user_email, role, created_by_email)
		VALUES ($1, $2, 'owner', $2)
	`, team.ID, creatorEmail); err != nil {
		_ = tx.Rollback()
		return Team{}, fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Team{}, fmt.Errorf("commit create team: %w", err)
	}
	return team, nil
}

func (s *PostgresStore) ListTeamsByUserEmail(ctx context.Context, email string) ([]Team, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.created_by_email, t.created_at, tm.role
		FROM teams t
		JOIN team_memberships tm ON tm.team_id = t.id
		WHERE tm.user_email = $1
		ORDER BY t.created_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	items := make([]Team, 0)
	for rows.Next() {
		var item Team
		if err := rows.Scan(&item.ID, &item.Name, &item.CreatedByEmail, &item.CreatedAt, &item.Role); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate teams: %w", err)
	}
	return items, nil
}

// GetTeamForUser loads a team with the caller's role on it. sql.ErrNoRows
// means the caller is not a member, deliberately indistinguishable from a
// team that does not exist.
func (s *PostgresStore) GetTeamForUser(ctx context.Context, teamID, email string) (Team, error) {
	var team Team
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.name, t.created_by_email, t.created_at, tm.role
		FROM teams t
		JOIN team_memberships tm ON tm.team_id = t.id
		WHERE t.id = $1 AND tm.user_email = $2
	`, teamID, email).Scan(&team.ID, &team.Name, &team.CreatedByEmail, &team.CreatedAt, &team.Role)
	if err != nil {
		return Team{}, err
	}
	return team, nil
}

func (s *PostgresStore) ListTeamMembers(ctx context.Context, teamID string) ([]TeamMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, user_email, role, created_by_email, created_at
		FROM team_memberships
		WHERE team_id = $1
		ORDER BY created_at ASC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	items := make([]TeamMember, 0)
	for rows.Next() {
		var item TeamMember
		if err := rows.Scan(&item.TeamID, &item.UserEmail, &item.Role, &item.CreatedByEmail, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team members: %w", err)
	}
	return items, nil
}

// AddTeamMember is idempotent: re-adding an existing member is a no-op.
func (s *PostgresStore) AddTeamMember(ctx context.Context, teamID, userEmail, role, createdByEmail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_memberships (team_id, user_email, role, created_by_email)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (team_id, user_email) DO NOTHING
	`, teamID, userEmail, role, createdByEmail)
	if err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

func (s *PostgresStore) RemoveTeamMember(ctx context.Context, teamID, userEmail string) error {
	_, err := s.db.ExecContext(ctx, `
		DELETE FROM team_memberships WHERE team_id=$1 AND user_email=$2
	`, teamID, userEmail)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	return nil
}

// ── Auto-share rules ──

func (s *PostgresStore) ListTeamRules(ctx context.Context, teamID string) ([]TranscriptRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, team_id, type, value, enabled, created_by_email, created_at
		FROM team_transcript_rules
		WHERE team_id = $1
		ORDER BY created_at ASC
	`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func (s *PostgresStore) CreateTeamRule(ctx context.Context, teamID, ruleType, value, createdByEmail string) (TranscriptRule, error) {
	rule := TranscriptRule{
		ID:             uuid.NewString(),
		TeamID:         teamID,
		Type:           ruleType,
		Value:          value,
		Enabled:        true,
		CreatedByEmail: createdByEmail,
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO team_transcript_rules (id, team_id, type, value, enabled, created_by_email)
		VALUES ($1, $2, $3, $4, TRUE, $5)
		RETURNING created_at
	`, rule.ID, rule.TeamID, rule.Type, rule.Value, rule.CreatedByEmail).Scan(&rule.CreatedAt)
	if err != nil {
		return TranscriptRule{}, fmt.Errorf("create team rule: %w", err)
	}
	return rule, nil
}

// ListEnabledRulesForMember returns the enabled rules of every team the user
// belongs to, the rule set the auto-share engine evaluates on listing.
func (s *PostgresStore) ListEnabledRulesForMember(ctx context.Context, email string) ([]TranscriptRule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.team_id, r.type, r.value, r.enabled, r.created_by_email, r.created_at
		FROM team_transcript_rules r
		JOIN team_memberships tm ON tm.team_id = r.team_id
		WHERE tm.user_email = $1 AND r.enabled
		ORDER BY r.created_at ASC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list enabled rules: %w", err)
	}
	defer rows.Close()
	return scanRules(rows)
}

func scanRules(rows *sql.Rows) ([]TranscriptRule, error) {
	items := make([]TranscriptRule, 0)
	for rows.Next() {
		var item TranscriptRule
		if err := rows.Scan(&item.ID, &item.TeamID, &item.Type, &item.Value, &item.Enabled, &item.CreatedByEmail, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}
	return items, nil
}

// ── Share ledger ──

// ShareTranscriptToTeam is idempotent: the unique constraint absorbs both
// user retries and concurrent rule-engine inserts.
func (s *PostgresStore) ShareTranscriptToTeam(ctx context.Context, teamID string, transcriptID int64, createdByEmail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO team_transcript_shares (team_id, transcript_id, created_by_email)
		VALUES ($1, $2, $3)
		ON CONFLICT (team_id, transcript_id) DO NOTHING
	`, teamID, transcriptID, createdByEmail)
	if err != nil {
		return fmt.Errorf("share transcript to team: %w", err)
	}
	return nil
}

func (s *PostgresStore) ShareTranscriptToUser(ctx context.Context, userEmail string, transcriptID int64, createdByEmail string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_transcript_shares (user_email, transcript_id, created_by_email)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_email, transcript_id) DO NOTHING
	`, userEmail, transcriptID, createdByEmail)
	if err != nil {
		return fmt.Errorf("share transcript to user: %w", err)
	}
	return nil
}

// TeamSharesVisibleToUser returns every (transcript, team) grant reachable
// through the user's memberships, joined with team names for annotation.
func (s *PostgresStore) TeamSharesVisibleToUser(ctx context.Context, email string) ([]TeamShareRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT ts.transcript_id, ts.team_id, t.name
		FROM team_transcript_shares ts
		JOIN teams t ON t.id = ts.team_id
		JOIN team_memberships tm ON tm.team_id = ts.team_id
		WHERE tm.user_email = $1
		ORDER BY ts.created_at ASC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list team shares: %w", err)
	}
	defer rows.Close()

	items := make([]TeamShareRow, 0)
	for rows.Next() {
		var item TeamShareRow
		if err := rows.Scan(&item.TranscriptID, &item.TeamID, &item.TeamName); err != nil {
			return nil, fmt.Errorf("scan team share: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate team shares: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) DirectSharedTranscriptIDs(ctx context.Context, email string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT transcript_id FROM user_transcript_shares WHERE user_email = $1
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list direct shares: %w", err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan direct share: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate direct shares: %w", err)
	}
	return ids, nil
}

// IsTranscriptShared answers "is transcript X visible to user Y through the
// share ledger": shared to any team the user belongs to, or directly to the
// user's email.
func (s *PostgresStore) IsTranscriptShared(ctx context.Context, transcriptID int64, email string) (bool, error) {
	var shared bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM team_transcript_shares ts
			JOIN team_memberships tm ON tm.team_id = ts.team_id
			WHERE ts.transcript_id = $1 AND tm.user_email = $2
		) OR EXISTS(
			SELECT 1 FROM user_transcript_shares
			WHERE transcript_id = $1 AND user_email = $2
		)
	`, transcriptID, email).Scan(&shared)
	if err != nil {
		return false, fmt.Errorf("check transcript shared: %w", err)
	}
	return shared, nil
}

// ── Transcripts (read-only; written by the external recording system) ──

const transcriptColumns = `id, recording_start, summary, projects, clients, meeting_type, extracted_participants, verified_participant_emails`

func (s *PostgresStore) CountTranscriptsByParticipant(ctx context.Context, email string) (int, error) {
	var total int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM transcripts
		WHERE verified_participant_emails @> jsonb_build_array($1::text)
	`, email).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count transcripts: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) ListTranscriptsByParticipant(ctx context.Context, email string, limit, offset int) ([]Transcript, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transcriptColumns+`
		FROM transcripts
		WHERE verified_participant_emails @> jsonb_build_array($1::text)
		ORDER BY recording_start DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`, email, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transcripts: %w", err)
	}
	defer rows.Close()
	return scanTranscripts(rows)
}

func (s *PostgresStore) ListTranscriptsByIDs(ctx context.Context, ids []int64, limit, offset int) ([]Transcript, error) {
	if len(ids) == 0 {
		return []Transcript{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transcriptColumns+`
		FROM transcripts
		WHERE id = ANY($1)
		ORDER BY recording_start DESC NULLS LAST
		LIMIT $2 OFFSET $3
	`, ids, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list transcripts by ids: %w", err)
	}
	defer rows.Close()
	return scanTranscripts(rows)
}

func (s *PostgresStore) IsVerifiedParticipant(ctx context.Context, transcriptID int64, email string) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM transcripts
			WHERE id = $1 AND verified_participant_emails @> jsonb_build_array($2::text)
		)
	`, transcriptID, email).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check participant: %w", err)
	}
	return ok, nil
}

// GetTranscriptContent returns the cleaned transcript text. A non-empty
// participantEmail adds the verified-participant filter, so absence and
// access denial both surface as sql.ErrNoRows.
func (s *PostgresStore) GetTranscriptContent(ctx context.Context, transcriptID int64, participantEmail string) (string, error) {
	query := `
		SELECT COALESCE(transcript_content->>'cleaned', '')
		FROM transcripts
		WHERE id = $1
	`
	args := []any{transcriptID}
	if participantEmail != "" {
		query += ` AND verified_participant_emails @> jsonb_build_array($2::text)`
		args = append(args, participantEmail)
	}
	var content string
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&content); err != nil {
		return "", err
	}
	return content, nil
}

// TranscriptWithContent pairs transcript metadata with its cleaned text,
// used by export and search indexing.
type TranscriptWithContent struct {
	Transcript
	Content string
}

func (s *PostgresStore) GetTranscriptForExport(ctx context.Context, transcriptID int64, participantEmail string) (TranscriptWithContent, error) {
	query := `
		SELECT ` + transcriptColumns + `, COALESCE(transcript_content->>'cleaned', '')
		FROM transcripts
		WHERE id = $1
	`
	args := []any{transcriptID}
	if participantEmail != "" {
		query += ` AND verified_participant_emails @> jsonb_build_array($2::text)`
		args = append(args, participantEmail)
	}
	var item TranscriptWithContent
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&item.ID, &item.RecordingStart, &item.Summary, &item.Projects, &item.Clients,
		&item.MeetingType, &item.ExtractedParticipants, &item.VerifiedParticipantEmails,
		&item.Content,
	)
	if err != nil {
		return TranscriptWithContent{}, err
	}
	return item, nil
}

// ListTranscriptsForIndex loads every transcript with content for search
// reindexing at bootstrap.
func (s *PostgresStore) ListTranscriptsForIndex(ctx context.Context) ([]TranscriptWithContent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+transcriptColumns+`, COALESCE(transcript_content->>'cleaned', '')
		FROM transcripts
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list transcripts for index: %w", err)
	}
	defer rows.Close()

	items := make([]TranscriptWithContent, 0)
	for rows.Next() {
		var item TranscriptWithContent
		if err := rows.Scan(
			&item.ID, &item.RecordingStart, &item.Summary, &item.Projects, &item.Clients,
			&item.MeetingType, &item.ExtractedParticipants, &item.VerifiedParticipantEmails,
			&item.Content,
		); err != nil {
			return nil, fmt.Errorf("scan transcript for index: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcripts for index: %w", err)
	}
	return items, nil
}

func scanTranscripts(rows *sql.Rows) ([]Transcript, error) {
	items := make([]Transcript, 0)
	for rows.Next() {
		var item Transcript
		if err := rows.Scan(
			&item.ID, &item.RecordingStart, &item.Summary, &item.Projects, &item.Clients,
			&item.MeetingType, &item.ExtractedParticipants, &item.VerifiedParticipantEmails,
		); err != nil {
			return nil, fmt.Errorf("scan transcript: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transcripts: %w", err)
	}
	return items, nil
}

// ── Audio recordings ──

func (s *PostgresStore) InsertAudioRecording(ctx context.Context, rec AudioRecording) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audio_recordings (id, object_key, filename, content_type, size_bytes, uploaded_by_email)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.ObjectKey, rec.Filename, rec.ContentType, rec.SizeBytes, rec.UploadedByEmail)
	if err != nil {
		return fmt.Errorf("insert audio recording: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAudioRecordingsByUploader(ctx context.Context, email string) ([]AudioRecording, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, object_key, filename, content_type, size_bytes, uploaded_by_email, created_at
		FROM audio_recordings
		WHERE uploaded_by_email = $1
		ORDER BY created_at DESC
	`, email)
	if err != nil {
		return nil, fmt.Errorf("list audio recordings: %w", err)
	}
	defer rows.Close()

	items := make([]AudioRecording, 0)
	for rows.Next() {
		var item AudioRecording
		if err := rows.Scan(&item.ID, &item.ObjectKey, &item.Filename, &item.ContentType, &item.SizeBytes, &item.UploadedByEmail, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audio recording: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audio recordings: %w", err)
	}
	return items, nil
}
