package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/studyroomhq/studyroom-server/internal/store"
)

// schema is applied on startup. All statements are idempotent.
const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	avatar_id     INTEGER NOT NULL DEFAULT 1,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS rooms (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	name        TEXT NOT NULL,
	room_type   TEXT NOT NULL DEFAULT 'private',
	owner_id    INTEGER NOT NULL,
	invite_code TEXT NOT NULL UNIQUE,
	max_members INTEGER,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (owner_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS room_members (
	room_id         INTEGER NOT NULL,
	user_id         INTEGER NOT NULL,
	current_status  TEXT NOT NULL DEFAULT 'idle',
	current_subject TEXT,
	joined_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (room_id, user_id),
	FOREIGN KEY (room_id) REFERENCES rooms(id),
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS predefined_messages (
	message_key  TEXT PRIMARY KEY,
	content      TEXT NOT NULL,
	message_type TEXT
);

CREATE TABLE IF NOT EXISTS messages (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	room_id     INTEGER NOT NULL,
	sender_id   INTEGER NOT NULL,
	message_key TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (room_id) REFERENCES rooms(id),
	FOREIGN KEY (sender_id) REFERENCES users(id),
	FOREIGN KEY (message_key) REFERENCES predefined_messages(message_key)
);

CREATE TABLE IF NOT EXISTS study_sessions (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id          INTEGER NOT NULL,
	session_type     TEXT NOT NULL,
	duration_seconds INTEGER NOT NULL CHECK (duration_seconds >= 1),
	subject          TEXT,
	created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY (user_id) REFERENCES users(id)
);

CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_room_members_user ON room_members(user_id);
CREATE INDEX IF NOT EXISTS idx_study_sessions_user ON study_sessions(user_id);
CREATE INDEX IF NOT EXISTS idx_study_sessions_created ON study_sessions(created_at);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply a custom schema or seed data.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== UserStore implementation ====

const userColumns = `id, username, email, password_hash, avatar_id, created_at`

func scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.AvatarID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// CreateUser creates a new user with hashed password.
func (s *SQLiteStore) CreateUser(ctx context.Context, username, email, passwordHash string) (*store.User, error) {
	query := `
		INSERT INTO users (username, email, password_hash)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, username, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	return s.GetUserByID(ctx, id)
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id int64) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, id))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, email))
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = ?`
	return scanUser(s.db.QueryRowContext(ctx, query, username))
}

// UpdateUser updates mutable profile fields. Nil pointers are left unchanged.
func (s *SQLiteStore) UpdateUser(ctx context.Context, id int64, username *string, avatarID *int64) (*store.User, error) {
	query := `
		UPDATE users
		SET username = COALESCE(?, username),
		    avatar_id = COALESCE(?, avatar_id)
		WHERE id = ?
	`
	result, err := s.db.ExecContext(ctx, query, username, avatarID, id)
	if err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, fmt.Errorf("user: %w", store.ErrNotFound)
	}

	return s.GetUserByID(ctx, id)
}

// GetPublicProfile retrieves the broadcast-safe view of a user.
func (s *SQLiteStore) GetPublicProfile(ctx context.Context, id int64) (*store.PublicProfile, error) {
	query := `SELECT id, username, avatar_id FROM users WHERE id = ?`
	var p store.PublicProfile
	err := s.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.Username, &p.AvatarID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query profile: %w", err)
	}
	return &p, nil
}

// ==== RoomStore implementation ====

func scanRoom(row *sql.Row) (*store.Room, error) {
	var room store.Room
	var maxMembers sql.NullInt64
	err := row.Scan(
		&room.ID,
		&room.Name,
		&room.Type,
		&room.OwnerID,
		&room.InviteCode,
		&maxMembers,
		&room.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}
	if maxMembers.Valid {
		m := int(maxMembers.Int64)
		room.MaxMembers = &m
	}
	return &room, nil
}

const roomColumns = `id, name, room_type, owner_id, invite_code, max_members, created_at`

// CreateRoom creates a private room and adds the owner as its first member
// in the same transaction, so a failure leaves no orphaned room.
func (s *SQLiteStore) CreateRoom(ctx context.Context, name string, ownerID int64, maxMembers *int, inviteCode string) (*store.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO rooms (name, room_type, owner_id, invite_code, max_members)
		VALUES (?, 'private', ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query, name, ownerID, inviteCode, maxMembers)
	if err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}

	roomID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	memberQuery := `
		INSERT INTO room_members (room_id, user_id, current_status)
		VALUES (?, ?, 'idle')
	`
	if _, err := tx.ExecContext(ctx, memberQuery, roomID, ownerID); err != nil {
		return nil, fmt.Errorf("add owner to members: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetRoomByID(ctx, roomID)
}

// GetRoomByID retrieves a room by ID.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id int64) (*store.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	return scanRoom(s.db.QueryRowContext(ctx, query, id))
}

// GetRoomByInviteCode retrieves a private room by its invite code.
func (s *SQLiteStore) GetRoomByInviteCode(ctx context.Context, code string) (*store.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE invite_code = ? AND room_type = 'private'`
	return scanRoom(s.db.QueryRowContext(ctx, query, code))
}

// JoinByInviteCode admits a user to a private room. The membership check,
// capacity check and insert run in one transaction.
func (s *SQLiteStore) JoinByInviteCode(ctx context.Context, code string, userID int64) (*store.Room, error) {
	room, err := s.GetRoomByInviteCode(ctx, code)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT 1 FROM room_members WHERE room_id = ? AND user_id = ?`,
		room.ID, userID,
	).Scan(&exists)
	if err == nil {
		return nil, store.ErrAlreadyMember
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("check membership: %w", err)
	}

	if room.MaxMembers != nil {
		var count int
		err = tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM room_members WHERE room_id = ?`,
			room.ID,
		).Scan(&count)
		if err != nil {
			return nil, fmt.Errorf("count members: %w", err)
		}
		if count >= *room.MaxMembers {
			return nil, store.ErrRoomFull
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO room_members (room_id, user_id, current_status) VALUES (?, ?, 'idle')`,
		room.ID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert room member: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return room, nil
}

// ListPublicRooms lists rooms visible to everyone.
func (s *SQLiteStore) ListPublicRooms(ctx context.Context) ([]*store.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE room_type = 'public' ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.Room
	for rows.Next() {
		var room store.Room
		var maxMembers sql.NullInt64
		if err := rows.Scan(&room.ID, &room.Name, &room.Type, &room.OwnerID, &room.InviteCode, &maxMembers, &room.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		if maxMembers.Valid {
			m := int(maxMembers.Int64)
			room.MaxMembers = &m
		}
		rooms = append(rooms, &room)
	}

	return rooms, rows.Err()
}

// ListMembers lists room members with profiles, live status and today's
// accumulated study time.
func (s *SQLiteStore) ListMembers(ctx context.Context, roomID int64) ([]*store.MemberInfo, error) {
	startOfDay := time.Now().UTC().Truncate(24 * time.Hour)

	query := `
		SELECT u.id, u.username, u.avatar_id,
		       rm.current_status, rm.current_subject, rm.joined_at,
		       COALESCE((
		           SELECT SUM(s.duration_seconds)
		           FROM study_sessions s
		           WHERE s.user_id = u.id AND s.created_at >= ?
		       ), 0)
		FROM room_members rm
		JOIN users u ON u.id = rm.user_id
		WHERE rm.room_id = ?
		ORDER BY rm.joined_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, startOfDay, roomID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []*store.MemberInfo
	for rows.Next() {
		var m store.MemberInfo
		var subject sql.NullString
		if err := rows.Scan(
			&m.Profile.ID,
			&m.Profile.Username,
			&m.Profile.AvatarID,
			&m.Status,
			&subject,
			&m.JoinedAt,
			&m.StudyTodaySecs,
		); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		if subject.Valid {
			m.Subject = &subject.String
		}
		members = append(members, &m)
	}

	return members, rows.Err()
}

// ==== MembershipStore implementation ====

// FindMembership retrieves the membership row for (roomID, userID).
func (s *SQLiteStore) FindMembership(ctx context.Context, roomID, userID int64) (*store.RoomMember, error) {
	query := `
		SELECT room_id, user_id, current_status, current_subject, joined_at
		FROM room_members
		WHERE room_id = ? AND user_id = ?
	`
	var member store.RoomMember
	var subject sql.NullString
	err := s.db.QueryRowContext(ctx, query, roomID, userID).Scan(
		&member.RoomID,
		&member.UserID,
		&member.Status,
		&subject,
		&member.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("membership: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query membership: %w", err)
	}
	if subject.Valid {
		member.Subject = &subject.String
	}

	return &member, nil
}

// UpdateMemberStatus replaces the status and subject of an existing
// membership row. Passing a nil subject clears it.
func (s *SQLiteStore) UpdateMemberStatus(ctx context.Context, roomID, userID int64, status store.MemberStatus, subject *string) error {
	query := `
		UPDATE room_members
		SET current_status = ?, current_subject = ?
		WHERE room_id = ? AND user_id = ?
	`
	result, err := s.db.ExecContext(ctx, query, status, subject, roomID, userID)
	if err != nil {
		return fmt.Errorf("update member status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("membership: %w", store.ErrNotFound)
	}

	return nil
}

// ==== MessageStore implementation ====

// SaveMessage appends a chat event and returns the stored row.
func (s *SQLiteStore) SaveMessage(ctx context.Context, roomID, senderID int64, messageKey string) (*store.Message, error) {
	query := `
		INSERT INTO messages (room_id, sender_id, message_key)
		VALUES (?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, roomID, senderID, messageKey)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	var msg store.Message
	err = s.db.QueryRowContext(ctx,
		`SELECT id, room_id, sender_id, message_key, created_at FROM messages WHERE id = ?`,
		id,
	).Scan(&msg.ID, &msg.RoomID, &msg.SenderID, &msg.MessageKey, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query message: %w", err)
	}

	return &msg, nil
}

// ListRecentMessages retrieves the newest messages of a room in
// chronological order, with resolved content and sender profiles.
func (s *SQLiteStore) ListRecentMessages(ctx context.Context, roomID int64, limit int) ([]*store.MessageDetail, error) {
	query := `
		SELECT m.id, m.room_id, m.sender_id, m.message_key, m.created_at,
		       pm.content,
		       u.id, u.username, u.avatar_id
		FROM messages m
		JOIN predefined_messages pm ON pm.message_key = m.message_key
		JOIN users u ON u.id = m.sender_id
		WHERE m.room_id = ?
		ORDER BY m.created_at DESC, m.id DESC
		LIMIT ?
	`
	rows, err := s.db.QueryContext(ctx, query, roomID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var messages []*store.MessageDetail
	for rows.Next() {
		var md store.MessageDetail
		if err := rows.Scan(
			&md.ID,
			&md.RoomID,
			&md.SenderID,
			&md.MessageKey,
			&md.CreatedAt,
			&md.Content,
			&md.Sender.ID,
			&md.Sender.Username,
			&md.Sender.AvatarID,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, &md)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Oldest first for display.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

// ==== CatalogStore implementation ====

// GetPredefinedMessage resolves a message key.
func (s *SQLiteStore) GetPredefinedMessage(ctx context.Context, key string) (*store.PredefinedMessage, error) {
	query := `SELECT message_key, content, message_type FROM predefined_messages WHERE message_key = ?`
	var pm store.PredefinedMessage
	var msgType sql.NullString
	err := s.db.QueryRowContext(ctx, query, key).Scan(&pm.Key, &pm.Content, &msgType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("predefined message: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query predefined message: %w", err)
	}
	if msgType.Valid {
		pm.Type = &msgType.String
	}

	return &pm, nil
}

// ListPredefinedMessages lists the whole catalog.
func (s *SQLiteStore) ListPredefinedMessages(ctx context.Context) ([]*store.PredefinedMessage, error) {
	query := `SELECT message_key, content, message_type FROM predefined_messages ORDER BY message_key`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query predefined messages: %w", err)
	}
	defer rows.Close()

	var catalog []*store.PredefinedMessage
	for rows.Next() {
		var pm store.PredefinedMessage
		var msgType sql.NullString
		if err := rows.Scan(&pm.Key, &pm.Content, &msgType); err != nil {
			return nil, fmt.Errorf("scan predefined message: %w", err)
		}
		if msgType.Valid {
			pm.Type = &msgType.String
		}
		catalog = append(catalog, &pm)
	}

	return catalog, rows.Err()
}

// SeedPredefinedMessages inserts catalog entries, ignoring existing keys.
func (s *SQLiteStore) SeedPredefinedMessages(ctx context.Context, msgs []store.PredefinedMessage) error {
	query := `
		INSERT OR IGNORE INTO predefined_messages (message_key, content, message_type)
		VALUES (?, ?, ?)
	`
	for _, pm := range msgs {
		if _, err := s.db.ExecContext(ctx, query, pm.Key, pm.Content, pm.Type); err != nil {
			return fmt.Errorf("seed %q: %w", pm.Key, err)
		}
	}
	return nil
}

// ==== SessionStore implementation ====

// CreateSession records a finished study session.
func (s *SQLiteStore) CreateSession(ctx context.Context, userID int64, sessionType store.SessionType, durationSeconds int, subject *string) (*store.StudySession, error) {
	query := `
		INSERT INTO study_sessions (user_id, session_type, duration_seconds, subject)
		VALUES (?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, userID, sessionType, durationSeconds, subject)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}

	var session store.StudySession
	var subj sql.NullString
	err = s.db.QueryRowContext(ctx,
		`SELECT id, user_id, session_type, duration_seconds, subject, created_at FROM study_sessions WHERE id = ?`,
		id,
	).Scan(&session.ID, &session.UserID, &session.SessionType, &session.DurationSeconds, &subj, &session.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("query session: %w", err)
	}
	if subj.Valid {
		session.Subject = &subj.String
	}

	return &session, nil
}

// ListSessions lists a user's sessions, newest first.
func (s *SQLiteStore) ListSessions(ctx context.Context, userID int64, filter store.SessionFilter) ([]*store.StudySession, error) {
	query := `
		SELECT id, user_id, session_type, duration_seconds, subject, created_at
		FROM study_sessions
		WHERE user_id = ?
	`
	args := []any{userID}

	if filter.SessionType != "" {
		query += ` AND session_type = ?`
		args = append(args, filter.SessionType)
	}
	if !filter.Start.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Start)
	}
	if !filter.End.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, filter.End)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*store.StudySession
	for rows.Next() {
		var session store.StudySession
		var subject sql.NullString
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.SessionType,
			&session.DurationSeconds,
			&subject,
			&session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if subject.Valid {
			session.Subject = &subject.String
		}
		sessions = append(sessions, &session)
	}

	return sessions, rows.Err()
}

// DeleteSession removes one of the user's sessions. The owner check is part
// of the delete, so another user's session id reads as not found.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID, sessionID int64) error {
	query := `DELETE FROM study_sessions WHERE id = ? AND user_id = ?`
	result, err := s.db.ExecContext(ctx, query, sessionID, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session: %w", store.ErrNotFound)
	}

	return nil
}

// TotalFocusSeconds sums all focus time for a user.
func (s *SQLiteStore) TotalFocusSeconds(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COALESCE(SUM(duration_seconds), 0) FROM study_sessions WHERE user_id = ?`
	var total int64
	if err := s.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("query total focus: %w", err)
	}
	return total, nil
}

// DailyTotals sums focus time per day since the given time.
func (s *SQLiteStore) DailyTotals(ctx context.Context, userID int64, since time.Time) ([]store.DailyTotal, error) {
	query := `
		SELECT DATE(created_at), SUM(duration_seconds)
		FROM study_sessions
		WHERE user_id = ? AND created_at >= ?
		GROUP BY DATE(created_at)
		ORDER BY DATE(created_at)
	`
	rows, err := s.db.QueryContext(ctx, query, userID, since)
	if err != nil {
		return nil, fmt.Errorf("query daily totals: %w", err)
	}
	defer rows.Close()

	var totals []store.DailyTotal
	for rows.Next() {
		var dt store.DailyTotal
		if err := rows.Scan(&dt.Day, &dt.TotalSeconds); err != nil {
			return nil, fmt.Errorf("scan daily total: %w", err)
		}
		totals = append(totals, dt)
	}

	return totals, rows.Err()
}

// SubjectTotals sums focus time per subject.
func (s *SQLiteStore) SubjectTotals(ctx context.Context, userID int64) ([]store.GroupTotal, error) {
	query := `
		SELECT COALESCE(subject, ''), SUM(duration_seconds)
		FROM study_sessions
		WHERE user_id = ?
		GROUP BY subject
		ORDER BY SUM(duration_seconds) DESC
	`
	return s.queryGroupTotals(ctx, query, userID)
}

// SessionTypeTotals sums focus time per session type.
func (s *SQLiteStore) SessionTypeTotals(ctx context.Context, userID int64) ([]store.GroupTotal, error) {
	query := `
		SELECT session_type, SUM(duration_seconds)
		FROM study_sessions
		WHERE user_id = ?
		GROUP BY session_type
		ORDER BY SUM(duration_seconds) DESC
	`
	return s.queryGroupTotals(ctx, query, userID)
}

func (s *SQLiteStore) queryGroupTotals(ctx context.Context, query string, userID int64) ([]store.GroupTotal, error) {
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query group totals: %w", err)
	}
	defer rows.Close()

	var totals []store.GroupTotal
	for rows.Next() {
		var gt store.GroupTotal
		if err := rows.Scan(&gt.Key, &gt.TotalSeconds); err != nil {
			return nil, fmt.Errorf("scan group total: %w", err)
		}
		totals = append(totals, gt)
	}

	return totals, rows.Err()
}
