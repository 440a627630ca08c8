package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mkorobov/roomcast-server/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single writer connection. This also means
	// message inserts commit in submission order per process.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// NewWithSetup creates a new SQLite store and runs a setup function instead
// of the built-in schema. Useful for tests.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

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

// CreateUser creates a user and assigns the default "user" role in the same
// transaction.
func (s *SQLiteStore) CreateUser(ctx context.Context, email, name, passwordHash string) (*store.UserDetails, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	userID := uuid.NewString()
	insert := `
		INSERT INTO users (id, email, name, password)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, insert, userID, email, name, passwordHash); err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	assign := `
		INSERT INTO user_roles (user_id, role_id)
		SELECT ?, id FROM roles WHERE name = 'user'
	`
	if _, err := tx.ExecContext(ctx, assign, userID); err != nil {
		return nil, fmt.Errorf("assign default role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	roles, err := s.ListUserRoles(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &store.UserDetails{ID: userID, Email: email, Name: name, Roles: roles}, nil
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	query := `
		SELECT id, email, name, password, created
		FROM users
		WHERE email = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, email))
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	query := `
		SELECT id, email, name, password, created
		FROM users
		WHERE id = ?
	`
	return s.scanUser(s.db.QueryRowContext(ctx, query, id))
}

func (s *SQLiteStore) scanUser(row *sql.Row) (*store.User, error) {
	var user store.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.Created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &user, nil
}

// ListUsers lists all users with resolved roles, newest first.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*store.UserDetails, error) {
	query := `
		SELECT id, email, name
		FROM users
		ORDER BY created DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []*store.UserDetails
	for rows.Next() {
		var u store.UserDetails
		if err := rows.Scan(&u.ID, &u.Email, &u.Name); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, u := range users {
		roles, err := s.ListUserRoles(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		u.Roles = roles
	}

	return users, nil
}

// DeleteUser removes a user together with their memberships, messages and
// owned rooms, all in one transaction.
func (s *SQLiteStore) DeleteUser(ctx context.Context, userID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	steps := []struct {
		name  string
		query string
	}{
		{"delete memberships", `DELETE FROM room_members WHERE user_id = ?`},
		{"delete messages", `DELETE FROM messages WHERE user_id = ?`},
		{"delete owned room messages", `DELETE FROM messages WHERE room_id IN (SELECT id FROM rooms WHERE owner = ?)`},
		{"delete owned room members", `DELETE FROM room_members WHERE room_id IN (SELECT id FROM rooms WHERE owner = ?)`},
		{"delete owned rooms", `DELETE FROM rooms WHERE owner = ?`},
		{"delete roles", `DELETE FROM user_roles WHERE user_id = ?`},
	}
	for _, step := range steps {
		if _, err := tx.ExecContext(ctx, step.query, userID); err != nil {
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("user: %w", store.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ==== RoleStore implementation ====

// CreateRole creates a new role.
func (s *SQLiteStore) CreateRole(ctx context.Context, name string) (*store.Role, error) {
	result, err := s.db.ExecContext(ctx, `INSERT INTO roles (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert role: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("get last insert id: %w", err)
	}
	return &store.Role{ID: id, Name: name}, nil
}

// ListRoles lists all roles ordered by ID.
func (s *SQLiteStore) ListRoles(ctx context.Context) ([]store.Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query roles: %w", err)
	}
	defer rows.Close()

	return scanRoles(rows)
}

// ListUserRoles lists the roles assigned to a user.
func (s *SQLiteStore) ListUserRoles(ctx context.Context, userID string) ([]store.Role, error) {
	query := `
		SELECT r.id, r.name
		FROM roles r
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = ?
		ORDER BY r.id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query user roles: %w", err)
	}
	defer rows.Close()

	return scanRoles(rows)
}

func scanRoles(rows *sql.Rows) ([]store.Role, error) {
	roles := make([]store.Role, 0)
	for rows.Next() {
		var r store.Role
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, r)
	}
	return roles, rows.Err()
}

// AssignRole grants a role to a user. Already-assigned is a no-op.
func (s *SQLiteStore) AssignRole(ctx context.Context, userID string, roleID int64) error {
	query := `
		INSERT OR IGNORE INTO user_roles (user_id, role_id)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("insert user role: %w", err)
	}
	return nil
}

// RemoveRole revokes a role from a user.
func (s *SQLiteStore) RemoveRole(ctx context.Context, userID string, roleID int64) error {
	query := `DELETE FROM user_roles WHERE user_id = ? AND role_id = ?`
	if _, err := s.db.ExecContext(ctx, query, userID, roleID); err != nil {
		return fmt.Errorf("delete user role: %w", err)
	}
	return nil
}

// ReplaceRoles removes all of a user's roles and assigns the named one.
// The delete and insert run in a single transaction so a failed step never
// leaves the user role-less.
func (s *SQLiteStore) ReplaceRoles(ctx context.Context, userID, roleName string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var roleID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM roles WHERE name = ?`, roleName).Scan(&roleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("role %q: %w", roleName, store.ErrNotFound)
		}
		return fmt.Errorf("query role: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ?`, userID); err != nil {
		return fmt.Errorf("delete user roles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)`, userID, roleID); err != nil {
		return fmt.Errorf("insert user role: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ==== RoomStore implementation ====

// CreateRoom creates a room and adds the owner as its first member in the
// same transaction.
func (s *SQLiteStore) CreateRoom(ctx context.Context, name, ownerID string) (*store.Room, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	roomID := uuid.NewString()
	if _, err := tx.ExecContext(ctx, `INSERT INTO rooms (id, name, owner) VALUES (?, ?, ?)`, roomID, name, ownerID); err != nil {
		return nil, fmt.Errorf("insert room: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO room_members (room_id, user_id) VALUES (?, ?)`, roomID, ownerID); err != nil {
		return nil, fmt.Errorf("insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}

	return s.GetRoomByID(ctx, roomID)
}

// GetRoomByID retrieves a room by ID.
func (s *SQLiteStore) GetRoomByID(ctx context.Context, id string) (*store.Room, error) {
	query := `
		SELECT id, name, owner, created
		FROM rooms
		WHERE id = ?
	`
	var room store.Room
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&room.ID,
		&room.Name,
		&room.OwnerID,
		&room.Created,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("room: %w", store.ErrNotFound)
		}
		return nil, fmt.Errorf("query room: %w", err)
	}
	return &room, nil
}

// ListRooms lists all rooms with member counts.
func (s *SQLiteStore) ListRooms(ctx context.Context) ([]*store.RoomWithMemberCount, error) {
	query := `
		SELECT r.id, r.name, r.owner, r.created, COUNT(rm.user_id)
		FROM rooms r
		LEFT JOIN room_members rm ON r.id = rm.room_id
		GROUP BY r.id
		ORDER BY r.created ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rooms: %w", err)
	}
	defer rows.Close()

	var rooms []*store.RoomWithMemberCount
	for rows.Next() {
		var room store.RoomWithMemberCount
		if err := rows.Scan(&room.ID, &room.Name, &room.OwnerID, &room.Created, &room.MemberCount); err != nil {
			return nil, fmt.Errorf("scan room: %w", err)
		}
		rooms = append(rooms, &room)
	}
	return rooms, rows.Err()
}

// AddMember adds a user to a room. Already-member is a no-op.
func (s *SQLiteStore) AddMember(ctx context.Context, roomID, userID string) error {
	query := `
		INSERT OR IGNORE INTO room_members (room_id, user_id)
		VALUES (?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query, roomID, userID); err != nil {
		return fmt.Errorf("insert room member: %w", err)
	}
	return nil
}

// RemoveMember removes a user from a room.
func (s *SQLiteStore) RemoveMember(ctx context.Context, roomID, userID string) error {
	query := `DELETE FROM room_members WHERE room_id = ? AND user_id = ?`
	if _, err := s.db.ExecContext(ctx, query, roomID, userID); err != nil {
		return fmt.Errorf("delete room member: %w", err)
	}
	return nil
}

// IsMember checks if user is a member of the room.
func (s *SQLiteStore) IsMember(ctx context.Context, roomID, userID string) (bool, error) {
	query := `SELECT 1 FROM room_members WHERE room_id = ? AND user_id = ?`
	var exists int
	err := s.db.QueryRowContext(ctx, query, roomID, userID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query membership: %w", err)
	}
	return true, nil
}

// ListMembers lists the user IDs of a room's persisted members.
func (s *SQLiteStore) ListMembers(ctx context.Context, roomID string) ([]string, error) {
	query := `
		SELECT user_id FROM room_members
		WHERE room_id = ?
		ORDER BY joined_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, userID)
	}
	return members, rows.Err()
}

// ==== MessageStore implementation ====

// InsertMessage persists a message and resolves the author's display
// attributes via a join, inside one transaction. The denormalization happens
// once, at write time.
func (s *SQLiteStore) InsertMessage(ctx context.Context, input store.MessageInput) (*store.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	messageID := uuid.NewString()
	insert := `
		INSERT INTO messages (id, content, user_id, room_id)
		VALUES (?, ?, ?, ?)
	`
	if _, err := tx.ExecContext(ctx, insert, messageID, input.Content, input.UserID, input.RoomID); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	query := `
		SELECT m.id, m.content, m.created, m.room_id, u.id, u.name, u.email
		FROM messages m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.id = ?
	`
	var msg store.Message
	err = tx.QueryRowContext(ctx, query, messageID).Scan(
		&msg.ID,
		&msg.Content,
		&msg.Created,
		&msg.RoomID,
		&msg.User.ID,
		&msg.User.Name,
		&msg.User.Email,
	)
	if err != nil {
		return nil, fmt.Errorf("query inserted message: %w", err)
	}

	roles, err := userRolesTx(ctx, tx, msg.User.ID)
	if err != nil {
		return nil, err
	}
	msg.User.Roles = roles

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return &msg, nil
}

// ListMessages retrieves a room's messages in insertion order.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID string) ([]*store.Message, error) {
	query := `
		SELECT m.id, m.content, m.created, m.room_id, u.id, u.name, u.email
		FROM messages m
		INNER JOIN users u ON m.user_id = u.id
		WHERE m.room_id = ?
		ORDER BY m.created ASC, m.rowid ASC
	`
	rows, err := s.db.QueryContext(ctx, query, roomID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var msg store.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.Content,
			&msg.Created,
			&msg.RoomID,
			&msg.User.ID,
			&msg.User.Name,
			&msg.User.Email,
		); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.User.Roles = make([]store.Role, 0)
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

func userRolesTx(ctx context.Context, tx *sql.Tx, userID string) ([]store.Role, error) {
	query := `
		SELECT r.id, r.name
		FROM roles r
		INNER JOIN user_roles ur ON r.id = ur.role_id
		WHERE ur.user_id = ?
		ORDER BY r.id ASC
	`
	rows, err := tx.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query user roles: %w", err)
	}
	defer rows.Close()

	return scanRoles(rows)
}

// ==== StatsStore implementation ====

// Statistics returns totals and the ten most active rooms.
func (s *SQLiteStore) Statistics(ctx context.Context) (*store.Statistics, error) {
	var stats store.Statistics

	counts := []struct {
		query string
		dest  *int
	}{
		{`SELECT COUNT(*) FROM users`, &stats.TotalUsers},
		{`SELECT COUNT(*) FROM rooms`, &stats.TotalRooms},
		{`SELECT COUNT(*) FROM messages`, &stats.TotalMessages},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("count: %w", err)
		}
	}

	query := `
		SELECT r.id, r.name,
			(SELECT COUNT(*) FROM room_members rm WHERE rm.room_id = r.id),
			(SELECT COUNT(*) FROM messages m WHERE m.room_id = r.id) AS message_count
		FROM rooms r
		ORDER BY message_count DESC
		LIMIT 10
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active rooms: %w", err)
	}
	defer rows.Close()

	stats.ActiveRooms = make([]store.RoomActivity, 0)
	for rows.Next() {
		var a store.RoomActivity
		if err := rows.Scan(&a.ID, &a.Name, &a.MemberCount, &a.MessageCount); err != nil {
			return nil, fmt.Errorf("scan room activity: %w", err)
		}
		stats.ActiveRooms = append(stats.ActiveRooms, a)
	}
	return &stats, rows.Err()
}

// MonthlyUserStats returns per-month registration counts.
func (s *SQLiteStore) MonthlyUserStats(ctx context.Context) ([]store.MonthlyUserCount, error) {
	query := `
		SELECT strftime('%Y-%m', created) AS month, COUNT(*)
		FROM users
		GROUP BY month
		ORDER BY month ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query monthly users: %w", err)
	}
	defer rows.Close()

	stats := make([]store.MonthlyUserCount, 0)
	for rows.Next() {
		var m store.MonthlyUserCount
		if err := rows.Scan(&m.Month, &m.UserCount); err != nil {
			return nil, fmt.Errorf("scan monthly users: %w", err)
		}
		stats = append(stats, m)
	}
	return stats, rows.Err()
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
