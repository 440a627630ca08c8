package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Role is a named permission group assignable to users.
type Role struct {
	ID   int64
	Name string
}

// User represents a user in the system.
type User struct {
	ID           string // UUID
	Email        string
	Name         string
	PasswordHash string
	Created      time.Time
}

// UserDetails is the public view of a user, including resolved roles.
type UserDetails struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Roles []Role `json:"roles"`
}

// Room represents a chat room.
type Room struct {
	ID      string // UUID
	Name    string
	OwnerID string
	Created time.Time
}

// RoomWithMemberCount is a room plus its persisted membership size.
type RoomWithMemberCount struct {
	Room
	MemberCount int
}

// MessageInput is the client-supplied part of a message.
type MessageInput struct {
	Content string `json:"content"`
	UserID  string `json:"userId"`
	RoomID  string `json:"roomId"`
}

// Message is a persisted chat message with the author denormalized at
// write time, so readers never need a second lookup.
type Message struct {
	ID      string      `json:"id"`
	Content string      `json:"content"`
	Created time.Time   `json:"created"`
	RoomID  string      `json:"roomId"`
	User    UserDetails `json:"user"`
}

// RoomActivity summarizes one room for the admin dashboard.
type RoomActivity struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	MemberCount  int    `json:"memberCount"`
	MessageCount int    `json:"messageCount"`
}

// Statistics holds aggregate counts for the admin dashboard.
type Statistics struct {
	TotalUsers    int            `json:"totalUsers"`
	TotalRooms    int            `json:"totalRooms"`
	TotalMessages int            `json:"totalMessages"`
	ActiveRooms   []RoomActivity `json:"activeRooms"`
}

// MonthlyUserCount is the number of users registered in one calendar month.
type MonthlyUserCount struct {
	Month     string `json:"month"`
	UserCount int    `json:"userCount"`
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser creates a user and assigns the default "user" role in the
	// same transaction. Returns the created user with resolved roles.
	CreateUser(ctx context.Context, email, name, passwordHash string) (*UserDetails, error)

	// GetUserByEmail retrieves a user by email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// ListUsers lists all users with resolved roles, newest first.
	ListUsers(ctx context.Context) ([]*UserDetails, error)

	// DeleteUser removes a user together with their memberships, messages
	// and owned rooms, all in one transaction.
	DeleteUser(ctx context.Context, userID string) error
}

// RoleStore handles role persistence and user-role assignment.
type RoleStore interface {
	// CreateRole creates a new role.
	CreateRole(ctx context.Context, name string) (*Role, error)

	// ListRoles lists all roles ordered by ID.
	ListRoles(ctx context.Context) ([]Role, error)

	// ListUserRoles lists the roles assigned to a user.
	ListUserRoles(ctx context.Context, userID string) ([]Role, error)

	// AssignRole grants a role to a user. Already-assigned is a no-op.
	AssignRole(ctx context.Context, userID string, roleID int64) error

	// RemoveRole revokes a role from a user.
	RemoveRole(ctx context.Context, userID string, roleID int64) error

	// ReplaceRoles removes all of a user's roles and assigns the named one,
	// in a single transaction.
	ReplaceRoles(ctx context.Context, userID, roleName string) error
}

// RoomStore handles room persistence.
type RoomStore interface {
	// CreateRoom creates a room and adds the owner as its first member in
	// the same transaction.
	CreateRoom(ctx context.Context, name, ownerID string) (*Room, error)

	// GetRoomByID retrieves a room by ID.
	GetRoomByID(ctx context.Context, id string) (*Room, error)

	// ListRooms lists all rooms with member counts.
	ListRooms(ctx context.Context) ([]*RoomWithMemberCount, error)

	// AddMember adds a user to a room. Already-member is a no-op.
	AddMember(ctx context.Context, roomID, userID string) error

	// RemoveMember removes a user from a room.
	RemoveMember(ctx context.Context, roomID, userID string) error

	// IsMember checks if user is a member of the room.
	IsMember(ctx context.Context, roomID, userID string) (bool, error)

	// ListMembers lists the user IDs of a room's persisted members.
	ListMembers(ctx context.Context, roomID string) ([]string, error)
}

// MessageStore handles message persistence.
type MessageStore interface {
	// InsertMessage persists a message and resolves the author's display
	// attributes via a join in the same transaction.
	InsertMessage(ctx context.Context, input MessageInput) (*Message, error)

	// ListMessages retrieves a room's messages in insertion order, with
	// denormalized authors.
	ListMessages(ctx context.Context, roomID string) ([]*Message, error)
}

// StatsStore provides aggregates for the admin dashboard.
type StatsStore interface {
	// Statistics returns totals and the ten most active rooms.
	Statistics(ctx context.Context) (*Statistics, error)

	// MonthlyUserStats returns per-month registration counts.
	MonthlyUserStats(ctx context.Context) ([]MonthlyUserCount, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	RoleStore
	RoomStore
	MessageStore
	StatsStore

	// Close closes the underlying database connection.
	Close() error
}
