package models

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Role is the single role an account holds at any time. BANNED supersedes
// every permission check.
type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
	RoleBanned    Role = "BANNED"
)

// ParseRole matches case-insensitively, like the enum on the wire.
func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToUpper(s)) {
	case RoleUser:
		return RoleUser, true
	case RoleModerator:
		return RoleModerator, true
	case RoleAdmin:
		return RoleAdmin, true
	case RoleBanned:
		return RoleBanned, true
	}
	return "", false
}

// Active reports whether the role participates in normal permission checks.
func (r Role) Active() bool {
	return r == RoleUser || r == RoleModerator || r == RoleAdmin
}

type User struct {
	ID           string     `gorm:"primaryKey;size:26"          json:"id"`
	Email        string     `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Alias        string     `gorm:"size:20;not null;uniqueIndex"  json:"alias"`
	PasswordHash string     `gorm:"size:200;not null"           json:"-"`
	Role         Role       `gorm:"size:10;not null;default:USER" json:"role"`
	LastLogin    time.Time  `gorm:"not null"                    json:"last_login"`
	RevokedAt    *time.Time `json:"revoked_at,omitempty"`
	Confirmed    bool       `gorm:"not null;default:false"      json:"confirmed"`
}

// NewID returns a fresh 26-char ULID. Lexical order follows creation time,
// so the id doubles as the registration timestamp.
func NewID() string {
	return ulid.Make().String()
}

// ValidID reports whether s is a well-formed ULID.
func ValidID(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}

// RegisteredOn extracts the millisecond creation time embedded in the id.
func (u *User) RegisteredOn() time.Time {
	id, err := ulid.Parse(u.ID)
	if err != nil {
		return time.Time{}
	}
	return ulid.Time(id.Time()).UTC()
}
