package jwt

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RoomClaims identify a room member. Subject is the user id.
type RoomClaims struct {
	jwt.RegisteredClaims
	Room string `json:"room"`
	Role Role   `json:"role"`
}

// UserID parses the subject.
func (c *RoomClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// MatchRoom reports whether the token was issued for the room with the
// given join code.
func (c *RoomClaims) MatchRoom(code string) error {
	return MatchRoom(c.Room, code)
}

// MatchRoom compares a token's room with a join code case-insensitively.
func MatchRoom(tokenRoom, code string) error {
	if tokenRoom == "" || !strings.EqualFold(tokenRoom, code) {
		return ErrRoomMismatch
	}
	return nil
}

type Role string

const (
	RolePlayer   Role = "player"
	RoleAudience Role = "audience"
)

func (r Role) Valid() bool {
	return r == RolePlayer || r == RoleAudience
}
