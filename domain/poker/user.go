package poker

import (
	"fmt"
	"strconv"
)

// User is a chat member as seen by the game: the initiator or a voter.
type User struct {
	ID          int64  `json:"id" validate:"required"`
	DisplayName string `json:"displayName"`
	Handle      string `json:"handle,omitempty"`
}

// Label renders "@handle (displayName)", falling back to the numeric id when
// the user has no handle.
func (u User) Label() string {
	name := u.Handle
	if name == "" {
		name = strconv.FormatInt(u.ID, 10)
	}
	return fmt.Sprintf("@%s (%s)", name, u.DisplayName)
}

// ParticipantKey identifies the user's vote inside a game. It doubles as the
// display label in the votes block.
func (u User) ParticipantKey() string {
	return u.Label()
}
