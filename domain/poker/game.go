// Package poker contains the planning poker game: votes, the reveal/restart
// lifecycle, rendering and the persisted snapshot.
// No network or storage code belongs here.
package poker

import (
	"math"
	"sort"
	"strconv"

	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/samber/lo"
)

// Game is one estimation round for a task, identified by (Room, ID).
// ID is the message id of the command that started the game.
type Game struct {
	Room              int64
	ID                string
	Initiator         User
	Task              string
	RenderedMessageID int
	revealed          bool
	// absent key = no vote yet
	votes map[string]*Vote
}

// NewGame builds a game in memory only; the caller persists it.
func NewGame(room int64, id string, initiator User, task string) *Game {
	return &Game{
		Room:      room,
		ID:        id,
		Initiator: initiator,
		Task:      task,
		votes:     make(map[string]*Vote),
	}
}

func (g *Game) Key() GameKey {
	return GameKey{Room: g.Room, Game: g.ID}
}

func (g *Game) Revealed() bool {
	return g.revealed
}

// AddVote records point for voter, creating the vote on first submission.
func (g *Game) AddVote(voter User, point string) error {
	if g.revealed {
		return errors.ErrAlreadyRevealed
	}
	key := voter.ParticipantKey()
	vote, ok := g.votes[key]
	if !ok {
		vote = NewVote()
		g.votes[key] = vote
	}
	vote.Submit(point)
	return nil
}

// Vote returns a copy of the participant's vote.
func (g *Game) Vote(participantKey string) (Vote, bool) {
	vote, ok := g.votes[participantKey]
	if !ok {
		return Vote{}, false
	}
	return *vote, true
}

// Votes returns a copy of all votes keyed by participant.
func (g *Game) Votes() map[string]Vote {
	return lo.MapValues(g.votes, func(v *Vote, _ string) Vote { return *v })
}

// ParticipantKeys returns the voters in rendering order.
func (g *Game) ParticipantKeys() []string {
	keys := lo.Keys(g.votes)
	sort.Strings(keys)
	return keys
}

// Reveal opens the cards. Revealing twice is a no-op.
func (g *Game) Reveal() {
	g.revealed = true
}

// Restart drops every vote and reopens voting. Identity, task and initiator
// are kept.
func (g *Game) Restart() {
	g.votes = make(map[string]*Vote)
	g.revealed = false
}

// IsInitiator reports whether user may reveal or restart the game.
func (g *Game) IsInitiator(user User) bool {
	return user.ID == g.Initiator.ID
}

// Average is the mean of the numeric points. Jokers and anything that does
// not parse as a finite number are skipped; 0 when nothing is left.
func (g *Game) Average() float64 {
	numbers := lo.FilterMap(lo.Values(g.votes), func(v *Vote, _ int) (float64, bool) {
		if IsJoker(v.Point) {
			return 0, false
		}
		n, err := strconv.ParseFloat(v.Point, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	})
	if len(numbers) == 0 {
		return 0
	}
	return lo.Sum(numbers) / float64(len(numbers))
}
