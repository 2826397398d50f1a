// Package callback encodes user actions into the short strings carried by
// inline buttons and decodes them back before any business logic runs.
//
// Two shapes exist on the wire:
//
//	vote-click-<game>-<point>
//	<operation>-click-<game>
//
// The game identifier is numeric only and points never contain the separator,
// so no escaping is needed.
package callback

import (
	"fmt"
	"strings"

	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/samber/lo"
)

const (
	separator  = "-"
	clickToken = "-click-"
	votePrefix = "vote" + clickToken
)

type Operation string

const (
	OpRestart    Operation = "restart"
	OpRestartNew Operation = "restart-new"
	OpReveal     Operation = "reveal"
	OpRevealNew  Operation = "reveal-new"
)

var operations = []Operation{OpRestart, OpRestartNew, OpReveal, OpRevealNew}

// IsRestart reports whether the operation clears the votes.
func (o Operation) IsRestart() bool {
	return o == OpRestart || o == OpRestartNew
}

// PostsNewMessage reports whether the operation freezes the current message
// and continues in a freshly posted one.
func (o Operation) PostsNewMessage() bool {
	return o == OpRestartNew || o == OpRevealNew
}

// Action is the decoded form of a button payload: either a VoteAction or a
// ControlAction.
type Action interface {
	GameID() string
	isAction()
}

type VoteAction struct {
	Game  string
	Point string
}

func (v VoteAction) GameID() string { return v.Game }
func (VoteAction) isAction()        {}

type ControlAction struct {
	Operation Operation
	Game      string
}

func (c ControlAction) GameID() string { return c.Game }
func (ControlAction) isAction()        {}

// Codec knows the enumerated point set so that decoding rejects points no
// button could have produced.
type Codec struct {
	points map[string]struct{}
}

func NewCodec(points ...string) Codec {
	set := make(map[string]struct{}, len(points))
	for _, p := range points {
		set[p] = struct{}{}
	}
	return Codec{points: set}
}

func (c Codec) EncodeVote(gameID, point string) string {
	return votePrefix + gameID + separator + point
}

func (c Codec) EncodeControl(op Operation, gameID string) string {
	return string(op) + clickToken + gameID
}

// Encode renders any Action back into its wire form.
func (c Codec) Encode(a Action) string {
	switch action := a.(type) {
	case VoteAction:
		return c.EncodeVote(action.Game, action.Point)
	case ControlAction:
		return c.EncodeControl(action.Operation, action.Game)
	default:
		return ""
	}
}

// Decode parses data into a VoteAction or a ControlAction.
// Anything else fails with errors.ErrMalformedCallback.
func (c Codec) Decode(data string) (Action, error) {
	if rest, ok := strings.CutPrefix(data, votePrefix); ok {
		return c.decodeVote(data, rest)
	}
	op, gameID, ok := strings.Cut(data, clickToken)
	if !ok {
		return nil, malformed(data, "unknown shape")
	}
	operation := Operation(op)
	if !lo.Contains(operations, operation) {
		return nil, malformed(data, "unknown operation")
	}
	if !isNumeric(gameID) {
		return nil, malformed(data, "game id must be numeric")
	}
	return ControlAction{Operation: operation, Game: gameID}, nil
}

func (c Codec) decodeVote(data, rest string) (Action, error) {
	gameID, point, ok := strings.Cut(rest, separator)
	if !ok {
		return nil, malformed(data, "missing point")
	}
	if !isNumeric(gameID) {
		return nil, malformed(data, "game id must be numeric")
	}
	if point == "" || strings.Contains(point, separator) {
		return nil, malformed(data, "invalid point")
	}
	if _, known := c.points[point]; !known {
		return nil, malformed(data, "point outside the scale")
	}
	return VoteAction{Game: gameID, Point: point}, nil
}

func malformed(data, reason string) error {
	return fmt.Errorf("%w: %q: %s", errors.ErrMalformedCallback, data, reason)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
