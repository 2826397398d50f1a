package poker

import (
	"fmt"
	"strings"

	"github.com/Light-Bearing/tg-poker-planing/callback"
	"github.com/samber/lo"
)

// Codec builds and parses the payloads of the game buttons.
var Codec = callback.NewCodec(AvailablePoints...)

type Button struct {
	Text string
	Data string
}

// Keyboard is a transport-neutral inline keyboard, one slice per row.
// A nil Keyboard means "no buttons".
type Keyboard [][]Button

// Text renders the message shown in the chat. Points stay masked until the
// game is revealed.
func (g *Game) Text() string {
	header := "Vote"
	if g.revealed {
		header = "Results"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s for:\n%s\nInitiator: %s", header, g.Task, g.Initiator.Label())
	if len(g.votes) == 0 {
		return b.String()
	}
	lines := lo.Map(g.ParticipantKeys(), func(key string, _ int) string {
		vote := g.votes[key]
		shown := vote.Masked()
		if g.revealed {
			shown = vote.Point
		}
		return fmt.Sprintf("%-3s %s", shown, key)
	})
	b.WriteString("\n\nCurrent votes:\n")
	b.WriteString(strings.Join(lines, "\n"))
	return b.String()
}

// Keyboard lays the scale out on two rows followed by the restart and
// reveal controls.
func (g *Game) Keyboard() Keyboard {
	points := lo.Map(AvailablePoints, func(point string, _ int) Button {
		return Button{Text: point, Data: Codec.EncodeVote(g.ID, point)}
	})
	return Keyboard{
		points[:halfPoints],
		points[halfPoints:],
		{
			{Text: "Restart", Data: Codec.EncodeControl(callback.OpRestart, g.ID)},
			{Text: "Restart 🆕", Data: Codec.EncodeControl(callback.OpRestartNew, g.ID)},
		},
		{
			{Text: "Open Cards", Data: Codec.EncodeControl(callback.OpReveal, g.ID)},
			{Text: "Open Cards 🆕", Data: Codec.EncodeControl(callback.OpRevealNew, g.ID)},
		},
	}
}
