package poker

import (
	"encoding/json"
	"fmt"

	"github.com/samber/lo"
)

// Snapshot is the persisted form of a Game. Average is stored for readers
// of the raw data only; it is recomputed on every save and ignored on load.
type Snapshot struct {
	Initiator         User            `json:"initiator"`
	Text              string          `json:"text"`
	RenderedMessageID int             `json:"renderedMessageId"`
	Revealed          bool            `json:"revealed"`
	Votes             map[string]Vote `json:"votes"`
	Average           float64         `json:"average"`
}

func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Initiator:         g.Initiator,
		Text:              g.Task,
		RenderedMessageID: g.RenderedMessageID,
		Revealed:          g.revealed,
		Votes:             g.Votes(),
		Average:           g.Average(),
	}
}

// FromSnapshot restores the game stored under (room, id).
func FromSnapshot(room int64, id string, s Snapshot) *Game {
	g := NewGame(room, id, s.Initiator, s.Text)
	g.RenderedMessageID = s.RenderedMessageID
	g.revealed = s.Revealed
	g.votes = lo.MapValues(s.Votes, func(v Vote, _ string) *Vote {
		return &Vote{Point: v.Point, Revision: v.Revision}
	})
	return g
}

func (g *Game) MarshalSnapshot() ([]byte, error) {
	return json.Marshal(g.Snapshot())
}

func UnmarshalGame(room int64, id string, data []byte) (*Game, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode game %d:%s: %w", room, id, err)
	}
	return FromSnapshot(room, id, s), nil
}
