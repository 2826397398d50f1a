package poker

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVote_Submit_Increments_Revision(t *testing.T) {
	req := require.New(t)
	vote := NewVote()
	req.Equal(-1, vote.Revision)

	for k := 1; k <= 10; k++ {
		vote.Submit("5")
		req.Equal(k-1, vote.Revision)
		req.Equal("5", vote.Point)
	}
}

func TestVote_Masked_Cycles_Through_Four_Marks(t *testing.T) {
	req := require.New(t)
	vote := NewVote()
	seen := make(map[string]struct{})
	var sequence []string

	for i := 0; i < 8; i++ {
		vote.Submit("13")
		sequence = append(sequence, vote.Masked())
		seen[vote.Masked()] = struct{}{}
	}

	req.Len(seen, 4)
	req.Equal(sequence[:4], sequence[4:])
	req.Equal([]string{"♥", "♦", "♠", "♣"}, sequence[:4])
}

func TestVote_Masked_Ignores_Point(t *testing.T) {
	req := require.New(t)
	a, b := NewVote(), NewVote()

	a.Submit("1")
	b.Submit(JokerBreak)
	req.Equal(a.Masked(), b.Masked())

	a.Submit("40")
	b.Submit("2")
	req.Equal(a.Masked(), b.Masked())
}

func TestVote_Masked_Before_First_Submission(t *testing.T) {
	require.Equal(t, "♣", NewVote().Masked())
}
