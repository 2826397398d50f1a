package callback

import (
	"testing"

	"github.com/Light-Bearing/tg-poker-planing/errors"
	"github.com/stretchr/testify/require"
)

var codec = NewCodec("1", "2", "3", "5", "8", "13", "❔", "☕")

func TestCodec_Decode_Vote(t *testing.T) {
	req := require.New(t)

	action, err := codec.Decode("vote-click-42-❔")

	req.NoError(err)
	req.Equal(VoteAction{Game: "42", Point: "❔"}, action)
	req.Equal("42", action.GameID())
}

func TestCodec_Decode_Control(t *testing.T) {
	req := require.New(t)

	action, err := codec.Decode("reveal-new-click-42")

	req.NoError(err)
	req.Equal(ControlAction{Operation: OpRevealNew, Game: "42"}, action)
}

func TestCodec_Decode_All_Operations(t *testing.T) {
	req := require.New(t)
	for _, op := range []Operation{OpRestart, OpRestartNew, OpReveal, OpRevealNew} {
		action, err := codec.Decode(codec.EncodeControl(op, "7"))
		req.NoError(err)
		req.Equal(ControlAction{Operation: op, Game: "7"}, action)
	}
}

func TestCodec_Decode_Rejects_Malformed(t *testing.T) {
	cases := map[string]string{
		"garbage":                  "garbage",
		"empty":                    "",
		"unknown operation":        "shuffle-click-42",
		"missing point":            "vote-click-42",
		"empty point":              "vote-click-42-",
		"point with separator":     "vote-click-42-1-2",
		"point outside the scale":  "vote-click-42-100",
		"non numeric vote game":    "vote-click-abc-5",
		"non numeric control game": "reveal-click-4a",
		"missing control game":     "restart-click-",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := codec.Decode(data)
			require.ErrorIs(t, err, errors.ErrMalformedCallback)
		})
	}
}

func TestCodec_Encode_Is_Reversible(t *testing.T) {
	req := require.New(t)
	actions := []Action{
		VoteAction{Game: "1001", Point: "13"},
		VoteAction{Game: "1001", Point: "☕"},
		ControlAction{Operation: OpRestart, Game: "1001"},
	}
	for _, a := range actions {
		decoded, err := codec.Decode(codec.Encode(a))
		req.NoError(err)
		req.Equal(a, decoded)
	}
}

func TestOperation_Flags(t *testing.T) {
	req := require.New(t)
	req.True(OpRestart.IsRestart())
	req.True(OpRestartNew.IsRestart())
	req.False(OpReveal.IsRestart())
	req.True(OpRevealNew.PostsNewMessage())
	req.False(OpRestart.PostsNewMessage())
}
