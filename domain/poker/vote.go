package poker

// marks are shown instead of the point until cards are opened.
var marks = []string{"♥", "♦", "♠", "♣"}

// Vote is the current point of one participant. Revision is -1 until the
// first submission and grows by one on every submission.
type Vote struct {
	Point    string `json:"point"`
	Revision int    `json:"revision"`
}

func NewVote() *Vote {
	return &Vote{Revision: -1}
}

// Submit replaces the point. The point is not checked against the scale.
func (v *Vote) Submit(point string) {
	v.Point = point
	v.Revision++
}

// Masked depends on the revision only, so a re-vote is visible without
// leaking its value.
func (v Vote) Masked() string {
	n := len(marks)
	return marks[((v.Revision%n)+n)%n]
}
