package votes

// Transition is the outcome of requesting a direction from a current state.
type Transition struct {
	From       Direction
	To         Direction
	VoteDelta  int
	ScoreDelta int
}

// IsNoop reports whether the transition leaves the counters untouched.
func (t Transition) IsNoop() bool {
	return t.VoteDelta == 0 && t.ScoreDelta == 0
}

// Label is used as a metrics label, e.g. "up->down".
func (t Transition) Label() string {
	return t.From.String() + "->" + t.To.String()
}

// Next computes the vote state machine step. Requesting the current
// direction cancels it; requesting the opposite one flips in a single step.
func Next(current, requested Direction) Transition {
	t := Transition{From: current}
	switch {
	case current == requested:
		t.To = None
		t.VoteDelta = -1
		t.ScoreDelta = -weight(requested)
	case current == None:
		t.To = requested
		t.VoteDelta = 1
		t.ScoreDelta = weight(requested)
	default:
		t.To = requested
		t.ScoreDelta = 2 * weight(requested)
	}
	return t
}

func weight(d Direction) int {
	switch d {
	case Up:
		return 1
	case Down:
		return -1
	}
	return 0
}
