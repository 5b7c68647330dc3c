package consensus

// Outcome of resolving a vote tally.
type Outcome int

const (
	Pending Outcome = iota
	Approved
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Approved:
		return "approved"
	case Rejected:
		return "rejected"
	default:
		return "pending"
	}
}

// MinimumVotes is the participation floor below which no decision is made.
// The floor is derived from the current vote count rather than a fixed
// roster, so every vote beyond the second immediately produces a decision.
const MinimumVotes = 2

// Resolve turns a vote tally into a consensus outcome. It is pure and
// deterministic: fewer than MinimumVotes total votes is Pending,
// otherwise the agree fraction is compared against the quorum threshold.
func Resolve(agree, disagree int, quorumThreshold float64) Outcome {
	total := agree + disagree
	if total < MinimumVotes {
		return Pending
	}
	if float64(agree)/float64(total) >= quorumThreshold {
		return Approved
	}
	return Rejected
}
