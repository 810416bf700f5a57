package core

// Bid represents a single freelancer bid submitted against a project.
// Ranking only reads ProposedRate and FreelancerRating; every other field is
// carried through unchanged.
type Bid struct {
	ID               string  `json:"id"`
	ProjectID        string  `json:"project_id,omitempty"`
	FreelancerID     string  `json:"freelancer_id,omitempty"`
	ProposedRate     float64 `json:"proposed_rate"`
	FreelancerRating float64 `json:"freelancer_rating"`
	Currency         string  `json:"currency,omitempty"`
	CoverLetter      string  `json:"cover_letter,omitempty"`
}

// RankingResult contains the ranked bids of a project and their positions.
type RankingResult struct {
	// Strategy is the name of the strategy that produced the order
	Strategy string `json:"strategy"`

	// Bids holds every input bid as submitted, highest-value first
	Bids []Bid `json:"bids"`

	// Ranks maps bid ID to its 1-based position. Bids without an ID are omitted.
	Ranks map[string]int `json:"ranks"`

	// Top is the first ranked bid (nil if there were no bids)
	Top *Bid `json:"top,omitempty"`
}
