package rankapi

import (
	"encoding/json"
	"testing"

	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"

	"github.com/cloudx-io/bidranking/core"
)

func TestRankRequest_WireFormat(t *testing.T) {
	payload := `{
		"type": "rank_request",
		"project_id": "proj-1",
		"strategy": "rating",
		"bids": [
			{"id": "bid1", "freelancer_id": "fl-1", "proposed_rate": 100, "freelancer_rating": 4.2, "cover_letter": "hi"},
			{"id": "bid2", "proposed_rate": 120, "freelancer_rating": 4.9}
		]
	}`

	var req RankRequest
	assert.NoError(t, json.Unmarshal([]byte(payload), &req))

	check.Equal(t, TypeRankRequest, req.Type)
	check.Equal(t, "proj-1", req.ProjectID)
	check.Equal(t, "rating", req.Strategy)
	check.Equal(t, 2, len(req.Bids))
	check.Equal(t, core.Bid{ID: "bid1", FreelancerID: "fl-1", ProposedRate: 100, FreelancerRating: 4.2, CoverLetter: "hi"}, req.Bids[0])
}

func TestRankResponse_EmptyBidsSerializeAsArray(t *testing.T) {
	resp := RankResponse{Type: TypeRankResponse, Success: true, Bids: []core.Bid{}}

	data, err := json.Marshal(resp)
	assert.NoError(t, err)

	var decoded map[string]any
	assert.NoError(t, json.Unmarshal(data, &decoded))
	check.Equal[any](t, []any{}, decoded["bids"])
	_, hasProof := decoded["proof"]
	check.False(t, hasProof)
}

func TestNewInvalidBid(t *testing.T) {
	invalid := NewInvalidBid(&core.ValidationError{
		BidID:  "bid-9",
		Field:  core.FieldProposedRate,
		Value:  0,
		Reason: "must be greater than zero",
	})

	check.Equal(t, InvalidBid{BidID: "bid-9", Field: "proposed_rate", Value: 0, Reason: "must be greater than zero"}, invalid)
}
