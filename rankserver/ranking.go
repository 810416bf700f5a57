package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cloudx-io/bidranking/core"
	"github.com/cloudx-io/bidranking/rankapi"
)

// RankingService ranks requests and signs the results.
type RankingService struct {
	signer   *ProofSigner
	selector *core.Selector
	weights  core.CompositeWeights
	metrics  *Metrics
	logger   zerolog.Logger
	now      func() time.Time
}

// NewRankingService wires a service. metrics may be nil.
func NewRankingService(signer *ProofSigner, weights core.CompositeWeights, metrics *Metrics, logger zerolog.Logger) *RankingService {
	return &RankingService{
		signer:   signer,
		selector: core.NewSelector(weights),
		weights:  weights,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// ProcessRanking ranks one request. Bad bids produce an unsuccessful
// response listing the offending bid; nothing is partially ranked.
func (rs *RankingService) ProcessRanking(req rankapi.RankRequest) rankapi.RankResponse {
	startTime := rs.now()
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	strategyName := rs.selector.Select(req.Strategy).Name()
	log := rs.logger.With().
		Str("request_id", req.RequestID).
		Str("project_id", req.ProjectID).
		Str("strategy", strategyName).
		Logger()

	log.Info().Int("bids", len(req.Bids)).Msg("processing rank request")
	if !rs.selector.IsKnown(req.Strategy) {
		log.Debug().Str("token", req.Strategy).Msg("unrecognized strategy token, using composite")
	}
	if rs.metrics != nil {
		rs.metrics.ObserveBids(len(req.Bids))
	}

	resp := rankapi.RankResponse{
		Type:      rankapi.TypeRankResponse,
		RequestID: req.RequestID,
		ProjectID: req.ProjectID,
		Strategy:  strategyName,
		Bids:      []core.Bid{},
	}

	result, err := core.RankProjectBids(req.Bids, core.RankOptions{
		Strategy:        req.Strategy,
		Currency:        req.Currency,
		ConversionRates: req.ConversionRates,
		Selector:        rs.selector,
	})
	if err != nil {
		var validationErr *core.ValidationError
		if errors.As(err, &validationErr) {
			log.Warn().
				Str("bid_id", validationErr.BidID).
				Str("field", validationErr.Field).
				Msg("rejected rank request with invalid bid")
			resp.Message = fmt.Sprintf("Invalid bid: %v", validationErr)
			resp.InvalidBids = []rankapi.InvalidBid{rankapi.NewInvalidBid(validationErr)}
			rs.record(strategyName, OutcomeInvalid, startTime)
			if rs.metrics != nil {
				rs.metrics.IncRejectedBid(validationErr.Field)
			}
		} else {
			log.Error().Err(err).Msg("ranking failed")
			resp.Message = fmt.Sprintf("Ranking failed: %v", err)
			rs.record(strategyName, OutcomeError, startTime)
		}
		resp.ProcessingTime = rs.now().Sub(startTime).Milliseconds()
		return resp
	}

	proof, err := GenerateRankingProof(req, result, rs.weights, rs.now())
	if err == nil {
		var signed rankapi.COSE
		signed, err = rs.signer.Sign(proof)
		if err == nil {
			resp.Proof = signed.EncodeBase64()
		}
	}
	if err != nil {
		log.Error().Err(err).Msg("ranking proof failed")
		resp.Message = fmt.Sprintf("Ranking proof failed: %v", err)
		rs.record(strategyName, OutcomeError, startTime)
		resp.ProcessingTime = rs.now().Sub(startTime).Milliseconds()
		return resp
	}

	resp.Success = true
	resp.Message = fmt.Sprintf("Ranked %d bids", len(result.Bids))
	resp.Bids = result.Bids
	resp.Ranks = result.Ranks
	resp.ProcessingTime = rs.now().Sub(startTime).Milliseconds()
	rs.record(strategyName, OutcomeSuccess, startTime)

	top := "none"
	if result.Top != nil {
		top = result.Top.ID
	}
	log.Info().
		Str("top_bid", top).
		Int64("processing_ms", resp.ProcessingTime).
		Msg("ranking complete")

	return resp
}

func (rs *RankingService) record(strategy, outcome string, start time.Time) {
	if rs.metrics == nil {
		return
	}
	rs.metrics.IncRequests(strategy, outcome)
	rs.metrics.ObserveRankDuration(strategy, rs.now().Sub(start).Seconds())
}
