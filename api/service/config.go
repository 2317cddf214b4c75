package service

import (
	"time"

	"github.com/docker/go-units"
	"github.com/gin-gonic/gin"

	"github.com/photon-storage/idea-market/api/auth"
	"github.com/photon-storage/idea-market/database/orm"
)

type configResp struct {
	Address       string   `json:"address"`
	Admin         string   `json:"admin"`
	AcceptedAsset string   `json:"accepted_asset"`
	ProposalFee   uint64   `json:"proposal_fee"`
	VoteDuration  int64    `json:"vote_duration_seconds"`
	VoteWindow    string   `json:"vote_window"`
	Committee     []string `json:"committee"`
}

func toConfigResp(cfg *orm.MarketConfig) *configResp {
	return &configResp{
		Address:       cfg.Address,
		Admin:         cfg.Admin,
		AcceptedAsset: cfg.AcceptedAsset,
		ProposalFee:   cfg.ProposalFee,
		VoteDuration:  cfg.VoteDurationSeconds,
		VoteWindow:    units.HumanDuration(time.Duration(cfg.VoteDurationSeconds) * time.Second),
		Committee:     cfg.Committee,
	}
}

// Config handles the /config request.
func (s *Service) Config(c *gin.Context) (*configResp, error) {
	cfg, err := s.market.Config(c.Request.Context())
	if err != nil {
		return nil, err
	}

	return toConfigResp(cfg), nil
}

type initConfigReq struct {
	AcceptedAsset       string `json:"accepted_asset" binding:"required,principal"`
	ProposalFee         uint64 `json:"proposal_fee"`
	VoteDurationSeconds int64  `json:"vote_duration_seconds" binding:"required"`
}

// InitConfig handles the /config/init request. The caller becomes admin.
func (s *Service) InitConfig(c *gin.Context, req *initConfigReq) (*configResp, error) {
	cfg, err := s.market.InitializeConfig(
		c.Request.Context(),
		auth.Caller(c),
		req.AcceptedAsset,
		req.ProposalFee,
		req.VoteDurationSeconds,
	)
	if err != nil {
		return nil, err
	}

	return toConfigResp(cfg), nil
}

type committeeReq struct {
	Committee []string `json:"committee" binding:"required,dive,principal"`
}

// SetCommittee handles the /config/committee request.
func (s *Service) SetCommittee(c *gin.Context, req *committeeReq) (*configResp, error) {
	cfg, err := s.market.SetCommittee(c.Request.Context(), auth.Caller(c), req.Committee)
	if err != nil {
		return nil, err
	}

	return toConfigResp(cfg), nil
}
