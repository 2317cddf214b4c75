package service

import (
	"github.com/gin-gonic/gin"

	"github.com/photon-storage/idea-market/api/auth"
	"github.com/photon-storage/idea-market/database/orm"
)

type escrowResp struct {
	Address        string `json:"address"`
	Idea           string `json:"idea"`
	Proposal       string `json:"proposal"`
	Builder        string `json:"builder"`
	Vault          string `json:"vault"`
	VaultBalance   string `json:"vault_balance"`
	ReleasedAmount string `json:"released_amount"`
	Status         string `json:"status"`
}

func (s *Service) toEscrowResp(c *gin.Context, escrow *orm.Escrow) (*escrowResp, error) {
	vault, err := s.market.Vault(c.Request.Context(), escrow.Vault)
	if err != nil {
		return nil, err
	}

	return &escrowResp{
		Address:        escrow.Address,
		Idea:           escrow.Idea,
		Proposal:       escrow.Proposal,
		Builder:        escrow.Builder,
		Vault:          escrow.Vault,
		VaultBalance:   s.amount(vault.Balance),
		ReleasedAmount: s.amount(escrow.ReleasedAmount),
		Status:         escrow.Status.String(),
	}, nil
}

// Escrow handles the /escrow request.
func (s *Service) Escrow(c *gin.Context, req *ideaQuery) (*escrowResp, error) {
	escrow, err := s.market.Escrow(c.Request.Context(), *req.IdeaID)
	if err != nil {
		return nil, err
	}

	return s.toEscrowResp(c, escrow)
}

type finalizeReq struct {
	IdeaID   *uint64 `json:"idea_id" binding:"required"`
	Proposal string  `json:"proposal" binding:"required"`
}

// FinalizeWinner handles the /ideas/finalize request.
func (s *Service) FinalizeWinner(c *gin.Context, req *finalizeReq) (*escrowResp, error) {
	escrow, err := s.market.FinalizeWinner(
		c.Request.Context(),
		auth.Caller(c),
		*req.IdeaID,
		req.Proposal,
	)
	if err != nil {
		return nil, err
	}

	return s.toEscrowResp(c, escrow)
}

type proofReq struct {
	Proposal string `json:"proposal" binding:"required"`
	Index    *uint8 `json:"index" binding:"required"`
	ProofURI string `json:"proof_uri"`
}

// SubmitMilestoneProof handles the /milestones/proof request.
func (s *Service) SubmitMilestoneProof(c *gin.Context, req *proofReq) (*milestoneResp, error) {
	ms, err := s.market.SubmitMilestoneProof(
		c.Request.Context(),
		auth.Caller(c),
		req.Proposal,
		*req.Index,
		req.ProofURI,
	)
	if err != nil {
		return nil, err
	}

	return s.toMilestoneResp(ms), nil
}

type approveReq struct {
	Proposal string `json:"proposal" binding:"required"`
	Escrow   string `json:"escrow" binding:"required"`
	Index    *uint8 `json:"index" binding:"required"`
}

// ApproveAndRelease handles the /milestones/approve request.
func (s *Service) ApproveAndRelease(c *gin.Context, req *approveReq) (*escrowResp, error) {
	escrow, err := s.market.ApproveAndRelease(
		c.Request.Context(),
		auth.Caller(c),
		req.Proposal,
		req.Escrow,
		*req.Index,
	)
	if err != nil {
		return nil, err
	}

	return s.toEscrowResp(c, escrow)
}
