package service

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/api/auth"
	"github.com/photon-storage/idea-market/api/pagination"
	"github.com/photon-storage/idea-market/database/orm"
	"github.com/photon-storage/idea-market/market"
)

type milestoneResp struct {
	Index      uint8   `json:"index"`
	Amount     string  `json:"amount"`
	DeadlineTs int64   `json:"deadline_ts"`
	ProofURI   *string `json:"proof_uri,omitempty"`
	Status     string  `json:"status"`
	Approved   bool    `json:"approved"`
}

type proposalResp struct {
	ProposalID     uint64           `json:"proposal_id"`
	Address        string           `json:"address"`
	Idea           string           `json:"idea"`
	Builder        string           `json:"builder"`
	MetadataURI    string           `json:"metadata_uri"`
	RequestedTotal string           `json:"requested_total"`
	Status         string           `json:"status"`
	VoteCount      uint64           `json:"vote_count"`
	MilestoneCount uint8            `json:"milestone_count"`
	Milestones     []*milestoneResp `json:"milestones,omitempty"`
}

func (s *Service) toProposalResp(p *orm.Proposal) *proposalResp {
	resp := &proposalResp{
		ProposalID:     p.ProposalID,
		Address:        p.Address,
		Idea:           p.Idea,
		Builder:        p.Builder,
		MetadataURI:    p.MetadataURI,
		RequestedTotal: s.amount(p.RequestedTotal),
		Status:         p.Status.String(),
		VoteCount:      p.VoteCount,
		MilestoneCount: p.MilestoneCount,
	}
	for _, ms := range p.Milestones {
		resp.Milestones = append(resp.Milestones, s.toMilestoneResp(ms))
	}

	return resp
}

func (s *Service) toMilestoneResp(ms *orm.Milestone) *milestoneResp {
	return &milestoneResp{
		Index:      ms.Index,
		Amount:     s.amount(ms.Amount),
		DeadlineTs: ms.DeadlineTs,
		ProofURI:   ms.ProofURI,
		Status:     ms.Status.String(),
		Approved:   ms.Status == orm.MilestoneApproved,
	}
}

type proposalQuery struct {
	Proposal string `form:"proposal" binding:"required"`
}

// Proposal handles the /proposal request.
func (s *Service) Proposal(c *gin.Context, req *proposalQuery) (*proposalResp, error) {
	p, err := s.market.Proposal(c.Request.Context(), req.Proposal)
	if err != nil {
		return nil, err
	}

	return s.toProposalResp(p), nil
}

// Proposals handles the /proposals request. Proposals are ordered by
// vote count for display only, the committee still names the winner.
func (s *Service) Proposals(
	c *gin.Context,
	req *ideaQuery,
	page *pagination.Query,
) (*pagination.Result, error) {
	query := s.db.WithContext(c.Request.Context()).
		Model(&orm.Proposal{}).
		Where("idea = ?", market.IdeaAddress(*req.IdeaID)).
		Session(&gorm.Session{})

	count := int64(0)
	if err := query.Count(&count).Error; err != nil {
		return nil, err
	}

	ps := make([]*orm.Proposal, 0)
	if err := query.Order("vote_count desc").
		Order("proposal_id").
		Offset(page.Start).
		Limit(page.Limit).
		Find(&ps).
		Error; err != nil {
		return nil, err
	}

	resps := make([]*proposalResp, len(ps))
	for i, p := range ps {
		resps[i] = s.toProposalResp(p)
	}

	return &pagination.Result{
		Data:  resps,
		Total: count,
	}, nil
}

type milestoneReq struct {
	Amount     uint64 `json:"amount"`
	DeadlineTs int64  `json:"deadline_ts"`
}

type submitProposalReq struct {
	IdeaID         *uint64         `json:"idea_id" binding:"required"`
	ProposalID     *uint64         `json:"proposal_id" binding:"required"`
	RequestedTotal uint64          `json:"requested_total"`
	MetadataURI    string          `json:"metadata_uri"`
	Milestones     []*milestoneReq `json:"milestones" binding:"dive,required"`
}

// SubmitProposal handles the /proposals request.
func (s *Service) SubmitProposal(c *gin.Context, req *submitProposalReq) (*proposalResp, error) {
	milestones := make([]market.MilestoneInput, len(req.Milestones))
	for i, ms := range req.Milestones {
		milestones[i] = market.MilestoneInput{
			Amount:     ms.Amount,
			DeadlineTs: ms.DeadlineTs,
		}
	}

	p, err := s.market.SubmitProposal(
		c.Request.Context(),
		auth.Caller(c),
		*req.IdeaID,
		*req.ProposalID,
		req.RequestedTotal,
		req.MetadataURI,
		milestones,
	)
	if err != nil {
		return nil, err
	}

	return s.toProposalResp(p), nil
}

type voteResp struct {
	Address  string `json:"address"`
	Idea     string `json:"idea"`
	Voter    string `json:"voter"`
	Proposal string `json:"proposal"`
}

func toVoteResp(v *orm.VoteRecord) *voteResp {
	return &voteResp{
		Address:  v.Address,
		Idea:     v.Idea,
		Voter:    v.Voter,
		Proposal: v.Proposal,
	}
}

type voteQuery struct {
	IdeaID *uint64 `form:"idea_id" binding:"required"`
	Voter  string  `form:"voter" binding:"required"`
}

// Vote handles the /vote request.
func (s *Service) Vote(c *gin.Context, req *voteQuery) (*voteResp, error) {
	v, err := s.market.Vote(c.Request.Context(), *req.IdeaID, req.Voter)
	if err != nil {
		return nil, err
	}

	return toVoteResp(v), nil
}

type castVoteReq struct {
	IdeaID   *uint64 `json:"idea_id" binding:"required"`
	Proposal string  `json:"proposal" binding:"required"`
}

// CastVote handles the /votes request.
func (s *Service) CastVote(c *gin.Context, req *castVoteReq) (*voteResp, error) {
	v, err := s.market.CastVote(c.Request.Context(), auth.Caller(c), *req.IdeaID, req.Proposal)
	if err != nil {
		return nil, err
	}

	return toVoteResp(v), nil
}
