package service

import (
	"time"

	"github.com/docker/go-units"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/api/auth"
	"github.com/photon-storage/idea-market/api/pagination"
	"github.com/photon-storage/idea-market/database/orm"
)

type ideaResp struct {
	IdeaID          uint64  `json:"idea_id"`
	Address         string  `json:"address"`
	Creator         string  `json:"creator"`
	MetadataURI     string  `json:"metadata_uri"`
	MetadataSize    string  `json:"metadata_size"`
	AcceptedAsset   string  `json:"accepted_asset"`
	Status          string  `json:"status"`
	TotalStaked     string  `json:"total_staked"`
	VoteEndTs       int64   `json:"vote_end_ts,omitempty"`
	VoteRemaining   string  `json:"vote_remaining,omitempty"`
	WinningProposal *string `json:"winning_proposal,omitempty"`
	PoolVault       string  `json:"pool_vault"`
}

func (s *Service) toIdeaResp(idea *orm.Idea) *ideaResp {
	resp := &ideaResp{
		IdeaID:          idea.IdeaID,
		Address:         idea.Address,
		Creator:         idea.Creator,
		MetadataURI:     idea.MetadataURI,
		MetadataSize:    units.HumanSize(float64(len(idea.MetadataURI))),
		AcceptedAsset:   idea.AcceptedAsset,
		Status:          idea.Status.String(),
		TotalStaked:     s.amount(idea.TotalStaked),
		WinningProposal: idea.WinningProposal,
		PoolVault:       idea.PoolVault,
	}
	if idea.Status == orm.IdeaVoting {
		resp.VoteEndTs = idea.VoteEndTs
		if left := time.Unix(idea.VoteEndTs, 0).Sub(s.clock.Now()); left > 0 {
			resp.VoteRemaining = units.HumanDuration(left)
		}
	}

	return resp
}

type ideaQuery struct {
	IdeaID *uint64 `form:"idea_id" json:"idea_id" binding:"required"`
}

// Idea handles the /idea request.
func (s *Service) Idea(c *gin.Context, req *ideaQuery) (*ideaResp, error) {
	idea, err := s.market.Idea(c.Request.Context(), *req.IdeaID)
	if err != nil {
		return nil, err
	}

	return s.toIdeaResp(idea), nil
}

// Ideas handles the /ideas request, optionally filtered by status.
func (s *Service) Ideas(
	c *gin.Context,
	page *pagination.Query,
) (*pagination.Result, error) {
	query := s.db.WithContext(c.Request.Context()).Model(&orm.Idea{})
	if str := c.Query("status"); str != "" {
		status, ok := orm.StrToIdeaStatus(str)
		if !ok {
			return nil, errInvalidStatus
		}
		query = query.Where("status = ?", status)
	}
	query = query.Session(&gorm.Session{})

	count := int64(0)
	if err := query.Count(&count).Error; err != nil {
		return nil, err
	}

	ideas := make([]*orm.Idea, 0)
	if err := query.Order("idea_id").
		Offset(page.Start).
		Limit(page.Limit).
		Find(&ideas).
		Error; err != nil {
		return nil, err
	}

	resps := make([]*ideaResp, len(ideas))
	for i, idea := range ideas {
		resps[i] = s.toIdeaResp(idea)
	}

	return &pagination.Result{
		Data:  resps,
		Total: count,
	}, nil
}

type createIdeaReq struct {
	IdeaID      *uint64 `json:"idea_id" binding:"required"`
	MetadataURI string  `json:"metadata_uri"`
}

// CreateIdea handles the /ideas request.
func (s *Service) CreateIdea(c *gin.Context, req *createIdeaReq) (*ideaResp, error) {
	idea, err := s.market.CreateIdea(
		c.Request.Context(),
		auth.Caller(c),
		*req.IdeaID,
		req.MetadataURI,
	)
	if err != nil {
		return nil, err
	}

	return s.toIdeaResp(idea), nil
}

// StartVoting handles the /ideas/voting request.
func (s *Service) StartVoting(c *gin.Context, req *ideaQuery) (*ideaResp, error) {
	idea, err := s.market.StartVoting(c.Request.Context(), auth.Caller(c), *req.IdeaID)
	if err != nil {
		return nil, err
	}

	return s.toIdeaResp(idea), nil
}

type stakeResp struct {
	Address   string `json:"address"`
	Idea      string `json:"idea"`
	Supporter string `json:"supporter"`
	Amount    string `json:"amount"`
	Status    string `json:"status"`
}

func (s *Service) toStakeResp(pos *orm.StakePosition) *stakeResp {
	return &stakeResp{
		Address:   pos.Address,
		Idea:      pos.Idea,
		Supporter: pos.Supporter,
		Amount:    s.amount(pos.AmountStaked),
		Status:    pos.Status.String(),
	}
}

type stakeQuery struct {
	IdeaID    *uint64 `form:"idea_id" binding:"required"`
	Supporter string  `form:"supporter" binding:"required"`
}

// StakePosition handles the /stake request.
func (s *Service) StakePosition(c *gin.Context, req *stakeQuery) (*stakeResp, error) {
	pos, err := s.market.StakePosition(c.Request.Context(), *req.IdeaID, req.Supporter)
	if err != nil {
		return nil, err
	}

	return s.toStakeResp(pos), nil
}

type stakeReq struct {
	IdeaID *uint64 `json:"idea_id" binding:"required"`
	Amount uint64  `json:"amount"`
}

// Stake handles the /ideas/stake request.
func (s *Service) Stake(c *gin.Context, req *stakeReq) (*stakeResp, error) {
	pos, err := s.market.Stake(c.Request.Context(), auth.Caller(c), *req.IdeaID, req.Amount)
	if err != nil {
		return nil, err
	}

	return s.toStakeResp(pos), nil
}

type refundReq struct {
	IdeaID   *uint64 `json:"idea_id" binding:"required"`
	Position string  `json:"position"`
	Amount   uint64  `json:"amount"`
}

// RefundStake handles the /ideas/refund request. An empty position
// refunds the caller's own.
func (s *Service) RefundStake(c *gin.Context, req *refundReq) (*stakeResp, error) {
	pos, err := s.market.RefundStake(
		c.Request.Context(),
		auth.Caller(c),
		*req.IdeaID,
		req.Position,
		req.Amount,
	)
	if err != nil {
		return nil, err
	}

	return s.toStakeResp(pos), nil
}
