package service

import (
	"github.com/gin-gonic/gin"

	"github.com/photon-storage/idea-market/api/auth"
	"github.com/photon-storage/idea-market/database/orm"
)

type balanceResp struct {
	Principal     string `json:"principal"`
	Asset         string `json:"asset"`
	Balance       string `json:"balance"`
	NativeBalance uint64 `json:"native_balance"`
}

type balanceQuery struct {
	Principal string `form:"principal" binding:"required"`
	Asset     string `form:"asset"`
}

// Balance handles the /balance request. Without an asset the market's
// accepted asset is reported.
func (s *Service) Balance(c *gin.Context, req *balanceQuery) (*balanceResp, error) {
	ctx := c.Request.Context()
	asset := req.Asset
	if asset == "" {
		cfg, err := s.market.Config(ctx)
		if err != nil {
			return nil, err
		}
		asset = cfg.AcceptedAsset
	}

	balance, err := s.market.Balance(ctx, req.Principal, asset)
	if err != nil {
		return nil, err
	}
	native, err := s.market.NativeBalance(ctx, req.Principal)
	if err != nil {
		return nil, err
	}

	return &balanceResp{
		Principal:     req.Principal,
		Asset:         asset,
		Balance:       s.amount(balance),
		NativeBalance: native,
	}, nil
}

type depositReq struct {
	Asset  string `json:"asset" binding:"required,principal"`
	Amount uint64 `json:"amount"`
}

type vaultResp struct {
	Address string `json:"address"`
	Owner   string `json:"owner"`
	Asset   string `json:"asset"`
	Balance string `json:"balance"`
}

// Deposit handles the /deposits request.
func (s *Service) Deposit(c *gin.Context, req *depositReq) (*vaultResp, error) {
	v, err := s.market.Deposit(c.Request.Context(), auth.Caller(c), req.Asset, req.Amount)
	if err != nil {
		return nil, err
	}

	return &vaultResp{
		Address: v.Address,
		Owner:   v.Owner,
		Asset:   v.Asset,
		Balance: s.amount(v.Balance),
	}, nil
}

type nativeDepositReq struct {
	Amount uint64 `json:"amount"`
}

type nativeResp struct {
	Owner         string `json:"owner"`
	NativeBalance uint64 `json:"native_balance"`
}

// DepositNative handles the /deposits/native request.
func (s *Service) DepositNative(c *gin.Context, req *nativeDepositReq) (*nativeResp, error) {
	w, err := s.market.DepositNative(c.Request.Context(), auth.Caller(c), req.Amount)
	if err != nil {
		return nil, err
	}

	return &nativeResp{
		Owner:         w.Owner,
		NativeBalance: w.NativeBalance,
	}, nil
}

type reputationResp struct {
	Wallet              string `json:"wallet"`
	ProposalsWon        uint64 `json:"proposals_won"`
	MilestonesCompleted uint64 `json:"milestones_completed"`
	SupportCount        uint64 `json:"support_count"`
	SupportAmountTotal  string `json:"support_amount_total"`
}

type reputationQuery struct {
	Wallet string `form:"wallet" binding:"required"`
}

// Reputation handles the /reputation request.
func (s *Service) Reputation(c *gin.Context, req *reputationQuery) (*reputationResp, error) {
	rep, err := s.market.Reputation(c.Request.Context(), req.Wallet)
	if err != nil {
		return nil, err
	}

	return s.toReputationResp(rep), nil
}

func (s *Service) toReputationResp(rep *orm.Reputation) *reputationResp {
	return &reputationResp{
		Wallet:              rep.Wallet,
		ProposalsWon:        rep.ProposalsWon,
		MilestonesCompleted: rep.MilestonesCompleted,
		SupportCount:        rep.SupportCount,
		SupportAmountTotal:  s.amount(rep.SupportAmountTotal),
	}
}
