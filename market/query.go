package market

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// Config returns the market config.
func (m *Market) Config(ctx context.Context) (*orm.MarketConfig, error) {
	return loadConfig(m.db.WithContext(ctx))
}

// Idea returns the idea with id ideaID.
func (m *Market) Idea(ctx context.Context, ideaID uint64) (*orm.Idea, error) {
	return loadIdea(m.db.WithContext(ctx), ideaID)
}

// StakePosition returns the stake of supporter on an idea.
func (m *Market) StakePosition(
	ctx context.Context,
	ideaID uint64,
	supporter string,
) (*orm.StakePosition, error) {
	pos := &orm.StakePosition{}
	if err := load(
		m.db.WithContext(ctx),
		pos,
		StakeAddress(IdeaAddress(ideaID), supporter),
		ErrStakeNotFound,
	); err != nil {
		return nil, err
	}
	return pos, nil
}

// Proposal returns the proposal at addr with its milestones in schedule
// order.
func (m *Market) Proposal(ctx context.Context, addr string) (*orm.Proposal, error) {
	p := &orm.Proposal{}
	err := m.db.WithContext(ctx).
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx")
		}).
		Where("address = ?", addr).
		Take(p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProposalNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load proposal")
	}

	return p, nil
}

// Vote returns the vote voter cast on an idea.
func (m *Market) Vote(ctx context.Context, ideaID uint64, voter string) (*orm.VoteRecord, error) {
	vote := &orm.VoteRecord{}
	if err := load(
		m.db.WithContext(ctx),
		vote,
		VoteAddress(IdeaAddress(ideaID), voter),
		ErrVoteNotFound,
	); err != nil {
		return nil, err
	}
	return vote, nil
}

// Escrow returns the escrow of an idea, at most one exists.
func (m *Market) Escrow(ctx context.Context, ideaID uint64) (*orm.Escrow, error) {
	escrow := &orm.Escrow{}
	err := m.db.WithContext(ctx).
		Where("idea = ?", IdeaAddress(ideaID)).
		Take(escrow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEscrowNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load escrow")
	}

	return escrow, nil
}

// Reputation returns the profile of wallet.
func (m *Market) Reputation(ctx context.Context, wallet string) (*orm.Reputation, error) {
	rep := &orm.Reputation{}
	if err := load(
		m.db.WithContext(ctx),
		rep,
		ReputationAddress(wallet),
		ErrReputationNotFound,
	); err != nil {
		return nil, err
	}
	return rep, nil
}

// Vault returns any custody vault by address.
func (m *Market) Vault(ctx context.Context, addr string) (*orm.Vault, error) {
	return loadVault(m.db.WithContext(ctx), addr)
}

// Balance returns the funding account balance of principal. An account
// never credited holds zero.
func (m *Market) Balance(ctx context.Context, principal, asset string) (uint64, error) {
	v, err := loadVault(m.db.WithContext(ctx), WalletVaultAddress(principal, asset))
	if errors.Is(err, ErrVaultNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return v.Balance, nil
}

// NativeBalance returns the native balance of principal, zero if never
// credited.
func (m *Market) NativeBalance(ctx context.Context, principal string) (uint64, error) {
	w, err := loadWallet(m.db.WithContext(ctx), principal)
	if errors.Is(err, ErrVaultNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	return w.NativeBalance, nil
}
