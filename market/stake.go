package market

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// Stake moves amount from the supporter's funding account into the idea
// pool and accumulates it on the supporter's stake position.
func (m *Market) Stake(
	ctx context.Context,
	supporter string,
	ideaID uint64,
	amount uint64,
) (*orm.StakePosition, error) {
	if !validPrincipal(supporter) {
		return nil, ErrInvalidPrincipal
	}

	var pos *orm.StakePosition
	if err := m.exec(ctx, "stake", func(tx *gorm.DB) error {
		idea, err := loadIdea(tx, ideaID)
		if err != nil {
			return err
		}
		if idea.Status != orm.IdeaOpen {
			return ErrInvalidIdeaStatus
		}
		if !validAmount(amount) {
			return ErrInvalidAmount
		}

		from, err := walletVault(tx, supporter, idea.AcceptedAsset, false)
		if err != nil {
			return err
		}
		pool, err := loadVault(tx, idea.PoolVault)
		if err != nil {
			return err
		}
		if err := transfer(tx, from, pool, amount, signer(supporter)); err != nil {
			return err
		}

		if pos, err = accumulateStake(tx, idea.Address, supporter, amount); err != nil {
			return err
		}

		if idea.TotalStaked, err = add(idea.TotalStaked, amount); err != nil {
			return err
		}
		if err := save(tx, idea); err != nil {
			return err
		}

		if err := bumpReputation(tx, supporter, func(r *orm.Reputation) error {
			if err := incr(&r.SupportCount, 1); err != nil {
				return err
			}
			return incr(&r.SupportAmountTotal, amount)
		}); err != nil {
			return err
		}

		return emit(tx, orm.EventStaked,
			"id:%d|by:%s|amt:%d", ideaID, supporter, amount)
	}); err != nil {
		return nil, err
	}

	return pos, nil
}

// accumulateStake creates or grows the single position of supporter on
// idea. A refunded position becomes active again.
func accumulateStake(
	tx *gorm.DB,
	idea string,
	supporter string,
	amount uint64,
) (*orm.StakePosition, error) {
	addr := StakeAddress(idea, supporter)
	pos := &orm.StakePosition{}
	err := load(tx, pos, addr, ErrStakeNotFound)
	if errors.Is(err, ErrStakeNotFound) {
		pos = &orm.StakePosition{
			Record:       orm.Record{Address: addr},
			Idea:         idea,
			Supporter:    supporter,
			AmountStaked: amount,
			Status:       orm.StakeActive,
		}
		if err := insert(tx, pos, ErrConflict); err != nil {
			return nil, err
		}
		return pos, nil
	}
	if err != nil {
		return nil, err
	}

	if pos.AmountStaked, err = add(pos.AmountStaked, amount); err != nil {
		return nil, err
	}
	pos.Status = orm.StakeActive
	if err := save(tx, pos); err != nil {
		return nil, err
	}

	return pos, nil
}

// RefundStake returns amount from the idea pool to the supporter while the
// idea is open or voting. position may be empty to refund the caller's
// own position. The pool releases funds on the idea's authority.
func (m *Market) RefundStake(
	ctx context.Context,
	supporter string,
	ideaID uint64,
	position string,
	amount uint64,
) (*orm.StakePosition, error) {
	var pos *orm.StakePosition
	if err := m.exec(ctx, "refund_stake", func(tx *gorm.DB) error {
		idea, err := loadIdea(tx, ideaID)
		if err != nil {
			return err
		}
		if idea.Status != orm.IdeaOpen && idea.Status != orm.IdeaVoting {
			return ErrInvalidIdeaStatus
		}
		if !validAmount(amount) {
			return ErrInvalidAmount
		}

		if position == "" {
			position = StakeAddress(idea.Address, supporter)
		}
		pos = &orm.StakePosition{}
		if err := load(tx, pos, position, ErrStakeNotFound); err != nil {
			return err
		}
		if pos.Idea != idea.Address {
			return ErrStakeIdeaMismatch
		}
		if pos.Supporter != supporter {
			return ErrUnauthorized
		}
		if pos.AmountStaked < amount {
			return ErrInsufficientStake
		}

		pool, err := loadVault(tx, idea.PoolVault)
		if err != nil {
			return err
		}
		to, err := walletVault(tx, supporter, idea.AcceptedAsset, true)
		if err != nil {
			return err
		}
		if err := transfer(tx, pool, to, amount, derived(idea.Address)); err != nil {
			return err
		}

		if pos.AmountStaked, err = sub(pos.AmountStaked, amount); err != nil {
			return err
		}
		if pos.AmountStaked == 0 {
			pos.Status = orm.StakeRefunded
		}
		if err := save(tx, pos); err != nil {
			return err
		}

		if idea.TotalStaked, err = sub(idea.TotalStaked, amount); err != nil {
			return err
		}
		if err := save(tx, idea); err != nil {
			return err
		}

		return emit(tx, orm.EventRefunded,
			"id:%d|by:%s|amt:%d", ideaID, supporter, amount)
	}); err != nil {
		return nil, err
	}

	return pos, nil
}
