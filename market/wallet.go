package market

import (
	"context"

	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// Deposit credits amount of asset to the funding account of principal.
// It is the entry point for funds arriving from outside the market.
func (m *Market) Deposit(
	ctx context.Context,
	principal string,
	asset string,
	amount uint64,
) (*orm.Vault, error) {
	if !validPrincipal(principal) || !validPrincipal(asset) {
		return nil, ErrInvalidPrincipal
	}
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}

	var v *orm.Vault
	if err := m.exec(ctx, "deposit", func(tx *gorm.DB) error {
		var err error
		if v, err = walletVault(tx, principal, asset, true); err != nil {
			return err
		}
		if v.Balance, err = add(v.Balance, amount); err != nil {
			return err
		}
		if err := save(tx, v); err != nil {
			return err
		}

		return emit(tx, orm.EventDeposit,
			"by:%s|asset:%s|amt:%d", principal, asset, amount)
	}); err != nil {
		return nil, err
	}

	return v, nil
}

// DepositNative credits native currency used to pay proposal fees.
func (m *Market) DepositNative(
	ctx context.Context,
	principal string,
	amount uint64,
) (*orm.Wallet, error) {
	if !validPrincipal(principal) {
		return nil, ErrInvalidPrincipal
	}
	if !validAmount(amount) {
		return nil, ErrInvalidAmount
	}

	var w *orm.Wallet
	if err := m.exec(ctx, "deposit_native", func(tx *gorm.DB) error {
		var err error
		if w, err = creditNative(tx, principal, amount); err != nil {
			return err
		}

		return emit(tx, orm.EventNativeDeposit, "by:%s|amt:%d", principal, amount)
	}); err != nil {
		return nil, err
	}

	return w, nil
}
