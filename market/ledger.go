package market

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// authority proves the right to move funds out of a vault. A signer
// authority comes from an authenticated principal. A derived authority
// names the record owning a vault and can only be built by this package.
type authority struct {
	signer string
	record string
}

func signer(principal string) authority {
	return authority{signer: principal}
}

func derived(record string) authority {
	return authority{record: record}
}

func (a authority) owns(v *orm.Vault) bool {
	switch v.OwnerKind {
	case orm.OwnerWallet:
		return a.signer != "" && a.signer == v.Owner
	case orm.OwnerRecord:
		return a.record != "" && a.record == v.Owner
	default:
		return false
	}
}

// openVault creates an empty vault owned by a record.
func openVault(tx *gorm.DB, addr, owner, asset string) (*orm.Vault, error) {
	v := &orm.Vault{
		Record:    orm.Record{Address: addr},
		Owner:     owner,
		OwnerKind: orm.OwnerRecord,
		Asset:     asset,
	}
	if err := insert(tx, v, ErrConflict); err != nil {
		return nil, err
	}

	return v, nil
}

func loadVault(tx *gorm.DB, addr string) (*orm.Vault, error) {
	v := &orm.Vault{}
	if err := load(tx, v, addr, ErrVaultNotFound); err != nil {
		return nil, err
	}
	return v, nil
}

// walletVault returns the funding account of owner for asset. When
// create is set a missing account is opened empty, otherwise a missing
// account holds no funds.
func walletVault(tx *gorm.DB, owner, asset string, create bool) (*orm.Vault, error) {
	addr := WalletVaultAddress(owner, asset)
	v, err := loadVault(tx, addr)
	switch {
	case err == nil:
		return v, nil
	case !errors.Is(err, ErrVaultNotFound):
		return nil, err
	case !create:
		return nil, ErrInsufficientFunds
	}

	v = &orm.Vault{
		Record:    orm.Record{Address: addr},
		Owner:     owner,
		OwnerKind: orm.OwnerWallet,
		Asset:     asset,
	}
	if err := insert(tx, v, ErrConflict); err != nil {
		return nil, err
	}

	return v, nil
}

// transfer moves amount of the asset from one vault to another.
func transfer(tx *gorm.DB, from, to *orm.Vault, amount uint64, auth authority) error {
	if !auth.owns(from) {
		return ErrUnauthorized
	}
	if from.Asset != to.Asset {
		return ErrAssetMismatch
	}
	if from.Balance < amount {
		return ErrInsufficientFunds
	}
	credited, err := add(to.Balance, amount)
	if err != nil {
		return err
	}

	from.Balance -= amount
	to.Balance = credited
	if err := save(tx, from); err != nil {
		return err
	}

	return save(tx, to)
}

func loadWallet(tx *gorm.DB, owner string) (*orm.Wallet, error) {
	w := &orm.Wallet{}
	if err := load(tx, w, NativeWalletAddress(owner), ErrVaultNotFound); err != nil {
		return nil, err
	}
	return w, nil
}

// chargeNative moves native currency between principals. It is signed
// by the payer and never touches asset vaults.
func chargeNative(tx *gorm.DB, from, to string, amount uint64) error {
	payer, err := loadWallet(tx, from)
	if errors.Is(err, ErrVaultNotFound) {
		return ErrInsufficientFunds
	}
	if err != nil {
		return err
	}
	if payer.NativeBalance < amount {
		return ErrInsufficientFunds
	}

	if from == to {
		return nil
	}

	if _, err := creditNative(tx, to, amount); err != nil {
		return err
	}

	payer.NativeBalance -= amount
	return save(tx, payer)
}

// creditNative adds amount to owner's native balance, opening the
// wallet on first credit.
func creditNative(tx *gorm.DB, owner string, amount uint64) (*orm.Wallet, error) {
	w, err := loadWallet(tx, owner)
	if errors.Is(err, ErrVaultNotFound) {
		w = &orm.Wallet{
			Record:        orm.Record{Address: NativeWalletAddress(owner)},
			Owner:         owner,
			NativeBalance: amount,
		}
		if err := insert(tx, w, ErrConflict); err != nil {
			return nil, err
		}
		return w, nil
	}
	if err != nil {
		return nil, err
	}

	if w.NativeBalance, err = add(w.NativeBalance, amount); err != nil {
		return nil, err
	}
	if err := save(tx, w); err != nil {
		return nil, err
	}

	return w, nil
}
