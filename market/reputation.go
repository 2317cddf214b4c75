package market

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// bumpReputation applies fn to the profile of wallet, creating the
// profile on its first qualifying event. Counters only grow.
func bumpReputation(tx *gorm.DB, wallet string, fn func(r *orm.Reputation) error) error {
	rep := &orm.Reputation{}
	err := load(tx, rep, ReputationAddress(wallet), ErrReputationNotFound)
	if errors.Is(err, ErrReputationNotFound) {
		rep = &orm.Reputation{
			Record: orm.Record{Address: ReputationAddress(wallet)},
			Wallet: wallet,
		}
		if err := fn(rep); err != nil {
			return err
		}
		return insert(tx, rep, ErrConflict)
	}
	if err != nil {
		return err
	}

	if err := fn(rep); err != nil {
		return err
	}

	return save(tx, rep)
}

func incr(counter *uint64, n uint64) error {
	v, err := add(*counter, n)
	if err != nil {
		return err
	}

	*counter = v
	return nil
}
