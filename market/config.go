package market

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// InitializeConfig creates the singleton config with admin as the only
// committee member. A second call fails with ErrAlreadyInitialized.
func (m *Market) InitializeConfig(
	ctx context.Context,
	admin string,
	acceptedAsset string,
	proposalFee uint64,
	voteDuration int64,
) (*orm.MarketConfig, error) {
	if !validPrincipal(admin) || !validPrincipal(acceptedAsset) {
		return nil, ErrInvalidPrincipal
	}
	if voteDuration <= 0 || proposalFee > MaxAmount {
		return nil, ErrInvalidAmount
	}

	cfg := &orm.MarketConfig{
		Record:              orm.Record{Address: ConfigAddress()},
		Admin:               admin,
		AcceptedAsset:       acceptedAsset,
		ProposalFee:         proposalFee,
		VoteDurationSeconds: voteDuration,
		Committee:           []string{admin},
	}
	if err := m.exec(ctx, "initialize_config", func(tx *gorm.DB) error {
		if err := insert(tx, cfg, ErrAlreadyInitialized); err != nil {
			return err
		}

		return emit(tx, orm.EventConfigInit,
			"admin:%s|asset:%s|fee:%d|dur:%d",
			admin, acceptedAsset, proposalFee, voteDuration,
		)
	}); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SetCommittee replaces the committee wholesale. Only the admin may call
// it and the new committee must hold 1 to orm.MaxCommittee members.
func (m *Market) SetCommittee(
	ctx context.Context,
	caller string,
	committee []string,
) (*orm.MarketConfig, error) {
	var cfg *orm.MarketConfig
	if err := m.exec(ctx, "set_committee", func(tx *gorm.DB) error {
		var err error
		if cfg, err = loadConfig(tx); err != nil {
			return err
		}
		if caller != cfg.Admin {
			return ErrUnauthorized
		}
		if len(committee) == 0 || len(committee) > orm.MaxCommittee {
			return ErrInvalidCommittee
		}
		for _, member := range committee {
			if !validPrincipal(member) {
				return ErrInvalidCommittee
			}
		}

		cfg.Committee = append([]string(nil), committee...)
		if err := save(tx, cfg); err != nil {
			return err
		}

		return emit(tx, orm.EventCommitteeSet,
			"by:%s|members:%s",
			caller, strings.Join(committee, ","),
		)
	}); err != nil {
		return nil, err
	}

	return cfg, nil
}
