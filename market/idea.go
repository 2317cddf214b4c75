package market

import (
	"context"

	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// CreateIdea opens a campaign with an empty pool vault owned by the idea.
// Idea ids are unique, a reused id fails with ErrIdeaExists.
func (m *Market) CreateIdea(
	ctx context.Context,
	creator string,
	ideaID uint64,
	metadata string,
) (*orm.Idea, error) {
	if !validPrincipal(creator) {
		return nil, ErrInvalidPrincipal
	}
	if len(metadata) > orm.MaxURI {
		return nil, ErrURITooLong
	}

	var idea *orm.Idea
	if err := m.exec(ctx, "create_idea", func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}

		addr := IdeaAddress(ideaID)
		idea = &orm.Idea{
			Record:        orm.Record{Address: addr},
			IdeaID:        ideaID,
			Creator:       creator,
			MetadataURI:   metadata,
			AcceptedAsset: cfg.AcceptedAsset,
			Status:        orm.IdeaOpen,
			PoolVault:     PoolVaultAddress(addr),
		}
		if err := insert(tx, idea, ErrIdeaExists); err != nil {
			return err
		}
		if _, err := openVault(tx, idea.PoolVault, addr, idea.AcceptedAsset); err != nil {
			return err
		}

		return emit(tx, orm.EventIdeaCreated, "id:%d|by:%s", ideaID, creator)
	}); err != nil {
		return nil, err
	}

	return idea, nil
}

// StartVoting moves an open idea to voting and fixes the end of the vote
// window. Committee only.
func (m *Market) StartVoting(
	ctx context.Context,
	caller string,
	ideaID uint64,
) (*orm.Idea, error) {
	var idea *orm.Idea
	if err := m.exec(ctx, "start_voting", func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		if idea, err = loadIdea(tx, ideaID); err != nil {
			return err
		}
		if idea.Status != orm.IdeaOpen {
			return ErrInvalidIdeaStatus
		}
		if !cfg.IsCommittee(caller) {
			return ErrUnauthorized
		}

		end, err := addTs(m.now(), cfg.VoteDurationSeconds)
		if err != nil {
			return err
		}
		idea.Status = orm.IdeaVoting
		idea.VoteEndTs = end
		if err := save(tx, idea); err != nil {
			return err
		}

		return emit(tx, orm.EventVotingStarted, "id:%d|by:%s|end:%d", ideaID, caller, end)
	}); err != nil {
		return nil, err
	}

	return idea, nil
}
