package market

import (
	"context"

	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// CastVote records the single vote of voter on an idea in voting and adds
// one to the chosen proposal's tally. The vote record's address is
// derived from idea and voter, a second vote fails with ErrAlreadyVoted.
func (m *Market) CastVote(
	ctx context.Context,
	voter string,
	ideaID uint64,
	proposal string,
) (*orm.VoteRecord, error) {
	if !validPrincipal(voter) {
		return nil, ErrInvalidPrincipal
	}

	var vote *orm.VoteRecord
	if err := m.exec(ctx, "cast_vote", func(tx *gorm.DB) error {
		idea, err := loadIdea(tx, ideaID)
		if err != nil {
			return err
		}
		if idea.Status != orm.IdeaVoting {
			return ErrInvalidIdeaStatus
		}
		p, err := loadProposal(tx, proposal)
		if err != nil {
			return err
		}
		if p.Idea != idea.Address {
			return ErrProposalIdeaMismatch
		}
		// The window is closed only once now passes the end.
		if m.now() > idea.VoteEndTs {
			return ErrVoteEnded
		}

		vote = &orm.VoteRecord{
			Record:   orm.Record{Address: VoteAddress(idea.Address, voter)},
			Idea:     idea.Address,
			Voter:    voter,
			Proposal: p.Address,
		}
		if err := insert(tx, vote, ErrAlreadyVoted); err != nil {
			return err
		}

		if p.VoteCount, err = add(p.VoteCount, 1); err != nil {
			return err
		}
		if err := save(tx, p); err != nil {
			return err
		}

		return emit(tx, orm.EventVote,
			"idea:%d|prop:%d|by:%s", ideaID, p.ProposalID, voter)
	}); err != nil {
		return nil, err
	}

	return vote, nil
}
