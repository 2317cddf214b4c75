package market

import (
	"context"

	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// MilestoneInput is one entry of a submitted payment schedule.
type MilestoneInput struct {
	Amount     uint64
	DeadlineTs int64
}

// SubmitProposal records a builder's bid against an open idea. The
// milestone amounts must add up to requestedTotal exactly. When the
// config carries a proposal fee the builder pays it to the admin in
// native currency.
func (m *Market) SubmitProposal(
	ctx context.Context,
	builder string,
	ideaID uint64,
	proposalID uint64,
	requestedTotal uint64,
	metadata string,
	milestones []MilestoneInput,
) (*orm.Proposal, error) {
	if !validPrincipal(builder) {
		return nil, ErrInvalidPrincipal
	}

	var p *orm.Proposal
	if err := m.exec(ctx, "submit_proposal", func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		idea, err := loadIdea(tx, ideaID)
		if err != nil {
			return err
		}
		if idea.Status != orm.IdeaOpen {
			return ErrInvalidIdeaStatus
		}
		if len(metadata) > orm.MaxURI {
			return ErrURITooLong
		}
		if len(milestones) == 0 || len(milestones) > orm.MaxMilestones {
			return ErrInvalidMilestones
		}

		if cfg.ProposalFee > 0 {
			if err := chargeNative(tx, builder, cfg.Admin, cfg.ProposalFee); err != nil {
				return err
			}
		}

		var sum uint64
		for _, ms := range milestones {
			if !validAmount(ms.Amount) {
				return ErrInvalidAmount
			}
			if sum, err = add(sum, ms.Amount); err != nil {
				return err
			}
		}
		if sum != requestedTotal {
			return ErrMilestoneSumMismatch
		}

		addr := ProposalAddress(idea.Address, proposalID)
		p = &orm.Proposal{
			Record:         orm.Record{Address: addr},
			ProposalID:     proposalID,
			Idea:           idea.Address,
			Builder:        builder,
			MetadataURI:    metadata,
			RequestedTotal: requestedTotal,
			Status:         orm.ProposalSubmitted,
			MilestoneCount: uint8(len(milestones)),
		}
		if err := insert(tx, p, ErrProposalExists); err != nil {
			return err
		}

		for i, in := range milestones {
			ms := &orm.Milestone{
				Record:     orm.Record{Address: MilestoneAddress(addr, uint8(i))},
				Proposal:   addr,
				Index:      uint8(i),
				Amount:     in.Amount,
				DeadlineTs: in.DeadlineTs,
				Status:     orm.MilestonePending,
			}
			if err := insert(tx, ms, ErrProposalExists); err != nil {
				return err
			}
			p.Milestones = append(p.Milestones, ms)
		}

		return emit(tx, orm.EventProposal,
			"id:%d|idea:%d|by:%s|total:%d|ms:%d",
			proposalID, ideaID, builder, requestedTotal, len(milestones),
		)
	}); err != nil {
		return nil, err
	}

	return p, nil
}
