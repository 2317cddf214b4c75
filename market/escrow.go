package market

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// FinalizeWinner closes the vote on the committee's chosen proposal. The
// proposal's requested total moves from the idea pool into a new escrow
// vault on the idea's authority. The committee names the winner, the
// vote tally is advisory.
func (m *Market) FinalizeWinner(
	ctx context.Context,
	caller string,
	ideaID uint64,
	proposal string,
) (*orm.Escrow, error) {
	var escrow *orm.Escrow
	if err := m.exec(ctx, "finalize_winner", func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		if !cfg.IsCommittee(caller) {
			return ErrUnauthorized
		}
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
		if m.now() <= idea.VoteEndTs {
			return ErrVoteNotEnded
		}

		idea.Status = orm.IdeaBuilding
		idea.WinningProposal = &p.Address
		if err := save(tx, idea); err != nil {
			return err
		}
		p.Status = orm.ProposalAccepted
		if err := save(tx, p); err != nil {
			return err
		}

		addr := EscrowAddress(idea.Address, p.Address)
		escrow = &orm.Escrow{
			Record:   orm.Record{Address: addr},
			Idea:     idea.Address,
			Proposal: p.Address,
			Builder:  p.Builder,
			Vault:    EscrowVaultAddress(addr),
			Status:   orm.EscrowActive,
		}
		if err := insert(tx, escrow, ErrEscrowExists); err != nil {
			return err
		}

		vault, err := openVault(tx, escrow.Vault, addr, idea.AcceptedAsset)
		if err != nil {
			return err
		}
		pool, err := loadVault(tx, idea.PoolVault)
		if err != nil {
			return err
		}
		if err := transfer(tx, pool, vault, p.RequestedTotal, derived(idea.Address)); err != nil {
			return err
		}

		if err := bumpReputation(tx, p.Builder, func(r *orm.Reputation) error {
			return incr(&r.ProposalsWon, 1)
		}); err != nil {
			return err
		}

		return emit(tx, orm.EventWinner,
			"idea:%d|prop:%d|by:%s|amt:%d",
			ideaID, p.ProposalID, caller, p.RequestedTotal,
		)
	}); err != nil {
		return nil, err
	}

	return escrow, nil
}

// SubmitMilestoneProof attaches the builder's proof pointer to a pending
// milestone of an accepted proposal.
func (m *Market) SubmitMilestoneProof(
	ctx context.Context,
	builder string,
	proposal string,
	index uint8,
	proof string,
) (*orm.Milestone, error) {
	var ms *orm.Milestone
	if err := m.exec(ctx, "submit_milestone_proof", func(tx *gorm.DB) error {
		p, err := loadProposal(tx, proposal)
		if err != nil {
			return err
		}
		if p.Builder != builder {
			return ErrUnauthorized
		}
		if p.Status != orm.ProposalAccepted {
			return ErrInvalidProposalStatus
		}
		if len(proof) > orm.MaxURI {
			return ErrURITooLong
		}
		if index >= p.MilestoneCount {
			return ErrInvalidMilestoneIndex
		}
		if ms, err = loadMilestone(tx, p.Address, index); err != nil {
			return err
		}
		if ms.Status != orm.MilestonePending {
			return ErrInvalidMilestoneStatus
		}

		ms.ProofURI = &proof
		ms.Status = orm.MilestoneSubmittedProof
		if err := save(tx, ms); err != nil {
			return err
		}

		return emit(tx, orm.EventMilestoneProof,
			"prop:%d|idx:%d|by:%s", p.ProposalID, index, builder)
	}); err != nil {
		return nil, err
	}

	return ms, nil
}

// ApproveAndRelease pays one proven milestone from the escrow vault to
// the builder's funding account on the escrow's authority. Approving the
// last milestone completes the proposal and the idea and finishes the
// escrow. Committee only.
func (m *Market) ApproveAndRelease(
	ctx context.Context,
	caller string,
	proposal string,
	escrowAddr string,
	index uint8,
) (*orm.Escrow, error) {
	var escrow *orm.Escrow
	if err := m.exec(ctx, "approve_and_release", func(tx *gorm.DB) error {
		cfg, err := loadConfig(tx)
		if err != nil {
			return err
		}
		if !cfg.IsCommittee(caller) {
			return ErrUnauthorized
		}
		p, err := loadProposal(tx, proposal)
		if err != nil {
			return err
		}
		escrow = &orm.Escrow{}
		if err := load(tx, escrow, escrowAddr, ErrEscrowNotFound); err != nil {
			return err
		}
		// A finished escrow reports itself before its completed proposal.
		if escrow.Status != orm.EscrowActive {
			return ErrInvalidEscrowStatus
		}
		if p.Status != orm.ProposalAccepted {
			return ErrInvalidProposalStatus
		}
		if escrow.Proposal != p.Address {
			return ErrEscrowProposalMismatch
		}
		if index >= p.MilestoneCount {
			return ErrInvalidMilestoneIndex
		}
		ms, err := loadMilestone(tx, p.Address, index)
		if err != nil {
			return err
		}
		if ms.Status != orm.MilestoneSubmittedProof {
			return ErrInvalidMilestoneStatus
		}

		vault, err := loadVault(tx, escrow.Vault)
		if err != nil {
			return err
		}
		to, err := walletVault(tx, escrow.Builder, vault.Asset, true)
		if err != nil {
			return err
		}
		if err := transfer(tx, vault, to, ms.Amount, derived(escrow.Address)); err != nil {
			return err
		}

		ms.Status = orm.MilestoneApproved
		if err := save(tx, ms); err != nil {
			return err
		}
		if escrow.ReleasedAmount, err = add(escrow.ReleasedAmount, ms.Amount); err != nil {
			return err
		}
		if escrow.ReleasedAmount > p.RequestedTotal {
			return ErrMathOverflow
		}
		if err := bumpReputation(tx, escrow.Builder, func(r *orm.Reputation) error {
			return incr(&r.MilestonesCompleted, 1)
		}); err != nil {
			return err
		}

		var open int64
		if err := tx.Model(&orm.Milestone{}).
			Where("proposal = ? AND status <> ?", p.Address, orm.MilestoneApproved).
			Count(&open).Error; err != nil {
			return errors.Wrap(err, "count open milestones")
		}
		finished := open == 0
		if finished {
			if err := complete(tx, p, escrow); err != nil {
				return err
			}
		}
		if err := save(tx, escrow); err != nil {
			return err
		}

		if err := emit(tx, orm.EventMilestonePaid,
			"prop:%d|idx:%d|by:%s|amt:%d",
			p.ProposalID, index, caller, ms.Amount,
		); err != nil {
			return err
		}
		if !finished {
			return nil
		}

		return emit(tx, orm.EventEscrowFinished,
			"prop:%d|released:%d", p.ProposalID, escrow.ReleasedAmount)
	}); err != nil {
		return nil, err
	}

	return escrow, nil
}

// complete closes a fully paid proposal. The escrow is saved by the
// caller.
func complete(tx *gorm.DB, p *orm.Proposal, escrow *orm.Escrow) error {
	p.Status = orm.ProposalCompleted
	if err := save(tx, p); err != nil {
		return err
	}
	escrow.Status = orm.EscrowFinished

	idea := &orm.Idea{}
	if err := load(tx, idea, escrow.Idea, ErrIdeaNotFound); err != nil {
		return err
	}
	if idea.Status != orm.IdeaBuilding {
		return ErrInvalidIdeaStatus
	}
	idea.Status = orm.IdeaCompleted

	return save(tx, idea)
}
