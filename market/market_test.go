package market

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/photon-storage/idea-market/database/orm"
	"github.com/photon-storage/idea-market/database/sqlite"
)

const (
	admin    = "admin"
	asset    = "usdc"
	alice    = "alice"
	bob      = "bob"
	builder  = "builder"
	outsider = "mallory"
	duration = int64(3600)
)

var genesis = time.Unix(1_700_000_000, 0)

type fixture struct {
	t   *testing.T
	ctx context.Context
	db  *gorm.DB
	clk *clock.Mock
	m   *Market
}

func newBareFixture(t *testing.T) *fixture {
	db, err := sqlite.NewSQLiteDB(":memory:", int(logger.Silent))
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	clk := clock.NewMock()
	clk.Set(genesis)

	return &fixture{
		t:   t,
		ctx: context.Background(),
		db:  db,
		clk: clk,
		m:   New(db, clk),
	}
}

func newFixture(t *testing.T, fee uint64) *fixture {
	f := newBareFixture(t)
	_, err := f.m.InitializeConfig(f.ctx, admin, asset, fee, duration)
	require.NoError(t, err)
	return f
}

func (f *fixture) deposit(who string, amount uint64) {
	_, err := f.m.Deposit(f.ctx, who, asset, amount)
	require.NoError(f.t, err)
}

func (f *fixture) balance(who string) uint64 {
	b, err := f.m.Balance(f.ctx, who, asset)
	require.NoError(f.t, err)
	return b
}

func (f *fixture) vaultBalance(addr string) uint64 {
	v, err := f.m.Vault(f.ctx, addr)
	require.NoError(f.t, err)
	return v.Balance
}

func (f *fixture) idea(id uint64) *orm.Idea {
	idea, err := f.m.Idea(f.ctx, id)
	require.NoError(f.t, err)
	return idea
}

func (f *fixture) proposal(addr string) *orm.Proposal {
	p, err := f.m.Proposal(f.ctx, addr)
	require.NoError(f.t, err)
	return p
}

func (f *fixture) advance(d time.Duration) {
	f.clk.Add(d)
}

// funded creates idea 1 with alice and bob staking 600 and 400.
func (f *fixture) funded() *orm.Idea {
	_, err := f.m.CreateIdea(f.ctx, alice, 1, "ipfs://idea-1")
	require.NoError(f.t, err)
	f.deposit(alice, 600)
	f.deposit(bob, 400)
	_, err = f.m.Stake(f.ctx, alice, 1, 600)
	require.NoError(f.t, err)
	_, err = f.m.Stake(f.ctx, bob, 1, 400)
	require.NoError(f.t, err)
	return f.idea(1)
}

func schedule(amounts ...uint64) []MilestoneInput {
	var out []MilestoneInput
	for i, a := range amounts {
		out = append(out, MilestoneInput{
			Amount:     a,
			DeadlineTs: genesis.Unix() + int64(i+1)*86400,
		})
	}
	return out
}

// building funds idea 1, submits proposal 10 for 1000 and finalizes it.
func (f *fixture) building() (*orm.Proposal, *orm.Escrow) {
	f.funded()
	p, err := f.m.SubmitProposal(f.ctx, builder, 1, 10, 1000, "ipfs://p10", schedule(300, 300, 400))
	require.NoError(f.t, err)
	_, err = f.m.StartVoting(f.ctx, admin, 1)
	require.NoError(f.t, err)
	_, err = f.m.CastVote(f.ctx, alice, 1, p.Address)
	require.NoError(f.t, err)
	f.advance(time.Duration(duration+1) * time.Second)
	escrow, err := f.m.FinalizeWinner(f.ctx, admin, 1, p.Address)
	require.NoError(f.t, err)
	return f.proposal(p.Address), escrow
}

func (f *fixture) events() []orm.EventKind {
	var evs []*orm.Event
	require.NoError(f.t, f.db.Order("id").Find(&evs).Error)
	var kinds []orm.EventKind
	for _, ev := range evs {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func TestInitializeConfig(t *testing.T) {
	f := newBareFixture(t)

	_, err := f.m.CreateIdea(f.ctx, alice, 1, "")
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = f.m.InitializeConfig(f.ctx, admin, asset, 5, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.m.InitializeConfig(f.ctx, "", asset, 5, duration)
	require.ErrorIs(t, err, ErrInvalidPrincipal)

	cfg, err := f.m.InitializeConfig(f.ctx, admin, asset, 5, duration)
	require.NoError(t, err)
	require.Equal(t, []string{admin}, cfg.Committee)

	_, err = f.m.InitializeConfig(f.ctx, bob, asset, 0, duration)
	require.ErrorIs(t, err, ErrAlreadyInitialized)

	stored, err := f.m.Config(f.ctx)
	require.NoError(t, err)
	require.Equal(t, admin, stored.Admin)
	require.Equal(t, asset, stored.AcceptedAsset)
	require.Equal(t, uint64(5), stored.ProposalFee)
	require.Equal(t, duration, stored.VoteDurationSeconds)
}

func TestSetCommittee(t *testing.T) {
	cases := []struct {
		name      string
		caller    string
		committee []string
		err       error
	}{
		{"not admin", alice, []string{alice}, ErrUnauthorized},
		{"empty", admin, nil, ErrInvalidCommittee},
		{"too large", admin, []string{"a", "b", "c", "d", "e", "f"}, ErrInvalidCommittee},
		{"bad member", admin, []string{"a|b"}, ErrInvalidCommittee},
		{"full", admin, []string{"a", "b", "c", "d", "e"}, nil},
		{"single", admin, []string{bob}, nil},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f := newFixture(t, 0)
			cfg, err := f.m.SetCommittee(f.ctx, c.caller, c.committee)
			if c.err != nil {
				require.ErrorIs(t, err, c.err)
				stored, err := f.m.Config(f.ctx)
				require.NoError(t, err)
				require.Equal(t, []string{admin}, stored.Committee)
				return
			}

			require.NoError(t, err)
			require.Equal(t, c.committee, cfg.Committee)
			stored, err := f.m.Config(f.ctx)
			require.NoError(t, err)
			require.Equal(t, c.committee, stored.Committee)
			require.True(t, stored.IsCommittee(admin))
		})
	}
}

func TestCommitteeMemberAuthority(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.m.CreateIdea(f.ctx, alice, 1, "")
	require.NoError(t, err)

	_, err = f.m.StartVoting(f.ctx, bob, 1)
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = f.m.SetCommittee(f.ctx, admin, []string{bob})
	require.NoError(t, err)

	idea, err := f.m.StartVoting(f.ctx, bob, 1)
	require.NoError(t, err)
	require.Equal(t, orm.IdeaVoting, idea.Status)
	require.Equal(t, genesis.Unix()+duration, idea.VoteEndTs)

	_, err = f.m.StartVoting(f.ctx, admin, 1)
	require.ErrorIs(t, err, ErrInvalidIdeaStatus)
}

func TestCreateIdea(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.m.CreateIdea(f.ctx, alice, 1, strings.Repeat("x", orm.MaxURI+1))
	require.ErrorIs(t, err, ErrURITooLong)

	idea, err := f.m.CreateIdea(f.ctx, alice, 1, strings.Repeat("x", orm.MaxURI))
	require.NoError(t, err)
	require.Equal(t, orm.IdeaOpen, idea.Status)
	require.Equal(t, IdeaAddress(1), idea.Address)
	require.Equal(t, asset, idea.AcceptedAsset)
	require.Nil(t, idea.WinningProposal)

	pool, err := f.m.Vault(f.ctx, idea.PoolVault)
	require.NoError(t, err)
	require.Equal(t, idea.Address, pool.Owner)
	require.Equal(t, orm.OwnerRecord, pool.OwnerKind)
	require.Zero(t, pool.Balance)

	_, err = f.m.CreateIdea(f.ctx, bob, 1, "other")
	require.ErrorIs(t, err, ErrIdeaExists)
	require.Equal(t, alice, f.idea(1).Creator)

	_, err = f.m.Idea(f.ctx, 2)
	require.ErrorIs(t, err, ErrIdeaNotFound)
}

func TestStartVotingOverflow(t *testing.T) {
	f := newBareFixture(t)
	_, err := f.m.InitializeConfig(f.ctx, admin, asset, 0, 1<<63-1)
	require.NoError(t, err)
	_, err = f.m.CreateIdea(f.ctx, alice, 1, "")
	require.NoError(t, err)

	_, err = f.m.StartVoting(f.ctx, admin, 1)
	require.ErrorIs(t, err, ErrMathOverflow)
	require.Equal(t, orm.IdeaOpen, f.idea(1).Status)
}

// Scenario A.
func TestStakeAccumulates(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.m.CreateIdea(f.ctx, alice, 1, strings.Repeat("m", 200))
	require.NoError(t, err)
	f.deposit(alice, 1000)
	f.deposit(bob, 400)

	_, err = f.m.Stake(f.ctx, alice, 1, 600)
	require.NoError(t, err)
	_, err = f.m.Stake(f.ctx, bob, 1, 400)
	require.NoError(t, err)

	idea := f.idea(1)
	require.Equal(t, uint64(1000), idea.TotalStaked)
	require.Equal(t, uint64(1000), f.vaultBalance(idea.PoolVault))
	require.Equal(t, uint64(400), f.balance(alice))
	require.Zero(t, f.balance(bob))

	pos, err := f.m.Stake(f.ctx, alice, 1, 100)
	require.NoError(t, err)
	require.Equal(t, uint64(700), pos.AmountStaked)
	require.Equal(t, orm.StakeActive, pos.Status)
	require.Equal(t, uint64(1100), f.idea(1).TotalStaked)

	rep, err := f.m.Reputation(f.ctx, alice)
	require.NoError(t, err)
	require.Equal(t, uint64(2), rep.SupportCount)
	require.Equal(t, uint64(700), rep.SupportAmountTotal)
}

func TestStakeRejected(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.m.CreateIdea(f.ctx, alice, 1, "")
	require.NoError(t, err)
	f.deposit(alice, 100)

	cases := []struct {
		name      string
		supporter string
		idea      uint64
		amount    uint64
		err       error
	}{
		{"zero amount", alice, 1, 0, ErrInvalidAmount},
		{"unknown idea", alice, 9, 10, ErrIdeaNotFound},
		{"no funding account", bob, 1, 10, ErrInsufficientFunds},
		{"over balance", alice, 1, 101, ErrInsufficientFunds},
		{"bad principal", "", 1, 10, ErrInvalidPrincipal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.m.Stake(f.ctx, c.supporter, c.idea, c.amount)
			require.ErrorIs(t, err, c.err)
		})
	}

	require.Equal(t, uint64(100), f.balance(alice))
	require.Zero(t, f.idea(1).TotalStaked)

	_, err = f.m.StartVoting(f.ctx, admin, 1)
	require.NoError(t, err)
	_, err = f.m.Stake(f.ctx, alice, 1, 10)
	require.ErrorIs(t, err, ErrInvalidIdeaStatus)
}

func TestRefundStake(t *testing.T) {
	f := newFixture(t, 0)
	idea := f.funded()

	pos, err := f.m.RefundStake(f.ctx, alice, 1, "", 100)
	require.NoError(t, err)
	require.Equal(t, uint64(500), pos.AmountStaked)
	require.Equal(t, orm.StakeActive, pos.Status)
	require.Equal(t, uint64(100), f.balance(alice))
	require.Equal(t, uint64(900), f.idea(1).TotalStaked)
	require.Equal(t, uint64(900), f.vaultBalance(idea.PoolVault))

	bobPos := StakeAddress(idea.Address, bob)
	_, err = f.m.RefundStake(f.ctx, alice, 1, bobPos, 100)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.m.RefundStake(f.ctx, alice, 1, "", 501)
	require.ErrorIs(t, err, ErrInsufficientStake)
	_, err = f.m.RefundStake(f.ctx, alice, 1, "", 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.m.RefundStake(f.ctx, outsider, 1, "", 1)
	require.ErrorIs(t, err, ErrStakeNotFound)

	_, err = f.m.CreateIdea(f.ctx, bob, 2, "")
	require.NoError(t, err)
	_, err = f.m.RefundStake(f.ctx, bob, 2, bobPos, 1)
	require.ErrorIs(t, err, ErrStakeIdeaMismatch)

	// Refunds stay open during voting.
	_, err = f.m.StartVoting(f.ctx, admin, 1)
	require.NoError(t, err)
	pos, err = f.m.RefundStake(f.ctx, bob, 1, bobPos, 400)
	require.NoError(t, err)
	require.Zero(t, pos.AmountStaked)
	require.Equal(t, orm.StakeRefunded, pos.Status)
	require.Equal(t, uint64(500), f.idea(1).TotalStaked)
	require.Equal(t, uint64(400), f.balance(bob))

	// Reputation counters never shrink.
	rep, err := f.m.Reputation(f.ctx, bob)
	require.NoError(t, err)
	require.Equal(t, uint64(400), rep.SupportAmountTotal)
}

func TestRefundClosedAfterVoting(t *testing.T) {
	f := newFixture(t, 0)
	f.building()

	_, err := f.m.RefundStake(f.ctx, alice, 1, "", 1)
	require.ErrorIs(t, err, ErrInvalidIdeaStatus)
}

// Scenario B.
func TestSubmitProposal(t *testing.T) {
	f := newFixture(t, 0)
	idea := f.funded()

	p, err := f.m.SubmitProposal(f.ctx, builder, 1, 10, 1000, "ipfs://p", schedule(300, 300, 400))
	require.NoError(t, err)
	require.Equal(t, ProposalAddress(idea.Address, 10), p.Address)
	require.Equal(t, orm.ProposalSubmitted, p.Status)
	require.Equal(t, uint8(3), p.MilestoneCount)

	stored := f.proposal(p.Address)
	require.Len(t, stored.Milestones, 3)
	var sum uint64
	for i, ms := range stored.Milestones {
		require.Equal(t, uint8(i), ms.Index)
		require.Equal(t, orm.MilestonePending, ms.Status)
		_, ok := ms.Proof()
		require.False(t, ok)
		sum += ms.Amount
	}
	require.Equal(t, stored.RequestedTotal, sum)

	cases := []struct {
		name     string
		id       uint64
		total    uint64
		metadata string
		ms       []MilestoneInput
		err      error
	}{
		{"sum mismatch", 11, 900, "", schedule(300, 300, 400), ErrMilestoneSumMismatch},
		{"no milestones", 11, 0, "", nil, ErrInvalidMilestones},
		{"too many milestones", 11, 400, "", schedule(100, 100, 100, 100), ErrInvalidMilestones},
		{"zero milestone", 11, 300, "", schedule(300, 0), ErrInvalidAmount},
		{"overflow", 11, 0, "", schedule(1<<63, 1<<63), ErrMathOverflow},
		{"long metadata", 11, 300, strings.Repeat("u", orm.MaxURI+1), schedule(300), ErrURITooLong},
		{"duplicate id", 10, 300, "", schedule(300), ErrProposalExists},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := f.m.SubmitProposal(f.ctx, builder, 1, c.id, c.total, c.metadata, c.ms)
			require.ErrorIs(t, err, c.err)
		})
	}

	_, err = f.m.Proposal(f.ctx, ProposalAddress(idea.Address, 11))
	require.ErrorIs(t, err, ErrProposalNotFound)

	// Proposal ids are scoped per idea.
	_, err = f.m.CreateIdea(f.ctx, bob, 2, "")
	require.NoError(t, err)
	_, err = f.m.SubmitProposal(f.ctx, builder, 2, 10, 300, "", schedule(300))
	require.NoError(t, err)

	_, err = f.m.StartVoting(f.ctx, admin, 1)
	require.NoError(t, err)
	_, err = f.m.SubmitProposal(f.ctx, builder, 1, 12, 300, "", schedule(300))
	require.ErrorIs(t, err, ErrInvalidIdeaStatus)
}

func TestProposalFee(t *testing.T) {
	f := newFixture(t, 50)
	_, err := f.m.CreateIdea(f.ctx, alice, 1, "")
	require.NoError(t, err)

	_, err = f.m.SubmitProposal(f.ctx, builder, 1, 10, 300, "", schedule(300))
	require.ErrorIs(t, err, ErrInsufficientFunds)

	_, err = f.m.DepositNative(f.ctx, builder, 80)
	require.NoError(t, err)
	_, err = f.m.SubmitProposal(f.ctx, builder, 1, 10, 300, "", schedule(300))
	require.NoError(t, err)

	paid, err := f.m.NativeBalance(f.ctx, builder)
	require.NoError(t, err)
	require.Equal(t, uint64(30), paid)
	got, err := f.m.NativeBalance(f.ctx, admin)
	require.NoError(t, err)
	require.Equal(t, uint64(50), got)

	// A rejected submission is not charged.
	_, err = f.m.DepositNative(f.ctx, builder, 100)
	require.NoError(t, err)
	_, err = f.m.SubmitProposal(f.ctx, builder, 1, 11, 900, "", schedule(300))
	require.ErrorIs(t, err, ErrMilestoneSumMismatch)
	paid, err = f.m.NativeBalance(f.ctx, builder)
	require.NoError(t, err)
	require.Equal(t, uint64(130), paid)
	got, err = f.m.NativeBalance(f.ctx, admin)
	require.NoError(t, err)
	require.Equal(t, uint64(50), got)

	// The fee never touches the asset vaults.
	require.Zero(t, f.balance(admin))
}

// Scenario C.
func TestVoteAndFinalize(t *testing.T) {
	f := newFixture(t, 0)
	idea := f.funded()
	p, err := f.m.SubmitProposal(f.ctx, builder, 1, 10, 1000, "", schedule(300, 300, 400))
	require.NoError(t, err)
	rival, err := f.m.SubmitProposal(f.ctx, bob, 1, 20, 500, "", schedule(500))
	require.NoError(t, err)

	_, err = f.m.CastVote(f.ctx, alice, 1, p.Address)
	require.ErrorIs(t, err, ErrInvalidIdeaStatus)

	_, err = f.m.StartVoting(f.ctx, outsider, 1)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.m.StartVoting(f.ctx, admin, 1)
	require.NoError(t, err)

	f.advance(10 * time.Second)
	vote, err := f.m.CastVote(f.ctx, alice, 1, p.Address)
	require.NoError(t, err)
	require.Equal(t, p.Address, vote.Proposal)

	_, err = f.m.CastVote(f.ctx, alice, 1, rival.Address)
	require.ErrorIs(t, err, ErrAlreadyVoted)
	_, err = f.m.CastVote(f.ctx, bob, 1, rival.Address)
	require.NoError(t, err)
	_, err = f.m.CastVote(f.ctx, builder, 1, rival.Address)
	require.NoError(t, err)

	require.Equal(t, uint64(1), f.proposal(p.Address).VoteCount)
	require.Equal(t, uint64(2), f.proposal(rival.Address).VoteCount)

	_, err = f.m.CreateIdea(f.ctx, bob, 2, "")
	require.NoError(t, err)
	other, err := f.m.SubmitProposal(f.ctx, builder, 2, 10, 300, "", schedule(300))
	require.NoError(t, err)
	_, err = f.m.CastVote(f.ctx, outsider, 1, other.Address)
	require.ErrorIs(t, err, ErrProposalIdeaMismatch)

	_, err = f.m.FinalizeWinner(f.ctx, admin, 1, p.Address)
	require.ErrorIs(t, err, ErrVoteNotEnded)

	// The last second of the window still accepts votes.
	f.advance(time.Duration(duration-10) * time.Second)
	_, err = f.m.CastVote(f.ctx, outsider, 1, p.Address)
	require.NoError(t, err)
	_, err = f.m.FinalizeWinner(f.ctx, admin, 1, p.Address)
	require.ErrorIs(t, err, ErrVoteNotEnded)

	f.advance(time.Second)
	_, err = f.m.CastVote(f.ctx, "late", 1, p.Address)
	require.ErrorIs(t, err, ErrVoteEnded)

	_, err = f.m.FinalizeWinner(f.ctx, outsider, 1, p.Address)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.m.FinalizeWinner(f.ctx, admin, 1, other.Address)
	require.ErrorIs(t, err, ErrProposalIdeaMismatch)

	// The committee may pick the proposal with fewer votes.
	escrow, err := f.m.FinalizeWinner(f.ctx, admin, 1, p.Address)
	require.NoError(t, err)
	require.Zero(t, escrow.ReleasedAmount)
	require.Equal(t, orm.EscrowActive, escrow.Status)
	require.Equal(t, builder, escrow.Builder)
	require.Equal(t, uint64(1000), f.vaultBalance(escrow.Vault))
	require.Zero(t, f.vaultBalance(idea.PoolVault))

	idea = f.idea(1)
	require.Equal(t, orm.IdeaBuilding, idea.Status)
	require.NotNil(t, idea.WinningProposal)
	require.Equal(t, p.Address, *idea.WinningProposal)
	require.Equal(t, orm.ProposalAccepted, f.proposal(p.Address).Status)

	rep, err := f.m.Reputation(f.ctx, builder)
	require.NoError(t, err)
	require.Equal(t, uint64(1), rep.ProposalsWon)

	_, err = f.m.FinalizeWinner(f.ctx, admin, 1, rival.Address)
	require.ErrorIs(t, err, ErrInvalidIdeaStatus)
}

func TestFinalizeIsAtomic(t *testing.T) {
	f := newFixture(t, 0)
	idea := f.funded()
	p, err := f.m.SubmitProposal(f.ctx, builder, 1, 10, 5000, "", schedule(5000))
	require.NoError(t, err)
	_, err = f.m.StartVoting(f.ctx, admin, 1)
	require.NoError(t, err)
	f.advance(time.Duration(duration+1) * time.Second)

	before := f.events()
	_, err = f.m.FinalizeWinner(f.ctx, admin, 1, p.Address)
	require.ErrorIs(t, err, ErrInsufficientFunds)

	idea = f.idea(1)
	require.Equal(t, orm.IdeaVoting, idea.Status)
	require.Nil(t, idea.WinningProposal)
	require.Equal(t, orm.ProposalSubmitted, f.proposal(p.Address).Status)
	require.Equal(t, uint64(1000), f.vaultBalance(idea.PoolVault))
	_, err = f.m.Escrow(f.ctx, 1)
	require.ErrorIs(t, err, ErrEscrowNotFound)
	_, err = f.m.Reputation(f.ctx, builder)
	require.ErrorIs(t, err, ErrReputationNotFound)
	require.Equal(t, before, f.events())
}

// Scenarios D and E.
func TestMilestoneRelease(t *testing.T) {
	f := newFixture(t, 0)
	p, escrow := f.building()

	_, err := f.m.ApproveAndRelease(f.ctx, admin, p.Address, escrow.Address, 0)
	require.ErrorIs(t, err, ErrInvalidMilestoneStatus)

	_, err = f.m.SubmitMilestoneProof(f.ctx, alice, p.Address, 0, "ipfs://proof-0")
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.m.SubmitMilestoneProof(f.ctx, builder, p.Address, 3, "ipfs://proof-3")
	require.ErrorIs(t, err, ErrInvalidMilestoneIndex)
	_, err = f.m.SubmitMilestoneProof(f.ctx, builder, p.Address, 0, strings.Repeat("p", orm.MaxURI+1))
	require.ErrorIs(t, err, ErrURITooLong)

	ms, err := f.m.SubmitMilestoneProof(f.ctx, builder, p.Address, 0, "ipfs://proof-0")
	require.NoError(t, err)
	require.Equal(t, orm.MilestoneSubmittedProof, ms.Status)
	proof, ok := ms.Proof()
	require.True(t, ok)
	require.Equal(t, "ipfs://proof-0", proof)

	_, err = f.m.SubmitMilestoneProof(f.ctx, builder, p.Address, 0, "ipfs://again")
	require.ErrorIs(t, err, ErrInvalidMilestoneStatus)

	_, err = f.m.ApproveAndRelease(f.ctx, outsider, p.Address, escrow.Address, 0)
	require.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.m.ApproveAndRelease(f.ctx, admin, p.Address, escrow.Address, 7)
	require.ErrorIs(t, err, ErrInvalidMilestoneIndex)
	_, err = f.m.ApproveAndRelease(f.ctx, admin, p.Address, "missing", 0)
	require.ErrorIs(t, err, ErrEscrowNotFound)

	escrow, err = f.m.ApproveAndRelease(f.ctx, admin, p.Address, escrow.Address, 0)
	require.NoError(t, err)
	require.Equal(t, uint64(300), escrow.ReleasedAmount)
	require.Equal(t, orm.EscrowActive, escrow.Status)
	require.Equal(t, uint64(300), f.balance(builder))
	require.Equal(t, uint64(700), f.vaultBalance(escrow.Vault))
	require.Equal(t, orm.MilestoneApproved, f.proposal(p.Address).Milestones[0].Status)

	_, err = f.m.ApproveAndRelease(f.ctx, admin, p.Address, escrow.Address, 0)
	require.ErrorIs(t, err, ErrInvalidMilestoneStatus)

	for _, idx := range []uint8{1, 2} {
		_, err = f.m.SubmitMilestoneProof(f.ctx, builder, p.Address, idx, "ipfs://proof")
		require.NoError(t, err)
		escrow, err = f.m.ApproveAndRelease(f.ctx, admin, p.Address, escrow.Address, idx)
		require.NoError(t, err)
		require.LessOrEqual(t, escrow.ReleasedAmount, p.RequestedTotal)
	}

	require.Equal(t, uint64(1000), escrow.ReleasedAmount)
	require.Equal(t, orm.EscrowFinished, escrow.Status)
	require.Equal(t, orm.ProposalCompleted, f.proposal(p.Address).Status)
	require.Equal(t, orm.IdeaCompleted, f.idea(1).Status)
	require.Equal(t, uint64(1000), f.balance(builder))
	require.Zero(t, f.vaultBalance(escrow.Vault))

	rep, err := f.m.Reputation(f.ctx, builder)
	require.NoError(t, err)
	require.Equal(t, uint64(3), rep.MilestonesCompleted)

	_, err = f.m.ApproveAndRelease(f.ctx, admin, p.Address, escrow.Address, 2)
	require.ErrorIs(t, err, ErrInvalidEscrowStatus)
	_, err = f.m.SubmitMilestoneProof(f.ctx, builder, p.Address, 2, "ipfs://late")
	require.ErrorIs(t, err, ErrInvalidProposalStatus)
}

func TestReleaseChecksEscrow(t *testing.T) {
	f := newFixture(t, 0)
	p, escrow := f.building()
	_, err := f.m.SubmitMilestoneProof(f.ctx, builder, p.Address, 0, "ipfs://proof")
	require.NoError(t, err)

	// A second accepted proposal on another idea with its own escrow.
	_, err = f.m.CreateIdea(f.ctx, bob, 2, "")
	require.NoError(t, err)
	f.deposit(bob, 100)
	_, err = f.m.Stake(f.ctx, bob, 2, 100)
	require.NoError(t, err)
	q, err := f.m.SubmitProposal(f.ctx, builder, 2, 1, 100, "", schedule(100))
	require.NoError(t, err)
	_, err = f.m.StartVoting(f.ctx, admin, 2)
	require.NoError(t, err)
	f.advance(time.Duration(duration+1) * time.Second)
	other, err := f.m.FinalizeWinner(f.ctx, admin, 2, q.Address)
	require.NoError(t, err)

	_, err = f.m.ApproveAndRelease(f.ctx, admin, p.Address, other.Address, 0)
	require.ErrorIs(t, err, ErrEscrowProposalMismatch)

	paused := &orm.Escrow{}
	require.NoError(t, f.db.Where("address = ?", escrow.Address).Take(paused).Error)
	paused.Status = orm.EscrowPaused
	require.NoError(t, save(f.db, paused))
	_, err = f.m.ApproveAndRelease(f.ctx, admin, p.Address, escrow.Address, 0)
	require.ErrorIs(t, err, ErrInvalidEscrowStatus)
}

func TestSaveDetectsConflict(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.m.CreateIdea(f.ctx, alice, 1, "")
	require.NoError(t, err)

	first := &orm.Idea{}
	require.NoError(t, load(f.db, first, IdeaAddress(1), ErrIdeaNotFound))
	second := &orm.Idea{}
	require.NoError(t, load(f.db, second, IdeaAddress(1), ErrIdeaNotFound))

	first.MetadataURI = "first"
	require.NoError(t, save(f.db, first))
	require.Equal(t, uint64(1), first.Version)

	second.MetadataURI = "second"
	require.ErrorIs(t, save(f.db, second), ErrConflict)
	require.Equal(t, uint64(0), second.Version)
	require.Equal(t, "first", f.idea(1).MetadataURI)
}

func TestTransferAuthority(t *testing.T) {
	f := newFixture(t, 0)
	idea := f.funded()

	pool, err := loadVault(f.db, idea.PoolVault)
	require.NoError(t, err)
	to, err := walletVault(f.db, outsider, asset, true)
	require.NoError(t, err)

	// Naming the idea as a signer does not open its vault.
	require.ErrorIs(t, transfer(f.db, pool, to, 1, signer(idea.Address)), ErrUnauthorized)
	require.ErrorIs(t, transfer(f.db, pool, to, 1, derived(PoolVaultAddress(idea.Address))), ErrUnauthorized)

	from, err := walletVault(f.db, alice, asset, false)
	require.NoError(t, err)
	require.ErrorIs(t, transfer(f.db, from, to, 1, derived(alice)), ErrUnauthorized)

	other, err := walletVault(f.db, outsider, "eth", true)
	require.NoError(t, err)
	require.ErrorIs(t, transfer(f.db, pool, other, 1, derived(idea.Address)), ErrAssetMismatch)
}

func TestEvents(t *testing.T) {
	f := newFixture(t, 0)
	p, escrow := f.building()
	for _, idx := range []uint8{0, 1, 2} {
		_, err := f.m.SubmitMilestoneProof(f.ctx, builder, p.Address, idx, "ipfs://proof")
		require.NoError(t, err)
		_, err = f.m.ApproveAndRelease(f.ctx, admin, p.Address, escrow.Address, idx)
		require.NoError(t, err)
	}

	require.Equal(t, []orm.EventKind{
		orm.EventConfigInit,
		orm.EventIdeaCreated,
		orm.EventDeposit,
		orm.EventDeposit,
		orm.EventStaked,
		orm.EventStaked,
		orm.EventProposal,
		orm.EventVotingStarted,
		orm.EventVote,
		orm.EventWinner,
		orm.EventMilestoneProof,
		orm.EventMilestonePaid,
		orm.EventMilestoneProof,
		orm.EventMilestonePaid,
		orm.EventMilestoneProof,
		orm.EventMilestonePaid,
		orm.EventEscrowFinished,
	}, f.events())

	ev := &orm.Event{}
	require.NoError(t, f.db.Where("kind = ?", orm.EventIdeaCreated).Take(ev).Error)
	require.Equal(t, "ic|id:1|by:alice", ev.Payload)
	require.Len(t, ev.UUID, 36)
}

func TestDeposit(t *testing.T) {
	f := newFixture(t, 0)

	_, err := f.m.Deposit(f.ctx, alice, asset, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.m.Deposit(f.ctx, "a b", asset, 1)
	require.ErrorIs(t, err, ErrInvalidPrincipal)
	_, err = f.m.DepositNative(f.ctx, alice, 0)
	require.ErrorIs(t, err, ErrInvalidAmount)

	v, err := f.m.Deposit(f.ctx, alice, asset, 5)
	require.NoError(t, err)
	require.Equal(t, WalletVaultAddress(alice, asset), v.Address)
	require.Equal(t, orm.OwnerWallet, v.OwnerKind)
	v, err = f.m.Deposit(f.ctx, alice, asset, 7)
	require.NoError(t, err)
	require.Equal(t, uint64(12), v.Balance)
	require.Equal(t, uint64(12), f.balance(alice))
	require.Zero(t, f.balance(bob))

	w, err := f.m.DepositNative(f.ctx, alice, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(3), w.NativeBalance)
	w, err = f.m.DepositNative(f.ctx, alice, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(7), w.NativeBalance)
}

func TestCheckedArithmetic(t *testing.T) {
	_, err := add(^uint64(0), 1)
	require.ErrorIs(t, err, ErrMathOverflow)
	_, err = add(MaxAmount, 1)
	require.ErrorIs(t, err, ErrMathOverflow)
	v, err := add(MaxAmount-1, 1)
	require.NoError(t, err)
	require.Equal(t, MaxAmount, v)

	_, err = sub(1, 2)
	require.ErrorIs(t, err, ErrMathOverflow)
	v, err = sub(2, 2)
	require.NoError(t, err)
	require.Zero(t, v)

	_, err = addTs(1<<62, 1<<62-1)
	require.NoError(t, err)
	_, err = addTs(1<<62, 1<<62)
	require.ErrorIs(t, err, ErrMathOverflow)
	_, err = addTs(1<<62, 1<<63-1)
	require.ErrorIs(t, err, ErrMathOverflow)
	_, err = addTs(-1<<63, -1)
	require.ErrorIs(t, err, ErrMathOverflow)
}

func TestValidPrincipal(t *testing.T) {
	testCases := []struct {
		name      string
		principal string
		want      bool
	}{
		{"plain name", "alice", true},
		{"base58 key", "4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi", true},
		{"longest", strings.Repeat("a", maxPrincipal), true},
		{"empty", "", false},
		{"too long", strings.Repeat("a", maxPrincipal+1), false},
		{"pipe", "al|ice", false},
		{"space", "al ice", false},
		{"newline", "alice\n", false},
	}
	for _, c := range testCases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, validPrincipal(c.principal))
		})
	}
}

func TestAmountBounds(t *testing.T) {
	f := newFixture(t, 0)

	for _, amount := range []uint64{MaxAmount + 1, ^uint64(0)} {
		_, err := f.m.Deposit(f.ctx, alice, asset, amount)
		require.ErrorIs(t, err, ErrInvalidAmount)
		_, err = f.m.DepositNative(f.ctx, alice, amount)
		require.ErrorIs(t, err, ErrInvalidAmount)
	}

	_, err := f.m.InitializeConfig(f.ctx, admin, asset, MaxAmount+1, duration)
	require.ErrorIs(t, err, ErrInvalidAmount)

	// Accumulating past the bound is an overflow, not a storage error.
	f.deposit(alice, MaxAmount)
	require.Equal(t, MaxAmount, f.balance(alice))
	_, err = f.m.Deposit(f.ctx, alice, asset, 1)
	require.ErrorIs(t, err, ErrMathOverflow)
	require.Equal(t, MaxAmount, f.balance(alice))

	w, err := f.m.DepositNative(f.ctx, bob, MaxAmount)
	require.NoError(t, err)
	require.Equal(t, MaxAmount, w.NativeBalance)
	_, err = f.m.DepositNative(f.ctx, bob, 1)
	require.ErrorIs(t, err, ErrMathOverflow)

	_, err = f.m.CreateIdea(f.ctx, alice, 1, "ipfs://idea-1")
	require.NoError(t, err)
	_, err = f.m.Stake(f.ctx, alice, 1, MaxAmount)
	require.NoError(t, err)
	f.deposit(bob, 1)
	_, err = f.m.Stake(f.ctx, bob, 1, 1)
	require.ErrorIs(t, err, ErrMathOverflow)
	require.Equal(t, MaxAmount, f.idea(1).TotalStaked)
	require.Equal(t, uint64(1), f.balance(bob))

	_, err = f.m.Stake(f.ctx, bob, 1, MaxAmount+1)
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.m.SubmitProposal(f.ctx, builder, 1, 10, MaxAmount+1, "", schedule(MaxAmount+1))
	require.ErrorIs(t, err, ErrInvalidAmount)
	_, err = f.m.SubmitProposal(f.ctx, builder, 1, 10, 0, "", schedule(MaxAmount, 1))
	require.ErrorIs(t, err, ErrMathOverflow)

	kind, ok := KindOf(err)
	require.True(t, ok)
	require.Equal(t, KindArithmetic, kind)
}

func TestErrorKinds(t *testing.T) {
	cases := []struct {
		err  error
		kind Kind
	}{
		{ErrUnauthorized, KindAuthorization},
		{ErrInvalidIdeaStatus, KindState},
		{ErrVoteEnded, KindTemporal},
		{ErrMathOverflow, KindArithmetic},
		{ErrAlreadyVoted, KindDuplicate},
		{ErrConflict, KindConflict},
		{ErrURITooLong, KindValidation},
		{ErrInsufficientFunds, KindFunds},
		{ErrIdeaNotFound, KindNotFound},
	}
	for _, c := range cases {
		t.Run(c.err.Error(), func(t *testing.T) {
			kind, ok := KindOf(c.err)
			require.True(t, ok)
			require.Equal(t, c.kind, kind)
		})
	}

	require.Equal(t, 6000, ErrUnauthorized.Code())
	require.Equal(t, 6016, ErrInsufficientStake.Code())
	_, ok := KindOf(context.Canceled)
	require.False(t, ok)
}
