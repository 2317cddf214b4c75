package market

import (
	"context"
	"math"
	"math/bits"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/plugin/dbresolver"

	"github.com/photon-storage/go-common/log"

	"github.com/photon-storage/idea-market/database/orm"
)

const maxPrincipal = 64

// MaxAmount is the largest balance or amount a record can hold. Signed
// 64-bit columns are the widest integer every supported backend stores.
const MaxAmount uint64 = math.MaxInt64

// Market applies marketplace operations. Every operation commits all of
// its record mutations, transfers and its outbox event in one database
// transaction, or none of them.
type Market struct {
	db    *gorm.DB
	clock clock.Clock
}

// New returns a market backed by db using clk as the time source.
func New(db *gorm.DB, clk clock.Clock) *Market {
	return &Market{
		db:    db,
		clock: clk,
	}
}

func (m *Market) now() int64 {
	return m.clock.Now().Unix()
}

// exec runs fn in a write transaction. A returned error rolls back the
// whole operation.
func (m *Market) exec(ctx context.Context, op string, fn func(tx *gorm.DB) error) error {
	err := m.db.WithContext(ctx).
		Clauses(dbresolver.Write).
		Transaction(fn)
	if err != nil {
		log.Debug("market operation rejected", "op", op, "error", err)
		return err
	}

	log.Debug("market operation committed", "op", op)
	return nil
}

// load reads the record at addr into rec, returning missing when absent.
func load(tx *gorm.DB, rec orm.Addressed, addr string, missing error) error {
	err := tx.Where("address = ?", addr).Take(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return missing
	}
	if err != nil {
		return errors.Wrapf(err, "load %T", rec)
	}

	return nil
}

// insert creates rec at its derived address. A second insert at the same
// address fails with dup.
func insert(tx *gorm.DB, rec orm.Addressed, dup error) error {
	err := tx.Omit(clause.Associations).Create(rec).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return dup
	}
	if err != nil {
		return errors.Wrapf(err, "create %T", rec)
	}

	return nil
}

// save writes every column of rec if nobody else wrote it since it was
// loaded, and fails with ErrConflict otherwise.
func save(tx *gorm.DB, rec orm.Addressed) error {
	base := rec.Base()
	prev := base.Version
	base.Version++

	result := tx.Model(rec).
		Where("version = ?", prev).
		Select("*").
		Omit("address", "created_at", clause.Associations).
		Updates(rec)
	if result.Error != nil {
		base.Version = prev
		return errors.Wrapf(result.Error, "update %T", rec)
	}
	if result.RowsAffected != 1 {
		base.Version = prev
		return ErrConflict
	}

	return nil
}

func validAmount(a uint64) bool {
	return a > 0 && a <= MaxAmount
}

// add returns a+b, failing when the sum is not storable.
func add(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 || sum > MaxAmount {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

func sub(a, b uint64) (uint64, error) {
	diff, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, ErrMathOverflow
	}
	return diff, nil
}

func addTs(ts, delta int64) (int64, error) {
	sum := ts + delta
	if (delta > 0 && sum < ts) || (delta < 0 && sum > ts) {
		return 0, ErrMathOverflow
	}
	return sum, nil
}

// validPrincipal rejects identities that cannot be stored or that would
// break the pipe separated event payloads. It is looser than the api,
// which only admits base58 encoded 32 byte keys: the core never decodes
// principals, it only compares them.
func validPrincipal(p string) bool {
	return p != "" &&
		len(p) <= maxPrincipal &&
		!strings.ContainsAny(p, "| \t\r\n")
}

func loadConfig(tx *gorm.DB) (*orm.MarketConfig, error) {
	cfg := &orm.MarketConfig{}
	if err := load(tx, cfg, ConfigAddress(), ErrNotInitialized); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadIdea(tx *gorm.DB, ideaID uint64) (*orm.Idea, error) {
	idea := &orm.Idea{}
	if err := load(tx, idea, IdeaAddress(ideaID), ErrIdeaNotFound); err != nil {
		return nil, err
	}
	return idea, nil
}

func loadProposal(tx *gorm.DB, addr string) (*orm.Proposal, error) {
	p := &orm.Proposal{}
	if err := load(tx, p, addr, ErrProposalNotFound); err != nil {
		return nil, err
	}
	return p, nil
}

func loadMilestone(tx *gorm.DB, proposal string, index uint8) (*orm.Milestone, error) {
	ms := &orm.Milestone{}
	if err := load(
		tx,
		ms,
		MilestoneAddress(proposal, index),
		ErrMilestoneNotFound,
	); err != nil {
		return nil, err
	}
	return ms, nil
}
