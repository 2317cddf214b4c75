package orm

import "time"

// EventKind represents the operation an outbox event was written by.
type EventKind string

const (
	EventConfigInit     EventKind = "ci"
	EventCommitteeSet   EventKind = "cc"
	EventIdeaCreated    EventKind = "ic"
	EventVotingStarted  EventKind = "vs"
	EventStaked         EventKind = "sk"
	EventRefunded       EventKind = "rf"
	EventProposal       EventKind = "pc"
	EventVote           EventKind = "v"
	EventWinner         EventKind = "fw"
	EventMilestoneProof EventKind = "mp"
	EventMilestonePaid  EventKind = "mr"
	EventEscrowFinished EventKind = "ef"
	EventDeposit        EventKind = "dp"
	EventNativeDeposit  EventKind = "dn"
)

// Event is a gorm table definition represents the outbox of committed
// operations. IDs are allocated at insert, not at commit, so a smaller
// id may become visible after a larger one. Published marks what the
// relay has delivered.
type Event struct {
	ID        uint64    `gorm:"primary_key"`
	UUID      string    `gorm:"size:36;uniqueIndex;not null"`
	Kind      EventKind `gorm:"size:8;not null"`
	Payload   string    `gorm:"size:1024"`
	Published bool      `gorm:"index;not null;default:false"`
	CreatedAt time.Time
}
