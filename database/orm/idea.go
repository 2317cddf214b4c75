package orm

// IdeaStatus represents the lifecycle of an idea.
type IdeaStatus uint8

const (
	IdeaOpen IdeaStatus = iota
	IdeaVoting
	IdeaBuilding
	IdeaCompleted
	IdeaCancelled
)

var (
	ideaStatusValue = map[IdeaStatus]string{
		IdeaOpen:      "OPEN",
		IdeaVoting:    "VOTING",
		IdeaBuilding:  "BUILDING",
		IdeaCompleted: "COMPLETED",
		IdeaCancelled: "CANCELLED",
	}

	ideaValueStatus = map[string]IdeaStatus{
		"OPEN":      IdeaOpen,
		"VOTING":    IdeaVoting,
		"BUILDING":  IdeaBuilding,
		"COMPLETED": IdeaCompleted,
		"CANCELLED": IdeaCancelled,
	}
)

// StrToIdeaStatus converts a status string to an idea status.
func StrToIdeaStatus(str string) (IdeaStatus, bool) {
	s, ok := ideaValueStatus[str]
	return s, ok
}

// String returns the string of idea status
func (s IdeaStatus) String() string {
	if _, ok := ideaStatusValue[s]; !ok {
		return "unknown"
	}

	return ideaStatusValue[s]
}

// Idea is a gorm table definition represents the funding campaigns.
type Idea struct {
	Record
	IdeaID          uint64     `gorm:"uniqueIndex;not null"`
	Creator         string     `gorm:"size:64;not null"`
	MetadataURI     string     `gorm:"size:200"`
	AcceptedAsset   string     `gorm:"size:64;not null"`
	Status          IdeaStatus `gorm:"index;not null"`
	TotalStaked     uint64     `gorm:"not null"`
	VoteEndTs       int64      `gorm:"not null"`
	WinningProposal *string    `gorm:"size:64"`
	PoolVault       string     `gorm:"size:64;not null"`
}
