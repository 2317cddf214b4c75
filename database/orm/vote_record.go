package orm

// VoteRecord is a gorm table definition represents the single vote a
// wallet may cast on an idea. Its address is derived from the idea and
// the voter so a second insert collides.
type VoteRecord struct {
	Record
	Idea     string `gorm:"size:64;index;not null"`
	Voter    string `gorm:"size:64;not null"`
	Proposal string `gorm:"size:64;index;not null"`
}
