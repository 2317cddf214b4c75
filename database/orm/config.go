package orm

// MaxCommittee bounds the committee membership list.
const MaxCommittee = 5

// MarketConfig is a gorm table definition represents the process-wide
// marketplace policy. Exactly one row exists once initialized.
type MarketConfig struct {
	Record
	Admin               string   `gorm:"size:64;not null"`
	AcceptedAsset       string   `gorm:"size:64;not null"`
	ProposalFee         uint64   `gorm:"not null"`
	VoteDurationSeconds int64    `gorm:"not null"`
	Committee           []string `gorm:"serializer:json"`
}

// TableName change default table name
func (MarketConfig) TableName() string {
	return "market_config"
}

// IsCommittee reports whether addr may run committee-gated operations.
// The admin always qualifies.
func (c *MarketConfig) IsCommittee(addr string) bool {
	if addr == c.Admin {
		return true
	}
	for _, m := range c.Committee {
		if m == addr {
			return true
		}
	}
	return false
}
