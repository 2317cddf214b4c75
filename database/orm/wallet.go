package orm

// Wallet is a gorm table definition represents the native currency
// balance of a principal, used for proposal fees.
type Wallet struct {
	Record
	Owner         string `gorm:"size:64;uniqueIndex;not null"`
	NativeBalance uint64 `gorm:"not null"`
}
