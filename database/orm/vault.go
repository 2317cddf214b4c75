package orm

// OwnerKind tells who may authorize transfers out of a vault.
type OwnerKind uint8

const (
	// OwnerWallet vaults are moved by the signing principal that owns them.
	OwnerWallet OwnerKind = iota + 1
	// OwnerRecord vaults are moved only on behalf of the owning record.
	OwnerRecord
)

// Vault is a gorm table definition represents a custody account holding
// a balance of one asset.
type Vault struct {
	Record
	Owner     string    `gorm:"size:64;index;not null"`
	OwnerKind OwnerKind `gorm:"not null"`
	Asset     string    `gorm:"size:64;not null"`
	Balance   uint64    `gorm:"not null"`
}
