package market

import (
	"encoding/binary"

	"github.com/mr-tron/base58"
	"golang.org/x/crypto/blake2b"
)

// Namespaces of derived record identities.
const (
	nsConfig      = "config"
	nsIdea        = "idea"
	nsPoolVault   = "pool_vault"
	nsStake       = "stake"
	nsReputation  = "rep"
	nsProposal    = "proposal"
	nsVote        = "vote"
	nsEscrow      = "escrow"
	nsEscrowVault = "escrow_vault"
	nsWallet      = "wallet"
	nsNative      = "native"
	nsMilestone   = "milestone"
)

// derive hashes the namespace and seeds into a base58 address. Every seed
// is length prefixed so adjacent seeds cannot be re-split into a
// colliding tuple.
func derive(namespace string, seeds ...[]byte) string {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only fails for oversized keys.
		panic(err)
	}

	writeSeed := func(b []byte) {
		h.Write(packU64LE(uint64(len(b))))
		h.Write(b)
	}
	writeSeed([]byte(namespace))
	for _, s := range seeds {
		writeSeed(s)
	}

	return base58.Encode(h.Sum(nil))
}

func packU64LE(v uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, v)
	return b
}

// ConfigAddress is the identity of the singleton market config.
func ConfigAddress() string {
	return derive(nsConfig)
}

// IdeaAddress is the identity of an idea by its numeric id.
func IdeaAddress(ideaID uint64) string {
	return derive(nsIdea, packU64LE(ideaID))
}

// PoolVaultAddress is the vault holding the stakes of an idea.
func PoolVaultAddress(idea string) string {
	return derive(nsPoolVault, []byte(idea))
}

// StakeAddress is the one stake position of supporter on idea.
func StakeAddress(idea, supporter string) string {
	return derive(nsStake, []byte(idea), []byte(supporter))
}

// ReputationAddress is the reputation profile of a wallet.
func ReputationAddress(wallet string) string {
	return derive(nsReputation, []byte(wallet))
}

// ProposalAddress scopes proposal ids to their idea.
func ProposalAddress(idea string, proposalID uint64) string {
	return derive(nsProposal, []byte(idea), packU64LE(proposalID))
}

// VoteAddress is shared by every vote of voter on idea, so a second
// vote collides with the first.
func VoteAddress(idea, voter string) string {
	return derive(nsVote, []byte(idea), []byte(voter))
}

// EscrowAddress is keyed by idea and proposal. Escrow rows are also
// unique per idea.
func EscrowAddress(idea, proposal string) string {
	return derive(nsEscrow, []byte(idea), []byte(proposal))
}

// EscrowVaultAddress is the vault owned by an escrow.
func EscrowVaultAddress(escrow string) string {
	return derive(nsEscrowVault, []byte(escrow))
}

// WalletVaultAddress is the funding account of owner for asset.
func WalletVaultAddress(owner, asset string) string {
	return derive(nsWallet, []byte(owner), []byte(asset))
}

// NativeWalletAddress holds the native balance used for proposal fees.
func NativeWalletAddress(owner string) string {
	return derive(nsNative, []byte(owner))
}

// MilestoneAddress is the milestone at index of a proposal schedule.
func MilestoneAddress(proposal string, index uint8) string {
	return derive(nsMilestone, []byte(proposal), []byte{index})
}
