// Package registry defines the narrow interfaces through which the
// marketplace consumes its external collaborators: the single-unit item
// registry, the multi-unit registry and the payment asset. In-memory
// implementations suitable for local deployments and tests live alongside
// the interfaces; a production deployment would back them with real ledger
// adapters.
package registry

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// MinterRole authorizes an operator to mint new assets in a registry.
var MinterRole = common.BytesToHash(ethcrypto.Keccak256([]byte("MINTER_ROLE")))

// ItemRegistry tracks single-unit assets: exclusive ownership per identifier.
type ItemRegistry interface {
	// OwnerOf returns the current owner of the item.
	OwnerOf(id uint64) (common.Address, error)
	// TransferFrom moves the item. The operator must be the current owner
	// or approved for all of the owner's items.
	TransferFrom(operator, from, to common.Address, id uint64) error
	// Mint creates a fresh item owned by to. The operator must hold the
	// minter role.
	Mint(operator, to common.Address, id uint64) error
	// TokenURI returns the metadata location for the item.
	TokenURI(id uint64) (string, error)
}

// UnitRegistry tracks multi-unit assets: per-identifier balances.
type UnitRegistry interface {
	// BalanceOf returns how many units of id the owner holds.
	BalanceOf(owner common.Address, id uint64) (uint64, error)
	// TransferFrom moves amount units of id. The operator must be the
	// holder or approved for all of the holder's units.
	TransferFrom(operator, from, to common.Address, id uint64, amount uint64) error
	// BatchTransferFrom moves several unit positions in one call.
	BatchTransferFrom(operator, from, to common.Address, ids []uint64, amounts []uint64) error
	// Mint creates amount fresh units of id owned by to. The operator must
	// hold the minter role.
	Mint(operator, to common.Address, id uint64, amount uint64) error
	// URI returns the metadata location for the unit type.
	URI(id uint64) (string, error)
}

// PaymentToken is the designated payment asset: balances plus
// allowance-gated transfers.
type PaymentToken interface {
	BalanceOf(owner common.Address) (*big.Int, error)
	// Allowance reports how much the spender may move out of owner's
	// balance.
	Allowance(owner, spender common.Address) (*big.Int, error)
	// TransferFrom moves amount from from to to on behalf of spender. When
	// the spender is not the source account the move consumes allowance.
	TransferFrom(spender, from, to common.Address, amount *big.Int) error
}

// UnitReceiver acknowledges incoming multi-unit transfers. Registries invoke
// the hook after crediting the recipient; a non-nil error aborts the
// transfer.
type UnitReceiver interface {
	OnUnitsReceived(operator, from common.Address, id uint64, amount uint64) error
	OnUnitsBatchReceived(operator, from common.Address, ids []uint64, amounts []uint64) error
}
