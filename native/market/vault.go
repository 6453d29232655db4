package market

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftbazaar/core/events"
	"nftbazaar/registry"
)

// vaultState is the slice of the state backend the vault needs for its
// custody accounting.
type vaultState interface {
	VaultCreditUnits(assetID uint64, qty uint64) error
	VaultDebitUnits(assetID uint64, qty uint64) error
	VaultUnits(assetID uint64) (uint64, error)
	VaultCreditFunds(amount *big.Int) error
	VaultDebitFunds(amount *big.Int) error
	VaultFunds() (*big.Int, error)
}

// Vault performs every custody move for the marketplace. Assets and funds
// sit under the vault's address while listed or bid on; sellers and bidders
// keep only the claim recorded in the listing/auction state. Each hold or
// release updates the vault's accounting and emits a custody record for
// external auditing.
type Vault struct {
	state   vaultState
	items   registry.ItemRegistry
	units   registry.UnitRegistry
	payment registry.PaymentToken
	addr    common.Address
	emitter events.Emitter
}

// NewVault wires a vault to its registries. The address is the identity the
// vault uses as transfer operator; registries must have been told to honour
// it (operator approval, allowances) before first use.
func NewVault(addr common.Address, items registry.ItemRegistry, units registry.UnitRegistry, payment registry.PaymentToken) *Vault {
	return &Vault{
		items:   items,
		units:   units,
		payment: payment,
		addr:    addr,
		emitter: events.NoopEmitter{},
	}
}

// SetState configures the accounting backend.
func (v *Vault) SetState(state vaultState) { v.state = state }

// SetEmitter configures the custody audit emitter. Passing nil resets it to
// a no-op implementation.
func (v *Vault) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		v.emitter = events.NoopEmitter{}
		return
	}
	v.emitter = emitter
}

// Address returns the identity under which the vault holds custody.
func (v *Vault) Address() common.Address { return v.addr }

func (v *Vault) emit(evt events.Event) {
	if v == nil || v.emitter == nil {
		return
	}
	v.emitter.Emit(evt)
}

// HoldItem takes custody of a single-unit asset from its owner.
func (v *Vault) HoldItem(from common.Address, assetID uint64) error {
	if err := v.items.TransferFrom(v.addr, from, v.addr, assetID); err != nil {
		return err
	}
	v.emit(events.VaultCustody{Direction: "hold", Class: "item", AssetID: assetID, Quantity: 1, Party: from})
	return nil
}

// ReleaseItem returns a held single-unit asset to the recipient.
func (v *Vault) ReleaseItem(to common.Address, assetID uint64) error {
	if err := v.items.TransferFrom(v.addr, v.addr, to, assetID); err != nil {
		return err
	}
	v.emit(events.VaultCustody{Direction: "release", Class: "item", AssetID: assetID, Quantity: 1, Party: to})
	return nil
}

// HoldUnits takes custody of a quantity of a multi-unit asset.
func (v *Vault) HoldUnits(from common.Address, assetID uint64, qty uint64) error {
	if qty == 0 {
		return fmt.Errorf("%w: zero hold quantity", ErrInvalidValue)
	}
	if err := v.units.TransferFrom(v.addr, from, v.addr, assetID, qty); err != nil {
		return err
	}
	if err := v.creditUnits(assetID, qty); err != nil {
		return err
	}
	v.emit(events.VaultCustody{Direction: "hold", Class: "units", AssetID: assetID, Quantity: qty, Party: from})
	return nil
}

// ReleaseUnits returns a quantity of a held multi-unit asset to the
// recipient.
func (v *Vault) ReleaseUnits(to common.Address, assetID uint64, qty uint64) error {
	if qty == 0 {
		return fmt.Errorf("%w: zero release quantity", ErrInvalidValue)
	}
	if err := v.debitUnits(assetID, qty); err != nil {
		return err
	}
	if err := v.units.TransferFrom(v.addr, v.addr, to, assetID, qty); err != nil {
		return err
	}
	v.emit(events.VaultCustody{Direction: "release", Class: "units", AssetID: assetID, Quantity: qty, Party: to})
	return nil
}

// HoldFunds escrows payment funds from the party. The party must have
// granted the vault a sufficient allowance.
func (v *Vault) HoldFunds(from common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: fund hold must be positive", ErrInvalidValue)
	}
	if err := v.payment.TransferFrom(v.addr, from, v.addr, amount); err != nil {
		return err
	}
	if err := v.creditFunds(amount); err != nil {
		return err
	}
	v.emit(events.VaultCustody{Direction: "hold", Class: "funds", Amount: new(big.Int).Set(amount), Party: from})
	return nil
}

// ReleaseFunds pays escrowed funds out to the recipient.
func (v *Vault) ReleaseFunds(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() <= 0 {
		return fmt.Errorf("%w: fund release must be positive", ErrInvalidValue)
	}
	if err := v.debitFunds(amount); err != nil {
		return err
	}
	if err := v.payment.TransferFrom(v.addr, v.addr, to, amount); err != nil {
		return err
	}
	v.emit(events.VaultCustody{Direction: "release", Class: "funds", Amount: new(big.Int).Set(amount), Party: to})
	return nil
}

// UnitsHeld reports the quantity of an asset currently under custody.
func (v *Vault) UnitsHeld(assetID uint64) (uint64, error) {
	if v.state == nil {
		return 0, ErrNotConfigured
	}
	return v.state.VaultUnits(assetID)
}

// FundsHeld reports the payment funds currently under custody.
func (v *Vault) FundsHeld() (*big.Int, error) {
	if v.state == nil {
		return nil, ErrNotConfigured
	}
	return v.state.VaultFunds()
}

func (v *Vault) creditUnits(assetID uint64, qty uint64) error {
	if v.state == nil {
		return ErrNotConfigured
	}
	return v.state.VaultCreditUnits(assetID, qty)
}

func (v *Vault) debitUnits(assetID uint64, qty uint64) error {
	if v.state == nil {
		return ErrNotConfigured
	}
	return v.state.VaultDebitUnits(assetID, qty)
}

func (v *Vault) creditFunds(amount *big.Int) error {
	if v.state == nil {
		return ErrNotConfigured
	}
	return v.state.VaultCreditFunds(amount)
}

func (v *Vault) debitFunds(amount *big.Int) error {
	if v.state == nil {
		return ErrNotConfigured
	}
	return v.state.VaultDebitFunds(amount)
}
