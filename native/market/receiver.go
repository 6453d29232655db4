package market

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"nftbazaar/core/events"
)

// OnUnitsReceived acknowledges an incoming multi-unit transfer. Transfers
// the vault initiated itself are already accounted for by HoldUnits; for
// unsolicited transfers the engine records the custody and nothing else, so
// a receiver callback can never re-enter listing or auction records.
func (e *Engine) OnUnitsReceived(operator, from common.Address, id uint64, amount uint64) error {
	if e == nil || e.vault == nil || e.state == nil {
		return ErrNotConfigured
	}
	if operator == e.addr || amount == 0 {
		return nil
	}
	if err := e.state.VaultCreditUnits(id, amount); err != nil {
		return err
	}
	e.emit(events.VaultCustody{Direction: "hold", Class: "units", AssetID: id, Quantity: amount, Party: from})
	return nil
}

// OnUnitsBatchReceived acknowledges an incoming multi-unit batch transfer.
func (e *Engine) OnUnitsBatchReceived(operator, from common.Address, ids []uint64, amounts []uint64) error {
	if e == nil || e.vault == nil || e.state == nil {
		return ErrNotConfigured
	}
	if len(ids) != len(amounts) {
		return fmt.Errorf("%w: ids/amounts length mismatch", ErrInvalidValue)
	}
	if operator == e.addr {
		return nil
	}
	for i := range ids {
		if err := e.OnUnitsReceived(operator, from, ids[i], amounts[i]); err != nil {
			return err
		}
	}
	return nil
}
