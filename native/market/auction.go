package market

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"nftbazaar/core/events"
)

// ListItemOnAuction escrows the asset and opens a time-boxed auction seeded
// with the seller's start price. It returns the auction identifier: the
// asset identifier for single-unit auctions, a fresh sequential identifier
// for multi-unit ones.
func (e *Engine) ListItemOnAuction(kind Kind, caller common.Address, assetID uint64, startPrice *big.Int, quantity uint64) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if startPrice == nil || startPrice.Sign() < 0 {
		return 0, fmt.Errorf("%w: negative start price", ErrInvalidValue)
	}
	auction := &Auction{
		Kind:       kind,
		AssetID:    assetID,
		Seller:     caller,
		Quantity:   quantity,
		HighestBid: new(big.Int).Set(startPrice),
		StartedAt:  e.now(),
	}
	switch kind {
	case KindSingle:
		if quantity != 1 {
			return 0, fmt.Errorf("%w: single-unit auction quantity must be 1", ErrInvalidValue)
		}
		auction.ID = assetID
		if err := e.vault.HoldItem(caller, assetID); err != nil {
			return 0, err
		}
	case KindMulti:
		if quantity == 0 {
			return 0, fmt.Errorf("%w: auction quantity must be positive", ErrInvalidValue)
		}
		held, err := e.units.BalanceOf(caller, assetID)
		if err != nil {
			return 0, err
		}
		if held < quantity {
			return 0, fmt.Errorf("%w: %d units held, %d required", ErrInsufficientBalance, held, quantity)
		}
		id, err := e.state.NextMarketID()
		if err != nil {
			return 0, err
		}
		auction.ID = id
		if err := e.vault.HoldUnits(caller, assetID, quantity); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: kind %d", ErrInvalidValue, kind)
	}
	if err := e.state.AuctionPut(auction); err != nil {
		return 0, err
	}
	e.emit(events.AuctionCreated{Kind: kind.String(), AuctionID: auction.ID, AssetID: assetID, StartPrice: auction.HighestBid, Quantity: quantity, Seller: caller})
	return auction.ID, nil
}

// MakeBid escrows a new highest bid. The previous bidder, if any, is
// refunded in full within the same operation so at most one bid stays
// escrowed per auction.
func (e *Engine) MakeBid(kind Kind, caller common.Address, id uint64, amount *big.Int) error {
	if err := e.ready(); err != nil {
		return err
	}
	auction, err := e.state.AuctionGet(kind, id)
	if err != nil {
		return err
	}
	if auction == nil {
		return fmt.Errorf("%w: auction %d", ErrDoesNotExist, id)
	}
	if e.now() >= auction.StartedAt+e.auctionDuration {
		return fmt.Errorf("%w: auction %d has ended", ErrWrongPeriod, id)
	}
	if amount == nil || amount.Cmp(auction.HighestBid) <= 0 {
		return fmt.Errorf("%w: bid must exceed %s", ErrInvalidValue, auction.HighestBid)
	}
	available, err := e.availableFunds(caller)
	if err != nil {
		return err
	}
	if available.Cmp(amount) < 0 {
		return fmt.Errorf("%w: %s available, %s required", ErrInsufficientBalance, available, amount)
	}
	prevBidder := auction.HighestBidder
	prevBid := new(big.Int).Set(auction.HighestBid)
	hadBid := auction.HasBid()

	updated := auction.Clone()
	updated.HighestBidder = caller
	updated.HighestBid = new(big.Int).Set(amount)
	updated.BidCount++
	if err := e.state.AuctionPut(updated); err != nil {
		return err
	}
	if err := e.vault.HoldFunds(caller, amount); err != nil {
		return err
	}
	if hadBid {
		if err := e.vault.ReleaseFunds(prevBidder, prevBid); err != nil {
			return err
		}
	}
	e.emit(events.AuctionBid{Kind: kind.String(), AuctionID: id, Bidder: caller, Amount: updated.HighestBid})
	return nil
}

// FinishAuction closes an elapsed auction. Settlement is a pure function of
// the bid count: with strictly more than the threshold number of bids the
// asset goes to the highest bidder and the winning bid to the seller;
// otherwise the asset returns to the seller and any escrowed bid is
// refunded. Anyone may trigger the transition once the window has elapsed.
func (e *Engine) FinishAuction(kind Kind, id uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	auction, err := e.state.AuctionGet(kind, id)
	if err != nil {
		return err
	}
	if auction == nil {
		return fmt.Errorf("%w: auction %d", ErrDoesNotExist, id)
	}
	if e.now() < auction.StartedAt+e.auctionDuration {
		return fmt.Errorf("%w: auction %d still running", ErrWrongPeriod, id)
	}
	// The record is consumed before any transfer so a reentrant callback
	// cannot finish the same auction twice.
	if err := e.state.AuctionDelete(kind, id); err != nil {
		return err
	}
	sold := auction.BidCount > e.bidThreshold
	assetRecipient := auction.Seller
	if sold {
		assetRecipient = auction.HighestBidder
	}
	if kind == KindSingle {
		if err := e.vault.ReleaseItem(assetRecipient, auction.AssetID); err != nil {
			return err
		}
	} else {
		if err := e.vault.ReleaseUnits(assetRecipient, auction.AssetID, auction.Quantity); err != nil {
			return err
		}
	}
	if sold {
		if err := e.vault.ReleaseFunds(auction.Seller, auction.HighestBid); err != nil {
			return err
		}
	} else if auction.HasBid() {
		if err := e.vault.ReleaseFunds(auction.HighestBidder, auction.HighestBid); err != nil {
			return err
		}
	}
	e.emit(events.AuctionClosed{
		Kind:      kind.String(),
		AuctionID: id,
		Recipient: assetRecipient,
		Amount:    auction.HighestBid,
		BidCount:  auction.BidCount,
		Sold:      sold,
	})
	return nil
}
