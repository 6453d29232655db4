package market

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"nftbazaar/core/events"
	nativecommon "nftbazaar/native/common"
	"nftbazaar/registry"
)

const moduleName = "market"

// defaultBidThreshold is the minimum-interest policy: an auction settles in
// favour of the highest bidder only when strictly more than this many bids
// were placed. Thin auctions are returned to the seller instead of executing
// at a possibly manipulated price.
const defaultBidThreshold uint32 = 2

// engineState is the persistence backend for listings, auctions and the
// vault's custody accounting.
type engineState interface {
	vaultState
	ListingPut(*Listing) error
	// ListingGet and AuctionGet return a nil record without error when the
	// record does not exist; errors report backend failures.
	ListingGet(kind Kind, id uint64) (*Listing, error)
	ListingDelete(kind Kind, id uint64) error
	AuctionPut(*Auction) error
	AuctionGet(kind Kind, id uint64) (*Auction, error)
	AuctionDelete(kind Kind, id uint64) error
	// NextMarketID draws from the monotonically increasing counter shared
	// by multi-unit listings and auctions.
	NextMarketID() (uint64, error)
}

// Engine is the marketplace state machine: fixed-price listings and
// time-boxed auctions over single-unit and multi-unit assets, settled in the
// configured payment asset. All custody moves go through the vault.
//
// Callers are expected to serialize operations; every operation validates
// against external balances before mutating state so that the transfers it
// issues afterwards cannot fail half-way.
type Engine struct {
	state   engineState
	vault   *Vault
	items   registry.ItemRegistry
	units   registry.UnitRegistry
	payment registry.PaymentToken
	emitter events.Emitter
	nowFn   func() int64
	pauses  nativecommon.PauseView

	addr            common.Address
	auctionDuration int64
	bidThreshold    uint32
}

// NewEngine creates an unconfigured engine that will hold custody under the
// given address. Configure must be called before any market operation.
func NewEngine(addr common.Address) *Engine {
	return &Engine{
		addr:         addr,
		emitter:      events.NoopEmitter{},
		nowFn:        func() int64 { return time.Now().Unix() },
		bidThreshold: defaultBidThreshold,
	}
}

// SetState configures the state backend used by the engine and its vault.
func (e *Engine) SetState(state engineState) {
	e.state = state
	if e.vault != nil {
		e.vault.SetState(state)
	}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op
// implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
	if e.vault != nil {
		e.vault.SetEmitter(emitter)
	}
}

// SetNowFunc overrides the time source used for auction windows. Primarily
// intended for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetPauses wires the module pause switchboard.
func (e *Engine) SetPauses(p nativecommon.PauseView) { e.pauses = p }

// SetBidThreshold adjusts the minimum-interest policy. An auction needs
// strictly more than threshold bids to settle in the highest bidder's
// favour.
func (e *Engine) SetBidThreshold(threshold uint32) { e.bidThreshold = threshold }

// Vault exposes the custody component, mainly for invariant checks.
func (e *Engine) Vault() *Vault { return e.vault }

// Address returns the identity under which the engine holds custody.
func (e *Engine) Address() common.Address { return e.addr }

// Configure binds the engine to its three collaborators and fixes the
// auction duration. It must be called exactly once before any other
// operation.
func (e *Engine) Configure(items registry.ItemRegistry, units registry.UnitRegistry, payment registry.PaymentToken, auctionDuration int64) error {
	if e.vault != nil {
		return ErrAlreadyConfigured
	}
	if items == nil || units == nil || payment == nil {
		return fmt.Errorf("%w: nil registry", ErrInvalidValue)
	}
	if auctionDuration <= 0 {
		return fmt.Errorf("%w: auction duration must be positive", ErrInvalidValue)
	}
	e.items = items
	e.units = units
	e.payment = payment
	e.auctionDuration = auctionDuration
	e.vault = NewVault(e.addr, items, units, payment)
	e.vault.SetState(e.state)
	e.vault.SetEmitter(e.emitter)
	return nil
}

func (e *Engine) ready() error {
	if e == nil || e.vault == nil {
		return ErrNotConfigured
	}
	if e.state == nil {
		return ErrNotConfigured
	}
	return nativecommon.Guard(e.pauses, moduleName)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}

// availableFunds returns the amount of payment the party can actually spend
// through the vault: the smaller of its balance and the allowance it granted
// the vault.
func (e *Engine) availableFunds(party common.Address) (*big.Int, error) {
	balance, err := e.payment.BalanceOf(party)
	if err != nil {
		return nil, err
	}
	allowance, err := e.payment.Allowance(party, e.addr)
	if err != nil {
		return nil, err
	}
	if allowance.Cmp(balance) < 0 {
		return allowance, nil
	}
	return balance, nil
}

// CreateItem mints a fresh asset to the caller through the bound registry.
// The marketplace must hold the registry's minter role. For single-unit
// assets the quantity must be 1.
func (e *Engine) CreateItem(kind Kind, caller common.Address, assetID uint64, quantity uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	switch kind {
	case KindSingle:
		if quantity != 1 {
			return fmt.Errorf("%w: single-unit mint quantity must be 1", ErrInvalidValue)
		}
		if err := e.items.Mint(e.addr, caller, assetID); err != nil {
			return err
		}
	case KindMulti:
		if quantity == 0 {
			return fmt.Errorf("%w: mint quantity must be positive", ErrInvalidValue)
		}
		if err := e.units.Mint(e.addr, caller, assetID, quantity); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: kind %d", ErrInvalidValue, kind)
	}
	e.emit(events.ItemCreated{Kind: kind.String(), AssetID: assetID, Amount: quantity, Owner: caller})
	return nil
}

// CreateListing escrows the asset and opens a fixed-price listing. It
// returns the listing identifier: the asset identifier for single-unit
// listings, a fresh sequential identifier for multi-unit ones.
func (e *Engine) CreateListing(kind Kind, caller common.Address, assetID uint64, quantity uint64, price *big.Int) (uint64, error) {
	if err := e.ready(); err != nil {
		return 0, err
	}
	if price == nil || price.Sign() <= 0 {
		return 0, fmt.Errorf("%w: price must be positive", ErrInvalidValue)
	}
	listing := &Listing{Kind: kind, AssetID: assetID, Seller: caller, Price: new(big.Int).Set(price), Remaining: quantity}
	switch kind {
	case KindSingle:
		if quantity != 1 {
			return 0, fmt.Errorf("%w: single-unit listing quantity must be 1", ErrInvalidValue)
		}
		listing.ID = assetID
		if err := e.vault.HoldItem(caller, assetID); err != nil {
			return 0, err
		}
	case KindMulti:
		if quantity == 0 {
			return 0, fmt.Errorf("%w: listing quantity must be positive", ErrInvalidValue)
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
		listing.ID = id
		if err := e.vault.HoldUnits(caller, assetID, quantity); err != nil {
			return 0, err
		}
	default:
		return 0, fmt.Errorf("%w: kind %d", ErrInvalidValue, kind)
	}
	if err := e.state.ListingPut(listing); err != nil {
		return 0, err
	}
	e.emit(events.ListingCreated{Kind: kind.String(), ListingID: listing.ID, AssetID: assetID, Price: listing.Price, Quantity: quantity, Seller: caller})
	return listing.ID, nil
}

// CancelListing returns escrowed assets to the seller. Multi-unit listings
// support partial cancellation; the record is deleted once nothing remains.
func (e *Engine) CancelListing(kind Kind, caller common.Address, id uint64, quantity uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	listing, err := e.state.ListingGet(kind, id)
	if err != nil {
		return err
	}
	if listing == nil {
		return fmt.Errorf("%w: listing %d", ErrDoesNotExist, id)
	}
	if listing.Seller != caller {
		return fmt.Errorf("%w: listing %d", ErrNotOwner, id)
	}
	if kind == KindSingle {
		quantity = listing.Remaining
	}
	if quantity == 0 || quantity > listing.Remaining {
		return fmt.Errorf("%w: cancel quantity %d of %d", ErrInvalidValue, quantity, listing.Remaining)
	}
	remaining := listing.Remaining - quantity
	// State first, transfers after: a reentrant callback must not observe
	// the cancelled quantity as still listed.
	if remaining == 0 {
		if err := e.state.ListingDelete(kind, id); err != nil {
			return err
		}
	} else {
		updated := listing.Clone()
		updated.Remaining = remaining
		if err := e.state.ListingPut(updated); err != nil {
			return err
		}
	}
	if kind == KindSingle {
		if err := e.vault.ReleaseItem(listing.Seller, listing.AssetID); err != nil {
			return err
		}
	} else {
		if err := e.vault.ReleaseUnits(listing.Seller, listing.AssetID, quantity); err != nil {
			return err
		}
	}
	e.emit(events.ListingCancelled{Kind: kind.String(), ListingID: id, Quantity: quantity, Remaining: remaining, Seller: listing.Seller})
	return nil
}

// Buy settles a fixed-price purchase: payment moves buyer to seller through
// the vault, the asset leaves escrow to the buyer. Single-unit buys always
// consume the whole listing.
func (e *Engine) Buy(kind Kind, caller common.Address, id uint64, quantity uint64) error {
	if err := e.ready(); err != nil {
		return err
	}
	listing, err := e.state.ListingGet(kind, id)
	if err != nil {
		return err
	}
	if listing == nil {
		return fmt.Errorf("%w: listing %d", ErrDoesNotExist, id)
	}
	if kind == KindSingle {
		quantity = listing.Remaining
	}
	if quantity == 0 || quantity > listing.Remaining {
		return fmt.Errorf("%w: buy quantity %d of %d", ErrInvalidValue, quantity, listing.Remaining)
	}
	cost := new(big.Int).Mul(listing.Price, new(big.Int).SetUint64(quantity))
	available, err := e.availableFunds(caller)
	if err != nil {
		return err
	}
	if available.Cmp(cost) < 0 {
		return fmt.Errorf("%w: %s available, %s required", ErrInsufficientBalance, available, cost)
	}
	remaining := listing.Remaining - quantity
	if remaining == 0 {
		if err := e.state.ListingDelete(kind, id); err != nil {
			return err
		}
	} else {
		updated := listing.Clone()
		updated.Remaining = remaining
		if err := e.state.ListingPut(updated); err != nil {
			return err
		}
	}
	if err := e.vault.HoldFunds(caller, cost); err != nil {
		return err
	}
	if err := e.vault.ReleaseFunds(listing.Seller, cost); err != nil {
		return err
	}
	if kind == KindSingle {
		if err := e.vault.ReleaseItem(caller, listing.AssetID); err != nil {
			return err
		}
	} else {
		if err := e.vault.ReleaseUnits(caller, listing.AssetID, quantity); err != nil {
			return err
		}
	}
	e.emit(events.ListingSold{Kind: kind.String(), ListingID: id, Quantity: quantity, Buyer: caller, Price: listing.Price})
	return nil
}

// GetListing returns a copy of an active listing.
func (e *Engine) GetListing(kind Kind, id uint64) (*Listing, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	listing, err := e.state.ListingGet(kind, id)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: listing %d", ErrDoesNotExist, id)
	}
	return listing.Clone(), nil
}

// GetAuction returns a copy of an active auction.
func (e *Engine) GetAuction(kind Kind, id uint64) (*Auction, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	auction, err := e.state.AuctionGet(kind, id)
	if err != nil {
		return nil, err
	}
	if auction == nil {
		return nil, fmt.Errorf("%w: auction %d", ErrDoesNotExist, id)
	}
	return auction.Clone(), nil
}
