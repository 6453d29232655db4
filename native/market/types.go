package market

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Kind distinguishes the two asset classes traded on the marketplace.
type Kind uint8

const (
	// KindSingle is a non-fungible asset: one owner per identifier.
	KindSingle Kind = iota
	// KindMulti is a fungible-per-identifier asset: accounts hold unit
	// balances of an identifier.
	KindMulti
)

// Valid reports whether the kind is within the supported range.
func (k Kind) Valid() bool { return k == KindSingle || k == KindMulti }

func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMulti:
		return "multi"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind converts the wire representation back into a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "single":
		return KindSingle, nil
	case "multi":
		return KindMulti, nil
	default:
		return 0, fmt.Errorf("%w: unknown asset kind %q", ErrInvalidValue, s)
	}
}

// Listing is an active fixed-price sale offer backed by escrowed assets.
// Single-unit listings are keyed by the asset identifier itself; multi-unit
// listings by a sequential identifier so several listings of the same asset
// can coexist.
type Listing struct {
	Kind      Kind
	ID        uint64
	AssetID   uint64
	Seller    common.Address
	Price     *big.Int
	Remaining uint64
}

// Clone returns a deep copy so callers can mutate the copy without affecting
// the stored instance.
func (l *Listing) Clone() *Listing {
	if l == nil {
		return nil
	}
	clone := *l
	if l.Price != nil {
		clone.Price = new(big.Int).Set(l.Price)
	} else {
		clone.Price = big.NewInt(0)
	}
	return &clone
}

// SanitizeListing validates the listing definition and returns a cloned
// instance with a non-nil price. The original value is not mutated.
func SanitizeListing(l *Listing) (*Listing, error) {
	if l == nil {
		return nil, fmt.Errorf("%w: nil listing", ErrInvalidValue)
	}
	if !l.Kind.Valid() {
		return nil, fmt.Errorf("%w: listing kind %d", ErrInvalidValue, l.Kind)
	}
	clone := l.Clone()
	if clone.Price.Sign() <= 0 {
		return nil, fmt.Errorf("%w: listing price must be positive", ErrInvalidValue)
	}
	if clone.Remaining == 0 {
		return nil, fmt.Errorf("%w: listing quantity must be positive", ErrInvalidValue)
	}
	return clone, nil
}

// Auction is an active time-boxed sale. The full quantity stays in escrow
// for the auction's lifetime and HighestBid holds the single outstanding
// escrowed bid, seeded with the seller's start price until the first bid.
type Auction struct {
	Kind          Kind
	ID            uint64
	AssetID       uint64
	Seller        common.Address
	Quantity      uint64
	HighestBid    *big.Int
	HighestBidder common.Address
	BidCount      uint32
	StartedAt     int64
}

// HasBid reports whether at least one bid has been escrowed.
func (a *Auction) HasBid() bool {
	return a != nil && a.HighestBidder != (common.Address{})
}

// Clone returns a deep copy so callers can mutate the copy without affecting
// the stored instance.
func (a *Auction) Clone() *Auction {
	if a == nil {
		return nil
	}
	clone := *a
	if a.HighestBid != nil {
		clone.HighestBid = new(big.Int).Set(a.HighestBid)
	} else {
		clone.HighestBid = big.NewInt(0)
	}
	return &clone
}

// SanitizeAuction validates the auction definition and returns a cloned
// instance with a non-nil highest bid. The original value is not mutated.
func SanitizeAuction(a *Auction) (*Auction, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: nil auction", ErrInvalidValue)
	}
	if !a.Kind.Valid() {
		return nil, fmt.Errorf("%w: auction kind %d", ErrInvalidValue, a.Kind)
	}
	clone := a.Clone()
	if clone.HighestBid.Sign() < 0 {
		return nil, fmt.Errorf("%w: negative auction bid", ErrInvalidValue)
	}
	if clone.Quantity == 0 {
		return nil, fmt.Errorf("%w: auction quantity must be positive", ErrInvalidValue)
	}
	if clone.BidCount > 0 && !clone.HasBid() {
		return nil, fmt.Errorf("%w: auction bid count without bidder", ErrInvalidValue)
	}
	return clone, nil
}
