package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"nftbazaar/core/types"
)

const (
	TypeItemCreated      = "market.item.created"
	TypeListingCreated   = "market.listing.created"
	TypeListingCancelled = "market.listing.cancelled"
	TypeListingSold      = "market.listing.sold"
	TypeAuctionCreated   = "market.auction.created"
	TypeAuctionBid       = "market.auction.bid"
	TypeAuctionClosed    = "market.auction.closed"
	TypeVaultCustody     = "market.vault.custody"
)

// ItemCreated is emitted when the marketplace mints a fresh asset on behalf of
// a seller through the create-and-list path.
type ItemCreated struct {
	Kind    string
	AssetID uint64
	Amount  uint64
	Owner   common.Address
}

func (ItemCreated) EventType() string { return TypeItemCreated }

func (e ItemCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeItemCreated,
		Attributes: map[string]string{
			"kind":    e.Kind,
			"assetId": formatUint(e.AssetID),
			"amount":  formatUint(e.Amount),
			"owner":   e.Owner.Hex(),
		},
	}
}

// ListingCreated is emitted when an asset enters escrow under a fixed-price
// listing.
type ListingCreated struct {
	Kind      string
	ListingID uint64
	AssetID   uint64
	Price     *big.Int
	Quantity  uint64
	Seller    common.Address
}

func (ListingCreated) EventType() string { return TypeListingCreated }

func (e ListingCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeListingCreated,
		Attributes: map[string]string{
			"kind":     e.Kind,
			"id":       formatUint(e.ListingID),
			"assetId":  formatUint(e.AssetID),
			"price":    formatAmount(e.Price),
			"quantity": formatUint(e.Quantity),
			"seller":   e.Seller.Hex(),
		},
	}
}

// ListingCancelled is emitted when a seller withdraws part or all of a
// listing. Remaining reports the quantity still escrowed afterwards.
type ListingCancelled struct {
	Kind      string
	ListingID uint64
	Quantity  uint64
	Remaining uint64
	Seller    common.Address
}

func (ListingCancelled) EventType() string { return TypeListingCancelled }

func (e ListingCancelled) Event() *types.Event {
	return &types.Event{
		Type: TypeListingCancelled,
		Attributes: map[string]string{
			"kind":      e.Kind,
			"id":        formatUint(e.ListingID),
			"quantity":  formatUint(e.Quantity),
			"remaining": formatUint(e.Remaining),
			"seller":    e.Seller.Hex(),
		},
	}
}

// ListingSold is emitted when a buy settles: funds moved to the seller and
// the asset released to the buyer.
type ListingSold struct {
	Kind      string
	ListingID uint64
	Quantity  uint64
	Buyer     common.Address
	Price     *big.Int
}

func (ListingSold) EventType() string { return TypeListingSold }

func (e ListingSold) Event() *types.Event {
	return &types.Event{
		Type: TypeListingSold,
		Attributes: map[string]string{
			"kind":     e.Kind,
			"id":       formatUint(e.ListingID),
			"quantity": formatUint(e.Quantity),
			"buyer":    e.Buyer.Hex(),
			"price":    formatAmount(e.Price),
		},
	}
}

// AuctionCreated is emitted when an asset enters escrow under a time-boxed
// auction.
type AuctionCreated struct {
	Kind       string
	AuctionID  uint64
	AssetID    uint64
	StartPrice *big.Int
	Quantity   uint64
	Seller     common.Address
}

func (AuctionCreated) EventType() string { return TypeAuctionCreated }

func (e AuctionCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeAuctionCreated,
		Attributes: map[string]string{
			"kind":       e.Kind,
			"id":         formatUint(e.AuctionID),
			"assetId":    formatUint(e.AssetID),
			"startPrice": formatAmount(e.StartPrice),
			"quantity":   formatUint(e.Quantity),
			"seller":     e.Seller.Hex(),
		},
	}
}

// AuctionBid is emitted for every accepted bid.
type AuctionBid struct {
	Kind      string
	AuctionID uint64
	Bidder    common.Address
	Amount    *big.Int
}

func (AuctionBid) EventType() string { return TypeAuctionBid }

func (e AuctionBid) Event() *types.Event {
	return &types.Event{
		Type: TypeAuctionBid,
		Attributes: map[string]string{
			"kind":   e.Kind,
			"id":     formatUint(e.AuctionID),
			"bidder": e.Bidder.Hex(),
			"amount": formatAmount(e.Amount),
		},
	}
}

// AuctionClosed is emitted by finish regardless of outcome. When Sold is
// false the recipient is the seller and Amount reports the unconsummated
// highest bid for observability.
type AuctionClosed struct {
	Kind      string
	AuctionID uint64
	Recipient common.Address
	Amount    *big.Int
	BidCount  uint32
	Sold      bool
}

func (AuctionClosed) EventType() string { return TypeAuctionClosed }

func (e AuctionClosed) Event() *types.Event {
	return &types.Event{
		Type: TypeAuctionClosed,
		Attributes: map[string]string{
			"kind":      e.Kind,
			"id":        formatUint(e.AuctionID),
			"recipient": e.Recipient.Hex(),
			"amount":    formatAmount(e.Amount),
			"bidCount":  strconv.FormatUint(uint64(e.BidCount), 10),
			"sold":      strconv.FormatBool(e.Sold),
		},
	}
}

// VaultCustody records every custody change performed by the escrow vault.
// It is the audit trail required of hold/release primitives.
type VaultCustody struct {
	Direction string // "hold" or "release"
	Class     string // "item", "units" or "funds"
	AssetID   uint64
	Quantity  uint64
	Amount    *big.Int
	Party     common.Address
}

func (VaultCustody) EventType() string { return TypeVaultCustody }

func (e VaultCustody) Event() *types.Event {
	attrs := map[string]string{
		"direction": e.Direction,
		"class":     e.Class,
		"party":     e.Party.Hex(),
	}
	if e.Class == "funds" {
		attrs["amount"] = formatAmount(e.Amount)
	} else {
		attrs["assetId"] = formatUint(e.AssetID)
		attrs["quantity"] = formatUint(e.Quantity)
	}
	return &types.Event{Type: TypeVaultCustody, Attributes: attrs}
}

func formatAmount(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatUint(v uint64) string { return strconv.FormatUint(v, 10) }
