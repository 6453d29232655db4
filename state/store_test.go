package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"nftbazaar/native/market"
	"nftbazaar/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(storage.NewMemDB())
}

func TestStoreListingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seller := common.HexToAddress("0x0000000000000000000000000000000000000001")

	absent, err := store.ListingGet(market.KindMulti, 0)
	require.NoError(t, err)
	require.Nil(t, absent)

	listing := &market.Listing{
		Kind:      market.KindMulti,
		ID:        0,
		AssetID:   7,
		Seller:    seller,
		Price:     big.NewInt(5),
		Remaining: 10,
	}
	require.NoError(t, store.ListingPut(listing))

	loaded, err := store.ListingGet(market.KindMulti, 0)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, listing.AssetID, loaded.AssetID)
	require.Equal(t, listing.Seller, loaded.Seller)
	require.Zero(t, listing.Price.Cmp(loaded.Price))
	require.Equal(t, listing.Remaining, loaded.Remaining)

	// Records of the other kind do not collide even with the same id.
	other, err := store.ListingGet(market.KindSingle, 0)
	require.NoError(t, err)
	require.Nil(t, other)

	require.NoError(t, store.ListingDelete(market.KindMulti, 0))
	gone, err := store.ListingGet(market.KindMulti, 0)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestStoreListingRejectsInvalid(t *testing.T) {
	store := newTestStore(t)
	err := store.ListingPut(&market.Listing{Kind: market.KindSingle, ID: 1, Price: big.NewInt(0), Remaining: 1})
	require.ErrorIs(t, err, market.ErrInvalidValue)
	err = store.ListingPut(&market.Listing{Kind: market.KindSingle, ID: 1, Price: big.NewInt(5), Remaining: 0})
	require.ErrorIs(t, err, market.ErrInvalidValue)
}

func TestStoreAuctionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seller := common.HexToAddress("0x0000000000000000000000000000000000000001")
	bidder := common.HexToAddress("0x0000000000000000000000000000000000000002")

	auction := &market.Auction{
		Kind:          market.KindSingle,
		ID:            1,
		AssetID:       1,
		Seller:        seller,
		Quantity:      1,
		HighestBid:    big.NewInt(250),
		HighestBidder: bidder,
		BidCount:      3,
		StartedAt:     1_700_000_000,
	}
	require.NoError(t, store.AuctionPut(auction))

	loaded, err := store.AuctionGet(market.KindSingle, 1)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.Equal(t, auction.Seller, loaded.Seller)
	require.Equal(t, auction.HighestBidder, loaded.HighestBidder)
	require.Zero(t, auction.HighestBid.Cmp(loaded.HighestBid))
	require.Equal(t, auction.BidCount, loaded.BidCount)
	require.Equal(t, auction.StartedAt, loaded.StartedAt)

	require.NoError(t, store.AuctionDelete(market.KindSingle, 1))
	gone, err := store.AuctionGet(market.KindSingle, 1)
	require.NoError(t, err)
	require.Nil(t, gone)
}

func TestStoreSurfacesCorruptRecords(t *testing.T) {
	db := storage.NewMemDB()
	store := NewStore(db)

	require.NoError(t, db.Put(recordKey(prefixListing, market.KindMulti, 0), []byte("not json")))
	listing, err := store.ListingGet(market.KindMulti, 0)
	require.Error(t, err, "a corrupt record is a backend fault, not absence")
	require.Nil(t, listing)

	require.NoError(t, db.Put(recordKey(prefixAuction, market.KindSingle, 1), []byte("not json")))
	auction, err := store.AuctionGet(market.KindSingle, 1)
	require.Error(t, err)
	require.Nil(t, auction)
}

func TestStoreMarketIDMonotonic(t *testing.T) {
	store := newTestStore(t)
	for want := uint64(0); want < 5; want++ {
		got, err := store.NextMarketID()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
}

func TestStoreVaultUnits(t *testing.T) {
	store := newTestStore(t)

	held, err := store.VaultUnits(7)
	require.NoError(t, err)
	require.Zero(t, held)

	require.NoError(t, store.VaultCreditUnits(7, 10))
	require.NoError(t, store.VaultDebitUnits(7, 4))
	held, err = store.VaultUnits(7)
	require.NoError(t, err)
	require.Equal(t, uint64(6), held)

	require.Error(t, store.VaultDebitUnits(7, 7))

	require.NoError(t, store.VaultDebitUnits(7, 6))
	held, err = store.VaultUnits(7)
	require.NoError(t, err)
	require.Zero(t, held)
}

func TestStoreVaultFunds(t *testing.T) {
	store := newTestStore(t)

	held, err := store.VaultFunds()
	require.NoError(t, err)
	require.Zero(t, held.Sign())

	require.NoError(t, store.VaultCreditFunds(big.NewInt(300)))
	require.NoError(t, store.VaultDebitFunds(big.NewInt(100)))
	held, err = store.VaultFunds()
	require.NoError(t, err)
	require.Zero(t, held.Cmp(big.NewInt(200)))

	require.Error(t, store.VaultDebitFunds(big.NewInt(201)))
	require.Error(t, store.VaultCreditFunds(big.NewInt(-1)))
}
