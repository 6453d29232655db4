package market

import (
	"errors"
	"math/big"
	"testing"
)

func TestParseKind(t *testing.T) {
	for input, want := range map[string]Kind{
		"single":  KindSingle,
		"multi":   KindMulti,
		" SINGLE": KindSingle,
		"Multi ":  KindMulti,
	} {
		got, err := ParseKind(input)
		if err != nil {
			t.Fatalf("parse %q: %v", input, err)
		}
		if got != want {
			t.Fatalf("parse %q: got %v, want %v", input, got, want)
		}
	}
	if _, err := ParseKind("triple"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestSanitizeListing(t *testing.T) {
	valid := &Listing{Kind: KindMulti, ID: 0, AssetID: 7, Price: big.NewInt(5), Remaining: 10}
	sanitized, err := SanitizeListing(valid)
	if err != nil {
		t.Fatalf("sanitize: %v", err)
	}
	// Sanitizing returns a copy.
	sanitized.Remaining = 1
	if valid.Remaining != 10 {
		t.Fatal("sanitize must not mutate the input")
	}

	cases := []*Listing{
		nil,
		{Kind: Kind(9), Price: big.NewInt(5), Remaining: 1},
		{Kind: KindSingle, Price: nil, Remaining: 1},
		{Kind: KindSingle, Price: big.NewInt(0), Remaining: 1},
		{Kind: KindSingle, Price: big.NewInt(5), Remaining: 0},
	}
	for i, c := range cases {
		if _, err := SanitizeListing(c); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("case %d: expected ErrInvalidValue, got %v", i, err)
		}
	}
}

func TestSanitizeAuction(t *testing.T) {
	valid := &Auction{Kind: KindSingle, ID: 1, AssetID: 1, Quantity: 1, HighestBid: big.NewInt(0)}
	if _, err := SanitizeAuction(valid); err != nil {
		t.Fatalf("a zero start price is a valid seed: %v", err)
	}

	cases := []*Auction{
		nil,
		{Kind: Kind(9), Quantity: 1, HighestBid: big.NewInt(1)},
		{Kind: KindSingle, Quantity: 0, HighestBid: big.NewInt(1)},
		{Kind: KindSingle, Quantity: 1, HighestBid: big.NewInt(1), BidCount: 2},
	}
	for i, c := range cases {
		if _, err := SanitizeAuction(c); !errors.Is(err, ErrInvalidValue) {
			t.Fatalf("case %d: expected ErrInvalidValue, got %v", i, err)
		}
	}
}

func TestAuctionClone(t *testing.T) {
	auction := &Auction{Kind: KindSingle, ID: 1, Quantity: 1, HighestBid: big.NewInt(100)}
	clone := auction.Clone()
	clone.HighestBid.SetInt64(999)
	if auction.HighestBid.Cmp(big.NewInt(100)) != 0 {
		t.Fatal("clone must not share the bid amount")
	}
}
