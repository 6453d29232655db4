// Package state persists marketplace records on a key-value database. The
// Store implements the engine's state interface: listings and auctions keyed
// by kind and identifier, the shared market id counter, and the vault's
// custody accounting.
package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"nftbazaar/native/market"
	"nftbazaar/storage"
)

const (
	prefixListing    = "market/listing/"
	prefixAuction    = "market/auction/"
	prefixVaultUnits = "market/vault/units/"
	keyVaultFunds    = "market/vault/funds"
	keyMarketSeq     = "market/seq"
)

// Store is a market state backend over a storage.Database.
type Store struct {
	db storage.Database
}

// NewStore wraps the database in a market state backend.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

func recordKey(prefix string, kind market.Kind, id uint64) []byte {
	key := make([]byte, 0, len(prefix)+9)
	key = append(key, prefix...)
	key = append(key, byte(kind))
	key = binary.BigEndian.AppendUint64(key, id)
	return key
}

func unitsKey(assetID uint64) []byte {
	key := make([]byte, 0, len(prefixVaultUnits)+8)
	key = append(key, prefixVaultUnits...)
	return binary.BigEndian.AppendUint64(key, assetID)
}

// ListingPut stores a sanitized copy of the listing.
func (s *Store) ListingPut(l *market.Listing) error {
	sanitized, err := market.SanitizeListing(l)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sanitized)
	if err != nil {
		return err
	}
	return s.db.Put(recordKey(prefixListing, sanitized.Kind, sanitized.ID), raw)
}

// ListingGet loads a listing. A nil listing with a nil error means the
// record does not exist; database and codec failures are reported as errors.
func (s *Store) ListingGet(kind market.Kind, id uint64) (*market.Listing, error) {
	raw, err := s.db.Get(recordKey(prefixListing, kind, id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	listing := new(market.Listing)
	if err := json.Unmarshal(raw, listing); err != nil {
		return nil, fmt.Errorf("state: corrupt listing %d: %w", id, err)
	}
	return listing, nil
}

// ListingDelete removes a listing record.
func (s *Store) ListingDelete(kind market.Kind, id uint64) error {
	return s.db.Delete(recordKey(prefixListing, kind, id))
}

// AuctionPut stores a sanitized copy of the auction.
func (s *Store) AuctionPut(a *market.Auction) error {
	sanitized, err := market.SanitizeAuction(a)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(sanitized)
	if err != nil {
		return err
	}
	return s.db.Put(recordKey(prefixAuction, sanitized.Kind, sanitized.ID), raw)
}

// AuctionGet loads an auction. A nil auction with a nil error means the
// record does not exist; database and codec failures are reported as errors.
func (s *Store) AuctionGet(kind market.Kind, id uint64) (*market.Auction, error) {
	raw, err := s.db.Get(recordKey(prefixAuction, kind, id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	auction := new(market.Auction)
	if err := json.Unmarshal(raw, auction); err != nil {
		return nil, fmt.Errorf("state: corrupt auction %d: %w", id, err)
	}
	return auction, nil
}

// AuctionDelete removes an auction record.
func (s *Store) AuctionDelete(kind market.Kind, id uint64) error {
	return s.db.Delete(recordKey(prefixAuction, kind, id))
}

// NextMarketID returns the next value of the monotonically increasing
// counter shared by multi-unit listings and auctions, starting at zero.
func (s *Store) NextMarketID() (uint64, error) {
	var next uint64
	raw, err := s.db.Get([]byte(keyMarketSeq))
	switch {
	case err == nil:
		if len(raw) != 8 {
			return 0, fmt.Errorf("state: corrupt market sequence")
		}
		next = binary.BigEndian.Uint64(raw)
	case errors.Is(err, storage.ErrKeyNotFound):
		next = 0
	default:
		return 0, err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next+1)
	if err := s.db.Put([]byte(keyMarketSeq), buf); err != nil {
		return 0, err
	}
	return next, nil
}

// VaultCreditUnits adds custody units for an asset identifier.
func (s *Store) VaultCreditUnits(assetID uint64, qty uint64) error {
	held, err := s.VaultUnits(assetID)
	if err != nil {
		return err
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, held+qty)
	return s.db.Put(unitsKey(assetID), buf)
}

// VaultDebitUnits removes custody units for an asset identifier. Debiting
// more than held is an accounting violation.
func (s *Store) VaultDebitUnits(assetID uint64, qty uint64) error {
	held, err := s.VaultUnits(assetID)
	if err != nil {
		return err
	}
	if held < qty {
		return fmt.Errorf("state: vault holds %d units of %d, debit of %d", held, assetID, qty)
	}
	if held == qty {
		return s.db.Delete(unitsKey(assetID))
	}
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, held-qty)
	return s.db.Put(unitsKey(assetID), buf)
}

// VaultUnits reports the custody units held for an asset identifier.
func (s *Store) VaultUnits(assetID uint64) (uint64, error) {
	raw, err := s.db.Get(unitsKey(assetID))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("state: corrupt vault units for asset %d", assetID)
	}
	return binary.BigEndian.Uint64(raw), nil
}

// VaultCreditFunds adds escrowed payment funds.
func (s *Store) VaultCreditFunds(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: negative fund credit")
	}
	held, err := s.VaultFunds()
	if err != nil {
		return err
	}
	return s.db.Put([]byte(keyVaultFunds), new(big.Int).Add(held, amount).Bytes())
}

// VaultDebitFunds removes escrowed payment funds. Debiting more than held is
// an accounting violation.
func (s *Store) VaultDebitFunds(amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("state: negative fund debit")
	}
	held, err := s.VaultFunds()
	if err != nil {
		return err
	}
	if held.Cmp(amount) < 0 {
		return fmt.Errorf("state: vault holds %s funds, debit of %s", held, amount)
	}
	return s.db.Put([]byte(keyVaultFunds), new(big.Int).Sub(held, amount).Bytes())
}

// VaultFunds reports the escrowed payment funds.
func (s *Store) VaultFunds() (*big.Int, error) {
	raw, err := s.db.Get([]byte(keyVaultFunds))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return big.NewInt(0), nil
	}
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}
