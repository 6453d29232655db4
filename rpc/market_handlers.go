package rpc

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"nftbazaar/native/market"
)

type handlerFunc func(json.RawMessage) (interface{}, error)

func (s *Server) methods() map[string]handlerFunc {
	return map[string]handlerFunc{
		"market_createItem":        s.handleCreateItem,
		"market_createListing":     s.handleCreateListing,
		"market_cancelListing":     s.handleCancelListing,
		"market_buy":               s.handleBuy,
		"market_listItemOnAuction": s.handleListItemOnAuction,
		"market_makeBid":           s.handleMakeBid,
		"market_finishAuction":     s.handleFinishAuction,
		"market_getListing":        s.handleGetListing,
		"market_getAuction":        s.handleGetAuction,
	}
}

type createItemParams struct {
	Kind     string `json:"kind"`
	Caller   string `json:"caller"`
	AssetID  uint64 `json:"assetId"`
	Quantity uint64 `json:"quantity"`
}

type createListingParams struct {
	Kind     string `json:"kind"`
	Caller   string `json:"caller"`
	AssetID  uint64 `json:"assetId"`
	Quantity uint64 `json:"quantity"`
	Price    string `json:"price"`
}

type cancelListingParams struct {
	Kind     string `json:"kind"`
	Caller   string `json:"caller"`
	ID       uint64 `json:"id"`
	Quantity uint64 `json:"quantity,omitempty"`
}

type buyParams struct {
	Kind     string `json:"kind"`
	Caller   string `json:"caller"`
	ID       uint64 `json:"id"`
	Quantity uint64 `json:"quantity,omitempty"`
}

type auctionParams struct {
	Kind       string `json:"kind"`
	Caller     string `json:"caller"`
	AssetID    uint64 `json:"assetId"`
	StartPrice string `json:"startPrice"`
	Quantity   uint64 `json:"quantity"`
}

type bidParams struct {
	Kind   string `json:"kind"`
	Caller string `json:"caller"`
	ID     uint64 `json:"id"`
	Amount string `json:"amount"`
}

type idParams struct {
	Kind string `json:"kind"`
	ID   uint64 `json:"id"`
}

type listingResult struct {
	Kind      string `json:"kind"`
	ID        uint64 `json:"id"`
	AssetID   uint64 `json:"assetId"`
	Seller    string `json:"seller"`
	Price     string `json:"price"`
	Remaining uint64 `json:"remaining"`
}

type auctionResult struct {
	Kind          string `json:"kind"`
	ID            uint64 `json:"id"`
	AssetID       uint64 `json:"assetId"`
	Seller        string `json:"seller"`
	Quantity      uint64 `json:"quantity"`
	HighestBid    string `json:"highestBid"`
	HighestBidder string `json:"highestBidder,omitempty"`
	BidCount      uint32 `json:"bidCount"`
	StartedAt     int64  `json:"startedAt"`
}

func decodeParams(raw json.RawMessage, out interface{}) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing params", market.ErrInvalidValue)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %v", market.ErrInvalidValue, err)
	}
	return nil
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, fmt.Errorf("%w: %s must be a hex address", market.ErrInvalidValue, field)
	}
	return common.HexToAddress(trimmed), nil
}

func parseAmount(field, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a decimal amount", market.ErrInvalidValue, field)
	}
	return amount, nil
}

func (s *Server) handleCreateItem(raw json.RawMessage) (interface{}, error) {
	var params createItemParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	kind, err := market.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return nil, err
	}
	if err := s.engine.CreateItem(kind, caller, params.AssetID, params.Quantity); err != nil {
		return nil, err
	}
	return map[string]uint64{"assetId": params.AssetID}, nil
}

func (s *Server) handleCreateListing(raw json.RawMessage) (interface{}, error) {
	var params createListingParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	kind, err := market.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return nil, err
	}
	price, err := parseAmount("price", params.Price)
	if err != nil {
		return nil, err
	}
	id, err := s.engine.CreateListing(kind, caller, params.AssetID, params.Quantity, price)
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"id": id}, nil
}

func (s *Server) handleCancelListing(raw json.RawMessage) (interface{}, error) {
	var params cancelListingParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	kind, err := market.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return nil, err
	}
	if err := s.engine.CancelListing(kind, caller, params.ID, params.Quantity); err != nil {
		return nil, err
	}
	return map[string]bool{"cancelled": true}, nil
}

func (s *Server) handleBuy(raw json.RawMessage) (interface{}, error) {
	var params buyParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	kind, err := market.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return nil, err
	}
	if err := s.engine.Buy(kind, caller, params.ID, params.Quantity); err != nil {
		return nil, err
	}
	return map[string]bool{"sold": true}, nil
}

func (s *Server) handleListItemOnAuction(raw json.RawMessage) (interface{}, error) {
	var params auctionParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	kind, err := market.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return nil, err
	}
	startPrice, err := parseAmount("startPrice", params.StartPrice)
	if err != nil {
		return nil, err
	}
	id, err := s.engine.ListItemOnAuction(kind, caller, params.AssetID, startPrice, params.Quantity)
	if err != nil {
		return nil, err
	}
	return map[string]uint64{"id": id}, nil
}

func (s *Server) handleMakeBid(raw json.RawMessage) (interface{}, error) {
	var params bidParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	kind, err := market.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	caller, err := parseAddress("caller", params.Caller)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.engine.MakeBid(kind, caller, params.ID, amount); err != nil {
		return nil, err
	}
	return map[string]bool{"accepted": true}, nil
}

func (s *Server) handleFinishAuction(raw json.RawMessage) (interface{}, error) {
	var params idParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	kind, err := market.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	if err := s.engine.FinishAuction(kind, params.ID); err != nil {
		return nil, err
	}
	return map[string]bool{"finished": true}, nil
}

func (s *Server) handleGetListing(raw json.RawMessage) (interface{}, error) {
	var params idParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	kind, err := market.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	listing, err := s.engine.GetListing(kind, params.ID)
	if err != nil {
		return nil, err
	}
	return listingResult{
		Kind:      listing.Kind.String(),
		ID:        listing.ID,
		AssetID:   listing.AssetID,
		Seller:    listing.Seller.Hex(),
		Price:     listing.Price.String(),
		Remaining: listing.Remaining,
	}, nil
}

func (s *Server) handleGetAuction(raw json.RawMessage) (interface{}, error) {
	var params idParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	kind, err := market.ParseKind(params.Kind)
	if err != nil {
		return nil, err
	}
	auction, err := s.engine.GetAuction(kind, params.ID)
	if err != nil {
		return nil, err
	}
	result := auctionResult{
		Kind:       auction.Kind.String(),
		ID:         auction.ID,
		AssetID:    auction.AssetID,
		Seller:     auction.Seller.Hex(),
		Quantity:   auction.Quantity,
		HighestBid: auction.HighestBid.String(),
		BidCount:   auction.BidCount,
		StartedAt:  auction.StartedAt,
	}
	if auction.HasBid() {
		result.HighestBidder = auction.HighestBidder.Hex()
	}
	return result, nil
}
