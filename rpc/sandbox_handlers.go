package rpc

import (
	"encoding/json"

	"nftbazaar/registry"
)

// Sandbox groups the in-memory ledgers so a local deployment can seed
// accounts over RPC: funding payment balances and granting the vault the
// operator approvals that are an external prerequisite in production.
type Sandbox struct {
	Items   *registry.MemoryItems
	Units   *registry.MemoryUnits
	Payment *registry.MemoryPayment
}

// EnableSandbox exposes the seeding methods. Call before Start.
func (s *Server) EnableSandbox(sb *Sandbox) { s.sandbox = sb }

type sandboxFundParams struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type sandboxApproveParams struct {
	Account string `json:"account"`
}

func (s *Server) sandboxMethods() map[string]handlerFunc {
	if s.sandbox == nil {
		return nil
	}
	return map[string]handlerFunc{
		"sandbox_fund":            s.handleSandboxFund,
		"sandbox_approveOperator": s.handleSandboxApprove,
	}
}

// handleSandboxFund mints payment funds to the account and grants the vault
// an allowance over them.
func (s *Server) handleSandboxFund(raw json.RawMessage) (interface{}, error) {
	var params sandboxFundParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		return nil, err
	}
	amount, err := parseAmount("amount", params.Amount)
	if err != nil {
		return nil, err
	}
	if err := s.sandbox.Payment.Mint(account, amount); err != nil {
		return nil, err
	}
	if err := s.sandbox.Payment.Approve(account, s.engine.Address(), amount); err != nil {
		return nil, err
	}
	return map[string]bool{"funded": true}, nil
}

// handleSandboxApprove authorizes the vault to move the account's assets in
// both registries.
func (s *Server) handleSandboxApprove(raw json.RawMessage) (interface{}, error) {
	var params sandboxApproveParams
	if err := decodeParams(raw, &params); err != nil {
		return nil, err
	}
	account, err := parseAddress("account", params.Account)
	if err != nil {
		return nil, err
	}
	s.sandbox.Items.SetApprovalForAll(account, s.engine.Address(), true)
	s.sandbox.Units.SetApprovalForAll(account, s.engine.Address(), true)
	return map[string]bool{"approved": true}, nil
}
