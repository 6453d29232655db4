package registry

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// MemoryItems is an in-process single-unit registry. It mirrors the access
// rules of an on-ledger item contract: exclusive ownership, operator
// approvals and a role gate on minting.
type MemoryItems struct {
	mu        sync.RWMutex
	owners    map[uint64]common.Address
	approvals map[common.Address]map[common.Address]bool
	roles     map[common.Hash]map[common.Address]bool
	baseURI   string
}

// NewMemoryItems creates an empty registry with the given metadata base URI.
func NewMemoryItems(baseURI string) (*MemoryItems, error) {
	if strings.TrimSpace(baseURI) == "" {
		return nil, fmt.Errorf("%w: empty base URI", ErrInvalidValue)
	}
	return &MemoryItems{
		owners:    make(map[uint64]common.Address),
		approvals: make(map[common.Address]map[common.Address]bool),
		roles:     make(map[common.Hash]map[common.Address]bool),
		baseURI:   baseURI,
	}, nil
}

// GrantRole authorizes the holder for the given role.
func (r *MemoryItems) GrantRole(role common.Hash, holder common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.roles[role] == nil {
		r.roles[role] = make(map[common.Address]bool)
	}
	r.roles[role][holder] = true
}

// SetApprovalForAll lets the operator move any of owner's items.
func (r *MemoryItems) SetApprovalForAll(owner, operator common.Address, approved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.approvals[owner] == nil {
		r.approvals[owner] = make(map[common.Address]bool)
	}
	r.approvals[owner][operator] = approved
}

func (r *MemoryItems) OwnerOf(id uint64) (common.Address, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	owner, ok := r.owners[id]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: item %d", ErrUnknownAsset, id)
	}
	return owner, nil
}

func (r *MemoryItems) TransferFrom(operator, from, to common.Address, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	owner, ok := r.owners[id]
	if !ok {
		return fmt.Errorf("%w: item %d", ErrUnknownAsset, id)
	}
	if owner != from {
		return fmt.Errorf("%w: item %d", ErrNotOwner, id)
	}
	if operator != from && !r.approvals[from][operator] {
		return fmt.Errorf("%w: item %d", ErrNotAuthorized, id)
	}
	r.owners[id] = to
	return nil
}

func (r *MemoryItems) Mint(operator, to common.Address, id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.roles[MinterRole][operator] {
		return fmt.Errorf("%w: minter role required", ErrNotAuthorized)
	}
	if _, ok := r.owners[id]; ok {
		return fmt.Errorf("%w: item %d", ErrAssetExists, id)
	}
	r.owners[id] = to
	return nil
}

func (r *MemoryItems) TokenURI(id uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if _, ok := r.owners[id]; !ok {
		return "", fmt.Errorf("%w: item %d", ErrUnknownAsset, id)
	}
	return r.baseURI + strconv.FormatUint(id, 10), nil
}

// MemoryUnits is an in-process multi-unit registry: per-identifier balances
// with operator approvals, a minter role and receiver acknowledgement hooks.
type MemoryUnits struct {
	mu        sync.RWMutex
	balances  map[uint64]map[common.Address]uint64
	approvals map[common.Address]map[common.Address]bool
	roles     map[common.Hash]map[common.Address]bool
	receivers map[common.Address]UnitReceiver
	baseURI   string
}

// NewMemoryUnits creates an empty registry with the given metadata base URI.
func NewMemoryUnits(baseURI string) (*MemoryUnits, error) {
	if strings.TrimSpace(baseURI) == "" {
		return nil, fmt.Errorf("%w: empty base URI", ErrInvalidValue)
	}
	return &MemoryUnits{
		balances:  make(map[uint64]map[common.Address]uint64),
		approvals: make(map[common.Address]map[common.Address]bool),
		roles:     make(map[common.Hash]map[common.Address]bool),
		receivers: make(map[common.Address]UnitReceiver),
		baseURI:   baseURI,
	}, nil
}

// GrantRole authorizes the holder for the given role.
func (r *MemoryUnits) GrantRole(role common.Hash, holder common.Address) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.roles[role] == nil {
		r.roles[role] = make(map[common.Address]bool)
	}
	r.roles[role][holder] = true
}

// SetApprovalForAll lets the operator move any of owner's units.
func (r *MemoryUnits) SetApprovalForAll(owner, operator common.Address, approved bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.approvals[owner] == nil {
		r.approvals[owner] = make(map[common.Address]bool)
	}
	r.approvals[owner][operator] = approved
}

// RegisterReceiver attaches an acknowledgement hook to the recipient
// address. Subsequent transfers to that address invoke the hook after the
// balance move.
func (r *MemoryUnits) RegisterReceiver(addr common.Address, recv UnitReceiver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.receivers[addr] = recv
}

func (r *MemoryUnits) BalanceOf(owner common.Address, id uint64) (uint64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.balances[id][owner], nil
}

func (r *MemoryUnits) TransferFrom(operator, from, to common.Address, id uint64, amount uint64) error {
	r.mu.Lock()
	recv, err := r.move(operator, from, to, id, amount)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if recv != nil {
		if err := recv.OnUnitsReceived(operator, from, id, amount); err != nil {
			r.mu.Lock()
			r.revert(from, to, id, amount)
			r.mu.Unlock()
			return err
		}
	}
	return nil
}

func (r *MemoryUnits) BatchTransferFrom(operator, from, to common.Address, ids []uint64, amounts []uint64) error {
	if len(ids) != len(amounts) {
		return fmt.Errorf("%w: ids/amounts length mismatch", ErrInvalidValue)
	}
	r.mu.Lock()
	var recv UnitReceiver
	for i := range ids {
		hooked, err := r.move(operator, from, to, ids[i], amounts[i])
		if err != nil {
			for j := 0; j < i; j++ {
				r.revert(from, to, ids[j], amounts[j])
			}
			r.mu.Unlock()
			return err
		}
		recv = hooked
	}
	r.mu.Unlock()
	if recv != nil {
		if err := recv.OnUnitsBatchReceived(operator, from, ids, amounts); err != nil {
			r.mu.Lock()
			for i := range ids {
				r.revert(from, to, ids[i], amounts[i])
			}
			r.mu.Unlock()
			return err
		}
	}
	return nil
}

// revert undoes a committed move after a rejected receiver acknowledgement.
// Callers hold the lock.
func (r *MemoryUnits) revert(from, to common.Address, id uint64, amount uint64) {
	r.balances[id][to] -= amount
	r.balances[id][from] += amount
}

// move performs the balance transfer under the registry lock and returns the
// receiver hook to invoke, if any. The hook runs outside the lock so a
// receiver can query the registry.
func (r *MemoryUnits) move(operator, from, to common.Address, id uint64, amount uint64) (UnitReceiver, error) {
	if operator != from && !r.approvals[from][operator] {
		return nil, fmt.Errorf("%w: units %d", ErrNotAuthorized, id)
	}
	held := r.balances[id][from]
	if held < amount {
		return nil, fmt.Errorf("%w: units %d", ErrInsufficientBalance, id)
	}
	if r.balances[id] == nil {
		r.balances[id] = make(map[common.Address]uint64)
	}
	r.balances[id][from] = held - amount
	r.balances[id][to] += amount
	return r.receivers[to], nil
}

func (r *MemoryUnits) Mint(operator, to common.Address, id uint64, amount uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.roles[MinterRole][operator] {
		return fmt.Errorf("%w: minter role required", ErrNotAuthorized)
	}
	if amount == 0 {
		return fmt.Errorf("%w: zero mint amount", ErrInvalidValue)
	}
	if r.balances[id] == nil {
		r.balances[id] = make(map[common.Address]uint64)
	}
	r.balances[id][to] += amount
	return nil
}

func (r *MemoryUnits) URI(id uint64) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.baseURI + strconv.FormatUint(id, 10), nil
}

// SetURI replaces the metadata base URI. Empty values are disallowed.
func (r *MemoryUnits) SetURI(baseURI string) error {
	if strings.TrimSpace(baseURI) == "" {
		return fmt.Errorf("%w: empty base URI", ErrInvalidValue)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.baseURI = baseURI
	return nil
}

// MemoryPayment is an in-process payment asset with allowance-gated
// transfers.
type MemoryPayment struct {
	mu         sync.RWMutex
	balances   map[common.Address]*big.Int
	allowances map[common.Address]map[common.Address]*big.Int
}

// NewMemoryPayment creates an empty payment ledger.
func NewMemoryPayment() *MemoryPayment {
	return &MemoryPayment{
		balances:   make(map[common.Address]*big.Int),
		allowances: make(map[common.Address]map[common.Address]*big.Int),
	}
}

// Mint credits freshly issued funds to the holder.
func (p *MemoryPayment) Mint(to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: negative mint", ErrInvalidValue)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.balances[to] = new(big.Int).Add(p.balance(to), amount)
	return nil
}

// Approve lets the spender move up to amount out of the owner's balance.
func (p *MemoryPayment) Approve(owner, spender common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: negative allowance", ErrInvalidValue)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.allowances[owner] == nil {
		p.allowances[owner] = make(map[common.Address]*big.Int)
	}
	p.allowances[owner][spender] = new(big.Int).Set(amount)
	return nil
}

func (p *MemoryPayment) BalanceOf(owner common.Address) (*big.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.balance(owner)), nil
}

func (p *MemoryPayment) Allowance(owner, spender common.Address) (*big.Int, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return new(big.Int).Set(p.allowance(owner, spender)), nil
}

func (p *MemoryPayment) TransferFrom(spender, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("%w: negative transfer", ErrInvalidValue)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.balance(from).Cmp(amount) < 0 {
		return fmt.Errorf("%w: payment", ErrInsufficientBalance)
	}
	if spender != from {
		allowance := p.allowance(from, spender)
		if allowance.Cmp(amount) < 0 {
			return fmt.Errorf("%w: allowance exceeded", ErrNotAuthorized)
		}
		p.allowances[from][spender] = new(big.Int).Sub(allowance, amount)
	}
	p.balances[from] = new(big.Int).Sub(p.balance(from), amount)
	p.balances[to] = new(big.Int).Add(p.balance(to), amount)
	return nil
}

func (p *MemoryPayment) balance(owner common.Address) *big.Int {
	if b, ok := p.balances[owner]; ok && b != nil {
		return b
	}
	return big.NewInt(0)
}

func (p *MemoryPayment) allowance(owner, spender common.Address) *big.Int {
	if m, ok := p.allowances[owner]; ok {
		if a, ok := m[spender]; ok && a != nil {
			return a
		}
	}
	return big.NewInt(0)
}
