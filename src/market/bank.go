package market

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Bank is the wallet/signing provider boundary. It either moves the funds
// and returns nil or fails, nothing else about it is assumed.
type Bank interface {
	Transfer(ctx context.Context, from, to common.Address, amount uint64) error
	Balance(ctx context.Context, addr common.Address) (uint64, error)
}

// MemoryBank keeps balances in memory. Used in development runs and tests,
// supports failure injection to exercise transfer-abort paths.
type MemoryBank struct {
	mtx      sync.Mutex
	balances map[common.Address]uint64
	failWith func(from, to common.Address, amount uint64) error
}

func NewMemoryBank() (self *MemoryBank) {
	self = new(MemoryBank)
	self.balances = make(map[common.Address]uint64)
	return
}

// Makes every matching transfer fail with the returned error
func (self *MemoryBank) WithFailure(f func(from, to common.Address, amount uint64) error) *MemoryBank {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.failWith = f
	return self
}

func (self *MemoryBank) Deposit(addr common.Address, amount uint64) *MemoryBank {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	self.balances[addr] += amount
	return self
}

func (self *MemoryBank) Transfer(ctx context.Context, from, to common.Address, amount uint64) (err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.failWith != nil {
		err = self.failWith(from, to, amount)
		if err != nil {
			return
		}
	}

	if self.balances[from] < amount {
		return fmt.Errorf("insufficient funds: %d < %d", self.balances[from], amount)
	}

	self.balances[from] -= amount
	self.balances[to] += amount
	return
}

func (self *MemoryBank) Balance(ctx context.Context, addr common.Address) (uint64, error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()
	return self.balances[addr], nil
}
