package encoder

import (
	"context"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Session gathers an ordered list of width-tagged plaintext values keyed by
// (target contract, submitter) and encrypts them in a single finalize step.
// A session is single use: once finalized its handles and proof are immutable
// and every further call fails. A session must not be shared between two
// logical batches, callers either serialize construction per
// (contract, submitter) pair or use independent sessions.
type Session struct {
	mtx sync.Mutex

	sdk            SDK
	targetContract common.Address
	submitter      common.Address
	values         []Value
	maxBatchSize   int
	finalized      bool
}

func NewSession(sdk SDK, targetContract, submitter common.Address) (self *Session) {
	self = new(Session)
	self.sdk = sdk
	self.targetContract = targetContract
	self.submitter = submitter
	self.maxBatchSize = 16
	return
}

func (self *Session) WithMaxBatchSize(v int) *Session {
	self.maxBatchSize = v
	return self
}

func (self *Session) add(width int, value uint64) (err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.finalized {
		return ErrSessionFinalized
	}
	if len(self.values) >= self.maxBatchSize {
		return ErrBatchTooLarge
	}
	if width != Width64 && value>>uint(width) != 0 {
		return ErrValueOverflow
	}

	self.values = append(self.values, Value{Width: width, Value: value})
	return
}

func (self *Session) Add8(value uint8) error {
	return self.add(Width8, uint64(value))
}

func (self *Session) Add16(value uint16) error {
	return self.add(Width16, uint64(value))
}

func (self *Session) Add32(value uint32) error {
	return self.add(Width32, uint64(value))
}

func (self *Session) Add64(value uint64) error {
	return self.add(Width64, value)
}

// Encrypts the whole bundle and returns an ordered handle list plus one proof
// covering all of the values. The proof authenticates the exact ordered
// concatenation gathered in this session, handles from one session cannot be
// imported with a proof from another.
func (self *Session) Finalize(ctx context.Context) (batch *EncodedBatch, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	if self.finalized {
		return nil, ErrSessionFinalized
	}
	if len(self.values) == 0 {
		return nil, ErrEmptyBundle
	}

	bundle := Bundle{
		TargetContract: self.targetContract,
		Submitter:      self.submitter,
		Values:         self.values,
	}

	handles, proof, err := self.sdk.Encode(ctx, bundle)
	if err != nil {
		return
	}

	self.finalized = true

	batch = &EncodedBatch{
		Handles: handles,
		Proof:   proof,
	}
	return
}
