package encoder

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Bit widths accepted for batched values
const (
	Width8  = 8
	Width16 = 16
	Width32 = 32
	Width64 = 64
)

const (
	// Position of the width tag inside a handle
	handleWidthByte = 30

	// Position of the handle format version
	handleVersionByte = 31

	handleVersion = 1
)

// Opaque fixed-width reference to a ciphertext.
// Carries no plaintext value by itself, only a width tag and a format version.
type Handle [32]byte

func (self Handle) Width() int {
	return int(self[handleWidthByte])
}

func (self Handle) Version() int {
	return int(self[handleVersionByte])
}

func (self Handle) String() string {
	return "0x" + hex.EncodeToString(self[:])
}

// Handles travel as 0x-prefixed hex in JSON payloads
func (self Handle) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}

func (self *Handle) UnmarshalJSON(data []byte) (err error) {
	var s string
	err = json.Unmarshal(data, &s)
	if err != nil {
		return
	}
	*self, err = ParseHandle(s)
	return
}

func ParseHandle(s string) (handle Handle, err error) {
	if len(s) >= 2 && s[0:2] == "0x" {
		s = s[2:]
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return
	}
	if len(buf) != len(handle) {
		err = fmt.Errorf("handle must be %d bytes, got %d", len(handle), len(buf))
		return
	}
	copy(handle[:], buf)
	return
}

// Authentication token binding {target contract, submitter, ordered value bundle}.
// Valid only for the exact bundle it was generated over.
type Proof []byte

func (self Proof) String() string {
	return "0x" + hex.EncodeToString(self)
}

func (self Proof) MarshalJSON() ([]byte, error) {
	return json.Marshal(self.String())
}

func (self *Proof) UnmarshalJSON(data []byte) (err error) {
	var s string
	err = json.Unmarshal(data, &s)
	if err != nil {
		return
	}
	*self, err = ParseProof(s)
	return
}

func ParseProof(s string) (proof Proof, err error) {
	if len(s) >= 2 && s[0:2] == "0x" {
		s = s[2:]
	}
	buf, err := hex.DecodeString(s)
	if err != nil {
		return
	}
	return Proof(buf), nil
}

// One width-tagged plaintext value of a batch, insertion order is significant
type Value struct {
	Width int    `json:"width"`
	Value uint64 `json:"value"`
}

// Ordered list of values gathered in one session
type Bundle struct {
	TargetContract common.Address `json:"target_contract"`
	Submitter      common.Address `json:"submitter"`
	Values         []Value        `json:"values"`
}

// Result of a single finalize call: one handle per appended value, same
// order, plus one proof covering the full bundle
type EncodedBatch struct {
	Handles []Handle `json:"handles"`
	Proof   Proof    `json:"proof"`
}

var (
	ErrSessionFinalized = errors.New("session already finalized")
	ErrEmptyBundle      = errors.New("bundle contains no values")
	ErrBatchTooLarge    = errors.New("bundle exceeds max batch size")
	ErrInvalidWidth     = errors.New("unsupported bit width")
	ErrValueOverflow    = errors.New("value does not fit declared width")
	ErrInvalidProof     = errors.New("proof does not match handle bundle")
	ErrUnknownHandle    = errors.New("handle unknown to the oracle")
	ErrMalformedBlob    = errors.New("cleartext blob does not match handle list")
)
