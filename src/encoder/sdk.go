package encoder

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Domain separation tags for the keccak based reference scheme
var (
	dsBundle  = []byte("market.bundle.v1")
	dsBinding = []byte("market.binding.v1")
	dsHandle  = []byte("market.handle.v1")
	dsDecrypt = []byte("market.decrypt.v1")
)

// Boundary of the homomorphic encryption coprocessor.
// Encode turns one ordered bundle into ciphertext handles and a single proof
// vouching for all of them.
type SDK interface {
	Encode(ctx context.Context, bundle Bundle) (handles []Handle, proof Proof, err error)
}

// Source of out of band decryptions for declassified handles
type Oracle interface {
	Decrypt(ctx context.Context, handles []Handle) (cleartext []byte, proof Proof, err error)
}

// LocalSDK is the in-process reference implementation of the coprocessor.
// Handles and proofs are keccak commitments over the bundle, plaintexts are
// retained in memory so the same instance can also serve as the decryption
// oracle in tests and development runs.
type LocalSDK struct {
	mtx        sync.Mutex
	plaintexts map[Handle]Value
}

func NewLocalSDK() (self *LocalSDK) {
	self = new(LocalSDK)
	self.plaintexts = make(map[Handle]Value)
	return
}

// The salt makes every finalize call produce fresh handles, two identical
// bundles never share ciphertexts
func bundleDigest(bundle Bundle, salt []byte) []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(salt)
	buf.Write(bundle.TargetContract.Bytes())
	buf.Write(bundle.Submitter.Bytes())
	for _, value := range bundle.Values {
		buf.WriteByte(byte(value.Width))
		var enc [8]byte
		binary.BigEndian.PutUint64(enc[:], value.Value)
		buf.Write(enc[:])
	}
	return crypto.Keccak256(dsBundle, buf.Bytes())
}

// The value count and per-value widths are part of the binding, so neither a
// prefix subset nor a width-rewritten variant of the handle list can reuse
// the bundle's proof
func bindingDigest(digest []byte, targetContract, submitter common.Address, widths []int) []byte {
	shape := make([]byte, 0, len(widths)+1)
	shape = append(shape, byte(len(widths)))
	for _, width := range widths {
		shape = append(shape, byte(width))
	}
	return crypto.Keccak256(dsBinding, digest, targetContract.Bytes(), submitter.Bytes(), shape)
}

func deriveHandle(digest []byte, index int, width int) (handle Handle) {
	var idx [4]byte
	binary.BigEndian.PutUint32(idx[:], uint32(index))
	prefix := crypto.Keccak256(dsHandle, digest, idx[:], []byte{byte(width)})
	copy(handle[:handleWidthByte], prefix)
	handle[handleWidthByte] = byte(width)
	handle[handleVersionByte] = handleVersion
	return
}

func (self *LocalSDK) Encode(ctx context.Context, bundle Bundle) (handles []Handle, proof Proof, err error) {
	if len(bundle.Values) == 0 {
		err = ErrEmptyBundle
		return
	}
	for _, value := range bundle.Values {
		switch value.Width {
		case Width8, Width16, Width32, Width64:
		default:
			err = ErrInvalidWidth
			return
		}
	}

	salt := make([]byte, 32)
	_, err = rand.Read(salt)
	if err != nil {
		return
	}

	widths := make([]int, len(bundle.Values))
	for i, value := range bundle.Values {
		widths[i] = value.Width
	}

	digest := bundleDigest(bundle, salt)
	binding := bindingDigest(digest, bundle.TargetContract, bundle.Submitter, widths)

	proof = make(Proof, 0, len(digest)+len(binding))
	proof = append(proof, digest...)
	proof = append(proof, binding...)

	handles = make([]Handle, len(bundle.Values))

	self.mtx.Lock()
	defer self.mtx.Unlock()
	for i, value := range bundle.Values {
		handles[i] = deriveHandle(digest, i, value.Width)
		self.plaintexts[handles[i]] = value
	}

	return
}

// Decrypt resolves declassified handles back to their plaintext values and
// returns a proof binding the cleartext blob to exactly this handle list
func (self *LocalSDK) Decrypt(ctx context.Context, handles []Handle) (cleartext []byte, proof Proof, err error) {
	self.mtx.Lock()
	defer self.mtx.Unlock()

	cleartext = make([]byte, 0, 8*len(handles))
	for _, handle := range handles {
		value, ok := self.plaintexts[handle]
		if !ok {
			return nil, nil, ErrUnknownHandle
		}
		var enc [8]byte
		binary.BigEndian.PutUint64(enc[:], value.Value)
		cleartext = append(cleartext, enc[:]...)
	}

	proof = decryptionDigest(handles, cleartext)
	return
}

func decryptionDigest(handles []Handle, cleartext []byte) Proof {
	buf := bytes.NewBuffer(nil)
	for _, handle := range handles {
		buf.Write(handle[:])
	}
	buf.Write(cleartext)
	return crypto.Keccak256(dsDecrypt, buf.Bytes())
}

// VerifyImport checks that the handle list is exactly the one produced by the
// finalize call that generated the proof, in the same order, bound to the
// given target contract and submitter. Any substituted, reordered or foreign
// handle fails.
func VerifyImport(handles []Handle, proof Proof, targetContract, submitter common.Address) (err error) {
	if len(proof) != 64 || len(handles) == 0 {
		return ErrInvalidProof
	}

	widths := make([]int, len(handles))
	for i, handle := range handles {
		widths[i] = handle.Width()
	}

	digest := proof[:32]
	if !bytes.Equal(proof[32:], bindingDigest(digest, targetContract, submitter, widths)) {
		return ErrInvalidProof
	}

	for i, handle := range handles {
		if handle.Version() != handleVersion {
			return ErrInvalidProof
		}
		expected := deriveHandle(digest, i, handle.Width())
		if handle != expected {
			return ErrInvalidProof
		}
	}

	return nil
}

// Verify is the callback verification primitive: it accepts the cleartext
// blob only if the decryption proof covers exactly this handle list and blob.
// Callers never branch on the cleartext before this succeeds.
func Verify(handles []Handle, cleartext []byte, proof Proof) (err error) {
	if len(handles) == 0 || len(cleartext) != 8*len(handles) {
		return ErrMalformedBlob
	}
	if !bytes.Equal(proof, decryptionDigest(handles, cleartext)) {
		return ErrInvalidProof
	}
	return nil
}

// DecodeCleartext splits a verified blob into one typed value per handle,
// rejecting values that do not fit the handle's declared width
func DecodeCleartext(handles []Handle, cleartext []byte) (values []uint64, err error) {
	if len(cleartext) != 8*len(handles) {
		return nil, ErrMalformedBlob
	}

	values = make([]uint64, len(handles))
	for i, handle := range handles {
		value := binary.BigEndian.Uint64(cleartext[8*i : 8*i+8])
		if handle.Width() != Width64 && value>>uint(handle.Width()) != 0 {
			return nil, ErrValueOverflow
		}
		values[i] = value
	}
	return
}
