package encoder

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
)

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

type SessionTestSuite struct {
	suite.Suite
	ctx    context.Context
	cancel context.CancelFunc

	sdk      *LocalSDK
	contract common.Address
	alice    common.Address
}

func (s *SessionTestSuite) SetupSuite() {
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.contract = common.HexToAddress("0xcc")
	s.alice = common.HexToAddress("0xa1")
}

func (s *SessionTestSuite) TearDownSuite() {
	s.cancel()
}

func (s *SessionTestSuite) SetupTest() {
	s.sdk = NewLocalSDK()
}

func (s *SessionTestSuite) TestFinalizePreservesOrderAndWidths() {
	session := NewSession(s.sdk, s.contract, s.alice)
	s.NoError(session.Add64(100))
	s.NoError(session.Add16(30))
	s.NoError(session.Add32(5))

	batch, err := session.Finalize(s.ctx)
	s.NoError(err)
	s.Len(batch.Handles, 3)

	s.Equal(Width64, batch.Handles[0].Width())
	s.Equal(Width16, batch.Handles[1].Width())
	s.Equal(Width32, batch.Handles[2].Width())
	for _, handle := range batch.Handles {
		s.Equal(1, handle.Version())
	}
}

func (s *SessionTestSuite) TestSessionIsSingleUse() {
	session := NewSession(s.sdk, s.contract, s.alice)
	s.NoError(session.Add8(7))

	_, err := session.Finalize(s.ctx)
	s.NoError(err)

	_, err = session.Finalize(s.ctx)
	s.ErrorIs(err, ErrSessionFinalized)

	err = session.Add8(8)
	s.ErrorIs(err, ErrSessionFinalized)
}

func (s *SessionTestSuite) TestEmptyBundle() {
	session := NewSession(s.sdk, s.contract, s.alice)
	_, err := session.Finalize(s.ctx)
	s.ErrorIs(err, ErrEmptyBundle)
}

func (s *SessionTestSuite) TestBatchSizeLimit() {
	session := NewSession(s.sdk, s.contract, s.alice).WithMaxBatchSize(2)
	s.NoError(session.Add8(1))
	s.NoError(session.Add8(2))
	s.ErrorIs(session.Add8(3), ErrBatchTooLarge)
}

func (s *SessionTestSuite) TestImportVerification() {
	session := NewSession(s.sdk, s.contract, s.alice)
	s.NoError(session.Add64(100))
	s.NoError(session.Add16(30))

	batch, err := session.Finalize(s.ctx)
	s.NoError(err)

	s.NoError(VerifyImport(batch.Handles, batch.Proof, s.contract, s.alice))

	// Wrong submitter
	s.ErrorIs(VerifyImport(batch.Handles, batch.Proof, s.contract, common.HexToAddress("0xb2")), ErrInvalidProof)

	// Reordered handles
	swapped := []Handle{batch.Handles[1], batch.Handles[0]}
	s.ErrorIs(VerifyImport(swapped, batch.Proof, s.contract, s.alice), ErrInvalidProof)

	// Subset of the finalized list
	s.ErrorIs(VerifyImport(batch.Handles[:1], batch.Proof, s.contract, s.alice), ErrInvalidProof)
}

func (s *SessionTestSuite) TestImportRejectsRewrittenWidths() {
	session := NewSession(s.sdk, s.contract, s.alice)
	s.NoError(session.Add64(100))
	s.NoError(session.Add16(30))
	s.NoError(session.Add32(5))

	batch, err := session.Finalize(s.ctx)
	s.NoError(err)

	// Handles recomputed from the genuine digest but with every width claimed
	// as 8 bit. No finalize call ever produced this list, the legitimate
	// proof must not cover it.
	digest := batch.Proof[:32]
	forged := make([]Handle, len(batch.Handles))
	for i := range forged {
		forged[i] = deriveHandle(digest, i, Width8)
	}

	s.ErrorIs(VerifyImport(forged, batch.Proof, s.contract, s.alice), ErrInvalidProof)
}

func (s *SessionTestSuite) TestCrossSessionProofFails() {
	first := NewSession(s.sdk, s.contract, s.alice)
	s.NoError(first.Add64(100))
	s.NoError(first.Add16(30))
	firstBatch, err := first.Finalize(s.ctx)
	s.NoError(err)

	second := NewSession(s.sdk, s.contract, s.alice)
	s.NoError(second.Add64(200))
	s.NoError(second.Add16(60))
	secondBatch, err := second.Finalize(s.ctx)
	s.NoError(err)

	err = VerifyImport(firstBatch.Handles, secondBatch.Proof, s.contract, s.alice)
	s.ErrorIs(err, ErrInvalidProof)
}

func (s *SessionTestSuite) TestDecryptRoundTrip() {
	session := NewSession(s.sdk, s.contract, s.alice)
	s.NoError(session.Add64(1234))
	s.NoError(session.Add32(99))
	batch, err := session.Finalize(s.ctx)
	s.NoError(err)

	cleartext, proof, err := s.sdk.Decrypt(s.ctx, batch.Handles)
	s.NoError(err)
	s.NoError(Verify(batch.Handles, cleartext, proof))

	values, err := DecodeCleartext(batch.Handles, cleartext)
	s.NoError(err)
	s.Equal([]uint64{1234, 99}, values)

	// Tampered blob
	cleartext[0] ^= 0xff
	s.ErrorIs(Verify(batch.Handles, cleartext, proof), ErrInvalidProof)
}

func (s *SessionTestSuite) TestDecryptUnknownHandle() {
	_, _, err := s.sdk.Decrypt(s.ctx, []Handle{{1, 2, 3}})
	s.ErrorIs(err, ErrUnknownHandle)
}

func (s *SessionTestSuite) TestDecodeRejectsOverflow() {
	session := NewSession(s.sdk, s.contract, s.alice)
	s.NoError(session.Add8(200))
	batch, err := session.Finalize(s.ctx)
	s.NoError(err)

	// A blob claiming a value wider than the handle's declared width
	blob := make([]byte, 8)
	blob[6] = 0x01
	_, err = DecodeCleartext(batch.Handles, blob)
	s.ErrorIs(err, ErrValueOverflow)
}
