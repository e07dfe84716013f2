package casting_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/google/uuid"

	"github.com/Onyex101/secureballot-sub007/casting"
	"github.com/Onyex101/secureballot-sub007/types"
)

func TestVerifyByReceipt(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 1)

	result, err := f.coordinator().Cast(&casting.CastRequest{
		VoterID:         f.voters[0].ID,
		ElectionID:      f.election.ID,
		EncryptedBallot: f.sealBallot(c, f.candidates[0].ID),
		Source:          types.SourceWeb,
	})
	c.Assert(err, qt.IsNil)

	verifier := casting.NewVerifier(f.api.DB)
	info, err := verifier.VerifyByReceipt(result.ReceiptCode)
	c.Assert(err, qt.IsNil)
	c.Assert(info.Found, qt.IsTrue)
	c.Assert(info.Timestamp, qt.Not(qt.IsNil))
	c.Assert(info.ElectionName, qt.Equals, f.election.Name)
	c.Assert(info.CandidateName, qt.Equals, f.candidates[0].Name)
	c.Assert(info.PollingUnitName, qt.Equals, f.unit.Name)
	c.Assert(info.Source, qt.Equals, types.SourceWeb)

	// Codes match regardless of case
	info, err = verifier.VerifyByReceipt(strings.ToUpper(result.ReceiptCode))
	c.Assert(err, qt.IsNil)
	c.Assert(info.Found, qt.IsTrue)
}

func TestVerifyUnknownReceipt(t *testing.T) {
	c := qt.New(t)
	f := newFixture(c, 1, 0)

	info, err := casting.NewVerifier(f.api.DB).VerifyByReceipt(uuid.New().String())
	c.Assert(err, qt.IsNil)
	c.Assert(info.Found, qt.IsFalse)
	c.Assert(info.Timestamp, qt.IsNil)
	c.Assert(info.ElectionName, qt.Equals, "")
}
