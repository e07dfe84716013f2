package urlapi

import (
	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
	"go.vocdoni.io/dvote/log"

	"github.com/Onyex101/secureballot-sub007/casting"
	"github.com/Onyex101/secureballot-sub007/types"
	"github.com/Onyex101/secureballot-sub007/util"
)

func (u *URLAPI) enableVoteHandlers() error {
	if err := u.api.RegisterMethod(
		"/pub/elections/{electionId}/votes",
		"POST",
		bearerstdapi.MethodAccessTypePublic,
		u.castVoteHandler,
	); err != nil {
		return err
	}
	if err := u.api.RegisterMethod(
		"/pub/receipts/{receiptCode}",
		"GET",
		bearerstdapi.MethodAccessTypePublic,
		u.verifyReceiptHandler,
	); err != nil {
		return err
	}
	return nil
}

// POST https://server/v1/pub/elections/<electionId>/votes
// castVoteHandler submits one encrypted ballot through the casting
// coordinator
func (u *URLAPI) castVoteHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	var resp types.APIResponse
	log.Debugf("query to cast vote in election %s", ctx.URLParam("electionId"))
	if req, err = util.UnmarshalRequest(msg); err != nil {
		return err
	}
	castReq := &casting.CastRequest{
		VoterID:    req.VoterID,
		ElectionID: ctx.URLParam("electionId"),
		Source:     types.VoteSource(req.Source),
	}
	if castReq.EncryptedBallot, err = util.DecodeHexField(req.EncryptedBallot, "encryptedBallot"); err != nil {
		return err
	}
	if castReq.ClientPublicKey, err = util.DecodeHexField(req.ClientPublicKey, "clientPublicKey"); err != nil {
		return err
	}
	if castReq.Signature, err = util.DecodeHexField(req.Signature, "signature"); err != nil {
		return err
	}
	result, err := u.coordinator.Cast(castReq)
	if err != nil {
		u.countCast(false)
		return err
	}
	u.countCast(true)
	resp.VoteID = result.VoteID
	resp.ReceiptCode = result.ReceiptCode
	resp.Timestamp = &result.Timestamp
	return util.SendResponse(resp, ctx)
}

// GET https://server/v1/pub/receipts/<receiptCode>
// verifyReceiptHandler resolves a receipt code into non-sensitive vote
// metadata; an unknown code reports found=false
func (u *URLAPI) verifyReceiptHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var resp types.APIResponse
	info, err := u.verifier.VerifyByReceipt(ctx.URLParam("receiptCode"))
	if err != nil {
		return err
	}
	u.countVerify()
	resp.Found = &info.Found
	if info.Found {
		resp.Timestamp = info.Timestamp
		resp.ElectionName = info.ElectionName
		resp.CandidateName = info.CandidateName
		resp.PollingUnitName = info.PollingUnitName
		resp.Source = string(info.Source)
	}
	return util.SendResponse(resp, ctx)
}
