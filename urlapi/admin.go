package urlapi

import (
	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
	"go.vocdoni.io/dvote/log"

	"github.com/Onyex101/secureballot-sub007/types"
	"github.com/Onyex101/secureballot-sub007/util"
)

func (u *URLAPI) enableAdminHandlers() error {
	if err := u.api.RegisterMethod(
		"/admin/elections/{electionId}/keys",
		"POST",
		bearerstdapi.MethodAccessTypeAdmin,
		u.generateElectionKeysHandler,
	); err != nil {
		return err
	}
	if err := u.api.RegisterMethod(
		"/admin/elections/{electionId}/votes/batch",
		"POST",
		bearerstdapi.MethodAccessTypeAdmin,
		u.processBatchHandler,
	); err != nil {
		return err
	}
	if err := u.api.RegisterMethod(
		"/admin/elections/{electionId}/tally",
		"POST",
		bearerstdapi.MethodAccessTypeAdmin,
		u.tallyElectionHandler,
	); err != nil {
		return err
	}
	if err := u.api.RegisterMethod(
		"/admin/elections/{electionId}/votes/count",
		"GET",
		bearerstdapi.MethodAccessTypeAdmin,
		u.countVotesHandler,
	); err != nil {
		return err
	}
	return nil
}

// POST https://server/v1/admin/elections/<electionId>/keys
// generateElectionKeysHandler creates the election key pair before the
// election is activated for voting
func (u *URLAPI) generateElectionKeysHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	var resp types.APIResponse
	if req, err = util.UnmarshalRequest(msg); err != nil {
		return err
	}
	overwrite := req.Overwrite != nil && *req.Overwrite
	key, err := u.keys.GenerateKeys(ctx.URLParam("electionId"), overwrite)
	if err != nil {
		return err
	}
	resp.PublicKey = key.PublicKey
	resp.Fingerprint = key.Fingerprint
	return util.SendResponse(resp, ctx)
}

// POST https://server/v1/admin/elections/<electionId>/votes/batch
// processBatchHandler replays offline-collected envelopes through the
// coordinator, reporting per-envelope failures
func (u *URLAPI) processBatchHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	var resp types.APIResponse
	if req, err = util.UnmarshalRequest(msg); err != nil {
		return err
	}
	log.Infof("processing offline batch of %d envelopes for election %s",
		len(req.Envelopes), ctx.URLParam("electionId"))
	result := u.coordinator.ProcessBatch(req.Envelopes, ctx.URLParam("electionId"))
	resp.Successful = result.Successful
	resp.Failed = result.Failed
	resp.Errors = result.Errors
	return util.SendResponse(resp, ctx)
}

// POST https://server/v1/admin/elections/<electionId>/tally
// tallyElectionHandler decrypts and aggregates all votes of the election
func (u *URLAPI) tallyElectionHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var err error
	var req types.APIRequest
	var resp types.APIResponse
	if req, err = util.UnmarshalRequest(msg); err != nil {
		return err
	}
	result, err := u.tally.Tally(ctx.URLParam("electionId"), req.TallyCapability)
	if err != nil {
		return err
	}
	u.countTally()
	resp.Results = result.Results
	resp.Counted = result.Counted
	resp.Excluded = result.Excluded
	resp.VoteCount = result.Total
	return util.SendResponse(resp, ctx)
}

// GET https://server/v1/admin/elections/<electionId>/votes/count
// countVotesHandler returns the number of votes cast so far
func (u *URLAPI) countVotesHandler(msg *bearerstdapi.BearerStandardAPIdata, ctx *httprouter.HTTPContext) error {
	var resp types.APIResponse
	count, err := u.db.CountVotes(ctx.URLParam("electionId"))
	if err != nil {
		return err
	}
	resp.VoteCount = count
	return util.SendResponse(resp, ctx)
}
