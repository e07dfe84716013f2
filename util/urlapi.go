package util

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/Onyex101/secureballot-sub007/types"
	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
	"go.vocdoni.io/dvote/util"
)

func UnmarshalRequest(msg *bearerstdapi.BearerStandardAPIdata) (req types.APIRequest, err error) {
	err = json.Unmarshal(msg.Data, &req)
	if err != nil {
		return req, fmt.Errorf("could not decode request body %s: %v", string(msg.Data), err)
	}
	return
}

func SendResponse(resp types.APIResponse, ctx *httprouter.HTTPContext) error {
	resp.Ok = true
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("error marshaling JSON: %w", err)
	}
	return ctx.Send(data, http.StatusOK)
}

// DecodeHexField decodes an optional hex request field, tolerating an
// empty value.
func DecodeHexField(value, name string) ([]byte, error) {
	if value == "" {
		return nil, nil
	}
	decoded, err := hex.DecodeString(util.TrimHex(value))
	if err != nil {
		return nil, fmt.Errorf("could not decode %s from hex: %v", name, err)
	}
	return decoded, nil
}

func GenerateBearerToken() string {
	return util.RandomHex(32)
}
