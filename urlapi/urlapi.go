package urlapi

import (
	"fmt"
	"strings"

	"go.vocdoni.io/dvote/httprouter"
	"go.vocdoni.io/dvote/httprouter/bearerstdapi"
	"go.vocdoni.io/dvote/log"
	"go.vocdoni.io/dvote/metrics"

	"github.com/Onyex101/secureballot-sub007/casting"
	"github.com/Onyex101/secureballot-sub007/config"
	"github.com/Onyex101/secureballot-sub007/database"
	"github.com/Onyex101/secureballot-sub007/keymanager"
)

const API_VERSION string = "v1"

type URLAPI struct {
	BaseRoute string

	config       *config.API
	router       *httprouter.HTTProuter
	api          *bearerstdapi.BearerStandardAPI
	metricsagent *metrics.Agent
	db           database.Database
	keys         *keymanager.KeyManager
	coordinator  *casting.Coordinator
	verifier     *casting.Verifier
	tally        *casting.TallyDecryptor
}

func NewURLAPI(router *httprouter.HTTProuter,
	cfg *config.API, metricsAgent *metrics.Agent) (*URLAPI, error) {
	if router == nil {
		return nil, fmt.Errorf("httprouter is nil")
	}
	baseRoute := cfg.Route
	if len(baseRoute) == 0 || baseRoute[0] != '/' {
		return nil, fmt.Errorf("invalid base route (%s), it must start with /", baseRoute)
	}
	// Remove trailing slash
	if len(baseRoute) > 0 {
		baseRoute = strings.TrimSuffix(baseRoute, "/")
	}
	baseRoute += "/" + API_VERSION
	urlapi := URLAPI{
		config:       cfg,
		BaseRoute:    baseRoute,
		router:       router,
		metricsagent: metricsAgent,
	}
	log.Infof("url api available with baseRoute %s", baseRoute)
	urlapi.registerMetrics()
	var err error
	urlapi.api, err = bearerstdapi.NewBearerStandardAPI(router, baseRoute)
	if err != nil {
		return nil, err
	}

	return &urlapi, nil
}

// EnableVotingServiceHandlers wires the casting engine into the HTTP
// API: public cast and receipt endpoints, admin key generation, batch
// replay and tally endpoints.
func (u *URLAPI) EnableVotingServiceHandlers(db database.Database,
	keys *keymanager.KeyManager) error {
	if db == nil {
		return fmt.Errorf("database is nil")
	}
	if keys == nil {
		return fmt.Errorf("key manager is nil")
	}
	u.db = db
	u.keys = keys
	u.coordinator = casting.NewCoordinator(db, keys)
	u.verifier = casting.NewVerifier(db)
	u.tally = casting.NewTallyDecryptor(db, keys)

	u.api.SetAdminToken(u.config.AdminToken)
	if err := u.enableVoteHandlers(); err != nil {
		return err
	}
	return u.enableAdminHandlers()
}
