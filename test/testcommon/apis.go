package testcommon

import (
	"fmt"

	"go.vocdoni.io/dvote/log"

	"github.com/Onyex101/secureballot-sub007/config"
	"github.com/Onyex101/secureballot-sub007/database"
	"github.com/Onyex101/secureballot-sub007/database/pgsql"
	"github.com/Onyex101/secureballot-sub007/database/testdb"
	"github.com/Onyex101/secureballot-sub007/keymanager"
)

// TestAPI bundles the collaborators the engine tests need: a database
// and a key manager wired to it.
type TestAPI struct {
	DB database.Database
	// KeysConfig holds the escrow key and tally capability the key
	// manager was built with
	KeysConfig *config.Keys
	Keys       *keymanager.KeyManager
}

// Start creates a database connection and key manager for testing.
// If dbc is nil the in-memory testdb is used.
// If keys is nil a random escrow key and tally capability are generated.
func (t *TestAPI) Start(dbc *config.DB, keys *config.Keys) error {
	log.Init("info", "stdout")
	var err error
	if dbc != nil {
		// Postgres with sqlx
		if t.DB, err = pgsql.New(dbc); err != nil {
			return err
		}
	} else {
		if t.DB, err = testdb.New(); err != nil {
			return err
		}
	}
	if keys == nil {
		keys = RandomKeysConfig()
	}
	t.KeysConfig = keys
	if t.Keys, err = keymanager.New(t.DB, keys); err != nil {
		return fmt.Errorf("could not initialize key manager: %w", err)
	}
	return nil
}
