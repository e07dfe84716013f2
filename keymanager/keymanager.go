// Package keymanager owns per-election asymmetric key material. Public
// keys are served to anyone; private keys are escrowed encrypted at rest
// and only released to callers presenting the tally capability. The
// casting path never sees a private key: it may only ask for a single
// session key to be unwrapped.
package keymanager

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"encoding/hex"
	"fmt"

	"go.vocdoni.io/dvote/log"

	"github.com/Onyex101/secureballot-sub007/ballot"
	"github.com/Onyex101/secureballot-sub007/config"
	"github.com/Onyex101/secureballot-sub007/database"
	"github.com/Onyex101/secureballot-sub007/types"
	"github.com/Onyex101/secureballot-sub007/util"
)

const keyBits = 2048

type KeyManager struct {
	db        database.Database
	escrowKey []byte
	tallyCap  string
}

// New builds a key manager from the injected key configuration. Both the
// escrow key and the tally capability are mandatory.
func New(db database.Database, cfg *config.Keys) (*KeyManager, error) {
	if cfg == nil || cfg.EscrowKey == "" {
		return nil, fmt.Errorf("escrow key is required: %w", types.ErrConfig)
	}
	escrowKey, err := hex.DecodeString(cfg.EscrowKey)
	if err != nil {
		return nil, fmt.Errorf("could not decode escrow key: %w", types.ErrConfig)
	}
	if cfg.TallyCapability == "" {
		return nil, fmt.Errorf("tally capability token is required: %w", types.ErrConfig)
	}
	return &KeyManager{
		db:        db,
		escrowKey: escrowKey,
		tallyCap:  cfg.TallyCapability,
	}, nil
}

// GenerateKeys creates the election key pair and stores it, the private
// half secretbox-encrypted with the escrow key. Fails if a pair already
// exists and overwrite was not explicitly requested.
func (km *KeyManager) GenerateKeys(electionID string, overwrite bool) (*types.ElectionKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("could not generate election key pair: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("could not encode public key: %w", err)
	}
	privCipher, err := util.EncryptSymmetric(x509.MarshalPKCS1PrivateKey(priv), km.escrowKey)
	if err != nil {
		return nil, fmt.Errorf("could not escrow private key: %w", err)
	}
	key := &types.ElectionKey{
		ElectionID:       electionID,
		PublicKey:        pubDER,
		PrivateKeyCipher: privCipher,
		Fingerprint:      ballot.Fingerprint(&priv.PublicKey),
	}
	if err := km.db.CreateElectionKey(key, overwrite); err != nil {
		return nil, err
	}
	log.Infof("generated key pair for election %s with fingerprint %s",
		electionID, key.Fingerprint)
	return key, nil
}

// PublicKey returns the election public key. An election without a key
// pair must not accept votes, so missing material surfaces ErrNotFound.
func (km *KeyManager) PublicKey(electionID string) (*rsa.PublicKey, error) {
	key, err := km.db.GetElectionKey(electionID)
	if err != nil {
		return nil, err
	}
	parsed, err := x509.ParsePKIXPublicKey(key.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("stored public key for election %s is unreadable: %w",
			electionID, types.ErrConfig)
	}
	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("stored public key for election %s has unexpected type: %w",
			electionID, types.ErrConfig)
	}
	return pub, nil
}

// PrivateKey releases the election private key to the tallying path.
// The caller must present the configured tally capability; there is no
// implicit trust in callers.
func (km *KeyManager) PrivateKey(electionID, capability string) (*rsa.PrivateKey, error) {
	if subtle.ConstantTimeCompare([]byte(capability), []byte(km.tallyCap)) != 1 {
		return nil, fmt.Errorf("tally capability rejected for election %s: %w",
			electionID, types.ErrConfig)
	}
	return km.privateKey(electionID)
}

// UnwrapSessionKey unwraps a single vote session key on behalf of the
// casting path. This is the only private-key operation available outside
// tallying, and the key itself never leaves the manager.
func (km *KeyManager) UnwrapSessionKey(electionID string, wrapped []byte) ([]byte, error) {
	priv, err := km.privateKey(electionID)
	if err != nil {
		return nil, err
	}
	return ballot.UnwrapSessionKey(wrapped, priv)
}

func (km *KeyManager) privateKey(electionID string) (*rsa.PrivateKey, error) {
	key, err := km.db.GetElectionKey(electionID)
	if err != nil {
		return nil, err
	}
	privDER, ok := util.DecryptSymmetric(key.PrivateKeyCipher, km.escrowKey)
	if !ok {
		return nil, fmt.Errorf("could not decrypt escrowed private key for election %s: %w",
			electionID, types.ErrConfig)
	}
	priv, err := x509.ParsePKCS1PrivateKey(privDER)
	if err != nil {
		return nil, fmt.Errorf("escrowed private key for election %s is unreadable: %w",
			electionID, types.ErrConfig)
	}
	return priv, nil
}
