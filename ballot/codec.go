// Package ballot implements the hybrid encryption codec for a single
// vote: a fresh AES-256-GCM session key per ballot, wrapped with the
// election's RSA public key, plus an integrity hash binding the payload
// to its ciphertext and wrapped key.
package ballot

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Onyex101/secureballot-sub007/types"
)

const sessionKeySize = 32 // AES-256

// Payload is the serialized content of one vote: the voter's choice plus
// contextual metadata.
type Payload struct {
	VoterID       string           `json:"voterId"`
	ElectionID    string           `json:"electionId"`
	CandidateID   string           `json:"candidateId"`
	PollingUnitID string           `json:"pollingUnitId"`
	Timestamp     time.Time        `json:"timestamp"`
	Source        types.VoteSource `json:"source"`
}

// Choice is the minimal client ballot: the candidate pick alone. Clients
// encrypt it to the election public key with the same envelope format
// the server uses for stored payloads.
type Choice struct {
	CandidateID string `json:"candidateId"`
}

// EncryptedVote is the confidentiality-preserving envelope of one vote.
type EncryptedVote struct {
	Ciphertext          []byte `json:"ciphertext"`
	EncryptedSessionKey string `json:"encryptedSessionKey"` // base64, RSA-OAEP wrapped
	IV                  string `json:"iv"`                  // hex GCM nonce
	IntegrityHash       string `json:"integrityHash"`       // hex SHA-256
	Fingerprint         string `json:"fingerprint"`         // key pair that wrapped the session key
}

func (p *Payload) Serialize() ([]byte, error) {
	serialized, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("could not serialize vote payload: %w", err)
	}
	return serialized, nil
}

// Encrypt seals a full vote payload for storage.
func Encrypt(payload *Payload, pub *rsa.PublicKey) (*EncryptedVote, error) {
	serialized, err := payload.Serialize()
	if err != nil {
		return nil, err
	}
	return seal(serialized, pub)
}

// EncryptBallot seals a client-side ballot choice. Same envelope, same
// key schedule; only the plaintext differs.
func EncryptBallot(choice *Choice, pub *rsa.PublicKey) (*EncryptedVote, error) {
	serialized, err := json.Marshal(choice)
	if err != nil {
		return nil, fmt.Errorf("could not serialize ballot choice: %w", err)
	}
	return seal(serialized, pub)
}

func seal(plaintext []byte, pub *rsa.PublicKey) (*EncryptedVote, error) {
	sessionKey := make([]byte, sessionKeySize)
	if _, err := rand.Read(sessionKey); err != nil {
		return nil, fmt.Errorf("could not generate session key: %w", err)
	}
	block, err := aes.NewCipher(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("could not initialize cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not initialize GCM: %w", err)
	}
	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("could not generate IV: %w", err)
	}
	ciphertext := gcm.Seal(nil, iv, plaintext, nil)
	// The session key is always wrapped before it leaves this function;
	// storing it in the clear would defeat confidentiality until tally
	// time.
	wrapped, err := WrapSessionKey(sessionKey, pub)
	if err != nil {
		return nil, err
	}
	return &EncryptedVote{
		Ciphertext:          ciphertext,
		EncryptedSessionKey: base64.StdEncoding.EncodeToString(wrapped),
		IV:                  hex.EncodeToString(iv),
		IntegrityHash:       integrityHash(plaintext, ciphertext, wrapped),
		Fingerprint:         Fingerprint(pub),
	}, nil
}

// Decrypt unwraps the session key with the election private key, opens
// the ciphertext and verifies the integrity hash against the recovered
// plaintext. Padding, format and hash failures all surface
// types.ErrIntegrity.
func Decrypt(ev *EncryptedVote, priv *rsa.PrivateKey) (*Payload, error) {
	wrapped, err := base64.StdEncoding.DecodeString(ev.EncryptedSessionKey)
	if err != nil {
		return nil, fmt.Errorf("malformed session key encoding: %w", types.ErrIntegrity)
	}
	sessionKey, err := UnwrapSessionKey(wrapped, priv)
	if err != nil {
		return nil, err
	}
	var payload Payload
	plaintext, err := open(ev, sessionKey, &payload)
	if err != nil {
		return nil, err
	}
	if integrityHash(plaintext, ev.Ciphertext, wrapped) != ev.IntegrityHash {
		return nil, fmt.Errorf("vote integrity hash mismatch: %w", types.ErrIntegrity)
	}
	return &payload, nil
}

// OpenWithSessionKey decrypts the envelope with an already unwrapped
// session key and unmarshals the plaintext into v. Used by the casting
// path, which never holds the election private key itself.
func OpenWithSessionKey(ev *EncryptedVote, sessionKey []byte, v interface{}) error {
	_, err := open(ev, sessionKey, v)
	return err
}

func open(ev *EncryptedVote, sessionKey []byte, v interface{}) ([]byte, error) {
	block, err := aes.NewCipher(sessionKey)
	if err != nil {
		return nil, fmt.Errorf("invalid session key: %w", types.ErrIntegrity)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("could not initialize GCM: %w", err)
	}
	iv, err := hex.DecodeString(ev.IV)
	if err != nil || len(iv) != gcm.NonceSize() {
		return nil, fmt.Errorf("malformed IV: %w", types.ErrIntegrity)
	}
	plaintext, err := gcm.Open(nil, iv, ev.Ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("could not decrypt ballot: %w", types.ErrIntegrity)
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return nil, fmt.Errorf("malformed ballot plaintext: %w", types.ErrIntegrity)
	}
	return plaintext, nil
}

// VerifyIntegrity recomputes the integrity hash from the serialized
// payload and the envelope, without requiring private-key decryption.
// Used for fast tamper detection at storage time, when the coordinator
// still holds the plaintext.
func VerifyIntegrity(serialized []byte, ev *EncryptedVote) bool {
	wrapped, err := base64.StdEncoding.DecodeString(ev.EncryptedSessionKey)
	if err != nil {
		return false
	}
	return integrityHash(serialized, ev.Ciphertext, wrapped) == ev.IntegrityHash
}

// integrityHash binds plaintext, ciphertext and the wrapped session key
// together, so tampering with any of the three is detectable.
func integrityHash(plaintext, ciphertext, wrappedKey []byte) string {
	h := sha256.New()
	h.Write(plaintext)
	h.Write(ciphertext)
	h.Write(wrappedKey)
	return hex.EncodeToString(h.Sum(nil))
}

// WrapSessionKey protects a session key with the election public key.
func WrapSessionKey(sessionKey []byte, pub *rsa.PublicKey) ([]byte, error) {
	wrapped, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, sessionKey, nil)
	if err != nil {
		return nil, fmt.Errorf("could not wrap session key: %w", err)
	}
	return wrapped, nil
}

// UnwrapSessionKey recovers a session key with the election private key.
func UnwrapSessionKey(wrapped []byte, priv *rsa.PrivateKey) ([]byte, error) {
	sessionKey, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, fmt.Errorf("could not unwrap session key: %w", types.ErrIntegrity)
	}
	return sessionKey, nil
}

// Fingerprint is the stable SHA-256 hash of the public key's PKIX DER
// encoding, recorded on every vote to identify which key pair wrapped
// its session key.
func Fingerprint(pub *rsa.PublicKey) string {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(der)
	return hex.EncodeToString(sum[:])
}

// NewReceiptCode produces the voter-facing receipt. It is an unlinked
// random token usable only to look the vote up later: it proves nothing
// cryptographically about the vote's content or inclusion.
func NewReceiptCode() string {
	return uuid.New().String()
}
