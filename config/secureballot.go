package config

import (
	"fmt"
)

type DB struct {
	Host     string
	Port     int
	User     string
	Password string
	Dbname   string
	Sslmode  string
}

type API struct {
	// Route is the URL router where the API will be served
	Route string
	// ListenPort port where the API server will listen on
	ListenPort int
	// ListenHost host where the API server will listen on
	ListenHost string
	// AdminToken protects key generation, batch replay and tally endpoints
	AdminToken string
	// Ssl tls related config options
	Ssl struct {
		Domain  string
		DirCert string
	}
}

// Keys holds the key-material options injected into the election key
// manager at startup. Never ambient global state.
type Keys struct {
	// EscrowKey is the hex symmetric key used to encrypt election
	// private keys at rest. Mandatory: private keys are never stored
	// in the clear.
	EscrowKey string
	// TallyCapability is the token callers must present to obtain an
	// election private key for tallying.
	TallyCapability string
}

type Error struct {
	// Critical indicates if the error encountered is critical and the app must be stopped
	Critical bool
	// Message error message
	Message string
}

// MetricsCfg initializes the metrics config
type MetricsCfg struct {
	Enabled         bool
	RefreshInterval int
}

type SecureBallot struct {
	// API api config options
	API *API
	// Database connection options
	DB *DB
	// Keys election key material options
	Keys *Keys
	// LogLevel logging level
	LogLevel string
	// LogOutput logging output
	LogOutput string
	// ErrorLogFile for logging warning, error and fatal messages
	LogErrorFile string
	// Metrics config options
	Metrics *MetricsCfg
	// DataDir path where the engine files will be stored
	DataDir string
	// SaveConfig overwrites the config file with the CLI provided flags
	SaveConfig bool
	// Migration options
	Migrate *Migrate
}

func (s *SecureBallot) String() string {
	return fmt.Sprintf("API: %+v, DB: %+v, LogLevel: %s, LogOutput: %s, LogErrorFile: %s, Metrics: %+v, DataDir: %s, SaveConfig: %v, Migrate: %+v",
		*s.API, *s.DB, s.LogLevel, s.LogOutput, s.LogErrorFile, *s.Metrics, s.DataDir, s.SaveConfig, *s.Migrate)
}

// NewSecureBallotConfig initializes the fields in the config struct
func NewSecureBallotConfig() *SecureBallot {
	return &SecureBallot{
		API:     new(API),
		DB:      new(DB),
		Keys:    new(Keys),
		Migrate: new(Migrate),
		Metrics: new(MetricsCfg),
	}
}

type Migrate struct {
	// Action defines the migration action to be taken (up, down, status)
	Action string
}
