package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.vocdoni.io/dvote/httprouter"
	log "go.vocdoni.io/dvote/log"
	"go.vocdoni.io/dvote/metrics"

	"github.com/Onyex101/secureballot-sub007/config"
	"github.com/Onyex101/secureballot-sub007/database"
	"github.com/Onyex101/secureballot-sub007/database/pgsql"
	"github.com/Onyex101/secureballot-sub007/keymanager"
	"github.com/Onyex101/secureballot-sub007/urlapi"
	"github.com/Onyex101/secureballot-sub007/util"
)

func newConfig() (*config.SecureBallot, config.Error) {
	var err error
	var cfgError config.Error
	cfg := config.NewSecureBallotConfig()
	home, err := os.UserHomeDir()
	if err != nil {
		cfgError = config.Error{
			Critical: true,
			Message:  fmt.Sprintf("cannot get user home directory with error: %s", err),
		}
		return nil, cfgError
	}
	// flags
	flag.StringVar(&cfg.DataDir, "dataDir", home+"/.secureballot", "directory where data is stored")
	cfg.LogLevel = *flag.String("logLevel", "info", "Log level (debug, info, warn, error, fatal)")
	cfg.LogOutput = *flag.String("logOutput", "stdout", "Log output (stdout, stderr or filepath)")
	cfg.LogErrorFile = *flag.String("logErrorFile", "", "Log errors and warnings to a file")
	cfg.SaveConfig = *flag.Bool("saveConfig", false,
		"overwrites an existing config file with the CLI provided flags")
	cfg.API.AdminToken = *flag.String("adminToken", "", "token for admin api calls")
	cfg.API.Route = *flag.String("apiRoute", "/", "API route")
	cfg.API.ListenHost = *flag.String("listenHost", "0.0.0.0", "API endpoint listen address")
	cfg.API.ListenPort = *flag.Int("listenPort", 8000, "API endpoint http port")
	cfg.API.Ssl.Domain = *flag.String("sslDomain", "",
		"enable TLS secure domain with LetsEncrypt auto-generated certificate")
	cfg.Keys.EscrowKey = *flag.String("escrowKey", "",
		"hex symmetric key encrypting election private keys at rest "+
			"(if not specified, a new one will be created)")
	cfg.Keys.TallyCapability = *flag.String("tallyCapability", "",
		"token required to release election private keys for tallying "+
			"(if not specified, a new one will be created)")
	cfg.DB.Host = *flag.String("dbHost", "127.0.0.1", "DB server address")
	cfg.DB.Port = *flag.Int("dbPort", 5432, "DB server port")
	cfg.DB.User = *flag.String("dbUser", "user", "DB Username")
	cfg.DB.Password = *flag.String("dbPassword", "password", "DB password")
	cfg.DB.Dbname = *flag.String("dbName", "database", "DB database name")
	cfg.DB.Sslmode = *flag.String("dbSslmode", "prefer", "DB postgres sslmode")
	cfg.Migrate.Action = *flag.String("migrateAction", "", "Migration action (up,down,status)")
	// metrics
	cfg.Metrics.Enabled = *flag.Bool("metricsEnabled", true, "enable prometheus metrics")
	cfg.Metrics.RefreshInterval =
		*flag.Int("metricsRefreshInterval", 10, "metrics refresh interval in seconds")

	// parse flags
	flag.Parse()

	// setting up viper
	viper := viper.New()
	viper.AddConfigPath(cfg.DataDir)
	viper.SetConfigName("secureballot")
	viper.SetConfigType("yml")
	viper.SetEnvPrefix("SECUREBALLOT")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// binding flags to viper

	// global
	viper.BindPFlag("dataDir", flag.Lookup("dataDir"))
	viper.BindPFlag("logLevel", flag.Lookup("logLevel"))
	viper.BindPFlag("logErrorFile", flag.Lookup("logErrorFile"))
	viper.BindPFlag("logOutput", flag.Lookup("logOutput"))
	viper.BindPFlag("api.adminToken", flag.Lookup("adminToken"))
	viper.BindPFlag("api.route", flag.Lookup("apiRoute"))
	viper.BindPFlag("api.listenHost", flag.Lookup("listenHost"))
	viper.BindPFlag("api.listenPort", flag.Lookup("listenPort"))
	viper.Set("api.ssl.dirCert", cfg.DataDir+"/tls")
	viper.BindPFlag("api.ssl.domain", flag.Lookup("sslDomain"))
	viper.BindPFlag("keys.escrowKey", flag.Lookup("escrowKey"))
	viper.BindPFlag("keys.tallyCapability", flag.Lookup("tallyCapability"))
	viper.BindPFlag("db.host", flag.Lookup("dbHost"))
	viper.BindPFlag("db.port", flag.Lookup("dbPort"))
	viper.BindPFlag("db.user", flag.Lookup("dbUser"))
	viper.BindPFlag("db.password", flag.Lookup("dbPassword"))
	viper.BindPFlag("db.dbName", flag.Lookup("dbName"))
	viper.BindPFlag("db.sslMode", flag.Lookup("dbSslmode"))
	viper.BindPFlag("migrate.action", flag.Lookup("migrateAction"))
	// metrics
	viper.BindPFlag("metrics.enabled", flag.Lookup("metricsEnabled"))
	viper.BindPFlag("metrics.refreshInterval", flag.Lookup("metricsRefreshInterval"))

	// check if config file exists
	_, err = os.Stat(cfg.DataDir + "/secureballot.yml")
	if os.IsNotExist(err) {
		cfgError = config.Error{
			Message: fmt.Sprintf("creating new config file in %s", cfg.DataDir),
		}
		// creating config folder if not exists
		err = os.MkdirAll(cfg.DataDir, os.ModePerm)
		if err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot create data directory: %s", err),
			}
		}
		// create config file if not exists
		if err := viper.SafeWriteConfig(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot write config file into config dir: %s", err),
			}
		}
	} else {
		// read config file
		err = viper.ReadInConfig()
		if err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot read loaded config file in %s: %s", cfg.DataDir, err),
			}
		}
	}
	err = viper.Unmarshal(&cfg)
	if err != nil {
		cfgError = config.Error{
			Message: fmt.Sprintf("cannot unmarshal loaded config file: %s", err),
		}
	}

	// Generate and save the escrow key if not specified
	if len(cfg.Keys.EscrowKey) == 0 {
		fmt.Println("no escrow key, generating one...")
		escrowKey, err := util.GenerateEscrowKey()
		if err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot generate escrow key: %s", err),
			}
			return cfg, cfgError
		}
		cfg.Keys.EscrowKey = hex.EncodeToString(escrowKey)
		viper.Set("keys.escrowKey", cfg.Keys.EscrowKey)
		cfg.SaveConfig = true
	}
	if len(cfg.Keys.TallyCapability) == 0 {
		fmt.Println("no tally capability token, generating one...")
		cfg.Keys.TallyCapability = util.GenerateBearerToken()
		viper.Set("keys.tallyCapability", cfg.Keys.TallyCapability)
		cfg.SaveConfig = true
	}

	if cfg.SaveConfig {
		viper.Set("saveConfig", false)
		if err := viper.WriteConfig(); err != nil {
			cfgError = config.Error{
				Message: fmt.Sprintf("cannot overwrite config file into config dir: %s", err),
			}
		}
	}
	return cfg, cfgError
}

func main() {
	var err error
	// setup config
	// creating config and init logger
	cfg, cfgerr := newConfig()
	if cfgerr.Critical {
		panic(cfgerr.Message)
	}
	if cfg == nil {
		panic("cannot read configuration")
	}
	log.Init(cfg.LogLevel, cfg.LogOutput)
	if path := cfg.LogErrorFile; path != "" {
		if err := log.SetFileErrorLog(path); err != nil {
			log.Fatal(err)
		}
	}
	log.Debugf("initializing config: %s", cfg.String())

	// Database Interface
	var db database.Database

	// Postgres with sqlx
	db, err = pgsql.New(cfg.DB)
	if err != nil {
		log.Fatal(err)
	}

	// Standalone Migrations
	if cfg.Migrate.Action != "" {
		if err := pgsql.Migrator(cfg.Migrate.Action, db); err != nil {
			log.Fatal(err)
		}
		return
	}

	// Check that all migrations are applied before proceeding
	// and if not apply them
	if err := pgsql.Migrator("upSync", db); err != nil {
		log.Fatal(err)
	}

	// Election key manager
	keys, err := keymanager.New(db, cfg.Keys)
	if err != nil {
		log.Fatal(err)
	}

	// Router
	var httpRouter httprouter.HTTProuter
	httpRouter.TLSdomain = cfg.API.Ssl.Domain
	httpRouter.TLSdirCert = cfg.API.Ssl.DirCert
	if err = httpRouter.Init(cfg.API.ListenHost, cfg.API.ListenPort); err != nil {
		log.Fatal(err)
	}

	var metricsAgent *metrics.Agent
	// Enable metrics via proxy
	if cfg.Metrics.Enabled {
		metricsAgent = metrics.NewAgent("/metrics",
			time.Duration(cfg.Metrics.RefreshInterval)*time.Second, &httpRouter)
	}

	// Rest api
	urlApi, err := urlapi.NewURLAPI(&httpRouter, cfg.API, metricsAgent)
	if err != nil {
		log.Fatal(err)
	}

	// Voting engine api
	log.Infof("enabling voting service API methods")
	if err := urlApi.EnableVotingServiceHandlers(db, keys); err != nil {
		log.Fatal(err)
	}

	log.Info("startup complete")
	// close if interrupt received
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c
	log.Warnf("received SIGTERM, exiting at %s", time.Now().Format(time.RFC850))
	os.Exit(0)
}
