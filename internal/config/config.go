package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/armagg/coin-payments/internal/core/domain"
)

const (
	// DatadirKey is the key to customize the engine datadir.
	DatadirKey = "DATADIR"
	// DatabaseTypeKey is the key to customize the type of database to use.
	DatabaseTypeKey = "DATABASE_TYPE"
	// NetworkKey is the key to customize the network.
	NetworkKey = "NETWORK"
	// AssetSymbolKey is the key to customize the native asset ticker.
	AssetSymbolKey = "ASSET_SYMBOL"
	// DecimalsKey is the key to customize the main/base conversion exponent.
	DecimalsKey = "DECIMALS"
	// DustThresholdKey is the key to customize the dust threshold in base
	// units.
	DustThresholdKey = "DUST_THRESHOLD"
	// MinRelayFeeKey is the key to customize the absolute fee floor in base
	// units.
	MinRelayFeeKey = "MIN_RELAY_FEE"
	// TargetUtxoPoolSizeKey is the key to customize how many utxos the engine
	// keeps available by splitting change.
	TargetUtxoPoolSizeKey = "TARGET_UTXO_POOL_SIZE"
	// MinChangeKey is the key to customize the minimum change amount in main
	// denomination.
	MinChangeKey = "MIN_CHANGE"
	// LogLevelKey is the key to customize the log level to catch more specific
	// or more high level logs.
	LogLevelKey = "LOG_LEVEL"
	// LedgerServerAddrKey is the key to set the websocket address of the
	// account-ledger server.
	LedgerServerAddrKey = "LEDGER_SERVER_ADDR"
	// ProfilerPortKey is the key to customize the port where the profiler will
	// be listening to.
	ProfilerPortKey = "PROFILER_PORT"
	// NoProfilerKey is the key to disable profiling.
	NoProfilerKey = "NO_PROFILER"
	// StatsIntervalKey is the key to customize the interval for the profiler
	// to gather stats.
	StatsIntervalKey = "STATS_INTERVAL"

	// DbLocation is the folder inside the datadir containing db files.
	DbLocation = "db"
	// DbUserKey is user used to connect to db.
	DbUserKey = "DB_USER"
	// DbPassKey is password used to connect to db.
	DbPassKey = "DB_PASS"
	// DbHostKey is host where db is installed.
	DbHostKey = "DB_HOST"
	// DbPortKey is port on which db is listening.
	DbPortKey = "DB_PORT"
	// DbNameKey is name of database.
	DbNameKey = "DB_NAME"
)

var (
	vip *viper.Viper

	defaultDatadir       = btcutil.AppDataDir("coin-payments", false)
	defaultDbType        = "badger"
	defaultNetwork       = chaincfg.MainNetParams.Name
	defaultAssetSymbol   = "BTC"
	defaultDecimals      = 8
	defaultDustThreshold = 546
	defaultMinRelayFee   = 1000
	defaultPoolSize      = 1
	defaultLogLevel      = 4
	defaultProfilerPort  = 18001
	defaultStatsInterval = 600 // 10 minutes

	supportedNetworks = map[string]*chaincfg.Params{
		chaincfg.MainNetParams.Name:       &chaincfg.MainNetParams,
		chaincfg.TestNet3Params.Name:      &chaincfg.TestNet3Params,
		chaincfg.RegressionNetParams.Name: &chaincfg.RegressionNetParams,
	}
	SupportedDbs = supportedType{
		"badger":   {},
		"inmemory": {},
		"postgres": {},
	}
)

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("COIN_PAYMENTS")
	vip.AutomaticEnv()

	vip.SetDefault(DatadirKey, defaultDatadir)
	vip.SetDefault(DatabaseTypeKey, defaultDbType)
	vip.SetDefault(NetworkKey, defaultNetwork)
	vip.SetDefault(AssetSymbolKey, defaultAssetSymbol)
	vip.SetDefault(DecimalsKey, defaultDecimals)
	vip.SetDefault(DustThresholdKey, defaultDustThreshold)
	vip.SetDefault(MinRelayFeeKey, defaultMinRelayFee)
	vip.SetDefault(TargetUtxoPoolSizeKey, defaultPoolSize)
	vip.SetDefault(LogLevelKey, defaultLogLevel)
	vip.SetDefault(NoProfilerKey, false)
	vip.SetDefault(ProfilerPortKey, defaultProfilerPort)
	vip.SetDefault(StatsIntervalKey, defaultStatsInterval)
	vip.SetDefault(DbUserKey, "root")
	vip.SetDefault(DbPassKey, "secret")
	vip.SetDefault(DbHostKey, "127.0.0.1")
	vip.SetDefault(DbPortKey, 5432)
	vip.SetDefault(DbNameKey, "coin-payments-db-pg")

	if err := validate(); err != nil {
		log.Fatalf("invalid config: %s", err)
	}

	if err := initDatadir(); err != nil {
		log.Fatalf("config: error while creating datadir: %s", err)
	}
}

func validate() error {
	datadir := GetString(DatadirKey)
	if len(datadir) <= 0 {
		return fmt.Errorf("datadir must not be null")
	}

	net := GetString(NetworkKey)
	if len(net) == 0 {
		return fmt.Errorf("network must not be null")
	}
	if _, ok := supportedNetworks[net]; !ok {
		nets := make([]string, 0, len(supportedNetworks))
		for net := range supportedNetworks {
			nets = append(nets, net)
		}
		return fmt.Errorf("unknown network, must be one of: %v", nets)
	}

	dbType := GetString(DatabaseTypeKey)
	if _, ok := SupportedDbs[dbType]; !ok {
		return fmt.Errorf("unsupported database type, must be one of %s", SupportedDbs)
	}

	return PaymentConfig().Validate()
}

func initDatadir() error {
	datadir := GetDatadir()
	return makeDirectoryIfNotExists(filepath.Join(datadir, DbLocation))
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func GetString(key string) string {
	return vip.GetString(key)
}

func GetInt(key string) int {
	return vip.GetInt(key)
}

func GetBool(key string) bool {
	return vip.GetBool(key)
}

func GetDatadir() string {
	return GetString(DatadirKey)
}

// GetNetworkParams returns the chain parameters of the configured network.
func GetNetworkParams() *chaincfg.Params {
	return supportedNetworks[GetString(NetworkKey)]
}

// PaymentConfig builds the per-coin engine configuration from the
// environment.
func PaymentConfig() domain.Config {
	return domain.Config{
		NetworkType:        GetString(NetworkKey),
		AssetSymbol:        GetString(AssetSymbolKey),
		Decimals:           GetInt(DecimalsKey),
		NetworkMinRelayFee: int64(GetInt(MinRelayFeeKey)),
		DustThreshold:      int64(GetInt(DustThresholdKey)),
		TargetUtxoPoolSize: GetInt(TargetUtxoPoolSizeKey),
		MinChange:          GetString(MinChangeKey),
	}
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return fmt.Sprintf("%v", types)
}
