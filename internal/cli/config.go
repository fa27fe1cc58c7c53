package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/mentions/internal/paths"
	"github.com/mesh-intelligence/mentions/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// envPrefix namespaces environment overrides (MENTIONS_POLICY, ...).
	envPrefix = "MENTIONS"
)

// Config keys.
const (
	cfgKeyBackend             = "backend"
	cfgKeyDataDir             = "data_dir"
	cfgKeyStoreAddress        = "store_address"
	cfgKeyStoreTimeout        = "store_timeout"
	cfgKeyAuthorityEndpoint   = "authority_endpoint"
	cfgKeyAuthorityContractID = "authority_contract_id"
	cfgKeyAuthorityTimeout    = "authority_timeout"
	cfgKeyCorrelation         = "correlation"
	cfgKeyPolicy              = "policy"
	cfgKeyRequireOwner        = "require_owner"
	cfgKeyBootstrap           = "bootstrap"
	cfgKeySystemContractID    = "system_contract_id"
)

// envKeys are the config keys that MENTIONS_* variables override. data_dir
// is resolved separately so config.yaml keeps precedence over the env.
var envKeys = []string{
	cfgKeyBackend,
	cfgKeyStoreAddress,
	cfgKeyStoreTimeout,
	cfgKeyAuthorityEndpoint,
	cfgKeyAuthorityContractID,
	cfgKeyAuthorityTimeout,
	cfgKeyCorrelation,
	cfgKeyPolicy,
	cfgKeyRequireOwner,
	cfgKeyBootstrap,
	cfgKeySystemContractID,
}

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend             string `yaml:"backend"`
	DataDir             string `yaml:"data_dir,omitempty"`
	StoreAddress        string `yaml:"store_address"`
	StoreTimeout        string `yaml:"store_timeout"`
	AuthorityEndpoint   string `yaml:"authority_endpoint"`
	AuthorityContractID string `yaml:"authority_contract_id"`
	AuthorityTimeout    string `yaml:"authority_timeout"`
	Correlation         string `yaml:"correlation"`
	Policy              string `yaml:"policy"`
	RequireOwner        bool   `yaml:"require_owner"`
	Bootstrap           bool   `yaml:"bootstrap"`
	SystemContractID    string `yaml:"system_contract_id"`
}

func defaultConfigFile(dataDir string) configFile {
	d := types.DefaultConfig()
	return configFile{
		Backend:             types.BackendSQLite,
		DataDir:             dataDir,
		StoreAddress:        d.StoreAddress,
		StoreTimeout:        d.StoreTimeout.String(),
		AuthorityEndpoint:   d.AuthorityEndpoint,
		AuthorityContractID: d.AuthorityContractID,
		AuthorityTimeout:    d.AuthorityTimeout.String(),
		Correlation:         string(d.Correlation),
		Policy:              string(d.Policy),
		RequireOwner:        d.RequireOwner,
		Bootstrap:           d.Bootstrap,
		SystemContractID:    d.SystemContractID,
	}
}

// loadConfig reads config.yaml from configDir using Viper, creating the
// directory and a default file on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), ""); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	d := types.DefaultConfig()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyStoreAddress, d.StoreAddress)
	v.SetDefault(cfgKeyStoreTimeout, d.StoreTimeout)
	v.SetDefault(cfgKeyAuthorityEndpoint, d.AuthorityEndpoint)
	v.SetDefault(cfgKeyAuthorityContractID, d.AuthorityContractID)
	v.SetDefault(cfgKeyAuthorityTimeout, d.AuthorityTimeout)
	v.SetDefault(cfgKeyCorrelation, string(d.Correlation))
	v.SetDefault(cfgKeyPolicy, string(d.Policy))
	v.SetDefault(cfgKeyRequireOwner, d.RequireOwner)
	v.SetDefault(cfgKeyBootstrap, d.Bootstrap)
	v.SetDefault(cfgKeySystemContractID, d.SystemContractID)
}

// executorConfig builds and validates the executor configuration.
func executorConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.Config{
		StoreAddress:        v.GetString(cfgKeyStoreAddress),
		StoreTimeout:        v.GetDuration(cfgKeyStoreTimeout),
		AuthorityEndpoint:   v.GetString(cfgKeyAuthorityEndpoint),
		AuthorityContractID: v.GetString(cfgKeyAuthorityContractID),
		AuthorityTimeout:    v.GetDuration(cfgKeyAuthorityTimeout),
		Correlation:         types.Correlation(v.GetString(cfgKeyCorrelation)),
		Policy:              types.Policy(v.GetString(cfgKeyPolicy)),
		RequireOwner:        v.GetBool(cfgKeyRequireOwner),
		Bootstrap:           v.GetBool(cfgKeyBootstrap),
		SystemContractID:    v.GetString(cfgKeySystemContractID),
	}.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ledgerConfig resolves the ledger backend and data directory:
// --data-dir flag > config.yaml data_dir > MENTIONS_DATA_DIR > $(CWD)/.mentions-db.
func (a *app) ledgerConfig() (types.LedgerConfig, error) {
	dataDir, err := paths.ResolveDataDir(a.dataDir, a.v.GetString(cfgKeyDataDir))
	if err != nil {
		return types.LedgerConfig{}, fmt.Errorf("resolve data dir: %w", err)
	}
	cfg := types.LedgerConfig{Backend: a.v.GetString(cfgKeyBackend), DataDir: dataDir}
	if err := cfg.Validate(); err != nil {
		return types.LedgerConfig{}, fmt.Errorf("invalid ledger config: %w", err)
	}
	return cfg, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}

	cfg := defaultConfigFile(dataDir)
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
