package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"
)

// Config is filled key by key in Load; each field notes the env key it reads.
type Config struct {
	Server struct {
		Address string // SERVER_ADDRESS
	}
	Log struct {
		Level string // LOG_LEVEL
	}
	Chain struct {
		RPCURLs        []string      // RPC_URLS
		AttemptTimeout time.Duration // RPC_ATTEMPT_TIMEOUT
	}
	Aave struct {
		Pool  common.Address // AAVE_POOL_ADDRESS
		Asset common.Address // RESERVE_ASSET_ADDRESS
	}
	Cache struct {
		APY struct {
			MaxEntries int           // APY_CACHE_MAX_ENTRIES
			TTL        time.Duration // APY_CACHE_TTL
		}
	}
	Vaults struct {
		Timeout  time.Duration // VAULTS_TIMEOUT
		Fallback string        // VAULTS_FALLBACK
	}
	RateLimit struct {
		RPS   float64 // RATE_LIMIT_RPS
		Burst int     // RATE_LIMIT_BURST
	}
	CORS struct {
		AllowedOrigins []string // CORS_ALLOWED_ORIGINS
	}
}

const defaultRPCURLs = "https://polygon.drpc.org,https://polygon-rpc.com,https://rpc.ankr.com/polygon,https://polygon.publicnode.com"

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile("config.json")
	v.AutomaticEnv()

	v.SetDefault("SERVER_ADDRESS", ":3002")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("RPC_URLS", defaultRPCURLs)
	v.SetDefault("RPC_ATTEMPT_TIMEOUT", "10s")
	v.SetDefault("AAVE_POOL_ADDRESS", "0x794a61358D6845594F94dc1DB02A252b5b4814aD")
	v.SetDefault("RESERVE_ASSET_ADDRESS", "0x3c499c542cEF5E3811e1192ce70d8cC03d5c3359")
	v.SetDefault("APY_CACHE_MAX_ENTRIES", 16)
	v.SetDefault("APY_CACHE_TTL", "60s")
	v.SetDefault("VAULTS_TIMEOUT", "20s")
	v.SetDefault("VAULTS_FALLBACK", "static")
	// 100 requests per 15 minutes per client
	v.SetDefault("RATE_LIMIT_RPS", 100.0/(15*60))
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}
	cfg.Server.Address = v.GetString("SERVER_ADDRESS")
	cfg.Log.Level = v.GetString("LOG_LEVEL")
	cfg.Chain.RPCURLs = splitList(v.GetString("RPC_URLS"))
	cfg.Chain.AttemptTimeout = v.GetDuration("RPC_ATTEMPT_TIMEOUT")

	cfg.Cache.APY.MaxEntries = v.GetInt("APY_CACHE_MAX_ENTRIES")
	cfg.Cache.APY.TTL = v.GetDuration("APY_CACHE_TTL")

	cfg.Vaults.Timeout = v.GetDuration("VAULTS_TIMEOUT")
	cfg.Vaults.Fallback = strings.ToLower(v.GetString("VAULTS_FALLBACK"))

	cfg.RateLimit.RPS = v.GetFloat64("RATE_LIMIT_RPS")
	cfg.RateLimit.Burst = v.GetInt("RATE_LIMIT_BURST")
	cfg.CORS.AllowedOrigins = splitList(v.GetString("CORS_ALLOWED_ORIGINS"))

	if cfg.Server.Address == "" {
		return nil, fmt.Errorf("SERVER_ADDRESS must not be empty")
	}
	if len(cfg.Chain.RPCURLs) == 0 {
		return nil, fmt.Errorf("RPC_URLS must list at least one endpoint")
	}
	if cfg.Chain.AttemptTimeout < 0 {
		return nil, fmt.Errorf("RPC_ATTEMPT_TIMEOUT must be ≥ 0")
	}

	pool := v.GetString("AAVE_POOL_ADDRESS")
	if !common.IsHexAddress(pool) {
		return nil, fmt.Errorf("AAVE_POOL_ADDRESS %q is not a hex address", pool)
	}
	cfg.Aave.Pool = common.HexToAddress(pool)

	asset := v.GetString("RESERVE_ASSET_ADDRESS")
	if !common.IsHexAddress(asset) {
		return nil, fmt.Errorf("RESERVE_ASSET_ADDRESS %q is not a hex address", asset)
	}
	cfg.Aave.Asset = common.HexToAddress(asset)

	if cfg.Cache.APY.MaxEntries < 1 {
		return nil, fmt.Errorf("APY_CACHE_MAX_ENTRIES must be ≥ 1")
	}
	if cfg.Cache.APY.TTL <= 0 {
		return nil, fmt.Errorf("APY_CACHE_TTL must be > 0")
	}
	if cfg.RateLimit.RPS <= 0 || cfg.RateLimit.Burst < 1 {
		return nil, fmt.Errorf("RATE_LIMIT_RPS must be > 0 and RATE_LIMIT_BURST ≥ 1")
	}
	// an empty origin list would make the CORS middleware allow any origin
	if len(cfg.CORS.AllowedOrigins) == 0 {
		return nil, fmt.Errorf("CORS_ALLOWED_ORIGINS must list at least one origin")
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
