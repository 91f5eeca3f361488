package config

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/joho/godotenv"
)

// Server captures the daemon configuration.
type Server struct {
	Addr string
	// ChainID is bound into every EIP-712 domain.
	ChainID *big.Int
	// Owner owns every deployed registry and gateway.
	Owner common.Address
	// AdminJWTKey signs and verifies admin bearer tokens (HS256).
	AdminJWTKey string
	// RelayerKey is the key whose address submits signature-delegated calls.
	RelayerKey      *ecdsa.PrivateKey
	RegistrationFee *big.Int
	// ResolverPrice is what the bundled paid resolver charges per attestation.
	ResolverPrice  *big.Int
	MigrationGrace time.Duration

	Log       LogConfig
	RateLimit RateLimitConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Postgres  PostgresConfig
}

type LogConfig struct {
	Level  string
	Format string
}

// RateLimitConfig bounds requests per client IP per window on the public API.
type RateLimitConfig struct {
	Disabled bool
	Reads    int
	Writes   int
	Window   time.Duration
}

type RedisConfig struct {
	URL          string
	Stream       string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type PostgresConfig struct {
	URL string
}

// DefaultMigrationGrace is how long after migration the owner may still adjust registry state.
const DefaultMigrationGrace = 24 * time.Hour

// devJWTKey is only used when PROVENANCE_ADMIN_JWT_KEY is unset.
const devJWTKey = "dev-secret-key-change-in-production"

// LoadDotEnv loads .env files if present. Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() (Server, error) {
	cfg := Server{
		Addr:           getEnv("PROVENANCE_ADDR", ":8080"),
		AdminJWTKey:    getEnv("PROVENANCE_ADMIN_JWT_KEY", devJWTKey),
		MigrationGrace: DefaultMigrationGrace,
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
		RateLimit: RateLimitConfig{
			Disabled: os.Getenv("RATE_LIMIT_DISABLED") == "true",
			Reads:    100,
			Writes:   20,
			Window:   time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			Stream:       getEnv("REDIS_EVENTS_STREAM", "registry-events"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(os.Getenv("KAFKA_BROKERS")),
			Topic:   getEnv("KAFKA_EVENTS_TOPIC", "registry-events"),
		},
		Postgres: PostgresConfig{URL: os.Getenv("DATABASE_URL")},
	}

	chainID, err := parseBig("PROVENANCE_CHAIN_ID", getEnv("PROVENANCE_CHAIN_ID", "1"))
	if err != nil {
		return Server{}, err
	}
	cfg.ChainID = chainID

	fee, err := parseBig("PROVENANCE_REGISTRATION_FEE", getEnv("PROVENANCE_REGISTRATION_FEE", "0"))
	if err != nil {
		return Server{}, err
	}
	cfg.RegistrationFee = fee

	price, err := parseBig("PROVENANCE_RESOLVER_PRICE", getEnv("PROVENANCE_RESOLVER_PRICE", "0"))
	if err != nil {
		return Server{}, err
	}
	cfg.ResolverPrice = price

	if raw := os.Getenv("PROVENANCE_MIGRATION_GRACE"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			return Server{}, fmt.Errorf("PROVENANCE_MIGRATION_GRACE: invalid duration %q", raw)
		}
		cfg.MigrationGrace = d
	}

	for key, dst := range map[string]*int{"RATE_LIMIT_READS": &cfg.RateLimit.Reads, "RATE_LIMIT_WRITES": &cfg.RateLimit.Writes} {
		if raw := os.Getenv(key); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				return Server{}, fmt.Errorf("%s: invalid value %q", key, raw)
			}
			*dst = n
		}
	}
	if raw := os.Getenv("RATE_LIMIT_WINDOW"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			return Server{}, fmt.Errorf("RATE_LIMIT_WINDOW: invalid duration %q", raw)
		}
		cfg.RateLimit.Window = d
	}

	if raw := os.Getenv("REDIS_POOL_SIZE"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return Server{}, fmt.Errorf("REDIS_POOL_SIZE: invalid value %q", raw)
		}
		cfg.Redis.PoolSize = n
	}

	if raw := os.Getenv("PROVENANCE_RELAYER_KEY"); raw != "" {
		key, err := crypto.HexToECDSA(strings.TrimPrefix(raw, "0x"))
		if err != nil {
			return Server{}, fmt.Errorf("PROVENANCE_RELAYER_KEY: %w", err)
		}
		cfg.RelayerKey = key
	} else {
		key, err := crypto.GenerateKey()
		if err != nil {
			return Server{}, fmt.Errorf("generate relayer key: %w", err)
		}
		cfg.RelayerKey = key
	}

	owner := os.Getenv("PROVENANCE_OWNER")
	switch {
	case owner == "":
		// Without an explicit owner the relayer owns the deployment, which is only sensible in development.
		cfg.Owner = crypto.PubkeyToAddress(cfg.RelayerKey.PublicKey)
	case !common.IsHexAddress(owner):
		return Server{}, fmt.Errorf("PROVENANCE_OWNER: invalid address %q", owner)
	default:
		cfg.Owner = common.HexToAddress(owner)
	}
	if cfg.Owner == (common.Address{}) {
		return Server{}, errors.New("PROVENANCE_OWNER: zero address")
	}

	return cfg, nil
}

// RelayerAddress is the address the relayer submits calls from.
func (s Server) RelayerAddress() common.Address {
	if s.RelayerKey == nil {
		return common.Address{}
	}
	return crypto.PubkeyToAddress(s.RelayerKey.PublicKey)
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBig(key, raw string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		return nil, fmt.Errorf("%s: invalid non-negative integer %q", key, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
