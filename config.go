package prooflog

import (
	"os"
	"path/filepath"
	"strconv"
)

// Anchor backend names accepted by OpenAnchorStore.
const (
	BackendLocal  = "local"
	BackendDynamo = "dynamo"
	BackendRedis  = "redis"
	BackendHTTP   = "http"
)

// Config holds process configuration. Components receive it explicitly;
// there is no package-level mutable state.
type Config struct {
	ArtifactDir   string
	AnchorBackend string
	AnchorPath    string // local backend JSON file
	AnchorTable   string // dynamo backend table name
	AWSRegion     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	GatewayURL    string // http backend base URL
	GatewayToken  string
}

// LoadConfig loads configuration from environment variables.
func LoadConfig() *Config {
	dir := os.Getenv("PROOFLOG_ARTIFACT_DIR")
	if dir == "" {
		dir = "artifacts"
	}

	backend := os.Getenv("PROOFLOG_ANCHOR_BACKEND")
	if backend == "" {
		backend = BackendLocal
	}

	anchorPath := os.Getenv("PROOFLOG_ANCHOR_PATH")
	if anchorPath == "" {
		anchorPath = filepath.Join(dir, "anchors.json")
	}

	table := os.Getenv("PROOFLOG_ANCHOR_TABLE")
	if table == "" {
		table = "prooflog_runs"
	}

	redisAddr := os.Getenv("PROOFLOG_REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}

	redisDB := 0
	if v := os.Getenv("PROOFLOG_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		ArtifactDir:   dir,
		AnchorBackend: backend,
		AnchorPath:    anchorPath,
		AnchorTable:   table,
		AWSRegion:     os.Getenv("AWS_REGION"),
		RedisAddr:     redisAddr,
		RedisPassword: os.Getenv("PROOFLOG_REDIS_PASSWORD"),
		RedisDB:       redisDB,
		GatewayURL:    os.Getenv("PROOFLOG_GATEWAY_URL"),
		GatewayToken:  os.Getenv("PROOFLOG_GATEWAY_TOKEN"),
	}
}
