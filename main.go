package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"go-passport-scanner/logging"
	"go-passport-scanner/metrics"
	redis "go-passport-scanner/redis"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`

	JwtPrivateKeyPath string `json:"jwt_private_key_path"`
	IrmaServerUrl     string `json:"irma_server_url"`
	IssuerId          string `json:"issuer_id"`
	FullCredential    string `json:"full_credential"`
	SdJwtBatchSize    uint   `json:"sd_jwt_batch_size"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	StorageType         string                    `json:"storage_type"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty"`
}

func fatal(msg string, args ...any) {
	slog.Error(msg, args...)
	os.Exit(1)
}

func main() {
	configPath := flag.String("config", "", "Path for the config.json to use")
	flag.Parse()

	if *configPath == "" {
		fatal("please provide a config path using the --config flag")
	}

	config, err := readConfigFile(*configPath)
	if err != nil {
		fatal("failed to read config file", "path", *configPath, "error", err)
	}

	logging.Configure(os.Stderr, config.LogLevel, config.LogFormat)
	slog.Info("using config", "path", *configPath)

	jwtCreator, err := NewIrmaJwtCreator(
		config.JwtPrivateKeyPath,
		config.IssuerId,
		config.FullCredential,
		config.SdJwtBatchSize,
	)
	if err != nil {
		fatal("failed to instantiate jwt creator", "error", err)
	}

	scanStorage, err := createScanStorage(&config)
	if err != nil {
		fatal("failed to instantiate scan storage", "error", err)
	}

	serverState := ServerState{
		irmaServerURL: config.IrmaServerUrl,
		scanStorage:   scanStorage,
		jwtCreator:    jwtCreator,
		converter:     IssuanceRequestConverterImpl{},
		metrics:       metrics.New(prometheus.DefaultRegisterer),
		gatherer:      prometheus.DefaultGatherer,
	}

	server, err := NewServer(&serverState, config.ServerConfig)
	if err != nil {
		fatal("failed to create server", "error", err)
	}

	err = server.ListenAndServe()
	if err != nil {
		fatal("failed to listen and serve", "error", err)
	}
}

func readConfigFile(path string) (Config, error) {
	configBytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var config Config
	err = json.Unmarshal(configBytes, &config)
	if err != nil {
		return Config{}, err
	}

	return config, nil
}

func createScanStorage(config *Config) (ScanStorage, error) {
	switch config.StorageType {
	case "redis":
		slog.Info("Using redis scan storage")
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisScanStorage(client, config.RedisConfig.Namespace), nil
	case "redis_sentinel":
		slog.Info("Using redis sentinel scan storage")
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, err
		}
		return NewRedisScanStorage(client, config.RedisSentinelConfig.Namespace), nil
	case "memory":
		slog.Info("Using in memory scan storage")
		return NewInMemoryScanStorage(), nil
	}
	return nil, fmt.Errorf("%v is not a valid storage type", config.StorageType)
}
