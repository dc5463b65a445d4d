package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3/log"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type serverConfig struct {
	Port        int    `koanf:"port" validate:"required"`
	Mode        string `koanf:"mode" validate:"required"`
	Concurrency int    `koanf:"concurrency" validate:"required"`
	BodyLimit   int    `koanf:"body_limit" validate:"required"`
	AppName     string `koanf:"app_name" validate:"required"`
}

type logLevel string

const (
	Debug logLevel = "debug"
	Info  logLevel = "info"
	Warn  logLevel = "warn"
	Error logLevel = "error"
	Fatal logLevel = "fatal"
	Panic logLevel = "panic"
)

type Module string

const (
	ModuleDatabase Module = "database"
	ModuleOpenAI   Module = "openai"
	ModuleS3       Module = "s3"
	ModuleCors     Module = "cors"
	ModuleServer   Module = "server"
	ModuleSetting  Module = "setting"
	ModuleUpload   Module = "upload"
	ModuleChunking Module = "chunking"
)

type databaseConfig struct {
	Host         string `koanf:"host" validate:"required"`
	Port         int    `koanf:"port" validate:"required"`
	User         string `koanf:"user" validate:"required"`
	Password     string `koanf:"password"`
	Name         string `koanf:"name" validate:"required"`
	ReplicaHost  string `koanf:"replica_host"`
	ReplicaPort  int    `koanf:"replica_port"`
	MaxIdleConns int    `koanf:"max_idle_conns" validate:"required"`
	MaxOpenConns int    `koanf:"max_open_conns" validate:"required"`
	MaxLifetime  int    `koanf:"max_lifetime" validate:"required"`
}

type openaiConfig struct {
	Key   string `koanf:"key" validate:"required"`
	Model string `koanf:"model" validate:"required"`
}

type corsConfig struct {
	AllowOrigins []string `koanf:"allow_origins" validate:"required"`
	AllowMethods []string `koanf:"allow_methods" validate:"required"`
	AllowHeaders []string `koanf:"allow_headers" validate:"required"`
}

type s3Config struct {
	Endpoint  string `koanf:"endpoint" validate:"required"`
	AccessKey string `koanf:"access_key" validate:"required"`
	SecretKey string `koanf:"secret_key" validate:"required"`
	Region    string `koanf:"region" validate:"required"`
	UseSSL    bool   `koanf:"use_ssl"`
	Bucket    string `koanf:"bucket" validate:"required"`
}

// pipelineConfig carries process-wide run settings for the chunking pipeline.
// OverwriteExisting is a run-mode flag, not a per-request parameter.
type pipelineConfig struct {
	OverwriteExisting    bool   `koanf:"overwrite_existing"`
	Strategy             string `koanf:"strategy" validate:"oneof=intelligent legacy"`
	MaxWords             int    `koanf:"max_words" validate:"required"`
	FallbackChunks       int    `koanf:"fallback_chunks" validate:"required"`
	LegacyChunks         int    `koanf:"legacy_chunks" validate:"required"`
	RetryBaseDelayMs     int    `koanf:"retry_base_delay_ms" validate:"required"`
	StrictClassification bool   `koanf:"strict_classification"`
}

type config struct {
	Server   serverConfig   `koanf:"server"`
	Database databaseConfig `koanf:"database"`
	OpenAI   openaiConfig   `koanf:"openai"`
	LogLevel logLevel       `koanf:"log_level"`
	Dns      string         `koanf:"dns"`
	S3       s3Config       `koanf:"s3"`
	Cors     corsConfig     `koanf:"cors"`
	Pipeline pipelineConfig `koanf:"pipeline"`
}

func buildMySQLDSN(cfg databaseConfig) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Name,
	)
}

// ReplicaDSN returns the DSN for the optional read replica, or "" when no
// replica host is configured.
func ReplicaDSN() string {
	db := Cfg.Database
	if db.ReplicaHost == "" {
		return ""
	}
	port := db.ReplicaPort
	if port == 0 {
		port = db.Port
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		db.User,
		db.Password,
		db.ReplicaHost,
		port,
		db.Name,
	)
}

var defaultConfig = config{
	Server: serverConfig{
		Port:        8000,
		Mode:        "release",
		Concurrency: 256,
		BodyLimit:   64 << 20,
		AppName:     "book-chunker",
	},
	Database: databaseConfig{
		Host:         "127.0.0.1",
		Port:         3306,
		User:         "root",
		Password:     "",
		Name:         "books",
		MaxIdleConns: 1,
		MaxOpenConns: 20,
		MaxLifetime:  30,
	},
	OpenAI: openaiConfig{
		Key:   "",
		Model: "gpt-4o-2024-08-06",
	},
	LogLevel: Info,
	S3: s3Config{
		Endpoint:  "http://localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Region:    "us-east-1",
		UseSSL:    false,
		Bucket:    "books",
	},
	Cors: corsConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "Authorization"},
	},
	Pipeline: pipelineConfig{
		OverwriteExisting:    false,
		Strategy:             "intelligent",
		MaxWords:             700,
		FallbackChunks:       15,
		LegacyChunks:         18,
		RetryBaseDelayMs:     1000,
		StrictClassification: true,
	},
}

var (
	Cfg  = defaultConfig
	once sync.Once
)

// Init loads the config file (if present), applies APP_* env overrides and
// validates the result. Only the first call loads; later calls are no-ops.
func Init(path string) error {
	var initErr error
	once.Do(func() {
		k := koanf.New(".")

		validate := validator.New()
		// defaults
		Cfg = defaultConfig

		// file
		if e := k.Load(file.Provider(path), yaml.Parser()); e != nil && !os.IsNotExist(e) {
			initErr = e
			return
		}

		// env APP_SERVER_PORT -> server.port
		if e := k.Load(env.Provider("APP_", ".", func(s string) string {
			return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP_")), "_", ".")
		}), nil); e != nil {
			initErr = e
			return
		}

		// bind
		if e := k.Unmarshal("", &Cfg); e != nil {
			log.Errorf("failed to unmarshal config: %v", e)
			initErr = e
			return
		}

		if Cfg.Dns == "" {
			Cfg.Dns = buildMySQLDSN(Cfg.Database)
		}

		// validate config
		if err := validate.Struct(Cfg); err != nil {
			if errs, ok := err.(validator.ValidationErrors); ok {
				var sb strings.Builder
				sb.WriteString(fmt.Sprintf("%v Config validation failed:\n", ModuleSetting))

				for _, e := range errs {
					sb.WriteString(
						fmt.Sprintf("  - %s: failed '%s' (value: %v)\n", e.Field(), e.Tag(), e.Value()),
					)
				}

				log.Error(sb.String())
			} else {
				log.Errorf("config validation failed: %v", err)
			}
			initErr = err
		}
	})
	return initErr
}
