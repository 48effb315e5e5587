package config

import "time"

type Config struct {
	Server  ServerConfig  `json:"server"`
	Upload  UploadConfig  `json:"upload"`
	Audit   AuditConfig   `json:"audit"`
	Convert ConvertConfig `json:"convert"`
	Static  StaticConfig  `json:"static"`
	R2      R2Config      `json:"r2"`
	Sentry  SentryConfig  `json:"sentry"`
}

type ServerConfig struct {
	Port         int           `json:"port"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

type UploadConfig struct {
	MaxRequestBodyMB int64 `json:"max_request_body"`
}

type AuditConfig struct {
	FetchConcurrency int    `json:"fetch_concurrency"` // parallel image fetches per URL audit
	UserAgent        string `json:"user_agent"`
}

type ConvertConfig struct {
	BatchSize         int `json:"batch_size"`         // items re-encoded concurrently within one job
	GlobalConcurrency int `json:"global_concurrency"` // ceiling across all jobs; 0 disables
}

type StaticConfig struct {
	Backend string `json:"backend"` // "local" or "r2"
	Dir     string `json:"dir"`
	BaseURL string `json:"base_url"`
}

type R2Config struct {
	AccountID     string `json:"account_id"`
	BucketName    string `json:"bucket_name"`
	AccessKeyID   string `json:"access_key_id"`
	SecretKey     string `json:"secret_key"`
	PublicBaseURL string `json:"public_base_url"`
}

type SentryConfig struct {
	SentryDSN   string `json:"sentry_dsn"`
	Environment string `json:"environment"`
}
