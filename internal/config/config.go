package config

import (
	"encoding/json"
	"os"
	"time"
)

// Create new config instance
func NewConfig() *Config {
	return &Config{}
}

// Load configuration file in json format. A missing file is not an error;
// the config falls back to defaults so the service can run out of the box.
func (c *Config) Read(file string) error {
	data, err := os.ReadFile(file)
	if err == nil {
		if err := json.Unmarshal(data, c); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	c.applyDefaults()
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Upload.MaxRequestBodyMB == 0 {
		c.Upload.MaxRequestBodyMB = 16
	}
	if c.Audit.FetchConcurrency == 0 {
		c.Audit.FetchConcurrency = 3
	}
	if c.Audit.UserAgent == "" {
		c.Audit.UserAgent = "seolyze-imageaudit/1.0"
	}
	if c.Convert.BatchSize == 0 {
		c.Convert.BatchSize = 3
	}
	if c.Static.Backend == "" {
		c.Static.Backend = "local"
	}
	if c.Static.Dir == "" {
		c.Static.Dir = "static"
	}
	if c.Static.BaseURL == "" {
		c.Static.BaseURL = "/static"
	}
}
