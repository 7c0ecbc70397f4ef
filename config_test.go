package main

import (
	"net/http/httptest"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		audienceIdle:  24 * time.Hour,
		bind:          "0.0.0.0",
		corsOrigins:   []string{"*"},
		mongoDatabase: "liarliar",
		port:          3001,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"tls pair", func(c *Config) { c.tlsCert, c.tlsKey = "cert.pem", "key.pem" }, false},
		{"cert without key", func(c *Config) { c.tlsCert = "cert.pem" }, true},
		{"key without cert", func(c *Config) { c.tlsKey = "key.pem" }, true},
		{"port zero", func(c *Config) { c.port = 0 }, true},
		{"port too large", func(c *Config) { c.port = 65536 }, true},
		{"negative idle timeout", func(c *Config) { c.audienceIdle = -time.Minute }, true},
		{"negative purge", func(c *Config) { c.audiencePurge = -time.Minute }, true},
		{"purge before idle", func(c *Config) { c.audiencePurge = time.Hour }, true},
		{"purge after idle", func(c *Config) { c.audiencePurge = 48 * time.Hour }, false},
		{"purge with idle disabled", func(c *Config) { c.audienceIdle, c.audiencePurge = 0, time.Hour }, false},
		{"mongo without database", func(c *Config) { c.mongoURI, c.mongoDatabase = "mongodb://localhost", "" }, true},
		{"memory without database", func(c *Config) { c.mongoDatabase = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(&cfg)

			err := cfg.validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestScheme(t *testing.T) {
	cfg := validConfig()
	if got := cfg.scheme(); got != "http" {
		t.Errorf("scheme = %q, want http", got)
	}

	cfg.tlsCert, cfg.tlsKey = "cert.pem", "key.pem"
	if got := cfg.scheme(); got != "https" {
		t.Errorf("scheme = %q, want https", got)
	}
}

func TestAllowOrigin(t *testing.T) {
	tests := []struct {
		name    string
		origins []string
		origin  string
		want    bool
	}{
		{"wildcard", []string{"*"}, "https://anywhere.example", true},
		{"no origin header", []string{"https://show.example"}, "", true},
		{"listed", []string{"https://show.example", "https://admin.example"}, "https://admin.example", true},
		{"listed with trailing slash", []string{"https://show.example/"}, "https://show.example", true},
		{"case differs", []string{"https://Show.Example"}, "https://show.example", true},
		{"not listed", []string{"https://show.example"}, "https://evil.example", false},
		{"empty list", nil, "https://show.example", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{corsOrigins: tt.origins}

			r := httptest.NewRequest("GET", "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}

			if got := cfg.allowOrigin(r); got != tt.want {
				t.Errorf("allowOrigin(%q) = %v, want %v", tt.origin, got, tt.want)
			}
		})
	}
}

func TestEnvOverridesDefaults(t *testing.T) {
	t.Setenv("LIARLIAR_PORT", "4000")
	t.Setenv("MONGODB_URI", "mongodb://db:27017")
	t.Setenv("LIARLIAR_CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LIARLIAR_AUDIENCE_IDLE_TIMEOUT", "2h")

	cfg := &Config{}
	newCmd(cfg)

	if cfg.port != 4000 {
		t.Errorf("port = %d, want 4000", cfg.port)
	}
	if cfg.mongoURI != "mongodb://db:27017" {
		t.Errorf("mongo uri = %q", cfg.mongoURI)
	}
	if len(cfg.corsOrigins) != 2 || cfg.corsOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.corsOrigins)
	}
	if cfg.audienceIdle != 2*time.Hour {
		t.Errorf("idle timeout = %s, want 2h", cfg.audienceIdle)
	}
	if cfg.mongoDatabase != "liarliar" {
		t.Errorf("database = %q, want the default", cfg.mongoDatabase)
	}
}
