package config

import (
	"strings"
	"testing"
	"time"
)

func validBase() Config {
	return Config{
		App:    AppConfig{Env: "local", Port: 8080},
		DB:     DBConfig{Host: "localhost", Port: 5432, User: "postgres", Password: "x", Name: "receptionist"},
		Redis:  RedisConfig{Host: "localhost", Port: 6379},
		Auth:   AuthConfig{JWTSecret: "secret"},
		Agent:  AgentConfig{StreamURL: "wss://agent.example.com/convai", AgentID: "agent_123", APIKey: "sk-test"},
		Ingest: IngestConfig{Token: "agent-secret"},
	}
}

func TestValidate_ReportsMissingRequired(t *testing.T) {
	c := Config{}
	if err := c.Validate(); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestValidate_ProductionRequiresSSLMode(t *testing.T) {
	c := validBase()
	c.App.Env = "production"
	c.Auth.JWTIssuer = "issuer"
	c.Auth.JWTAudience = "aud"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "DB_SSLMODE") {
		t.Fatalf("expected error for production without DB_SSLMODE, got %v", err)
	}
}

func TestValidate_LocalDefaults(t *testing.T) {
	c := validBase()
	if err := c.Validate(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if c.DB.SSLMode != "disable" {
		t.Fatalf("expected sslmode disable default, got %q", c.DB.SSLMode)
	}
	if c.Agent.DedupTTL != time.Hour {
		t.Fatalf("expected dedup ttl default, got %v", c.Agent.DedupTTL)
	}
	if c.Auth.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected access ttl default, got %v", c.Auth.AccessTokenTTL)
	}
}

func TestValidate_RequiresSecureStreamURL(t *testing.T) {
	c := validBase()
	c.Agent.StreamURL = "https://agent.example.com/convai"
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "AGENT_STREAM_URL") {
		t.Fatalf("expected wss scheme error, got %v", err)
	}
}

func TestValidate_RequiresIngestToken(t *testing.T) {
	c := validBase()
	c.Ingest.Token = ""
	if err := c.Validate(); err == nil || !strings.Contains(err.Error(), "INGEST_TOKEN") {
		t.Fatalf("expected ingest token error, got %v", err)
	}
}
