package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" || cfg.Store != StoreRedis {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.Backend.URL != "http://localhost:3000" || cfg.Backend.Timeout != 10*time.Second {
		t.Errorf("unexpected backend defaults %+v", cfg.Backend)
	}
	if cfg.Session.RevalidateAfter != 5*time.Minute || cfg.Session.TTL != 720*time.Hour {
		t.Errorf("unexpected session defaults %+v", cfg.Session)
	}
	if cfg.Session.Secret != devSecret {
		t.Error("development should fall back to the dev secret")
	}
	if cfg.Mongo.URI != "" {
		t.Error("mongo is disabled by default")
	}
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(context.Background(), envconfig.MapLookuper(map[string]string{
		"BACKEND_URL":     "https://api.example.com",
		"REFRESH_TIMEOUT": "2s",
		"STORE":           "memory",
		"SESSION_SECRET":  "s3cret",
		"ENV":             "production",
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Backend.URL != "https://api.example.com" || cfg.Backend.RefreshTimeout != 2*time.Second {
		t.Errorf("unexpected backend %+v", cfg.Backend)
	}
	if cfg.Store != StoreMemory || cfg.Session.Secret != "s3cret" || cfg.IsDevelopment() {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad store":            {"STORE": "disk"},
		"secret in prod":       {"ENV": "production"},
		"non-positive timeout": {"BACKEND_TIMEOUT": "0s"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := load(context.Background(), envconfig.MapLookuper(env))
			if err == nil || !strings.HasPrefix(err.Error(), "config:") {
				t.Fatalf("expected config error, got %v", err)
			}
		})
	}
}
