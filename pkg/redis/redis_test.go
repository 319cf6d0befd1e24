package redis

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func getTestConfig() *Config {
	cfg := DefaultConfig()

	if host := os.Getenv("TEST_REDIS_HOST"); host != "" {
		cfg.Host = host
	}
	if password := os.Getenv("TEST_REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}

	return cfg
}

func integrationClient(t *testing.T) *Client {
	t.Helper()
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}

	client, err := NewClient(context.Background(), getTestConfig())
	if err != nil {
		t.Fatalf("Failed to connect to redis: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Host != "localhost" {
		t.Errorf("Expected host 'localhost', got '%s'", cfg.Host)
	}
	if cfg.Port != 6379 {
		t.Errorf("Expected port 6379, got %d", cfg.Port)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("Expected max retries 3, got %d", cfg.MaxRetries)
	}
}

func TestConfig_Addr(t *testing.T) {
	cfg := &Config{Host: "redis.example.com", Port: 6380}

	if cfg.Addr() != "redis.example.com:6380" {
		t.Errorf("Expected addr 'redis.example.com:6380', got '%s'", cfg.Addr())
	}
}

func TestNewClient_InvalidConfig(t *testing.T) {
	cfg := &Config{
		Host:          "invalid-host-that-does-not-exist",
		Port:          9999,
		MaxRetries:    0,
		RetryInterval: 100 * time.Millisecond,
		DialTimeout:   500 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := NewClient(ctx, cfg); err == nil {
		t.Error("Expected error for invalid config, got nil")
	}
}

func TestNewClient_StopsRetryingOnCancel(t *testing.T) {
	cfg := &Config{
		Host:          "invalid-host-that-does-not-exist",
		Port:          9999,
		MaxRetries:    50,
		RetryInterval: time.Second,
		DialTimeout:   100 * time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, err := NewClient(ctx, cfg); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("NewClient kept retrying after cancel: %v", elapsed)
	}
}

// Integration tests - require Redis to be running

func TestClient_HealthCheck_Integration(t *testing.T) {
	client := integrationClient(t)

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck failed: %v", err)
	}
}

func TestClient_JSON_Integration(t *testing.T) {
	client := integrationClient(t)
	ctx := context.Background()

	type payload struct {
		Date  string `json:"date"`
		Price string `json:"price"`
	}

	key := "test:json:" + time.Now().Format("20060102150405.000")
	defer client.Del(ctx, key)

	var got payload
	if err := client.GetJSON(ctx, key, &got); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Expected ErrCacheMiss, got %v", err)
	}

	want := payload{Date: "2024-06-01", Price: "150.00"}
	if err := client.SetJSON(ctx, key, want, time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	if err := client.GetJSON(ctx, key, &got); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestClient_DeletePrefix_Integration(t *testing.T) {
	client := integrationClient(t)
	ctx := context.Background()

	prefix := "test:prefix:" + time.Now().Format("20060102150405.000") + ":"
	for _, suffix := range []string{"a", "b", "c"} {
		if err := client.SetJSON(ctx, prefix+suffix, suffix, time.Minute); err != nil {
			t.Fatalf("SetJSON failed: %v", err)
		}
	}
	other := prefix[:len(prefix)-1] + "-other"
	if err := client.SetJSON(ctx, other, "x", time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	defer client.Del(ctx, other)

	deleted, err := client.DeletePrefix(ctx, prefix)
	if err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if deleted != 3 {
		t.Errorf("Expected 3 deleted, got %d", deleted)
	}

	var s string
	if err := client.GetJSON(ctx, other, &s); err != nil {
		t.Errorf("Key outside prefix should survive: %v", err)
	}
}
