// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// testValkeyClient returns a Redis client for tests.
// Skips if Valkey is unavailable.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15, // Use DB 15 for tests.
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping integration test: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, responseKeyPrefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		client.Close()
	})

	return client
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestConnectValkey(t *testing.T) {
	addr := envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379")

	client, err := ConnectValkey(context.Background(), addr, os.Getenv("VALKEY_PASSWORD"))
	if err != nil {
		t.Skipf("skipping: Valkey not available: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestResponseCacheSetGetInvalidate(t *testing.T) {
	rc := NewResponseCache(testValkeyClient(t), time.Minute)
	ctx := context.Background()

	if _, ok := rc.Get(ctx, "/api/blogs/trending"); ok {
		t.Fatal("expected miss on empty cache")
	}

	rc.Set(ctx, "/api/blogs/trending", []byte(`{"items":[]}`))
	rc.Set(ctx, "/api/tags/popular", []byte(`[]`))
	got, ok := rc.Get(ctx, "/api/blogs/trending")
	if !ok || string(got) != `{"items":[]}` {
		t.Errorf("get: got %q, %v", got, ok)
	}

	rc.InvalidateAll(ctx)
	if _, ok := rc.Get(ctx, "/api/tags/popular"); ok {
		t.Error("expected miss after InvalidateAll")
	}
}

func TestResponseCacheTTL(t *testing.T) {
	client := testValkeyClient(t)
	rc := NewResponseCache(client, 2*time.Second)
	ctx := context.Background()

	rc.Set(ctx, "/ttl", []byte("x"))
	ttl, err := client.TTL(ctx, responseKeyPrefix+"/ttl").Result()
	if err != nil {
		t.Fatalf("TTL: %v", err)
	}
	if ttl <= 0 || ttl > 2*time.Second {
		t.Errorf("ttl: got %v, want (0, 2s]", ttl)
	}

	if NewResponseCache(client, 0).ttl != DefaultResponseTTL {
		t.Error("zero ttl should use the default")
	}
}

func TestResponseCacheMiddleware(t *testing.T) {
	rc := NewResponseCache(testValkeyClient(t), time.Minute)

	calls := 0
	h := rc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Query().Get("fail") != "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"n":1}`))
	}))

	serve := func(path, auth string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("GET", path, nil)
		if auth != "" {
			req.Header.Set("Authorization", auth)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		return rr
	}

	if rr := serve("/api/blogs/popular?page=1", ""); rr.Header().Get("X-Cache") != "MISS" {
		t.Errorf("first request: X-Cache %q", rr.Header().Get("X-Cache"))
	}
	rr := serve("/api/blogs/popular?page=1", "")
	if rr.Header().Get("X-Cache") != "HIT" || rr.Body.String() != `{"n":1}` {
		t.Errorf("second request: X-Cache %q body %q", rr.Header().Get("X-Cache"), rr.Body.String())
	}
	if calls != 1 {
		t.Errorf("handler calls: got %d, want 1", calls)
	}

	// Different query, authenticated callers and errors bypass the cache.
	serve("/api/blogs/popular?page=2", "")
	serve("/api/blogs/popular?page=1", "Bearer x")
	serve("/api/blogs/popular?fail=1", "")
	serve("/api/blogs/popular?fail=1", "")
	if calls != 5 {
		t.Errorf("handler calls: got %d, want 5", calls)
	}
}

func TestKey(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"/api/tags/popular", "/api/tags/popular"},
		{"/api/blogs/trending?days=3", "/api/blogs/trending?days=3"},
	}
	for _, tt := range tests {
		if got := Key(httptest.NewRequest("GET", tt.url, nil)); got != tt.want {
			t.Errorf("Key(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
