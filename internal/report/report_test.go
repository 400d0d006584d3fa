package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/muandane/opcachestat/internal/bytecode"
)

func activeCache(t *testing.T) bytecode.Cache {
	t.Helper()
	status, err := bytecode.ParseStatus([]byte(`{
		"opcache_enabled": true,
		"memory_usage": {"used_memory": 33554432, "free_memory": 25165824, "wasted_memory": 8388608},
		"opcache_statistics": {"hits": 12345, "misses": 55, "num_cached_scripts": 2, "num_cached_keys": 3, "max_cached_keys": 7963},
		"scripts": [
			{"full_path": "/srv/app/index.php", "hits": 10, "memory_consumption": 4096, "last_used_timestamp": 1700000000},
			{"full_path": "/srv/app/kernel.php", "hits": 2000, "memory_consumption": 2048, "last_used_timestamp": 1699999000}
		]
	}`))
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	cache, err := bytecode.NewPhpOpcache(context.Background(), status, nil)
	if err != nil {
		t.Fatalf("NewPhpOpcache: %v", err)
	}
	return cache
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	err := Write(&buf, activeCache(t), Options{
		Sort: bytecode.SortByHits,
		Top:  1,
		Now:  time.Unix(1700000060, 0),
	})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"opcache: enabled",
		"32 MiB",
		"50.0%",
		"12,345",
		"hit rate",
		"99.56%",
		"2 used / 1 wasted / 7,963 max",
		"scripts (1 of 2)",
		"/srv/app/kernel.php",
		"2,000",
		"17 minutes ago",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "/srv/app/index.php") {
		t.Errorf("report lists script beyond top limit:\n%s", out)
	}
}

func TestWrite_Disabled(t *testing.T) {
	cache, err := bytecode.NewPhpOpcache(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("NewPhpOpcache: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(&buf, cache, Options{Top: -1}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got := strings.TrimSpace(buf.String()); got != "opcache: disabled or unavailable" {
		t.Errorf("report = %q", got)
	}
}
