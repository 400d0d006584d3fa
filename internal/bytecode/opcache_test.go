package bytecode

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"os"
	"reflect"
	"testing"
	"time"
)

const tolerance = 0.001

func loadActiveStatus(t *testing.T) *Status {
	t.Helper()
	data, err := os.ReadFile("testdata/active_cache.json")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	status, err := ParseStatus(data)
	if err != nil {
		t.Fatalf("parsing fixture: %v", err)
	}
	return status
}

func loadConfiguration(t *testing.T) Configuration {
	t.Helper()
	data, err := os.ReadFile("testdata/configuration.json")
	if err != nil {
		t.Fatalf("reading fixture: %v", err)
	}
	var cfg Configuration
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("decoding fixture: %v", err)
	}
	return cfg
}

func setupOpcache(t *testing.T) (*PhpOpcache, *Status, Configuration) {
	t.Helper()
	status := loadActiveStatus(t)
	cfg := loadConfiguration(t)
	opcache, err := NewPhpOpcache(context.Background(), status, cfg)
	if err != nil {
		t.Fatalf("NewPhpOpcache: %v", err)
	}
	return opcache, status, cfg
}

func assertNear(t *testing.T, name string, want, got float64) {
	t.Helper()
	if math.Abs(want-got) > tolerance {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func TestPhpOpcache_ImplementsCache(t *testing.T) {
	opcache, _, _ := setupOpcache(t)
	var c Cache = opcache
	if !c.IsEnabled() {
		t.Error("expected cache to be enabled")
	}
}

func TestPhpOpcache_Memory(t *testing.T) {
	opcache, _, _ := setupOpcache(t)
	memory := opcache.Memory()

	assertNear(t, "UsedInMb", 29836904.0/1024/1024, memory.UsedInMb())
	assertNear(t, "WastedInMb", 6619288.0/1024/1024, memory.WastedInMb())
	assertNear(t, "SizeInMb", 64.0, memory.SizeInMb())
	assertNear(t, "FreeInMb", 30652672.0/1024/1024, memory.FreeInMb())
	if memory.IsFull() {
		t.Error("cache with free memory reported as full")
	}
}

func TestPhpOpcache_Statistics(t *testing.T) {
	opcache, _, _ := setupOpcache(t)
	stats := opcache.Statistics()

	if stats.Hits() != 5247 {
		t.Errorf("Hits = %d, want 5247", stats.Hits())
	}
	if stats.Misses() != 989 {
		t.Errorf("Misses = %d, want 989", stats.Misses())
	}
	assertNear(t, "HitRateInPercent", 84.140474663245669, stats.HitRateInPercent())
}

func TestPhpOpcache_Restarts(t *testing.T) {
	opcache, _, _ := setupOpcache(t)
	restarts := opcache.Restarts()

	if restarts.Total() != 0 {
		t.Errorf("Total = %d, want 0", restarts.Total())
	}
	if want := time.Unix(1398521435, 0).UTC(); !restarts.StartedAt().Equal(want) {
		t.Errorf("StartedAt = %v, want %v", restarts.StartedAt(), want)
	}
	if !restarts.LastRestartAt().IsZero() {
		t.Errorf("LastRestartAt = %v, want zero for a cache never restarted", restarts.LastRestartAt())
	}

	status := loadActiveStatus(t)
	status.Statistics.OOMRestarts = 2
	status.Statistics.HashRestarts = 1
	status.Statistics.ManualRestarts = 4
	status.Statistics.LastRestartTime = 1398521500
	restarted, err := NewPhpOpcache(context.Background(), status, nil)
	if err != nil {
		t.Fatalf("NewPhpOpcache: %v", err)
	}
	got := restarted.Restarts()
	if got.OutOfMemory() != 2 || got.HashOverflow() != 1 || got.Manual() != 4 || got.Total() != 7 {
		t.Errorf("Restarts = %+v", got)
	}
	if want := time.Unix(1398521500, 0).UTC(); !got.LastRestartAt().Equal(want) {
		t.Errorf("LastRestartAt = %v, want %v", got.LastRestartAt(), want)
	}
}

func TestPhpOpcache_Scripts(t *testing.T) {
	opcache, status, _ := setupOpcache(t)
	scripts := opcache.Scripts()

	if scripts.Count() != len(status.Scripts) {
		t.Errorf("Count = %d, want %d", scripts.Count(), len(status.Scripts))
	}
	if int64(scripts.Count()) != status.Statistics.NumCachedScripts {
		t.Errorf("Count = %d, want num_cached_scripts %d", scripts.Count(), status.Statistics.NumCachedScripts)
	}

	slots := scripts.Slots()
	if slots.Max() != status.Statistics.MaxCachedKeys {
		t.Errorf("Slots().Max() = %d, want %d", slots.Max(), status.Statistics.MaxCachedKeys)
	}
	if slots.Used() != status.Statistics.NumCachedScripts {
		t.Errorf("Slots().Used() = %d, want %d", slots.Used(), status.Statistics.NumCachedScripts)
	}
	wasted := status.Statistics.NumCachedKeys - status.Statistics.NumCachedScripts
	if slots.Wasted() != wasted {
		t.Errorf("Slots().Wasted() = %d, want %d", slots.Wasted(), wasted)
	}
}

func TestPhpOpcache_ScriptDetails(t *testing.T) {
	opcache, _, _ := setupOpcache(t)

	wantPaths := []string{
		"/var/www/app/web/app.php",
		"/var/www/app/app/AppKernel.php",
		"/var/www/app/vendor/autoload.php",
	}

	// enumerate twice, the collection must be restartable
	for pass := 0; pass < 2; pass++ {
		i := 0
		for s := range opcache.Scripts().All() {
			if i >= len(wantPaths) {
				t.Fatalf("pass %d: more scripts than expected", pass)
			}
			if s.FullPath() != wantPaths[i] {
				t.Errorf("pass %d: script %d = %q, want %q", pass, i, s.FullPath(), wantPaths[i])
			}
			i++
		}
		if i != len(wantPaths) {
			t.Errorf("pass %d: iterated %d scripts, want %d", pass, i, len(wantPaths))
		}
	}

	first := opcache.Scripts().Scripts()[0]
	assertNear(t, "MemoryConsumptionInMb", 3784.0/1024/1024, first.MemoryConsumptionInMb())
	if first.Hits() != 41 {
		t.Errorf("Hits = %d, want 41", first.Hits())
	}
	if first.LastUsedAt().Unix() != 1398521560 {
		t.Errorf("LastUsedAt = %v, want unix 1398521560", first.LastUsedAt())
	}
}

func TestPhpOpcache_Configuration(t *testing.T) {
	opcache, _, cfg := setupOpcache(t)

	got := opcache.Configuration()
	if !reflect.DeepEqual(got, cfg) {
		t.Errorf("Configuration() = %v, want %v", got, cfg)
	}
	if reflect.ValueOf(got).Pointer() != reflect.ValueOf(cfg).Pointer() {
		t.Error("Configuration() returned a copy instead of the supplied map")
	}
}

func TestPhpOpcache_WithoutArguments(t *testing.T) {
	opcache, err := NewPhpOpcache(context.Background(), nil, nil)
	if err != nil {
		t.Fatalf("NewPhpOpcache: %v", err)
	}
	if opcache.IsEnabled() {
		t.Error("expected disabled cache without a runtime")
	}
	if opcache.Configuration() == nil {
		t.Error("expected empty configuration, got nil")
	}
}

func TestPhpOpcache_Unavailable(t *testing.T) {
	status, err := ParseStatus([]byte("false"))
	if err != nil {
		t.Fatalf("ParseStatus(false): %v", err)
	}
	opcache, err := NewPhpOpcache(context.Background(), status, nil)
	if err != nil {
		t.Fatalf("NewPhpOpcache: %v", err)
	}

	if opcache.IsEnabled() {
		t.Error("expected disabled cache")
	}
	if m := opcache.Memory(); m != NewMemory(0, 0, 0) {
		t.Errorf("Memory() = %+v, want zero", m)
	}
	if s := opcache.Statistics(); s != NewStatistics(0, 0) {
		t.Errorf("Statistics() = %+v, want zero", s)
	}
	if r := opcache.Restarts(); r != (Restarts{}) {
		t.Errorf("Restarts() = %+v, want zero", r)
	}
	scripts := opcache.Scripts()
	if scripts.Count() != 0 {
		t.Errorf("Scripts().Count() = %d, want 0", scripts.Count())
	}
	if scripts.Slots() != NewScriptSlots(0, 0, 0) {
		t.Errorf("Scripts().Slots() = %+v, want zero", scripts.Slots())
	}
}

func TestPhpOpcache_StatusFunc(t *testing.T) {
	active := loadActiveStatus(t)
	called := 0
	fn := func(context.Context) (*Status, error) {
		called++
		return active, nil
	}

	opcache, err := NewPhpOpcache(context.Background(), nil, nil, WithStatusFunc(fn))
	if err != nil {
		t.Fatalf("NewPhpOpcache: %v", err)
	}
	if called != 1 {
		t.Errorf("status func called %d times, want 1", called)
	}
	if !opcache.IsEnabled() {
		t.Error("expected enabled cache from status func")
	}

	// accessors never go back to the supplier
	opcache.Memory()
	opcache.Scripts()
	if called != 1 {
		t.Errorf("status func called %d times after accessors, want 1", called)
	}

	// an explicit snapshot wins over the supplier
	if _, err := NewPhpOpcache(context.Background(), active, nil, WithStatusFunc(fn)); err != nil {
		t.Fatalf("NewPhpOpcache: %v", err)
	}
	if called != 1 {
		t.Errorf("status func called for explicit snapshot")
	}
}

func TestPhpOpcache_StatusFuncError(t *testing.T) {
	fn := func(context.Context) (*Status, error) {
		return nil, errors.New("connection refused")
	}
	opcache, err := NewPhpOpcache(context.Background(), nil, nil, WithStatusFunc(fn))
	if err != nil {
		t.Fatalf("NewPhpOpcache: %v", err)
	}
	if opcache.IsEnabled() {
		t.Error("expected fallback after supplier error")
	}
}

func TestPhpOpcache_IncompleteStatus(t *testing.T) {
	tests := []struct {
		name   string
		status *Status
	}{
		{"missing memory usage", &Status{Enabled: true, Statistics: &StatusStatistics{}}},
		{"missing statistics", &Status{Enabled: true, MemoryUsage: &MemoryUsage{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPhpOpcache(context.Background(), tt.status, nil)
			if !errors.Is(err, ErrIncompleteStatus) {
				t.Errorf("err = %v, want ErrIncompleteStatus", err)
			}
		})
	}
}

func TestPhpOpcache_MissingScriptsIsEmpty(t *testing.T) {
	status, err := ParseStatus([]byte(`{
		"opcache_enabled": true,
		"memory_usage": {"used_memory": 1, "free_memory": 1, "wasted_memory": 0},
		"opcache_statistics": {"hits": 1, "misses": 0, "num_cached_scripts": 2, "num_cached_keys": 2, "max_cached_keys": 10}
	}`))
	if err != nil {
		t.Fatalf("ParseStatus: %v", err)
	}
	opcache, err := NewPhpOpcache(context.Background(), status, nil)
	if err != nil {
		t.Fatalf("NewPhpOpcache: %v", err)
	}
	scripts := opcache.Scripts()
	if scripts.Count() != 0 {
		t.Errorf("Count = %d, want 0", scripts.Count())
	}
	if scripts.Slots().Used() != 2 {
		t.Errorf("Slots().Used() = %d, want 2", scripts.Slots().Used())
	}
}
