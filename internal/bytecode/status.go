package bytecode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrIncompleteStatus is returned for snapshots that are objects but lack a
// section the accessors depend on.
var ErrIncompleteStatus = errors.New("incomplete opcache status")

// Status is the raw snapshot reported by the runtime, as produced by
// opcache_get_status().
type Status struct {
	Enabled     bool              `json:"opcache_enabled"`
	MemoryUsage *MemoryUsage      `json:"memory_usage"`
	Statistics  *StatusStatistics `json:"opcache_statistics"`
	Scripts     ScriptStatusList  `json:"scripts"`
}

// MemoryUsage figures are byte counts.
type MemoryUsage struct {
	UsedMemory   int64 `json:"used_memory"`
	FreeMemory   int64 `json:"free_memory"`
	WastedMemory int64 `json:"wasted_memory"`
}

type StatusStatistics struct {
	Hits             int64 `json:"hits"`
	Misses           int64 `json:"misses"`
	NumCachedScripts int64 `json:"num_cached_scripts"`
	NumCachedKeys    int64 `json:"num_cached_keys"`
	MaxCachedKeys    int64 `json:"max_cached_keys"`
	OOMRestarts      int64 `json:"oom_restarts"`
	HashRestarts     int64 `json:"hash_restarts"`
	ManualRestarts   int64 `json:"manual_restarts"`
	StartTime        int64 `json:"start_time"`
	LastRestartTime  int64 `json:"last_restart_time"`
}

type ScriptStatus struct {
	FullPath          string `json:"full_path"`
	Hits              int64  `json:"hits"`
	MemoryConsumption int64  `json:"memory_consumption"`
	LastUsedTimestamp int64  `json:"last_used_timestamp"`
}

// ScriptStatusList decodes both a JSON array of scripts and a JSON object
// keyed by path. Object key order is kept.
type ScriptStatusList []ScriptStatus

func (l *ScriptStatusList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}

	switch data[0] {
	case '[':
		var list []ScriptStatus
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*l = list
		return nil
	case '{':
		return l.unmarshalObject(data)
	}
	return fmt.Errorf("scripts: expected array or object, got %.10q", data)
}

func (l *ScriptStatusList) unmarshalObject(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return err
	}

	list := ScriptStatusList{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		path, _ := tok.(string)

		var script ScriptStatus
		if err := dec.Decode(&script); err != nil {
			return fmt.Errorf("script %q: %w", path, err)
		}
		if script.FullPath == "" {
			script.FullPath = path
		}
		list = append(list, script)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*l = list
	return nil
}

// ParseStatus decodes a JSON encoded status. Input that is not a JSON object
// (false, null, empty, scalars, arrays) means no snapshot is available and
// yields a nil status without error.
func ParseStatus(data []byte) (*Status, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, nil
	}

	var status Status
	if err := json.Unmarshal(data, &status); err != nil {
		return nil, fmt.Errorf("decoding opcache status: %w", err)
	}
	return &status, nil
}

// Normalize substitutes the fallback status for a missing snapshot.
func Normalize(status *Status) *Status {
	if status == nil {
		return FallbackStatus()
	}
	return status
}

// FallbackStatus describes a disabled, empty cache.
func FallbackStatus() *Status {
	return &Status{
		Enabled:     false,
		MemoryUsage: &MemoryUsage{},
		Statistics:  &StatusStatistics{},
		Scripts:     ScriptStatusList{},
	}
}

func (s *Status) validate() error {
	if s.MemoryUsage == nil {
		return fmt.Errorf("%w: missing memory_usage", ErrIncompleteStatus)
	}
	if s.Statistics == nil {
		return fmt.Errorf("%w: missing opcache_statistics", ErrIncompleteStatus)
	}
	return nil
}
