package bytecode

import "time"

// Restarts counts the resets of the shared memory segment since the runtime
// started, by cause.
type Restarts struct {
	oom           int64
	hash          int64
	manual        int64
	startedAt     time.Time
	lastRestartAt time.Time
}

func NewRestarts(oom, hash, manual int64, startedAt, lastRestartAt time.Time) Restarts {
	return Restarts{
		oom:           oom,
		hash:          hash,
		manual:        manual,
		startedAt:     startedAt,
		lastRestartAt: lastRestartAt,
	}
}

// OutOfMemory counts restarts triggered by a full memory segment.
func (r Restarts) OutOfMemory() int64 {
	return r.oom
}

// HashOverflow counts restarts triggered by a full key table.
func (r Restarts) HashOverflow() int64 {
	return r.hash
}

func (r Restarts) Manual() int64 {
	return r.manual
}

func (r Restarts) Total() int64 {
	return r.oom + r.hash + r.manual
}

func (r Restarts) StartedAt() time.Time {
	return r.startedAt
}

// LastRestartAt is the zero time when the cache was never restarted.
func (r Restarts) LastRestartAt() time.Time {
	return r.lastRestartAt
}
