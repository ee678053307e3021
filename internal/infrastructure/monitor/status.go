package monitor

import "time"

// Status reports the reachability of each backing service.
type Status struct {
	Postgres  bool      `json:"postgres"`
	Redis     bool      `json:"redis"`
	CheckedAt time.Time `json:"checked_at"`
}

// Healthy reports whether every dependency answered its last probe.
func (s Status) Healthy() bool {
	return s.Postgres && s.Redis
}
