package service

import (
	"sync/atomic"
	"time"
)

// State: сводка для /healthz. Пишут раннер и стрим тикера, читает HTTP.
type State struct {
	ready     atomic.Bool
	startedAt time.Time

	wsConnected  atomic.Bool
	lastTickUnix atomic.Int64 // unix seconds
	phase        atomic.Value // string
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	s.phase.Store("")
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetWSConnected(v bool) { s.wsConnected.Store(v) }
func (s *State) WSConnected() bool     { return s.wsConnected.Load() }

func (s *State) SetPhase(p string) { s.phase.Store(p) }
func (s *State) Phase() string     { return s.phase.Load().(string) }

func (s *State) TouchTick(t time.Time) { s.lastTickUnix.Store(t.Unix()) }
func (s *State) LastTick() time.Time {
	u := s.lastTickUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

// Stale: тиков не было дольше maxAge (цикл завис или не стартовал).
func (s *State) Stale(now time.Time, maxAge time.Duration) bool {
	t := s.LastTick()
	if t.IsZero() || maxAge <= 0 {
		return false
	}
	return now.Sub(t) > maxAge
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }
