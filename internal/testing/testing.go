// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"time"

	"github.com/desertthunder/tuneline/internal/services"
)

// MockCatalog is a configurable test double for [services.Catalog].
// Unset hooks return empty results.
type MockCatalog struct {
	ListPlaylistsFn func(ctx context.Context, limit, offset int) (*services.PlaylistPage, error)
	ListTracksFn    func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error)
	PlayFn          func(ctx context.Context, spec services.PlaySpec) error
	PauseFn         func(ctx context.Context) error

	PlayCalls  []services.PlaySpec
	PauseCalls int
}

func (m *MockCatalog) ListPlaylists(ctx context.Context, limit, offset int) (*services.PlaylistPage, error) {
	if m.ListPlaylistsFn != nil {
		return m.ListPlaylistsFn(ctx, limit, offset)
	}
	return &services.PlaylistPage{}, nil
}

func (m *MockCatalog) ListTracks(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
	if m.ListTracksFn != nil {
		return m.ListTracksFn(ctx, playlistID, limit, offset)
	}
	return &services.TrackPage{}, nil
}

func (m *MockCatalog) Play(ctx context.Context, spec services.PlaySpec) error {
	m.PlayCalls = append(m.PlayCalls, spec)
	if m.PlayFn != nil {
		return m.PlayFn(ctx, spec)
	}
	return nil
}

func (m *MockCatalog) Pause(ctx context.Context) error {
	m.PauseCalls++
	if m.PauseFn != nil {
		return m.PauseFn(ctx)
	}
	return nil
}

func (m *MockCatalog) Name() string { return "mock" }

// FakeScheduler implements game.Scheduler and lets tests fire or cancel the
// pending task explicitly instead of waiting on real timers.
type FakeScheduler struct {
	Pending   func()
	Duration  time.Duration
	Cancelled int
	Scheduled int
}

func (s *FakeScheduler) AfterFunc(d time.Duration, fn func()) func() {
	s.Pending = fn
	s.Duration = d
	s.Scheduled++
	return func() {
		if s.Pending != nil {
			s.Pending = nil
			s.Cancelled++
		}
	}
}

// Fire runs the pending task, if any, as if the timer elapsed.
func (s *FakeScheduler) Fire() {
	if s.Pending != nil {
		fn := s.Pending
		s.Pending = nil
		fn()
	}
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}
