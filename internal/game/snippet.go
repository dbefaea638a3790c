package game

import "time"

// DefaultSnippetDuration is how long a snippet plays before auto-pausing.
const DefaultSnippetDuration = 15 * time.Second

// Scheduler schedules a single deferred function call. The returned cancel
// function stops the call if it has not fired yet.
//
// The engine owns exactly one scheduled task at a time (the snippet
// auto-pause); injecting the scheduler lets tests drive it synchronously.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) (cancel func())
}

type timerScheduler struct{}

func (timerScheduler) AfterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// NewTimerScheduler returns the production Scheduler backed by [time.AfterFunc].
func NewTimerScheduler() Scheduler {
	return timerScheduler{}
}

// snippetSession tracks the playback lifecycle within a single turn.
type snippetSession struct {
	playCount int
	playing   bool
	cancel    func()
}

// cancelTimer stops any pending auto-pause without touching play counts.
func (s *snippetSession) cancelTimer() {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// reset clears the session for a new song.
func (s *snippetSession) reset() {
	s.cancelTimer()
	s.playCount = 0
	s.playing = false
}
