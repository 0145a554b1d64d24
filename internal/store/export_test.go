package store

import "time"

// SetShuffle replaces the random source used for shuffling. Test hook.
func (s *QuizStore) SetShuffle(fn func(n int, swap func(i, j int))) {
	s.shuffle = fn
}

// SetNow replaces the clock used for question timestamps. Test hook.
func (s *QuizStore) SetNow(fn func() time.Time) {
	s.now = fn
}
