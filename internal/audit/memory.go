package audit

import "sync"

// MemorySink keeps records in memory. Used by tests to assert on exactly
// which records a gate emitted, and in what order.
type MemorySink struct {
	mu      sync.Mutex
	records []Record
}

// NewMemorySink creates an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Append implements Sink.
func (s *MemorySink) Append(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, rec)
	return nil
}

// TailLatest implements Sink.
func (s *MemorySink) TailLatest(n int) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs := s.records
	if n > 0 && len(recs) > n {
		recs = recs[len(recs)-n:]
	}
	out := make([]Record, len(recs))
	copy(out, recs)
	return out, nil
}

// Close implements Sink.
func (s *MemorySink) Close() error { return nil }

// All returns a copy of every record appended so far.
func (s *MemorySink) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// Len reports how many records have been appended.
func (s *MemorySink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
