package audit

// MultiSink fans appends out to several sinks. The first sink is the
// source of truth for reads. An append fails if any sink fails: an
// un-audited policy-relevant action is a compliance gap, so the request
// is failed rather than silently under-recorded.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink combines sinks. At least one is required for reads.
func NewMultiSink(sinks ...Sink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

// Append implements Sink.
func (m *MultiSink) Append(rec Record) error {
	for _, s := range m.sinks {
		if err := s.Append(rec); err != nil {
			return err
		}
	}
	return nil
}

// TailLatest implements Sink.
func (m *MultiSink) TailLatest(n int) ([]Record, error) {
	if len(m.sinks) == 0 {
		return nil, nil
	}
	return m.sinks[0].TailLatest(n)
}

// Close closes every sink, returning the first error.
func (m *MultiSink) Close() error {
	var first error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
