// Package memory is an in-process dataset source with a controllable
// fingerprint. Tests use it to drive the cache and the HTTP layer.
package memory

import (
	"context"
	"strconv"
	"sync"

	"semmelweis/internal/core"
	"semmelweis/internal/dataset"
)

type Source struct {
	mu      sync.Mutex
	records []core.Record
	err     error
	version int
	loads   int
}

var _ dataset.Source = (*Source)(nil)

func New(records []core.Record) *Source {
	return &Source{records: append([]core.Record(nil), records...)}
}

func (s *Source) Name() string { return "memory" }

// Set replaces the records and bumps the fingerprint.
func (s *Source) Set(records []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append([]core.Record(nil), records...)
	s.err = nil
	s.version++
}

// Fail makes every following Load return err until Set is called.
func (s *Source) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
	s.version++
}

func (s *Source) Fingerprint(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return "mem:" + strconv.Itoa(s.version), nil
}

func (s *Source) Load(_ context.Context) ([]core.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.err != nil {
		return nil, s.err
	}
	return append([]core.Record(nil), s.records...), nil
}

// Loads reports how many times Load ran.
func (s *Source) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}
