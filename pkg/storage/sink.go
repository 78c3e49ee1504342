package storage

import (
	"context"
	"errors"

	"hockeyscraper/pkg/models"
)

// RecordSink persists player records one at a time
type RecordSink interface {
	// Write stores one record durably before returning
	Write(ctx context.Context, rec models.PlayerRecord) error
	// Close releases the underlying resources
	Close() error
}

// MultiSink fans each record out to every sink in order
type MultiSink struct {
	sinks []RecordSink
}

// NewMultiSink combines sinks. Nil entries are skipped.
func NewMultiSink(sinks ...RecordSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Write forwards rec to every sink and joins their errors
func (m *MultiSink) Write(ctx context.Context, rec models.PlayerRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink and joins their errors
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Len returns the number of wrapped sinks
func (m *MultiSink) Len() int {
	return len(m.sinks)
}
