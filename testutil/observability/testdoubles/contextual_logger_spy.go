package testdoubles

import (
	"context"
	"sync"
)

// ContextualLoggerSpy is a lending.ContextualLogger implementation that captures contextual logging calls for testing.
type ContextualLoggerSpy struct {
	records     []SpyContextualLogRecord
	mu          sync.Mutex
	recordCalls bool
}

// SpyContextualLogRecord represents a recorded contextual log call.
type SpyContextualLogRecord struct {
	Level   string
	Message string
	Args    []any
	Context context.Context
}

// NewContextualLoggerSpy creates a new ContextualLoggerSpy instance.
func NewContextualLoggerSpy(recordCalls bool) *ContextualLoggerSpy {
	return &ContextualLoggerSpy{recordCalls: recordCalls}
}

func (s *ContextualLoggerSpy) record(ctx context.Context, level, msg string, args []any) {
	if !s.recordCalls {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, SpyContextualLogRecord{
		Level:   level,
		Message: msg,
		Args:    append([]any(nil), args...),
		Context: ctx,
	})
}

// DebugContext implements the ContextualLogger interface for testing.
func (s *ContextualLoggerSpy) DebugContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "debug", msg, args)
}

// InfoContext implements the ContextualLogger interface for testing.
func (s *ContextualLoggerSpy) InfoContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "info", msg, args)
}

// WarnContext implements the ContextualLogger interface for testing.
func (s *ContextualLoggerSpy) WarnContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "warn", msg, args)
}

// ErrorContext implements the ContextualLogger interface for testing.
func (s *ContextualLoggerSpy) ErrorContext(ctx context.Context, msg string, args ...any) {
	s.record(ctx, "error", msg, args)
}

// HasLog checks if a record with the given level and message was captured.
func (s *ContextualLoggerSpy) HasLog(level, message string) bool {
	return s.FindLog(level, message) != nil
}

// FindLog returns the first record with the given level and message, or nil.
func (s *ContextualLoggerSpy) FindLog(level, message string) *SpyContextualLogRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].Level == level && s.records[i].Message == message {
			record := s.records[i]
			return &record
		}
	}

	return nil
}

// HasLogWithAttr checks if a record with the given level and message carries the attribute key.
func (s *ContextualLoggerSpy) HasLogWithAttr(level, message, key string) bool {
	record := s.FindLog(level, message)
	if record == nil {
		return false
	}

	for i := 0; i+1 < len(record.Args); i += 2 {
		if k, ok := record.Args[i].(string); ok && k == key {
			return true
		}
	}

	return false
}

// CountLogs counts the records with the given level.
func (s *ContextualLoggerSpy) CountLogs(level string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, record := range s.records {
		if record.Level == level {
			count++
		}
	}

	return count
}
