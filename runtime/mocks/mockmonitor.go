package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pborman/uuid"

	"github.com/ddossot/jruby-rack-worker/runtime"
)

// An Entry is a single diagnostic recorded by a MockMonitor.
type Entry struct {
	Level   string // "debug", "info", "warn", "error"
	Message string
	Error   error
	Prefix  string
	Tags    map[string]string
}

type entryLog struct {
	m       sync.Mutex
	entries []Entry
}

// MockMonitor implements runtime.Monitor for use in unit tests, recording
// all entries so tests can assert on diagnostics.
//
// If panicOnError is set this will panic if Error() or ReportError() is
// called. This is often useful for testing components that take a Monitor
// as argument and are not expected to fail.
type MockMonitor struct {
	tags         map[string]string
	prefix       string
	panicOnError bool
	log          *entryLog
}

// NewMockMonitor returns a Monitor recording all entries in memory.
func NewMockMonitor(panicOnError bool) *MockMonitor {
	return &MockMonitor{
		panicOnError: panicOnError,
		log:          &entryLog{},
	}
}

func (m *MockMonitor) record(level string, err error, a ...interface{}) {
	m.log.m.Lock()
	defer m.log.m.Unlock()

	m.log.entries = append(m.log.entries, Entry{
		Level:   level,
		Message: fmt.Sprint(a...),
		Error:   err,
		Prefix:  m.prefix,
		Tags:    m.tags,
	})
}

// Entries returns a snapshot of all recorded entries.
func (m *MockMonitor) Entries() []Entry {
	m.log.m.Lock()
	defer m.log.m.Unlock()

	entries := make([]Entry, len(m.log.entries))
	copy(entries, m.log.entries)
	return entries
}

// CountMatching returns the number of entries at given level whose message
// contains substr. Level may be empty to match any level.
func (m *MockMonitor) CountMatching(level, substr string) int {
	n := 0
	for _, e := range m.Entries() {
		if level != "" && e.Level != level {
			continue
		}
		if strings.Contains(e.Message, substr) {
			n++
		}
	}
	return n
}

// HasEntry returns true if an entry at given level contains substr.
func (m *MockMonitor) HasEntry(level, substr string) bool {
	return m.CountMatching(level, substr) > 0
}

// ReportError records an error entry, returning a fake incidentId.
func (m *MockMonitor) ReportError(err error, message ...interface{}) string {
	m.record("error", err, message...)
	if m.panicOnError {
		panic(fmt.Sprint("ReportError: ", err, " ", fmt.Sprint(message...)))
	}
	return uuid.NewRandom().String()
}

// ReportWarning records a warning entry, returning a fake incidentId.
func (m *MockMonitor) ReportWarning(err error, message ...interface{}) string {
	m.record("warn", err, message...)
	return uuid.NewRandom().String()
}

// Debug records a debug entry.
func (m *MockMonitor) Debug(a ...interface{}) { m.record("debug", nil, a...) }

// Debugf records a debug entry.
func (m *MockMonitor) Debugf(f string, a ...interface{}) { m.Debug(fmt.Sprintf(f, a...)) }

// Info records an info entry.
func (m *MockMonitor) Info(a ...interface{}) { m.record("info", nil, a...) }

// Infof records an info entry.
func (m *MockMonitor) Infof(f string, a ...interface{}) { m.Info(fmt.Sprintf(f, a...)) }

// Warn records a warning entry.
func (m *MockMonitor) Warn(a ...interface{}) { m.record("warn", nil, a...) }

// Warnf records a warning entry.
func (m *MockMonitor) Warnf(f string, a ...interface{}) { m.Warn(fmt.Sprintf(f, a...)) }

// Error records an error entry, panicking if panicOnError is set.
func (m *MockMonitor) Error(a ...interface{}) {
	m.record("error", nil, a...)
	if m.panicOnError {
		panic(fmt.Sprint("Error: ", fmt.Sprint(a...)))
	}
}

// Errorf records an error entry, panicking if panicOnError is set.
func (m *MockMonitor) Errorf(f string, a ...interface{}) { m.Error(fmt.Sprintf(f, a...)) }

// WithTags returns a child MockMonitor sharing the same entry log.
func (m *MockMonitor) WithTags(tags map[string]string) runtime.Monitor {
	allTags := make(map[string]string, len(m.tags)+len(tags))
	for k, v := range m.tags {
		allTags[k] = v
	}
	for k, v := range tags {
		allTags[k] = v
	}
	return &MockMonitor{
		tags:         allTags,
		prefix:       m.prefix,
		panicOnError: m.panicOnError,
		log:          m.log,
	}
}

// WithTag returns a child MockMonitor sharing the same entry log.
func (m *MockMonitor) WithTag(key, value string) runtime.Monitor {
	return m.WithTags(map[string]string{key: value})
}

// WithPrefix returns a child MockMonitor sharing the same entry log.
func (m *MockMonitor) WithPrefix(prefix string) runtime.Monitor {
	completePrefix := prefix
	if m.prefix != "" {
		completePrefix = m.prefix + "." + prefix
	}
	return &MockMonitor{
		tags:         m.tags,
		prefix:       completePrefix,
		panicOnError: m.panicOnError,
		log:          m.log,
	}
}
