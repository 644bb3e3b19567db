package runtime

import (
	"strings"

	"github.com/pborman/uuid"
	"github.com/sirupsen/logrus"
)

// A Monitor is responsible for collecting logs and error reports from the
// worker manager and its workers.
//
// Monitors are cheap to derive, use WithPrefix and WithTag to create a
// child monitor per sub-component, so that log entries can be traced back
// to their origin.
type Monitor interface {
	// Report error/warning and write to log, returns an incidentId which
	// can be included in other log entries, if relevant.
	ReportError(err error, message ...interface{}) string
	ReportWarning(err error, message ...interface{}) string

	// Write log messages to the system log
	Debug(...interface{})
	Debugf(string, ...interface{})
	Info(...interface{})
	Infof(string, ...interface{})
	Warn(...interface{})
	Warnf(string, ...interface{})
	Error(...interface{})
	Errorf(string, ...interface{})

	// Create child monitor with given tags
	WithTags(tags map[string]string) Monitor
	WithTag(key, value string) Monitor
	// Create child monitor with given prefix
	WithPrefix(prefix string) Monitor
}

type loggingMonitor struct {
	*logrus.Entry
	prefix string
}

// NewLoggingMonitor creates a monitor that logs everything through logrus.
// The pluggable diagnostics sink is the logrus logger itself.
func NewLoggingMonitor(logLevel string, tags map[string]string) Monitor {
	logger := logrus.New()
	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Level = level

	fields := make(logrus.Fields, len(tags))
	for k, v := range tags {
		fields[k] = v
	}

	return &loggingMonitor{
		Entry: logrus.NewEntry(logger).WithFields(fields),
	}
}

// NewMonitorFromLogger wraps an existing logrus logger as a Monitor. Useful
// when the host process insists on owning the log sink, see the
// 'worker.logger.forcehost' parameter.
func NewMonitorFromLogger(logger *logrus.Logger) Monitor {
	return &loggingMonitor{
		Entry: logrus.NewEntry(logger),
	}
}

func (m *loggingMonitor) ReportError(err error, message ...interface{}) string {
	incidentID := uuid.NewRandom().String()
	m.Entry.WithField("incidentId", incidentID).WithError(err).Error(message...)
	return incidentID
}

func (m *loggingMonitor) ReportWarning(err error, message ...interface{}) string {
	incidentID := uuid.NewRandom().String()
	m.Entry.WithField("incidentId", incidentID).WithError(err).Warn(message...)
	return incidentID
}

func (m *loggingMonitor) WithTags(tags map[string]string) Monitor {
	// Construct fields for logrus (just satisfying the type system)
	fields := make(map[string]interface{}, len(tags))
	for k, v := range tags {
		fields[k] = v
	}
	fields["prefix"] = m.prefix // don't allow overwrite "prefix"
	return &loggingMonitor{
		Entry:  m.Entry.WithFields(fields),
		prefix: m.prefix,
	}
}

func (m *loggingMonitor) WithTag(key, value string) Monitor {
	return m.WithTags(map[string]string{key: value})
}

func (m *loggingMonitor) WithPrefix(prefix string) Monitor {
	prefix = m.prefix + prefix
	return &loggingMonitor{
		Entry:  m.Entry.WithField("prefix", prefix),
		prefix: prefix + ".",
	}
}
