package payments

import (
	"github.com/sirupsen/logrus"
)

// Sink receives every rejected event. It is advisory only: nothing a sink does
// affects the ledger.
type Sink interface {
	Reject(Rejection)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Rejection)

func (f SinkFunc) Reject(r Rejection) { f(r) }

// Discard is a Sink that ignores rejections.
var Discard Sink = SinkFunc(func(Rejection) {})

// MultiSink reports rejections to all sinks, in order.
func MultiSink(sinks ...Sink) Sink {
	return SinkFunc(func(r Rejection) {
		for _, s := range sinks {
			s.Reject(r)
		}
	})
}

// Rejections collects rejections in memory.
type Rejections []Rejection

func (rs *Rejections) Reject(r Rejection) { *rs = append(*rs, r) }

// ByKind counts rejections by reason.
func (rs Rejections) ByKind() map[ErrorKind]int {
	m := make(map[ErrorKind]int)
	for _, r := range rs {
		m[r.Kind()]++
	}
	return m
}

// LogSink logs each rejection as a warning.
type LogSink struct {
	log logrus.FieldLogger
}

// NewLogSink creates a sink logging to log.
func NewLogSink(log logrus.FieldLogger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Reject(r Rejection) {
	s.log.WithFields(logrus.Fields{
		"seq":    r.Seq,
		"type":   r.Type,
		"tx":     r.Tx,
		"client": r.Client,
		"kind":   r.Kind(),
	}).WithError(r.Err).Warn("event rejected")
}
