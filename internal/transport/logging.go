// SPDX-License-Identifier: MIT
package transport

import (
	"strings"

	"chords/internal/log"
)

// LoggingTransport implements the Transport interface by writing each
// note set to the application log.
type LoggingTransport struct{}

// NewLoggingTransport creates a new LoggingTransport instance.
func NewLoggingTransport() *LoggingTransport {
	log.Debugf("Transport: Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs NotesMessage values at info level and anything else at debug.
func (lt *LoggingTransport) Send(data any) error {
	switch msg := data.(type) {
	case NotesMessage:
		log.Infof("Notes #%d: %s", msg.Sequence, FormatNotes(msg.Notes))
	case *NotesMessage:
		log.Infof("Notes #%d: %s", msg.Sequence, FormatNotes(msg.Notes))
	default:
		log.Debugf("LoggingTransport: %T %+v", data, data)
	}
	return nil
}

// Close is a no-op for LoggingTransport.
func (lt *LoggingTransport) Close() error {
	return nil
}

// FormatNotes joins note names for display and renders an empty set as
// "None".
func FormatNotes(names []string) string {
	if len(names) == 0 {
		return "None"
	}
	return strings.Join(names, " ")
}

// Ensure LoggingTransport satisfies the interface at compile time.
var _ Transport = (*LoggingTransport)(nil)
