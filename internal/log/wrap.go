package log

import (
	"fmt"
	"strings"
)

// PrintFormatter is an interface implemented by standard loggers.
type PrintFormatter interface {
	Printf(format string, v ...any)
	Println(v ...any)
}

// Logger level constants.
const (
	LogOff   int = 0
	LogFatal int = 1
	LogError int = 2
	LogWarn  int = 3
	LogInfo  int = 4
	LogDebug int = 5
	LogTrace int = 6
	LogAll   int = 7
)

// wrapped is a level-gated Modular built on a PrintFormatter. fields
// accumulates key/value pairs from With/WithFields, appended to every line
// this logger or a descendant of it prints; the sojourn broker's mailbox
// loop uses this to attach ref/reason/sojourn_ms context to drop and match
// log lines without formatting them into the message itself.
type wrapped struct {
	pf     PrintFormatter
	level  int
	fields []any
}

// Wrap a PrintFormatter with a log.Modular implementation. Log level is set to
// INFO, use WrapAtLevel to set this explicitly.
func Wrap(l PrintFormatter) Modular {
	return &wrapped{pf: l, level: LogInfo}
}

// WrapAtLevel wraps a PrintFormatter with a log.Modular implementation with an
// explicit log level.
func WrapAtLevel(l PrintFormatter, level int) Modular {
	return &wrapped{pf: l, level: level}
}

// WithFields returns a copy of l carrying fields merged into its
// accumulated key/value pairs.
func (l *wrapped) WithFields(fields map[string]string) Modular {
	kv := make([]any, 0, len(l.fields)+len(fields)*2)
	kv = append(kv, l.fields...)
	for k, v := range fields {
		kv = append(kv, k, v)
	}
	return &wrapped{pf: l.pf, level: l.level, fields: kv}
}

// With returns a copy of l carrying keyValues appended to its accumulated
// key/value pairs. keyValues is treated as alternating key, value, ...,
// matching log/slog's convention.
func (l *wrapped) With(keyValues ...any) Modular {
	kv := make([]any, 0, len(l.fields)+len(keyValues))
	kv = append(kv, l.fields...)
	kv = append(kv, keyValues...)
	return &wrapped{pf: l.pf, level: l.level, fields: kv}
}

func (l *wrapped) withSuffix(msg string) string {
	if len(l.fields) == 0 {
		return msg
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(l.fields); i += 2 {
		fmt.Fprintf(&b, " %v=%v", l.fields[i], l.fields[i+1])
	}
	return b.String()
}

func (l *wrapped) logf(minLevel int, format string, v ...any) {
	if minLevel > l.level {
		return
	}
	if len(l.fields) == 0 {
		l.pf.Printf(format, v...)
		return
	}
	l.pf.Println(l.withSuffix(fmt.Sprintf(format, v...)))
}

func (l *wrapped) logln(minLevel int, message string) {
	if minLevel > l.level {
		return
	}
	l.pf.Println(l.withSuffix(message))
}

// Fatalf prints a fatal message to the console. Does NOT cause panic.
func (l *wrapped) Fatalf(format string, v ...any) { l.logf(LogFatal, format, v...) }

// Errorf prints an error message to the console.
func (l *wrapped) Errorf(format string, v ...any) { l.logf(LogError, format, v...) }

// Warnf prints a warning message to the console.
func (l *wrapped) Warnf(format string, v ...any) { l.logf(LogWarn, format, v...) }

// Infof prints an information message to the console.
func (l *wrapped) Infof(format string, v ...any) { l.logf(LogInfo, format, v...) }

// Debugf prints a debug message to the console.
func (l *wrapped) Debugf(format string, v ...any) { l.logf(LogDebug, format, v...) }

// Tracef prints a trace message to the console.
func (l *wrapped) Tracef(format string, v ...any) { l.logf(LogTrace, format, v...) }

// Fatalln prints a fatal message to the console. Does NOT cause panic.
func (l *wrapped) Fatalln(message string) { l.logln(LogFatal, message) }

// Errorln prints an error message to the console.
func (l *wrapped) Errorln(message string) { l.logln(LogError, message) }

// Warnln prints a warning message to the console.
func (l *wrapped) Warnln(message string) { l.logln(LogWarn, message) }

// Infoln prints an information message to the console.
func (l *wrapped) Infoln(message string) { l.logln(LogInfo, message) }

// Debugln prints a debug message to the console.
func (l *wrapped) Debugln(message string) { l.logln(LogDebug, message) }

// Traceln prints a trace message to the console.
func (l *wrapped) Traceln(message string) { l.logln(LogTrace, message) }
