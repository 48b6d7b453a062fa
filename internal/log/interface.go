package log

// Modular is the broker's logging contract: a leveled printer that can
// branch off a child carrying extra context (a match's ref, a drop's
// reason and sojourn) without formatting that context into the message
// text itself. broker.New defaults to Wrap around a stdlib *log.Logger;
// cmd/sojournd swaps in the slog adapter, optionally teed to a file.
type Modular interface {
	WithFields(fields map[string]string) Modular
	With(keyValues ...any) Modular

	Fatalf(format string, v ...any)
	Errorf(format string, v ...any)
	Warnf(format string, v ...any)
	Infof(format string, v ...any)
	Debugf(format string, v ...any)
	Tracef(format string, v ...any)

	Fatalln(message string)
	Errorln(message string)
	Warnln(message string)
	Infoln(message string)
	Debugln(message string)
	Traceln(message string)
}
