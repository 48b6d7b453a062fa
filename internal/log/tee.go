package log

// teeLogger fans every call out to two Modular loggers. Used by
// cmd/sojournd when --log-file is set: the structured stderr logger is
// teed with a plain-text logger writing to that file.
type teeLogger struct {
	a, b Modular
}

// TeeLogger returns a Modular that forwards every call to both a and b.
func TeeLogger(a, b Modular) Modular {
	return &teeLogger{a: a, b: b}
}

func (t *teeLogger) WithFields(fields map[string]string) Modular {
	return &teeLogger{
		a: t.a.WithFields(fields),
		b: t.b.WithFields(fields),
	}
}

func (t *teeLogger) With(keyValues ...any) Modular {
	return &teeLogger{
		a: t.a.With(keyValues...),
		b: t.b.With(keyValues...),
	}
}

func (t *teeLogger) Fatalf(format string, v ...any) {
	t.a.Fatalf(format, v...)
	t.b.Fatalf(format, v...)
}

func (t *teeLogger) Errorf(format string, v ...any) {
	t.a.Errorf(format, v...)
	t.b.Errorf(format, v...)
}

func (t *teeLogger) Warnf(format string, v ...any) {
	t.a.Warnf(format, v...)
	t.b.Warnf(format, v...)
}

func (t *teeLogger) Infof(format string, v ...any) {
	t.a.Infof(format, v...)
	t.b.Infof(format, v...)
}

func (t *teeLogger) Debugf(format string, v ...any) {
	t.a.Debugf(format, v...)
	t.b.Debugf(format, v...)
}

func (t *teeLogger) Tracef(format string, v ...any) {
	t.a.Tracef(format, v...)
	t.b.Tracef(format, v...)
}

func (t *teeLogger) Fatalln(message string) {
	t.a.Fatalln(message)
	t.b.Fatalln(message)
}

func (t *teeLogger) Errorln(message string) {
	t.a.Errorln(message)
	t.b.Errorln(message)
}

func (t *teeLogger) Warnln(message string) {
	t.a.Warnln(message)
	t.b.Warnln(message)
}

func (t *teeLogger) Infoln(message string) {
	t.a.Infoln(message)
	t.b.Infoln(message)
}

func (t *teeLogger) Debugln(message string) {
	t.a.Debugln(message)
	t.b.Debugln(message)
}

func (t *teeLogger) Traceln(message string) {
	t.a.Traceln(message)
	t.b.Traceln(message)
}
