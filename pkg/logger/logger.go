package logger

// Sink is a logging backend. Every call carries a message plus
// alternating key/value pairs.
type Sink interface {
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

var sinks []Sink

// Init replaces the global set of sinks. Call once at startup before
// any logging; calls made with no sinks configured are dropped.
func Init(instances ...Sink) {
	sinks = instances
}

func each(fn func(Sink)) {
	for _, s := range sinks {
		fn(s)
	}
}

// Debug writes a message at DEBUG level to all configured sinks.
func Debug(message string, keyvals ...any) {
	each(func(s Sink) { s.Debug(message, keyvals...) })
}

// Info writes a message at INFO level to all configured sinks.
func Info(message string, keyvals ...any) {
	each(func(s Sink) { s.Info(message, keyvals...) })
}

// Warn writes a message at WARN level to all configured sinks.
func Warn(message string, keyvals ...any) {
	each(func(s Sink) { s.Warn(message, keyvals...) })
}

// Error writes a message at ERROR level to all configured sinks.
func Error(message string, keyvals ...any) {
	each(func(s Sink) { s.Error(message, keyvals...) })
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	each(func(s Sink) { s.Fatal(message, keyvals...) })
}
