package primary

// Logger is the structured logger every component receives.
// Arguments after msg are alternating key/value pairs.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})

	// With returns a child logger that adds the key/value pairs to every entry
	With(args ...interface{}) Logger
}
