package simplefs

import "github.com/sirupsen/logrus"

// Option configures an FS at construction time.
type Option func(*FS)

// WithLogger attaches a logrus logger for lifecycle events (boot,
// format, sync, snapshot, file open). Allocation exhaustion is
// reported through returned errors only and is not logged. Library
// code should not force its
// logging configuration on the caller, so FS never calls
// logrus.SetLevel itself, staying silent by default.
func WithLogger(l *logrus.Logger) Option {
	return func(fs *FS) {
		fs.log = l
	}
}

func defaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel) // silent unless the caller opts in
	return l
}
