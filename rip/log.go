package rip

import "go.uber.org/zap"

// logger is the package-wide structured logger. It defaults to a
// production zap logger and can be swapped with SetLogger (e.g. for a
// development logger in tests).
var logger = mustBuildLogger()

func mustBuildLogger() *zap.SugaredLogger {
	l, err := zap.NewProduction()
	if err != nil {
		// zap.NewProduction only fails on a broken encoder config, which
		// never happens with the defaults used here.
		panic(err)
	}
	return l.Sugar()
}

// SetLogger replaces the package logger, e.g. with a development or test
// logger from the caller.
func SetLogger(l *zap.SugaredLogger) {
	logger = l
}

func logDebug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

func logWarn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

func logErr(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}
