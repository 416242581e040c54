package mmultimap

import "go.uber.org/zap"

// logger wraps a *zap.SugaredLogger with a nil-safe default.
type logger struct {
	sugar *zap.SugaredLogger
}

func newLogger(l *zap.SugaredLogger) *logger {
	if l == nil {
		l = zap.NewNop().Sugar()
	}
	return &logger{sugar: l}
}

func (lg *logger) Debugf(format string, args ...any) {
	if lg == nil {
		return
	}
	lg.sugar.Debugf(format, args...)
}

func (lg *logger) Infof(format string, args ...any) {
	if lg == nil {
		return
	}
	lg.sugar.Infof(format, args...)
}

func (lg *logger) Errorf(format string, args ...any) {
	if lg == nil {
		return
	}
	lg.sugar.Errorf(format, args...)
}
