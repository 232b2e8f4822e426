package config

import (
	"github.com/sirupsen/logrus"
)

// LogObserver logs every parameter change at info level.
type LogObserver struct {
	Logger *logrus.Logger
}

// ParamChanged implements Observer.
func (o LogObserver) ParamChanged(c Change) {
	o.Logger.WithFields(logrus.Fields{
		"param": c.Name,
		"old":   c.Old,
		"new":   c.New,
	}).Info("parameter changed")
}
