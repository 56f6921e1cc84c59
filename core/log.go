package core

import "github.com/sirupsen/logrus"

// Logger returns a named logger entry, e.g. Logger("elara.dag"). Every
// subsystem fetches its own entry instead of writing to a shared package
// logger, so log lines are attributable without grepping for call sites.
func Logger(name string) *logrus.Entry {
	return logrus.WithField("logger", name)
}
