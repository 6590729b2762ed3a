package badgerdb

import (
	"strings"

	"github.com/celer-network/go-ledger/log"
)

// badgerLogger routes badger's printf style logging to the module logger.
type badgerLogger struct {
	*log.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.Error().Msgf(strings.TrimSuffix(format, "\n"), args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.Warn().Msgf(strings.TrimSuffix(format, "\n"), args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.Info().Msgf(strings.TrimSuffix(format, "\n"), args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.Debug().Msgf(strings.TrimSuffix(format, "\n"), args...)
}
