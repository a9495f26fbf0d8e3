package temporal

import (
	"fmt"

	"github.com/rs/zerolog"
	"go.temporal.io/sdk/log"
)

// LogAdapter routes Temporal SDK logging through zerolog.
type LogAdapter struct {
	logger zerolog.Logger
}

var _ log.Logger = (*LogAdapter)(nil)

func NewLogAdapter(logger zerolog.Logger) log.Logger {
	return &LogAdapter{logger: logger.With().Str("component", "temporal-sdk").Logger()}
}

// pairs folds Temporal's key/value list into a field map. A trailing key
// without a value gets "MISSING_VALUE"; non-string keys are stringified.
func pairs(keyvals []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, (len(keyvals)+1)/2)
	for i := 0; i < len(keyvals); i += 2 {
		key := fmt.Sprint(keyvals[i])
		if i+1 < len(keyvals) {
			out[key] = keyvals[i+1]
		} else {
			out[key] = "MISSING_VALUE"
		}
	}
	return out
}

func (a *LogAdapter) Debug(msg string, keyvals ...interface{}) {
	a.logger.Debug().Fields(pairs(keyvals)).Msg(msg)
}

func (a *LogAdapter) Info(msg string, keyvals ...interface{}) {
	a.logger.Info().Fields(pairs(keyvals)).Msg(msg)
}

func (a *LogAdapter) Warn(msg string, keyvals ...interface{}) {
	a.logger.Warn().Fields(pairs(keyvals)).Msg(msg)
}

func (a *LogAdapter) Error(msg string, keyvals ...interface{}) {
	a.logger.Error().Fields(pairs(keyvals)).Msg(msg)
}
