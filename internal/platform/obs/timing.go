package obs

import (
	"time"

	"github.com/rs/zerolog"
)

// Time logs the duration of an operation when the returned func runs,
// typically via defer with a named error:
//
//	defer obs.Time(logger, "optimize_order")(&err)
func Time(logger zerolog.Logger, name string) func(errp *error) {
	start := time.Now()

	return func(errp *error) {
		evt := logger.Debug()
		if errp != nil && *errp != nil {
			evt = logger.Warn().Err(*errp)
		}
		evt.Str("op", name).Dur("duration", time.Since(start)).Msg("operation timed")
	}
}
