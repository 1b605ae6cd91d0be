package logio

import (
	"context"
	"fmt"
	"log/slog"
)

// Leveledf returns a printf-style function that logs each formatted message
// through logger at the given level. Messages below the logger's level are
// not formatted at all.
func Leveledf(logger *slog.Logger, level slog.Level) func(mess string, args ...interface{}) {
	return func(mess string, args ...interface{}) {
		ctx := context.Background()
		if !logger.Enabled(ctx, level) {
			return
		}
		if len(args) > 0 {
			mess = fmt.Sprintf(mess, args...)
		}
		logger.Log(ctx, level, mess)
	}
}
