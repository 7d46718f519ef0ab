// Package logging builds the slog loggers used by confkeep.
//
// Two formats are available: a one-line-per-record text handler for
// terminals ([NewHandler]) and slog's JSON handler. Both mask attribute
// values whose keys look secret (token, password, api_key, ...) or whose
// values carry a known token prefix. Use [MaskURL] on URLs that may embed
// credentials.
//
//	logger := logging.New(logging.Config{
//		Level:  logging.LevelFromVerbosity(verbosity),
//		Format: logging.FormatText,
//	})
//	logger.Warn("config file not found, starting empty", "path", path)
//
// [NewFanout] writes to several handlers at once; the CLI uses it to copy
// records to --log-file as JSON.
//
// Commands get their logger from the context ([NewContext], [FromContext]).
// Library code takes a *slog.Logger and falls back to [NewDiscard] when
// given nil. Tests use [ForTest].
package logging
