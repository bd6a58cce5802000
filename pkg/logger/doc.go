// Package logger builds *slog.Logger instances for sessionkit components.
//
// New assembles a text or JSON handler, applies static attributes and wraps
// it with LogHandlerDecorator, which injects attributes pulled from the
// record's context (for example a tab id) on every call.
//
// Attribute helpers (Error, Component, TabID, Path, StatusCode, ErrorCode,
// State, ...) keep key names consistent across packages. Error and ErrorCode
// return an empty attribute for zero values, so they can be passed
// unconditionally:
//
//	log.WarnContext(ctx, "refresh failed", logger.Error(err), logger.Count(n))
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(os.Getenv("APP_ENV"), "sessionkit"),
//	    logger.WithAttr(logger.TabID(tabID)),
//	)
//
// Components accept a logger through their WithLogger option and fall back to
// Discard when none is given.
package logger
