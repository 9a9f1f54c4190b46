package logctx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Call runs fn as the named operation. With debug enabled it logs entry
// with args and exit with the result. A failure is logged at error level:
// errors carrying a 400 status as an illegal argument, anything else with
// its root cause. The result and error of fn are returned unchanged.
func Call[T any](ctx context.Context, logger *slog.Logger, name string, args []any, fn func(context.Context) (T, error)) (T, error) {
	if logger == nil {
		logger = slog.Default()
	}
	debug := logger.Enabled(ctx, slog.LevelDebug)
	if debug {
		logger.DebugContext(ctx, fmt.Sprintf("Enter: %s()", name), "args", args)
	}

	result, err := fn(ctx)
	if err != nil {
		logFailure(ctx, logger, name, args, err, debug)
		return result, err
	}

	if debug {
		logger.DebugContext(ctx, fmt.Sprintf("Exit: %s()", name), "result", result)
	}
	return result, nil
}

// Do is Call for operations without a result.
func Do(ctx context.Context, logger *slog.Logger, name string, args []any, fn func(context.Context) error) error {
	_, err := Call(ctx, logger, name, args, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

// RootCause follows Unwrap to the innermost error. For joined errors the
// first branch is followed.
func RootCause(err error) error {
	for err != nil {
		var next error
		switch u := err.(type) {
		case interface{ Unwrap() error }:
			next = u.Unwrap()
		case interface{ Unwrap() []error }:
			if errs := u.Unwrap(); len(errs) > 0 {
				next = errs[0]
			}
		}
		if next == nil {
			return err
		}
		err = next
	}
	return nil
}

func logFailure(ctx context.Context, logger *slog.Logger, name string, args []any, err error, debug bool) {
	var sc interface{ StatusCode() int }
	if errors.As(err, &sc) && sc != nil && sc.StatusCode() == http.StatusBadRequest {
		logger.ErrorContext(ctx, fmt.Sprintf("Illegal argument: %v in %s()", args, name), "error", err)
		return
	}

	root := RootCause(err)
	if !debug {
		logger.ErrorContext(ctx, fmt.Sprintf("Exception in %s()", name), "cause", fmt.Sprintf("%T", root))
		return
	}
	msg := root.Error()
	if msg == "" {
		msg = "No message"
	}
	logger.ErrorContext(ctx, fmt.Sprintf("Exception in %s()", name),
		"cause", fmt.Sprintf("%T", root),
		"exception", msg,
		"error", err,
	)
}
