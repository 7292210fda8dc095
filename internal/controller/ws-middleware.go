package controller

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/couchsync/server/pkg/ctxlogger"
	"github.com/couchsync/server/pkg/wsrouter"
)

func (c controller) wsRequestIDMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("ws_request_id", c.generateTimeBasedID()))
			return next(ctx, payload)
		}
	}
}

func (c controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.DebugContext(ctx, "websocket message received")

			start := time.Now()

			err := next(ctx, payload)

			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			c.logger.DebugContext(ctx, "websocket message handled",
				"processing_time_us", time.Since(start).Microseconds(),
				"alloc", memStats.Alloc/1024,
				"sys", memStats.Sys/1024,
				"goroutines", runtime.NumGoroutine(),
			)

			return err
		}
	}
}
