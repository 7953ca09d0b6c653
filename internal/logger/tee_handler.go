package logger

import (
	"context"
	"errors"
	"log/slog"
)

// teeHandler duplicates each record to the local JSON handler and the
// Better Stack shipper. Records are cloned before the second Handle call so
// neither sink observes the other's mutations, and a shipping failure never
// suppresses the local write.
type teeHandler struct {
	local   slog.Handler
	shipper slog.Handler
}

func newTeeHandler(local, shipper slog.Handler) *teeHandler {
	return &teeHandler{local: local, shipper: shipper}
}

// Enabled reports whether either sink wants records at this level. The
// shipper may run at a coarser level than the local handler.
func (h *teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	if h.local != nil && h.local.Enabled(ctx, level) {
		return true
	}
	return h.shipper != nil && h.shipper.Enabled(ctx, level)
}

func (h *teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var localErr, shipErr error
	if h.local != nil && h.local.Enabled(ctx, r.Level) {
		localErr = h.local.Handle(ctx, r.Clone())
	}
	if h.shipper != nil && h.shipper.Enabled(ctx, r.Level) {
		shipErr = h.shipper.Handle(ctx, r.Clone())
	}
	return errors.Join(localErr, shipErr)
}

func (h *teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &teeHandler{}
	if h.local != nil {
		next.local = h.local.WithAttrs(attrs)
	}
	if h.shipper != nil {
		next.shipper = h.shipper.WithAttrs(attrs)
	}
	return next
}

func (h *teeHandler) WithGroup(name string) slog.Handler {
	next := &teeHandler{}
	if h.local != nil {
		next.local = h.local.WithGroup(name)
	}
	if h.shipper != nil {
		next.shipper = h.shipper.WithGroup(name)
	}
	return next
}
