package httpcontext

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fasthttp"

	appLogger "github.com/splitlist/taskboard/pkg/logger"
)

type metaKey struct{}

// Meta carries request attributes that must outlive the fasthttp context.
// fasthttp recycles its RequestCtx once the handler returns, so anything
// the lower layers want to log is copied out up front.
type Meta struct {
	RequestID  string
	Method     string
	Path       string
	RemoteAddr string
	UserAgent  string
}

// MetaFrom returns the metadata attached by Adapter.Attach. Contexts that
// did not pass through the HTTP layer yield a zero Meta.
func MetaFrom(ctx context.Context) Meta {
	meta, _ := ctx.Value(metaKey{}).(Meta)
	return meta
}

// Adapter derives a deadline-bound stdlib context from a fasthttp request.
type Adapter struct {
	timeout time.Duration
}

// NewAdapter constructs an Adapter enforcing the given per-request timeout.
func NewAdapter(timeout time.Duration) *Adapter {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Adapter{timeout: timeout}
}

// Attach builds the per-request context and echoes the request id back in
// the response headers so callers can correlate logs.
func (a *Adapter) Attach(ctx *fasthttp.RequestCtx) (context.Context, context.CancelFunc) {
	stdCtx, cancel := context.WithTimeout(context.Background(), a.timeout)

	meta := Meta{
		RequestID: requestID(ctx),
		Method:    string(ctx.Method()),
		Path:      string(ctx.Path()),
		UserAgent: string(ctx.Request.Header.UserAgent()),
	}
	if addr := ctx.RemoteAddr(); addr != nil {
		meta.RemoteAddr = addr.String()
	}

	stdCtx = appLogger.ContextWithRequestID(stdCtx, meta.RequestID)
	stdCtx = context.WithValue(stdCtx, metaKey{}, meta)
	ctx.Response.Header.Set("X-Request-ID", meta.RequestID)

	return stdCtx, cancel
}

// requestID honors an inbound X-Request-ID so ids stay stable across
// proxies, minting a fresh one otherwise. Oversized headers are ignored.
func requestID(ctx *fasthttp.RequestCtx) string {
	header := strings.TrimSpace(string(ctx.Request.Header.Peek("X-Request-ID")))
	if header == "" || len(header) > 64 {
		return uuid.NewString()
	}
	return header
}
