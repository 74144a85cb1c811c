package mycontext

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// CtxTraceID is the context key for the per-request trace id (used by mylog)
type CtxTraceID struct{}

func ContextFromHTTPRequest(r *http.Request) context.Context {
	traceID := r.Header.Get("X-Request-Id")
	if traceID == "" {
		traceID = uuid.New().String()
	}

	return context.WithValue(r.Context(), CtxTraceID{}, traceID)
}

func TraceIDFromContext(c context.Context) string {
	traceID, ok := c.Value(CtxTraceID{}).(string)
	if !ok {
		return ""
	}

	return traceID
}
