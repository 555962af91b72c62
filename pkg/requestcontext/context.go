// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services and stores read them without pulling
// in net/http.
//
//	interviewID := requestcontext.InterviewID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

type (
	interviewIDKey struct{}
	tokenIDKey     struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

var (
	ContextKeyInterviewID = interviewIDKey{}
	ContextKeyTokenID     = tokenIDKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// InterviewID returns the interview bound to the caller's resume token, or "".
func InterviewID(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyInterviewID).(string)
	return v
}

func WithInterviewID(ctx context.Context, interviewID string) context.Context {
	return context.WithValue(ctx, ContextKeyInterviewID, interviewID)
}

// TokenID returns the jti of the resume token used for the request.
func TokenID(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyTokenID).(string)
	return v
}

func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, ContextKeyTokenID, jti)
}

func ClientIP(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyClientIP).(string)
	return v
}

func UserAgent(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyUserAgent).(string)
	return v
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	return context.WithValue(ctx, ContextKeyUserAgent, userAgent)
}

func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(ContextKeyRequestID).(string)
	return v
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() outside HTTP requests (workers, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
