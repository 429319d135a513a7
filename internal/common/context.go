package common

import "context"

type contextKey string

const jobIDKey contextKey = "job_id"

// WithJobID returns a context carrying the analysis job ID for downstream
// logging and archiving.
func WithJobID(ctx context.Context, jobID string) context.Context {
	return context.WithValue(ctx, jobIDKey, jobID)
}

// JobIDFromContext returns the job ID set by WithJobID, or "".
func JobIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(jobIDKey).(string); ok {
		return id
	}
	return ""
}
