package goParse

import "context"

type auditMetadataContextKey struct{}

// WithAuditMetadata attaches key=value to the audit event of every command
// dispatched with ctx. Later values for the same key win.
func WithAuditMetadata(ctx context.Context, key, value string) context.Context {
	prev := auditMetadataFromContext(ctx)
	next := make(map[string]string, len(prev)+1)
	for k, v := range prev {
		next[k] = v
	}
	next[key] = value
	return context.WithValue(ctx, auditMetadataContextKey{}, next)
}

func auditMetadataFromContext(ctx context.Context) map[string]string {
	if ctx == nil {
		return nil
	}
	md, _ := ctx.Value(auditMetadataContextKey{}).(map[string]string)
	return md
}
