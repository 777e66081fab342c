package bootstrap

import "context"

// AuditLog captures an operationally significant lifecycle event, such as
// server startup or shutdown.
type AuditLog struct {
	Action  string
	Message string
	Meta    map[string]any
}

type AuditLogger interface {
	Log(ctx context.Context, entry AuditLog)
}
