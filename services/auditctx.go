package services

import (
	"context"

	"github.com/google/uuid"
)

// SystemUserID tags writes performed by background jobs and the CLI.
var SystemUserID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// AuditIdentity is the scoped identity carrier consulted by writers to
// fill created_by/updated_by and to stamp audit_log rows. It travels on
// the request context, never in process-global state.
type AuditIdentity struct {
	UserID   uuid.UUID
	Username string
}

type auditCtxKey struct{}

func WithAuditIdentity(ctx context.Context, id AuditIdentity) context.Context {
	return context.WithValue(ctx, auditCtxKey{}, id)
}

// WithSystemIdentity installs the system identity for background work.
func WithSystemIdentity(ctx context.Context) context.Context {
	return WithAuditIdentity(ctx, AuditIdentity{UserID: SystemUserID, Username: "system"})
}

func AuditIdentityFrom(ctx context.Context) (AuditIdentity, bool) {
	id, ok := ctx.Value(auditCtxKey{}).(AuditIdentity)
	return id, ok
}

// auditActor returns the acting user id for audit columns, nil when no
// identity is installed (bootstrap paths).
func auditActor(ctx context.Context) *uuid.UUID {
	id, ok := AuditIdentityFrom(ctx)
	if !ok {
		return nil
	}
	uid := id.UserID
	return &uid
}

func auditUsername(ctx context.Context) *string {
	id, ok := AuditIdentityFrom(ctx)
	if !ok {
		return nil
	}
	name := id.Username
	return &name
}
