package shared

import "context"

// Actor identifies the employee behind a request, as supplied by the
// authentication collaborator. The core never sees credentials, only
// the resolved identity and its permission set.
type Actor struct {
	EmployeeID  int64
	StoreID     int64
	Name        string
	Role        string
	Permissions map[string]struct{}
}

// Can reports whether the actor holds a permission.
func (a *Actor) Can(permission string) bool {
	if a == nil {
		return false
	}
	if a.Role == "owner" {
		return true
	}
	_, ok := a.Permissions[permission]
	return ok
}

type actorContextKey struct{}

// ContextWithActor stores the actor in the context.
func ContextWithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext retrieves the actor, or nil when unauthenticated.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorContextKey{}).(*Actor)
	return actor
}
