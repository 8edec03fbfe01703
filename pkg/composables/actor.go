package composables

import (
	"context"
	"errors"

	"github.com/iota-uz/staffledger/pkg/constants"
)

var ErrNoActor = errors.New("no acting staff member found in context")

func WithActorID(ctx context.Context, actorID int64) context.Context {
	return context.WithValue(ctx, constants.ActorIDKey, actorID)
}

// UseActorID returns the acting staff member, supplied by the identity
// collaborator at the transport edge. Mutations without an actor are
// rejected before they reach a repository.
func UseActorID(ctx context.Context) (int64, error) {
	actor := ctx.Value(constants.ActorIDKey)
	if actor == nil {
		return 0, ErrNoActor
	}
	return actor.(int64), nil
}
