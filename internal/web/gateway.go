package web

import (
	"context"

	"github.com/roasbeef/scrutiny/internal/baselib/actor"
	"github.com/roasbeef/scrutiny/internal/review"
)

// ReviewGateway is how the HTTP layer reaches the review service. The actor
// system implements it in the daemon; tests may back it with the service
// directly.
type ReviewGateway interface {
	Ask(ctx context.Context,
		req review.ReviewRequest) (review.ReviewResponse, error)
}

// ActorGateway routes requests through a review service actor reference.
type ActorGateway struct {
	ref actor.ActorRef[review.ReviewRequest, review.ReviewResponse]
}

// NewActorGateway wraps a review service actor reference.
func NewActorGateway(
	ref actor.ActorRef[review.ReviewRequest, review.ReviewResponse],
) *ActorGateway {

	return &ActorGateway{ref: ref}
}

// Ask implements ReviewGateway by awaiting the actor's reply.
func (g *ActorGateway) Ask(ctx context.Context,
	req review.ReviewRequest) (review.ReviewResponse, error) {

	return g.ref.Ask(ctx, req).Await(ctx).Unpack()
}
