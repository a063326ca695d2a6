package auth

import "context"

type claimKey struct{}

// WithClaim attaches a verified identity claim to the context.
func WithClaim(ctx context.Context, claim Claim) context.Context {
	return context.WithValue(ctx, claimKey{}, claim)
}

// GetClaim extracts the identity claim from the context, if present.
func GetClaim(ctx context.Context) (Claim, bool) {
	claim, ok := ctx.Value(claimKey{}).(Claim)
	return claim, ok
}
