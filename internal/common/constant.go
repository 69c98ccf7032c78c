package common

// AuthorizationHeaderName carries the bearer token on requests and on the
// login response.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "

// IdempotencyKeyHeaderName lets a client retry a guess without spending a
// second turn.
const IdempotencyKeyHeaderName = "Idempotency-Key"

// Roles a user can hold.
const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)
