package common

// AuthorizationHeaderName is the HTTP header carrying bearer tokens.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// BcryptCost is the fixed work factor for stored password hashes.
const BcryptCost = 10
