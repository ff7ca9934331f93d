package core

import "errors"

// Lookup errors returned by the directory collaborators
var (
	ErrUserNotFound    = errors.New("user not found")    // 401 Unauthorized
	ErrClientNotFound  = errors.New("client not found")  // 404 Not Found
	ErrProjectNotFound = errors.New("project not found") // 401 Unauthorized
)

// Session errors
var (
	ErrInvalidToken    = errors.New("invalid session token") // 401
	ErrSessionNotFound = errors.New("session not found")     // 401
)

// Validation errors (client input)
var (
	ErrEmailRequired       = errors.New("email is required")        // 400
	ErrInvalidEmail        = errors.New("invalid email format")     // 400
	ErrPasswordRequired    = errors.New("password is required")     // 400
	ErrProjectCodeRequired = errors.New("project code is required") // 400
)

// Config errors (server-side configuration)
var (
	ErrDirectoryRequired   = errors.New("user, client and project directories are required") // 500
	ErrHTTPAdapterRequired = errors.New("adapter is required")                               // 500
	ErrSecretRequired      = errors.New("secret is required")                                // 500
	ErrSecretTooShort      = errors.New("secret too short")                                  // 500
)

var (
	ErrUnsupportedHash = errors.New("unsupported password hash format")
)
