package core

import "context"

// AuthProvider provides the session operations HTTP adapters need
type AuthProvider interface {
	SignInWithPassword(ctx context.Context, jar CookieJar, input CredentialsInput, ipAddress string) *LoginResult
	SignInWithProjectCode(ctx context.Context, jar CookieJar, input ProjectCodeInput, ipAddress string) *LoginResult
	SignOut(jar CookieJar)
	ReadSession(jar CookieJar) (*SessionRecord, error)
	ListProjects(ctx context.Context, clientID string) ([]*Project, error)
	Paths() PathConfig
}

type HTTPAdapter interface {
	RegisterRoutes(auth AuthProvider) error
}
