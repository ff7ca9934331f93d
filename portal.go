package portal

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/lborres/clientportal/core"
	"github.com/lborres/clientportal/pkg/crypto"
	"github.com/lborres/clientportal/services"
)

// interfaces
type (
	Directory        = core.Directory
	UserDirectory    = core.UserDirectory
	ClientDirectory  = core.ClientDirectory
	ProjectDirectory = core.ProjectDirectory
	PasswordVerifier = core.PasswordVerifier
	WindowStore      = core.WindowStore
	CookieJar        = core.CookieJar

	HTTPAdapter  = core.HTTPAdapter
	AuthProvider = core.AuthProvider
)

// structs
type (
	SessionConfig = core.SessionConfig
	PathConfig    = core.PathConfig
	LimiterConfig = core.LimiterConfig
)

type (
	SessionRecord    = core.SessionRecord
	LoginResult      = core.LoginResult
	CredentialsInput = core.CredentialsInput
	ProjectCodeInput = core.ProjectCodeInput
	Cookie           = core.Cookie
	User             = core.User
	Client           = core.Client
	Project          = core.Project
)

const (
	minSecretLen = 32
)

// Constructors & helpers (convenience re-exports)
var (
	NewPasswords         = crypto.NewPasswords
	GenerateSecret       = crypto.GenerateSecret
	DefaultSessionConfig = core.DefaultSessionConfig
	DefaultPathConfig    = core.DefaultPathConfig
)

var (
	ErrUserNotFound    = core.ErrUserNotFound
	ErrClientNotFound  = core.ErrClientNotFound
	ErrProjectNotFound = core.ErrProjectNotFound
)

var (
	ErrInvalidToken    = core.ErrInvalidToken
	ErrSessionNotFound = core.ErrSessionNotFound
)

var (
	ErrDirectoryRequired   = core.ErrDirectoryRequired
	ErrHTTPAdapterRequired = core.ErrHTTPAdapterRequired
	ErrSecretRequired      = core.ErrSecretRequired
	ErrSecretTooShort      = core.ErrSecretTooShort
)

// Config wires the portal. Directory, HTTP and Secret are required; every
// other field has a default.
type Config struct {
	Secret    string
	Directory Directory
	Passwords PasswordVerifier
	HTTP      HTTPAdapter

	SessionConfig *SessionConfig
	Paths         *PathConfig

	// Limiter enables login throttling when set together with
	// LimiterConfig.MaxAttempts.
	Limiter       WindowStore
	LimiterConfig LimiterConfig

	Logger *zap.Logger
}

// Portal is an assembled session layer.
type Portal struct {
	Auth     *services.AuthService
	Sessions *services.SessionStore
	Paths    PathConfig
}

func New(config Config) (*Portal, error) {
	if config.Secret == "" {
		return nil, ErrSecretRequired
	}
	if len(config.Secret) < minSecretLen {
		return nil, fmt.Errorf("%w - minimum of %d characters", ErrSecretTooShort, minSecretLen)
	}
	if config.Directory == nil {
		return nil, ErrDirectoryRequired
	}
	if config.HTTP == nil {
		return nil, ErrHTTPAdapterRequired
	}

	// Set Defaults

	sessionConfig := DefaultSessionConfig()
	if config.SessionConfig != nil {
		sessionConfig = *config.SessionConfig
	}

	paths := DefaultPathConfig()
	if config.Paths != nil {
		if config.Paths.Login != "" {
			paths.Login = config.Paths.Login
		}
		if config.Paths.Protected != "" {
			paths.Protected = config.Paths.Protected
		}
		if config.Paths.Dashboard != "" {
			paths.Dashboard = config.Paths.Dashboard
		}
	}

	passwords := config.Passwords
	if passwords == nil {
		passwords = crypto.NewPasswords()
	}

	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	signer, err := crypto.NewSigner(config.Secret)
	if err != nil {
		return nil, err
	}
	sessions := services.NewSessionStore(sessionConfig, services.NewSessionCodec(signer))

	auth := services.NewAuthService(services.AuthDeps{
		Directory: config.Directory,
		Passwords: passwords,
		Sessions:  sessions,
		Limiter:   services.NewLoginLimiter(config.Limiter, config.LimiterConfig),
		Paths:     paths,
		Logger:    logger,
	})

	if err := config.HTTP.RegisterRoutes(auth); err != nil {
		return nil, err
	}

	return &Portal{
		Auth:     auth,
		Sessions: sessions,
		Paths:    paths,
	}, nil
}
