package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/lborres/clientportal/core"
)

// User-facing login messages
const (
	MsgInvalidEmail      = "Enter a valid email address."
	MsgPasswordRequired  = "Enter your password."
	MsgSignInFailed      = "We could not sign you in. Please try again."
	MsgUnknownEmail      = "No account found with this email. Did you type it correctly?"
	MsgIncorrectPassword = "Incorrect password. Please try again."
	MsgAccessCheckFailed = "There was a problem validating your access."
	MsgProvisionFailed   = "We could not complete your access. Please try again later."
	MsgCodeRequired      = "Enter your project code."
	MsgCodeCheckFailed   = "We could not verify the code. Please try again."
	MsgUnknownProject    = "No project found with this code. Did you type it correctly?"
	MsgNoProjectAccess   = "You do not have access to this project. Please contact us."
	MsgTooManyAttempts   = "Too many sign-in attempts. Please wait a few minutes and try again."
	MsgAccessGranted     = "Access granted. Redirecting to your private area..."
	MsgProjectGranted    = "Access granted. Redirecting to your project..."
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthService struct {
	users     core.UserDirectory
	clients   core.ClientDirectory
	projects  core.ProjectDirectory
	passwords core.PasswordVerifier
	sessions  *SessionStore
	limiter   *LoginLimiter
	paths     core.PathConfig
	logger    *zap.Logger
}

// AuthDeps groups the collaborators of AuthService. Limiter and Logger are optional.
type AuthDeps struct {
	Directory core.Directory
	Passwords core.PasswordVerifier
	Sessions  *SessionStore
	Limiter   *LoginLimiter
	Paths     core.PathConfig
	Logger    *zap.Logger
}

// Ensure AuthService implements AuthProvider
var _ core.AuthProvider = (*AuthService)(nil)

func NewAuthService(deps AuthDeps) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AuthService{
		users:     deps.Directory,
		clients:   deps.Directory,
		projects:  deps.Directory,
		passwords: deps.Passwords,
		sessions:  deps.Sessions,
		limiter:   deps.Limiter,
		paths:     deps.Paths,
		logger:    logger.Named("auth"),
	}
}

// SignInWithPassword authenticates with email and password. It never returns
// an error; every outcome is described by the LoginResult.
func (s *AuthService) SignInWithPassword(ctx context.Context, jar core.CookieJar, input core.CredentialsInput, ipAddress string) *core.LoginResult {
	// Step 1: Validate input
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if err := validateCredentials(email, input.Password); err != nil {
		if errors.Is(err, core.ErrPasswordRequired) {
			return failure(core.FailureValidation, MsgPasswordRequired)
		}
		return failure(core.FailureValidation, MsgInvalidEmail)
	}

	limiterID := ipAddress + "|" + email
	if !s.allow(ctx, "password", limiterID) {
		return failure(core.FailureThrottled, MsgTooManyAttempts)
	}

	// Step 2: Find the active user
	user, err := s.users.FindActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			// NOTE: distinct from the password message, which lets callers probe
			// for registered emails.
			return failure(core.FailureLookup, MsgUnknownEmail)
		}
		s.logger.Error("failed to find user", zap.Error(err))
		return failure(core.FailureTransport, MsgSignInFailed)
	}

	// Step 3: Verify the password, failing closed
	valid, err := s.passwords.Verify(strings.TrimSpace(input.Password), user.PasswordHash)
	if err != nil {
		s.logger.Warn("password verification error", zap.String("userId", user.ID), zap.Error(err))
	}
	if err != nil || !valid {
		return failure(core.FailureLookup, MsgIncorrectPassword)
	}

	// Step 4: Resolve or provision the client profile linked by email
	displayName := firstNonEmpty(user.DisplayName, localPart(email))
	client, err := s.clients.FindClientByEmail(ctx, email)
	switch {
	case err == nil:
		displayName = firstNonEmpty(client.FullName, displayName)
	case errors.Is(err, core.ErrClientNotFound):
		client, err = s.clients.CreateClient(ctx, core.NewClient{FullName: displayName, Email: email})
		if err != nil || client == nil {
			s.logger.Error("failed to create client", zap.String("userId", user.ID), zap.Error(err))
			return failure(core.FailureTransport, MsgProvisionFailed)
		}
	default:
		s.logger.Error("failed to find client", zap.String("userId", user.ID), zap.Error(err))
		return failure(core.FailureTransport, MsgAccessCheckFailed)
	}

	// Step 5: Issue the session
	clientID := client.ID
	record := &core.SessionRecord{
		UserID:      user.ID,
		Email:       email,
		DisplayName: displayName,
		ClientID:    &clientID,
		Role:        user.Role,
	}
	if err := s.sessions.Issue(jar, record); err != nil {
		s.logger.Error("failed to issue session", zap.String("userId", user.ID), zap.Error(err))
		return failure(core.FailureTransport, MsgSignInFailed)
	}
	s.resetAttempts(ctx, "password", limiterID)

	return &core.LoginResult{
		Success:    true,
		Message:    MsgAccessGranted,
		RedirectTo: s.paths.Dashboard + "?welcome=1",
	}
}

// SignInWithProjectCode authenticates with a project code. Unlike the
// credential flow it never provisions anything: the project's client must
// already have an active user.
func (s *AuthService) SignInWithProjectCode(ctx context.Context, jar core.CookieJar, input core.ProjectCodeInput, ipAddress string) *core.LoginResult {
	// Step 1: Validate input
	code := strings.TrimSpace(input.ProjectCode)
	if code == "" {
		return failure(core.FailureValidation, MsgCodeRequired)
	}

	if !s.allow(ctx, "project", ipAddress) {
		return failure(core.FailureThrottled, MsgTooManyAttempts)
	}

	// Step 2: Find the project and its client
	project, err := s.projects.FindProjectByCode(ctx, code)
	if err != nil {
		if errors.Is(err, core.ErrProjectNotFound) {
			return failure(core.FailureLookup, MsgUnknownProject)
		}
		s.logger.Error("failed to find project", zap.Error(err))
		return failure(core.FailureTransport, MsgCodeCheckFailed)
	}
	if project.Client == nil || project.Client.Email == "" {
		s.logger.Error("project has no client", zap.String("projectId", project.ID))
		return failure(core.FailureTransport, MsgCodeCheckFailed)
	}

	// Step 3: Resolve the client's active user
	email := strings.ToLower(strings.TrimSpace(project.Client.Email))
	user, err := s.users.FindActiveUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return failure(core.FailureLookup, MsgNoProjectAccess)
		}
		s.logger.Error("failed to find user", zap.String("projectId", project.ID), zap.Error(err))
		return failure(core.FailureTransport, MsgAccessCheckFailed)
	}

	// Step 4: Issue the session
	clientID := project.ClientID
	record := &core.SessionRecord{
		UserID:      user.ID,
		Email:       email,
		DisplayName: firstNonEmpty(project.Client.FullName, user.DisplayName, localPart(email)),
		ClientID:    &clientID,
		Role:        user.Role,
	}
	if err := s.sessions.Issue(jar, record); err != nil {
		s.logger.Error("failed to issue session", zap.String("userId", user.ID), zap.Error(err))
		return failure(core.FailureTransport, MsgSignInFailed)
	}
	s.resetAttempts(ctx, "project", ipAddress)

	return &core.LoginResult{
		Success:    true,
		Message:    MsgProjectGranted,
		RedirectTo: fmt.Sprintf("%s?project=%s&welcome=1", s.paths.Dashboard, url.QueryEscape(project.Slug)),
	}
}

// SignOut invalidates the current session cookie
func (s *AuthService) SignOut(jar core.CookieJar) {
	s.sessions.Destroy(jar)
}

// ReadSession returns the verified session carried by the request
func (s *AuthService) ReadSession(jar core.CookieJar) (*core.SessionRecord, error) {
	record, err := s.sessions.Read(jar)
	if errors.Is(err, core.ErrInvalidToken) {
		s.logger.Debug("rejected session cookie")
	}
	return record, err
}

// ListProjects returns the projects owned by clientID
func (s *AuthService) ListProjects(ctx context.Context, clientID string) ([]*core.Project, error) {
	if clientID == "" {
		return nil, nil
	}
	projects, err := s.projects.ListProjectsByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

func (s *AuthService) Paths() core.PathConfig {
	return s.paths
}

// allow consults the limiter; a failing counter store lets the attempt through.
func (s *AuthService) allow(ctx context.Context, scope, identifier string) bool {
	ok, retryAfter, err := s.limiter.Allow(ctx, scope, identifier)
	if err != nil {
		s.logger.Warn("login limiter unavailable", zap.String("scope", scope), zap.Error(err))
		return true
	}
	if !ok {
		s.logger.Info("login throttled", zap.String("scope", scope), zap.Duration("retryAfter", retryAfter))
	}
	return ok
}

// validateCredentials checks a normalized email and the raw password.
func validateCredentials(email, password string) error {
	switch {
	case email == "":
		return core.ErrEmailRequired
	case !emailPattern.MatchString(email):
		return core.ErrInvalidEmail
	case strings.TrimSpace(password) == "":
		return core.ErrPasswordRequired
	}
	return nil
}

// resetAttempts clears the counter after a successful login, so only failures
// accumulate toward the limit.
func (s *AuthService) resetAttempts(ctx context.Context, scope, identifier string) {
	if err := s.limiter.Reset(ctx, scope, identifier); err != nil {
		s.logger.Warn("failed to reset login attempts", zap.String("scope", scope), zap.Error(err))
	}
}

func failure(kind core.FailureKind, message string) *core.LoginResult {
	return &core.LoginResult{Success: false, Message: message, Failure: kind}
}

func localPart(email string) string {
	name, _, _ := strings.Cut(email, "@")
	return name
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
