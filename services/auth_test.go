package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lborres/clientportal/core"
)

type authFixture struct {
	dir     *FakeDirectory
	windows *fakeWindowStore
	svc     *AuthService
}

func newAuthFixture(maxAttempts int) *authFixture {
	dir := NewFakeDirectory()
	dir.AddUser(&core.User{ID: "user-1", Email: "alice@example.com", DisplayName: "Alice", Role: "client", PasswordHash: "hash:s3cret"})
	dir.AddClient(&core.Client{ID: "client-1", FullName: "Alice Martin", Email: "alice@example.com"})
	dir.AddProject(&core.Project{
		ID:       "project-1",
		Slug:     "casa-mar",
		Code:     "CASA-2024",
		Name:     "Casa Mar",
		ClientID: "client-1",
		Client:   &core.Client{ID: "client-1", FullName: "Alice Martin", Email: "alice@example.com"},
	})

	windows := newFakeWindowStore()
	svc := NewAuthService(AuthDeps{
		Directory: dir,
		Passwords: &fakePasswords{},
		Sessions:  newTestStore(),
		Limiter:   NewLoginLimiter(windows, core.LimiterConfig{MaxAttempts: maxAttempts}),
		Paths:     core.DefaultPathConfig(),
	})

	return &authFixture{dir: dir, windows: windows, svc: svc}
}

// Requirement: valid credentials issue a session and redirect to the welcome dashboard.
func TestSignInWithPassword_Success(t *testing.T) {
	// Arrange
	f := newAuthFixture(0)
	jar := NewFakeJar()

	// Act
	result := f.svc.SignInWithPassword(context.Background(), jar, core.CredentialsInput{Email: "  Alice@Example.com ", Password: "s3cret"}, "10.0.0.1")

	// Assert
	if !result.Success {
		t.Fatalf("SignInWithPassword() failed: %q", result.Message)
	}
	if !strings.HasPrefix(result.RedirectTo, "/client/dashboard") || !strings.Contains(result.RedirectTo, "welcome=1") {
		t.Errorf("RedirectTo = %q", result.RedirectTo)
	}
	if result.Failure != core.FailureNone {
		t.Errorf("Failure = %v, want FailureNone", result.Failure)
	}
	if _, ok := jar.written[core.DefaultCookieName]; !ok {
		t.Fatal("session cookie was not written")
	}

	session, err := f.svc.ReadSession(jar.roundTrip())
	if err != nil {
		t.Fatalf("ReadSession() error = %v", err)
	}
	if session.UserID != "user-1" || session.Email != "alice@example.com" {
		t.Errorf("session = %+v", session)
	}
	if session.DisplayName != "Alice Martin" {
		t.Errorf("DisplayName = %q, want client full name", session.DisplayName)
	}
	if !session.HasClient() || *session.ClientID != "client-1" {
		t.Errorf("ClientID = %v, want client-1", session.ClientID)
	}
}

// Requirement: failed sign-ins never write a cookie and map to a failure kind.
func TestSignInWithPassword_Failures(t *testing.T) {
	tests := []struct {
		name        string
		input       core.CredentialsInput
		setup       func(f *authFixture)
		wantMessage string
		wantKind    core.FailureKind
	}{
		{
			name:        "malformed email",
			input:       core.CredentialsInput{Email: "alice", Password: "s3cret"},
			wantMessage: MsgInvalidEmail,
			wantKind:    core.FailureValidation,
		},
		{
			name:        "empty email",
			input:       core.CredentialsInput{Email: "  ", Password: "s3cret"},
			wantMessage: MsgInvalidEmail,
			wantKind:    core.FailureValidation,
		},
		{
			name:        "empty password",
			input:       core.CredentialsInput{Email: "alice@example.com", Password: "   "},
			wantMessage: MsgPasswordRequired,
			wantKind:    core.FailureValidation,
		},
		{
			name:        "unknown email",
			input:       core.CredentialsInput{Email: "nobody@example.com", Password: "s3cret"},
			wantMessage: MsgUnknownEmail,
			wantKind:    core.FailureLookup,
		},
		{
			name:        "wrong password",
			input:       core.CredentialsInput{Email: "alice@example.com", Password: "guess"},
			wantMessage: MsgIncorrectPassword,
			wantKind:    core.FailureLookup,
		},
		{
			name:        "unsupported hash fails closed",
			input:       core.CredentialsInput{Email: "alice@example.com", Password: "s3cret"},
			setup:       func(f *authFixture) { f.dir.users["alice@example.com"].PasswordHash = "md5:abc" },
			wantMessage: MsgIncorrectPassword,
			wantKind:    core.FailureLookup,
		},
		{
			name:        "user lookup unavailable",
			input:       core.CredentialsInput{Email: "alice@example.com", Password: "s3cret"},
			setup:       func(f *authFixture) { f.dir.userErr = errTransport },
			wantMessage: MsgSignInFailed,
			wantKind:    core.FailureTransport,
		},
		{
			name:        "client lookup unavailable",
			input:       core.CredentialsInput{Email: "alice@example.com", Password: "s3cret"},
			setup:       func(f *authFixture) { f.dir.clientErr = errTransport },
			wantMessage: MsgAccessCheckFailed,
			wantKind:    core.FailureTransport,
		},
		{
			name:  "client provisioning fails",
			input: core.CredentialsInput{Email: "alice@example.com", Password: "s3cret"},
			setup: func(f *authFixture) {
				delete(f.dir.clients, "alice@example.com")
				f.dir.createErr = errTransport
			},
			wantMessage: MsgProvisionFailed,
			wantKind:    core.FailureTransport,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			f := newAuthFixture(0)
			if test.setup != nil {
				test.setup(f)
			}
			jar := NewFakeJar()

			// Act
			result := f.svc.SignInWithPassword(context.Background(), jar, test.input, "10.0.0.1")

			// Assert
			if result.Success {
				t.Fatal("SignInWithPassword() should fail")
			}
			if result.Message != test.wantMessage {
				t.Errorf("Message = %q, want %q", result.Message, test.wantMessage)
			}
			if result.Failure != test.wantKind {
				t.Errorf("Failure = %v, want %v", result.Failure, test.wantKind)
			}
			if result.RedirectTo != "" {
				t.Errorf("RedirectTo = %q, want empty", result.RedirectTo)
			}
			if len(jar.written) != 0 {
				t.Errorf("cookies written on failure: %v", jar.written)
			}
		})
	}
}

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{name: "valid", email: "alice@example.com", password: "s3cret", want: nil},
		{name: "empty email", email: "", password: "s3cret", want: core.ErrEmailRequired},
		{name: "malformed email", email: "alice@", password: "s3cret", want: core.ErrInvalidEmail},
		{name: "blank password", email: "alice@example.com", password: " \t", want: core.ErrPasswordRequired},
		{name: "email checked first", email: "alice", password: "", want: core.ErrInvalidEmail},
	}

	for _, test := range tests {
		if got := validateCredentials(test.email, test.password); !errors.Is(got, test.want) {
			t.Errorf("%s: validateCredentials() = %v, want %v", test.name, got, test.want)
		}
	}
}

// Requirement: a user without a client profile gets one created on first sign-in.
func TestSignInWithPassword_ProvisionsClient(t *testing.T) {
	f := newAuthFixture(0)
	f.dir.AddUser(&core.User{ID: "user-2", Email: "bob@example.com", PasswordHash: "hash:pw"})
	jar := NewFakeJar()

	result := f.svc.SignInWithPassword(context.Background(), jar, core.CredentialsInput{Email: "bob@example.com", Password: "pw"}, "")

	if !result.Success {
		t.Fatalf("SignInWithPassword() failed: %q", result.Message)
	}
	if f.dir.createCalls != 1 {
		t.Errorf("CreateClient calls = %d, want 1", f.dir.createCalls)
	}
	created := f.dir.clients["bob@example.com"]
	if created == nil || created.FullName != "bob" {
		t.Errorf("created client = %+v, want FullName from email local part", created)
	}

	session, err := f.svc.ReadSession(jar.roundTrip())
	if err != nil {
		t.Fatalf("ReadSession() error = %v", err)
	}
	if *session.ClientID != "client-new" || session.DisplayName != "bob" {
		t.Errorf("session = %+v", session)
	}
}

// Requirement: a valid project code signs in the client's user and selects the project.
func TestSignInWithProjectCode_Success(t *testing.T) {
	f := newAuthFixture(0)
	jar := NewFakeJar()

	result := f.svc.SignInWithProjectCode(context.Background(), jar, core.ProjectCodeInput{ProjectCode: " CASA-2024 "}, "10.0.0.1")

	if !result.Success {
		t.Fatalf("SignInWithProjectCode() failed: %q", result.Message)
	}
	want := "/client/dashboard?project=casa-mar&welcome=1"
	if result.RedirectTo != want {
		t.Errorf("RedirectTo = %q, want %q", result.RedirectTo, want)
	}
	session, err := f.svc.ReadSession(jar.roundTrip())
	if err != nil {
		t.Fatalf("ReadSession() error = %v", err)
	}
	if session.UserID != "user-1" || *session.ClientID != "client-1" {
		t.Errorf("session = %+v", session)
	}
}

func TestSignInWithProjectCode_Failures(t *testing.T) {
	tests := []struct {
		name        string
		code        string
		setup       func(f *authFixture)
		wantMessage string
		wantKind    core.FailureKind
	}{
		{name: "empty code", code: "  ", wantMessage: MsgCodeRequired, wantKind: core.FailureValidation},
		{name: "unknown code", code: "NOPE", wantMessage: MsgUnknownProject, wantKind: core.FailureLookup},
		{
			name:        "project lookup unavailable",
			code:        "CASA-2024",
			setup:       func(f *authFixture) { f.dir.projectErr = errTransport },
			wantMessage: MsgCodeCheckFailed,
			wantKind:    core.FailureTransport,
		},
		{
			name:        "project without client",
			code:        "CASA-2024",
			setup:       func(f *authFixture) { f.dir.projects["CASA-2024"].Client = nil },
			wantMessage: MsgCodeCheckFailed,
			wantKind:    core.FailureTransport,
		},
		{
			name:        "client has no user",
			code:        "CASA-2024",
			setup:       func(f *authFixture) { delete(f.dir.users, "alice@example.com") },
			wantMessage: MsgNoProjectAccess,
			wantKind:    core.FailureLookup,
		},
		{
			name:        "user lookup unavailable",
			code:        "CASA-2024",
			setup:       func(f *authFixture) { f.dir.userErr = errTransport },
			wantMessage: MsgAccessCheckFailed,
			wantKind:    core.FailureTransport,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			f := newAuthFixture(0)
			if test.setup != nil {
				test.setup(f)
			}
			jar := NewFakeJar()

			result := f.svc.SignInWithProjectCode(context.Background(), jar, core.ProjectCodeInput{ProjectCode: test.code}, "10.0.0.1")

			if result.Success {
				t.Fatal("SignInWithProjectCode() should fail")
			}
			if result.Message != test.wantMessage || result.Failure != test.wantKind {
				t.Errorf("result = %q/%v, want %q/%v", result.Message, result.Failure, test.wantMessage, test.wantKind)
			}
			if len(jar.written) != 0 {
				t.Errorf("cookies written on failure: %v", jar.written)
			}
			if f.dir.createCalls != 0 {
				t.Errorf("CreateClient called %d times", f.dir.createCalls)
			}
		})
	}
}

// Requirement: repeated attempts are throttled before any directory lookup.
func TestSignIn_Throttled(t *testing.T) {
	f := newAuthFixture(2)
	input := core.CredentialsInput{Email: "alice@example.com", Password: "guess"}

	for i := 0; i < 2; i++ {
		result := f.svc.SignInWithPassword(context.Background(), NewFakeJar(), input, "10.0.0.1")
		if result.Failure != core.FailureLookup {
			t.Fatalf("attempt %d: Failure = %v, want FailureLookup", i+1, result.Failure)
		}
	}

	// even the right password is refused once throttled
	input.Password = "s3cret"
	jar := NewFakeJar()
	result := f.svc.SignInWithPassword(context.Background(), jar, input, "10.0.0.1")
	if result.Success || result.Failure != core.FailureThrottled || result.Message != MsgTooManyAttempts {
		t.Errorf("result = %+v, want throttled", result)
	}
	if len(jar.written) != 0 {
		t.Error("throttled attempt wrote a cookie")
	}

	// another address is unaffected
	result = f.svc.SignInWithPassword(context.Background(), NewFakeJar(), input, "10.0.0.2")
	if !result.Success {
		t.Errorf("other address: %q", result.Message)
	}
}

func TestSignInWithProjectCode_Throttled(t *testing.T) {
	f := newAuthFixture(1)
	ctx := context.Background()

	_ = f.svc.SignInWithProjectCode(ctx, NewFakeJar(), core.ProjectCodeInput{ProjectCode: "NOPE"}, "10.0.0.1")
	result := f.svc.SignInWithProjectCode(ctx, NewFakeJar(), core.ProjectCodeInput{ProjectCode: "CASA-2024"}, "10.0.0.1")

	if result.Failure != core.FailureThrottled {
		t.Errorf("Failure = %v, want FailureThrottled", result.Failure)
	}
}

// Requirement: a successful login clears the attempt counter, so only
// failures count toward the limit.
func TestSignIn_SuccessResetsAttempts(t *testing.T) {
	ctx := context.Background()
	wrong := core.CredentialsInput{Email: "alice@example.com", Password: "guess"}
	right := core.CredentialsInput{Email: "alice@example.com", Password: "s3cret"}
	badCode := core.ProjectCodeInput{ProjectCode: "NOPE"}
	goodCode := core.ProjectCodeInput{ProjectCode: "CASA-2024"}

	tests := []struct {
		name    string
		fail    func(f *authFixture) *core.LoginResult
		succeed func(f *authFixture) *core.LoginResult
	}{
		{
			name:    "password",
			fail:    func(f *authFixture) *core.LoginResult { return f.svc.SignInWithPassword(ctx, NewFakeJar(), wrong, "10.0.0.1") },
			succeed: func(f *authFixture) *core.LoginResult { return f.svc.SignInWithPassword(ctx, NewFakeJar(), right, "10.0.0.1") },
		},
		{
			name:    "project code",
			fail:    func(f *authFixture) *core.LoginResult { return f.svc.SignInWithProjectCode(ctx, NewFakeJar(), badCode, "10.0.0.1") },
			succeed: func(f *authFixture) *core.LoginResult { return f.svc.SignInWithProjectCode(ctx, NewFakeJar(), goodCode, "10.0.0.1") },
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Arrange
			f := newAuthFixture(2)
			_ = test.fail(f)

			// Act
			if result := test.succeed(f); !result.Success {
				t.Fatalf("sign-in failed: %q", result.Message)
			}

			// Assert
			for i := 0; i < 2; i++ {
				if result := test.fail(f); result.Failure != core.FailureLookup {
					t.Fatalf("failure %d after success: Failure = %v, want FailureLookup", i+1, result.Failure)
				}
			}
			if result := test.fail(f); result.Failure != core.FailureThrottled {
				t.Errorf("Failure = %v, want FailureThrottled", result.Failure)
			}
		})
	}
}

// Requirement: an unavailable counter store does not block sign-in.
func TestSignIn_LimiterUnavailable(t *testing.T) {
	f := newAuthFixture(1)
	f.windows.err = errTransport

	for i := 0; i < 3; i++ {
		result := f.svc.SignInWithPassword(context.Background(), NewFakeJar(), core.CredentialsInput{Email: "alice@example.com", Password: "s3cret"}, "10.0.0.1")
		if !result.Success {
			t.Fatalf("attempt %d failed: %q", i+1, result.Message)
		}
	}
}

// Requirement: signing out expires the cookie so the next request has no session.
func TestSignOut(t *testing.T) {
	f := newAuthFixture(0)
	jar := NewFakeJar()
	f.svc.SignInWithPassword(context.Background(), jar, core.CredentialsInput{Email: "alice@example.com", Password: "s3cret"}, "")

	next := jar.roundTrip()
	f.svc.SignOut(next)

	if c, ok := next.expired[core.DefaultCookieName]; !ok || c.Path != "/" {
		t.Errorf("expired = %v, want cookie expired on /", next.expired)
	}
	if _, err := f.svc.ReadSession(next.roundTrip()); !errors.Is(err, core.ErrSessionNotFound) {
		t.Errorf("ReadSession() after SignOut error = %v, want ErrSessionNotFound", err)
	}
}

func TestReadSession_Invalid(t *testing.T) {
	f := newAuthFixture(0)
	jar := NewFakeJar()
	jar.incoming[core.DefaultCookieName] = "forged.value"

	session, err := f.svc.ReadSession(jar)

	if session != nil || !errors.Is(err, core.ErrInvalidToken) {
		t.Errorf("ReadSession() = %v, %v; want nil, ErrInvalidToken", session, err)
	}
	if _, ok := jar.expired[core.DefaultCookieName]; !ok {
		t.Error("invalid cookie was not expired")
	}
}

func TestListProjects(t *testing.T) {
	f := newAuthFixture(0)
	ctx := context.Background()

	projects, err := f.svc.ListProjects(ctx, "client-1")
	if err != nil || len(projects) != 1 || projects[0].Slug != "casa-mar" {
		t.Errorf("ListProjects() = %v, %v", projects, err)
	}

	projects, err = f.svc.ListProjects(ctx, "")
	if err != nil || projects != nil {
		t.Errorf("ListProjects(\"\") = %v, %v; want nil, nil", projects, err)
	}

	f.dir.projectErr = errTransport
	if _, err := f.svc.ListProjects(ctx, "client-1"); !errors.Is(err, errTransport) {
		t.Errorf("ListProjects() error = %v, want wrapped errTransport", err)
	}
}
