package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/lborres/clientportal/core"
	"github.com/lborres/clientportal/pkg/crypto"
)

const testSecret = "services-test-secret-at-least-32-characters"

// FakeDirectory is a test-only fake implementing core.Directory.
// It stores rows in maps and exposes error fields for behavior injection.
type FakeDirectory struct {
	mu       sync.RWMutex
	users    map[string]*core.User    // key: email
	clients  map[string]*core.Client  // key: email
	projects map[string]*core.Project // key: code

	userErr    error
	clientErr  error
	createErr  error
	projectErr error

	createCalls int
}

func NewFakeDirectory() *FakeDirectory {
	return &FakeDirectory{
		users:    make(map[string]*core.User),
		clients:  make(map[string]*core.Client),
		projects: make(map[string]*core.Project),
	}
}

func (f *FakeDirectory) AddUser(u *core.User)       { f.users[u.Email] = u }
func (f *FakeDirectory) AddClient(c *core.Client)   { f.clients[c.Email] = c }
func (f *FakeDirectory) AddProject(p *core.Project) { f.projects[p.Code] = p }

func (f *FakeDirectory) FindActiveUserByEmail(_ context.Context, email string) (*core.User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.userErr != nil {
		return nil, f.userErr
	}
	u, ok := f.users[email]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return u, nil
}

func (f *FakeDirectory) FindClientByEmail(_ context.Context, email string) (*core.Client, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.clientErr != nil {
		return nil, f.clientErr
	}
	c, ok := f.clients[email]
	if !ok {
		return nil, core.ErrClientNotFound
	}
	return c, nil
}

func (f *FakeDirectory) CreateClient(_ context.Context, input core.NewClient) (*core.Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	c := &core.Client{ID: "client-new", FullName: input.FullName, Email: input.Email}
	f.clients[input.Email] = c
	return c, nil
}

func (f *FakeDirectory) FindProjectByCode(_ context.Context, code string) (*core.Project, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	p, ok := f.projects[code]
	if !ok {
		return nil, core.ErrProjectNotFound
	}
	return p, nil
}

func (f *FakeDirectory) ListProjectsByClient(_ context.Context, clientID string) ([]*core.Project, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.projectErr != nil {
		return nil, f.projectErr
	}
	var out []*core.Project
	for _, p := range f.projects {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

// FakeJar is a test-only core.CookieJar. Request cookies are read from
// incoming, response writes are recorded in written and expired.
type FakeJar struct {
	incoming map[string]string
	written  map[string]*core.Cookie
	expired  map[string]*core.Cookie
}

func NewFakeJar() *FakeJar {
	return &FakeJar{
		incoming: make(map[string]string),
		written:  make(map[string]*core.Cookie),
		expired:  make(map[string]*core.Cookie),
	}
}

func (j *FakeJar) Get(name string) string { return j.incoming[name] }

func (j *FakeJar) Set(c *core.Cookie) {
	j.written[c.Name] = c
	delete(j.expired, c.Name)
}

func (j *FakeJar) Expire(c *core.Cookie) {
	j.expired[c.Name] = c
	delete(j.written, c.Name)
}

// roundTrip returns a jar whose request carries the cookies written to j,
// as a browser would on the next request.
func (j *FakeJar) roundTrip() *FakeJar {
	next := NewFakeJar()
	for name, value := range j.incoming {
		if _, gone := j.expired[name]; !gone {
			next.incoming[name] = value
		}
	}
	for name, c := range j.written {
		next.incoming[name] = c.Value
	}
	return next
}

// fakePasswords is a plain-text PasswordVerifier; hashes are "hash:<password>".
type fakePasswords struct {
	err error
}

func (p *fakePasswords) Verify(password, hash string) (bool, error) {
	if p.err != nil {
		return false, p.err
	}
	if !strings.HasPrefix(hash, "hash:") {
		return false, core.ErrUnsupportedHash
	}
	return strings.TrimPrefix(hash, "hash:") == password, nil
}

// fakeWindowStore counts in memory and never expires.
type fakeWindowStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newFakeWindowStore() *fakeWindowStore {
	return &fakeWindowStore{counts: make(map[string]int64)}
}

func (f *fakeWindowStore) IncrementWindow(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, 0, f.err
	}
	f.counts[key]++
	return f.counts[key], window, nil
}

func (f *fakeWindowStore) Reset(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.counts, key)
	return nil
}

var errTransport = errors.New("connection refused")

func newTestCodec() *SessionCodec {
	signer, err := crypto.NewSigner(testSecret)
	if err != nil {
		panic(err)
	}
	return NewSessionCodec(signer)
}

func newTestStore() *SessionStore {
	return NewSessionStore(core.DefaultSessionConfig(), newTestCodec())
}

func strPtr(s string) *string { return &s }
