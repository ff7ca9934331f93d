// Package memory holds in-process directories for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/lborres/clientportal/core"
	"github.com/lborres/clientportal/pkg/crypto"
)

// Directory implements core.Directory over maps guarded by a single lock.
type Directory struct {
	mu       sync.RWMutex
	users    map[string]*userRow      // key: lowercase email
	clients  map[string]*core.Client  // key: lowercase email
	projects map[string]*core.Project // key: code
	ids      *crypto.NanoIDGenerator
}

type userRow struct {
	user   core.User
	active bool
}

var _ core.Directory = (*Directory)(nil)

func New() *Directory {
	ids, err := crypto.NewNanoID("")
	if err != nil {
		// the default alphabet is always valid
		panic(err)
	}

	return &Directory{
		users:    make(map[string]*userRow),
		clients:  make(map[string]*core.Client),
		projects: make(map[string]*core.Project),
		ids:      ids,
	}
}

// PutUser stores or replaces a user. Inactive users are invisible to lookups.
func (d *Directory) PutUser(user core.User, active bool) *core.User {
	d.mu.Lock()
	defer d.mu.Unlock()

	if user.ID == "" {
		user.ID = d.ids.MustGenerate(0)
	}
	user.Email = normalize(user.Email)
	d.users[user.Email] = &userRow{user: user, active: active}

	return &user
}

// PutClient stores or replaces a client profile.
func (d *Directory) PutClient(client core.Client) *core.Client {
	d.mu.Lock()
	defer d.mu.Unlock()

	if client.ID == "" {
		client.ID = d.ids.MustGenerate(0)
	}
	client.Email = normalize(client.Email)
	d.clients[client.Email] = &client

	return &client
}

// PutProject stores or replaces a project. Its client must already exist.
func (d *Directory) PutProject(project core.Project) (*core.Project, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if project.Code == "" {
		return nil, core.ErrProjectCodeRequired
	}
	if d.clientByID(project.ClientID) == nil {
		return nil, fmt.Errorf("project %q: %w", project.Slug, core.ErrClientNotFound)
	}
	if project.ID == "" {
		project.ID = d.ids.MustGenerate(0)
	}
	project.Client = nil
	d.projects[project.Code] = &project

	return &project, nil
}

func (d *Directory) FindActiveUserByEmail(_ context.Context, email string) (*core.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	row, ok := d.users[normalize(email)]
	if !ok || !row.active {
		return nil, core.ErrUserNotFound
	}

	user := row.user
	return &user, nil
}

func (d *Directory) FindClientByEmail(_ context.Context, email string) (*core.Client, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	client, ok := d.clients[normalize(email)]
	if !ok {
		return nil, core.ErrClientNotFound
	}

	c := *client
	return &c, nil
}

func (d *Directory) CreateClient(_ context.Context, input core.NewClient) (*core.Client, error) {
	email := normalize(input.Email)
	if email == "" {
		return nil, core.ErrEmailRequired
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// upsert on email, like the unique constraint in Postgres
	if existing, ok := d.clients[email]; ok {
		c := *existing
		return &c, nil
	}

	id, err := d.ids.Generate(0)
	if err != nil {
		return nil, fmt.Errorf("failed to generate client id: %w", err)
	}
	client := &core.Client{ID: id, FullName: input.FullName, Email: email}
	d.clients[email] = client

	c := *client
	return &c, nil
}

func (d *Directory) FindProjectByCode(_ context.Context, code string) (*core.Project, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	project, ok := d.projects[code]
	if !ok {
		return nil, core.ErrProjectNotFound
	}

	return d.withClient(project), nil
}

func (d *Directory) ListProjectsByClient(_ context.Context, clientID string) ([]*core.Project, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var projects []*core.Project
	for _, p := range d.projects {
		if p.ClientID == clientID {
			projects = append(projects, d.withClient(p))
		}
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })

	return projects, nil
}

// withClient returns a copy of p joined to its client. Callers hold d.mu.
func (d *Directory) withClient(p *core.Project) *core.Project {
	project := *p
	if client := d.clientByID(p.ClientID); client != nil {
		c := *client
		project.Client = &c
	}
	return &project
}

func (d *Directory) clientByID(id string) *core.Client {
	for _, c := range d.clients {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
