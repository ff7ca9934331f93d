package memory

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/lborres/clientportal/core"
)

// Seed is the YAML fixture format accepted by Load.
//
//	users:
//	  - email: ana@example.com
//	    name: Ana
//	    password_hash: $argon2id$...
//	clients:
//	  - email: ana@example.com
//	    full_name: Ana Souza
//	    projects:
//	      - slug: casa-mar
//	        name: Casa Mar
//	        code: CASA-2024
type Seed struct {
	Users   []SeedUser   `yaml:"users"`
	Clients []SeedClient `yaml:"clients"`
}

type SeedUser struct {
	Email        string `yaml:"email"`
	Name         string `yaml:"name"`
	Role         string `yaml:"role"`
	PasswordHash string `yaml:"password_hash"`
	Inactive     bool   `yaml:"inactive"`
}

type SeedClient struct {
	Email    string        `yaml:"email"`
	FullName string        `yaml:"full_name"`
	Projects []SeedProject `yaml:"projects"`
}

type SeedProject struct {
	Slug string `yaml:"slug"`
	Name string `yaml:"name"`
	Code string `yaml:"code"`
}

// Load decodes a YAML seed from r and stores its rows in d.
func (d *Directory) Load(r io.Reader) error {
	var seed Seed
	if err := yaml.NewDecoder(r).Decode(&seed); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode seed: %w", err)
	}

	return d.Apply(seed)
}

// Apply stores every row of seed in d.
func (d *Directory) Apply(seed Seed) error {
	for _, u := range seed.Users {
		if u.Email == "" {
			return fmt.Errorf("seed user: %w", core.ErrEmailRequired)
		}
		d.PutUser(core.User{
			Email:        u.Email,
			DisplayName:  u.Name,
			Role:         u.Role,
			PasswordHash: u.PasswordHash,
		}, !u.Inactive)
	}

	for _, c := range seed.Clients {
		if c.Email == "" {
			return fmt.Errorf("seed client: %w", core.ErrEmailRequired)
		}
		client := d.PutClient(core.Client{FullName: c.FullName, Email: c.Email})
		for _, p := range c.Projects {
			if _, err := d.PutProject(core.Project{
				Slug:     p.Slug,
				Name:     p.Name,
				Code:     p.Code,
				ClientID: client.ID,
			}); err != nil {
				return fmt.Errorf("seed project %q: %w", p.Slug, err)
			}
		}
	}

	return nil
}
