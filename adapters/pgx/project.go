package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lborres/clientportal/core"
)

func (a *Adapter) FindProjectByCode(ctx context.Context, code string) (*core.Project, error) {
	q := `SELECT p.id::text, p.slug, p.code, p.name, p.client_id::text, c.id::text, COALESCE(c.full_name, ''), c.email
	      FROM public.projects p
	      JOIN public.clients c ON c.id = p.client_id
	      WHERE p.code = $1`

	project := &core.Project{Client: &core.Client{}}
	err := a.pool.QueryRow(ctx, q, code).Scan(
		&project.ID, &project.Slug, &project.Code, &project.Name, &project.ClientID,
		&project.Client.ID, &project.Client.FullName, &project.Client.Email,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrProjectNotFound
		}
		return nil, err
	}
	return project, nil
}

// ListProjectsByClient returns the client's projects, newest first.
func (a *Adapter) ListProjectsByClient(ctx context.Context, clientID string) ([]*core.Project, error) {
	q := `SELECT id::text, slug, COALESCE(code, ''), name, client_id::text
	      FROM public.projects WHERE client_id = $1
	      ORDER BY created_at DESC`

	rows, err := a.pool.Query(ctx, q, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []*core.Project
	for rows.Next() {
		p := &core.Project{}
		if err := rows.Scan(&p.ID, &p.Slug, &p.Code, &p.Name, &p.ClientID); err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return projects, nil
}
