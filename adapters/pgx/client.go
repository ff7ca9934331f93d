package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/lborres/clientportal/core"
)

func (a *Adapter) FindClientByEmail(ctx context.Context, email string) (*core.Client, error) {
	q := `SELECT id::text, COALESCE(full_name, ''), email FROM public.clients WHERE email = $1`

	client := &core.Client{}
	err := a.pool.QueryRow(ctx, q, email).Scan(&client.ID, &client.FullName, &client.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrClientNotFound
		}
		return nil, err
	}
	return client, nil
}

// CreateClient inserts a client profile. A concurrent first login for the same
// email resolves to the row that won the insert.
func (a *Adapter) CreateClient(ctx context.Context, input core.NewClient) (*core.Client, error) {
	if input.Email == "" {
		return nil, core.ErrEmailRequired
	}

	q := `INSERT INTO public.clients (full_name, email) VALUES ($1, $2)
	      ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
	      RETURNING id::text, COALESCE(full_name, ''), email`

	client := &core.Client{}
	err := a.pool.QueryRow(ctx, q, input.FullName, input.Email).Scan(&client.ID, &client.FullName, &client.Email)
	if err != nil {
		return nil, err
	}
	return client, nil
}
