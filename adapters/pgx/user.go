package pgx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/lborres/clientportal/core"
)

func (a *Adapter) FindActiveUserByEmail(ctx context.Context, email string) (*core.User, error) {
	q := `SELECT id::text, email, COALESCE(full_name, ''), COALESCE(role, ''), COALESCE(password_hash, '')
	      FROM public.app_users WHERE email = $1 AND is_active = true`

	user := &core.User{}
	err := a.pool.QueryRow(ctx, q, email).Scan(&user.ID, &user.Email, &user.DisplayName, &user.Role, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}
