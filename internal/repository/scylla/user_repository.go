package scylla

import (
	"context"
	"fmt"
	"strings"

	"github.com/gocql/gocql"

	"ecoshop_back_end/internal/models"
	"ecoshop_back_end/internal/repository"
)

const userColumns = `user_id, name, email, password, role, avatar_public_id, avatar_url, provider, created_at`

type UserRepository struct {
	session *gocql.Session
}

func NewUserRepository(session *gocql.Session) *UserRepository {
	return &UserRepository{session: session}
}

// users_by_email n'est écrit qu'en LWT.
const (
	claimEmailCQL   = `INSERT INTO users_by_email (email, user_id) VALUES (?, ?) IF NOT EXISTS`
	releaseEmailCQL = `DELETE FROM users_by_email WHERE email = ? IF user_id = ?`
)

// emailIndex réserve les emails uniques des utilisateurs.
type emailIndex interface {
	claimEmail(ctx context.Context, email, userID string) error
	releaseEmail(ctx context.Context, email, userID string) error
}

// claimEmail réserve l'email pour userID dans users_by_email.
func (r *UserRepository) claimEmail(ctx context.Context, email, userID string) error {
	applied, err := cas(r.session.Query(claimEmailCQL, email, userID).WithContext(ctx))
	if err != nil {
		return fmt.Errorf("claim email: %w", err)
	}
	if !applied {
		return repository.ErrDuplicateEmail
	}
	return nil
}

// releaseEmail libère l'email s'il appartient encore à userID.
func (r *UserRepository) releaseEmail(ctx context.Context, email, userID string) error {
	if _, err := cas(r.session.Query(releaseEmailCQL, email, userID).WithContext(ctx)); err != nil {
		return fmt.Errorf("release email: %w", err)
	}
	return nil
}

// withEmail réserve l'email, exécute write et libère la réservation si write échoue.
func withEmail(ctx context.Context, idx emailIndex, email, userID string, write func(context.Context) error) error {
	if err := idx.claimEmail(ctx, email, userID); err != nil {
		return err
	}
	if err := write(ctx); err != nil {
		_ = idx.releaseEmail(ctx, email, userID)
		return err
	}
	return nil
}

// swapEmail déplace userID de oldEmail vers newEmail autour de write.
func swapEmail(ctx context.Context, idx emailIndex, oldEmail, newEmail, userID string, write func(context.Context) error) error {
	if oldEmail == newEmail {
		return write(ctx)
	}
	if err := withEmail(ctx, idx, newEmail, userID, write); err != nil {
		return err
	}
	return idx.releaseEmail(ctx, oldEmail, userID)
}

func (r *UserRepository) write(ctx context.Context, u *models.User) error {
	return r.session.Query(`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, strings.ToLower(u.Email), u.Password, u.Role, u.Avatar.PublicID, u.Avatar.URL, u.Provider, u.CreatedAt,
	).WithContext(ctx).Exec()
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	return withEmail(ctx, r, strings.ToLower(u.Email), u.ID, func(ctx context.Context) error {
		if err := r.write(ctx, u); err != nil {
			return fmt.Errorf("insert user: %w", err)
		}
		return nil
	})
}

func scanUser(s scanner) (*models.User, error) {
	var u models.User
	if err := s.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &u.Role, &u.Avatar.PublicID, &u.Avatar.URL,
		&u.Provider, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.session.Query(`SELECT `+userColumns+` FROM users WHERE user_id = ?`, id).WithContext(ctx))
	if err != nil {
		return nil, notFound(err)
	}
	return u, nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var id string
	if err := r.session.Query(`SELECT user_id FROM users_by_email WHERE email = ?`, strings.ToLower(email)).
		WithContext(ctx).Scan(&id); err != nil {
		return nil, notFound(err)
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	iter := r.session.Query(`SELECT ` + userColumns + ` FROM users`).WithContext(ctx).Iter()
	sc := iter.Scanner()

	var out []*models.User
	for sc.Next() {
		u, err := scanUser(sc)
		if err != nil {
			_ = iter.Close()
			return nil, err
		}
		out = append(out, u)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (r *UserRepository) Update(ctx context.Context, u *models.User) error {
	current, err := r.GetByID(ctx, u.ID)
	if err != nil {
		return err
	}

	return swapEmail(ctx, r, strings.ToLower(current.Email), strings.ToLower(u.Email), u.ID,
		func(ctx context.Context) error {
			if err := r.write(ctx, u); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
			return nil
		})
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	u, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := r.session.Query(`DELETE FROM users WHERE user_id = ?`, id).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return r.releaseEmail(ctx, strings.ToLower(u.Email), id)
}
