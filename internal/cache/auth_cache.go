package cache

import (
	"context"
	"strings"
	"time"
)

const (
	LoginMaxAttempts = 5
	LoginCooldown    = 15 * time.Minute
)

// LoginGuard compte les échecs de connexion par email et bloque l'email
// pendant LoginCooldown une fois LoginMaxAttempts atteint.
type LoginGuard struct {
	store       *Store
	maxAttempts int64
	cooldown    time.Duration
}

func NewLoginGuard(store *Store) *LoginGuard {
	return &LoginGuard{store: store, maxAttempts: LoginMaxAttempts, cooldown: LoginCooldown}
}

func attemptsKey(email string) string { return "login_attempts:" + strings.ToLower(email) }
func cooldownKey(email string) string { return "login_cooldown:" + strings.ToLower(email) }

// Blocked retourne le blocage restant pour l'email, zéro si la connexion est permise.
func (g *LoginGuard) Blocked(ctx context.Context, email string) (time.Duration, error) {
	return g.store.TTL(ctx, cooldownKey(email))
}

// Fail enregistre un échec et retourne le nombre de tentatives restantes.
// À zéro, le blocage est armé.
func (g *LoginGuard) Fail(ctx context.Context, email string) (int64, error) {
	n, err := g.store.IncrementRateLimit(ctx, attemptsKey(email), g.cooldown)
	if err != nil {
		return 0, err
	}
	remaining := g.maxAttempts - n
	if remaining <= 0 {
		if err := g.store.Set(ctx, cooldownKey(email), "1", g.cooldown); err != nil {
			return 0, err
		}
		return 0, g.store.Delete(ctx, attemptsKey(email))
	}
	return remaining, nil
}

// Reset efface les compteurs après une connexion réussie.
func (g *LoginGuard) Reset(ctx context.Context, email string) error {
	return g.store.Delete(ctx, attemptsKey(email), cooldownKey(email))
}
