package config

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/facebook"
	"github.com/markbates/goth/providers/google"
)

// SetupOAuth registers the goth providers that have credentials and returns their names.
// Providers are only registered when SESSION_SECRET is set.
func SetupOAuth(cfg *Config) []string {
	if cfg.OAuth.SessionSecret == "" {
		return nil
	}

	store := sessions.NewCookieStore([]byte(cfg.OAuth.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	// The router passes the provider as a path parameter, copied into the query by the handler.
	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}

	callback := func(name string) string {
		return cfg.BaseURL + "/api/v1/auth/" + name + "/callback"
	}

	var providers []goth.Provider
	var names []string
	if cfg.OAuth.GoogleClientID != "" && cfg.OAuth.GoogleClientSecret != "" {
		providers = append(providers, google.New(cfg.OAuth.GoogleClientID, cfg.OAuth.GoogleClientSecret, callback("google"), "email", "profile"))
		names = append(names, "google")
	}
	if cfg.OAuth.FacebookClientID != "" && cfg.OAuth.FacebookClientSecret != "" {
		providers = append(providers, facebook.New(cfg.OAuth.FacebookClientID, cfg.OAuth.FacebookClientSecret, callback("facebook"), "email"))
		names = append(names, "facebook")
	}
	if len(providers) > 0 {
		goth.UseProviders(providers...)
	}
	return names
}
