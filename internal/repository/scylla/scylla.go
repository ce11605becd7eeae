// Package scylla implémente les repositories sur ScyllaDB.
//
// Les valeurs imbriquées (images, avis, lignes de commande, livraison, paiement)
// sont stockées en colonnes texte JSON. Les écritures conditionnelles passent par des LWT.
package scylla

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gocql/gocql"

	"ecoshop_back_end/internal/repository"
)

type scanner interface {
	Scan(dest ...interface{}) error
}

func encode(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decode(raw string, v any) error {
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), v)
}

func notFound(err error) error {
	if errors.Is(err, gocql.ErrNotFound) {
		return repository.ErrNotFound
	}
	return err
}

// cas exécute une requête conditionnelle et indique si elle a été appliquée.
func cas(q *gocql.Query) (bool, error) {
	applied, err := q.MapScanCAS(map[string]interface{}{})
	if err != nil {
		return false, fmt.Errorf("lightweight transaction: %w", err)
	}
	return applied, nil
}
