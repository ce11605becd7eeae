package models

import (
	"time"
)

// Image est un fichier conservé par le stockage d'images.
type Image struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

type Product struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Price        float64   `json:"price"`
	Category     string    `json:"category"`
	Stock        int       `json:"stock"`
	Images       []Image   `json:"images"`
	Reviews      []Review  `json:"reviews"`
	Ratings      float64   `json:"ratings"`
	NumOfReviews int       `json:"numOfReviews"`
	User         string    `json:"user"`
	Version      int64     `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Clone retourne une copie profonde, les slices peuvent être modifiées librement.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Images = append([]Image(nil), p.Images...)
	cp.Reviews = append([]Review(nil), p.Reviews...)
	return &cp
}

// ProductFilter restreint les listes du catalogue. Une valeur zéro désactive le critère.
type ProductFilter struct {
	Keyword    string
	Category   string
	PriceGTE   *float64
	PriceLTE   *float64
	RatingsGTE *float64
	// IDs restreint aux produits donnés (résultats de recherche), nil pour aucune restriction.
	IDs []string
}
