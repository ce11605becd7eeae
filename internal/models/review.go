package models

const (
	MinRating = 1
	MaxRating = 5
)

type Review struct {
	ID      string `json:"_id"`
	User    string `json:"user"`
	Name    string `json:"name"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}
