package domain

import "time"

// Accepted rating range.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a single user's rating of a product. There is at most one
// review per user and product.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsValidRating checks a rating against the accepted range.
func IsValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}

// MeanRating is the arithmetic mean of the ratings, 0 for no reviews.
func MeanRating(reviews []Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(reviews))
}
