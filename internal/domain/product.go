package domain

import "time"

// Catalog limits enforced on product writes.
const (
	MaxPrice = 99_999_999
	MaxStock = 9_999
)

// Rental periods.
const (
	RentalPeriodDaily   = "daily"
	RentalPeriodWeekly  = "weekly"
	RentalPeriodMonthly = "monthly"
)

// Rental availability of a rentable product.
const (
	RentalStatusAvailable   = "available"
	RentalStatusRented      = "rented"
	RentalStatusUnavailable = "unavailable"
)

// Product is a catalog entry. Ratings and NumOfReviews are derived from
// Reviews and only change through SetReview and RemoveReview.
type Product struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Category     string    `json:"category"`
	Price        int64     `json:"price"`
	Stock        int       `json:"stock"`
	IsForSale    bool      `json:"is_for_sale"`
	IsRentable   bool      `json:"is_rentable"`
	RentalPrice  int64     `json:"rental_price"`
	RentalPeriod string    `json:"rental_period,omitempty"`
	RentalStatus string    `json:"rental_status,omitempty"`
	Ratings      float64   `json:"ratings"`
	NumOfReviews int       `json:"num_of_reviews"`
	Reviews      []Review  `json:"reviews"`
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsValidRentalPeriod checks a rental period value.
func IsValidRentalPeriod(p string) bool {
	switch p {
	case RentalPeriodDaily, RentalPeriodWeekly, RentalPeriodMonthly:
		return true
	}
	return false
}

// IsValidRentalStatus checks a rental status value.
func IsValidRentalStatus(s string) bool {
	switch s {
	case RentalStatusAvailable, RentalStatusRented, RentalStatusUnavailable:
		return true
	}
	return false
}

// AvailableForRent reports whether a rental order may be placed.
func (p *Product) AvailableForRent() bool {
	return p.IsRentable && p.RentalStatus == RentalStatusAvailable
}

// ReviewByUser returns the review written by userID, or nil.
func (p *Product) ReviewByUser(userID string) *Review {
	for i := range p.Reviews {
		if p.Reviews[i].UserID == userID {
			return &p.Reviews[i]
		}
	}
	return nil
}

// ReviewByID returns the review with the given id, or nil.
func (p *Product) ReviewByID(id string) *Review {
	for i := range p.Reviews {
		if p.Reviews[i].ID == id {
			return &p.Reviews[i]
		}
	}
	return nil
}

// SetReview replaces the rating and comment of r.UserID's existing review in
// place, or appends r when the user has not reviewed the product yet. It
// reports whether an existing review was replaced. The display name is kept
// from the first write.
func (p *Product) SetReview(r Review, now time.Time) bool {
	if existing := p.ReviewByUser(r.UserID); existing != nil {
		existing.Rating = r.Rating
		existing.Comment = r.Comment
		existing.UpdatedAt = now
		p.recomputeRatings()
		return true
	}

	r.CreatedAt = now
	r.UpdatedAt = now
	p.Reviews = append(p.Reviews, r)
	p.recomputeRatings()
	return false
}

// RemoveReview drops the review with the given id and returns it. Removing
// an unknown id leaves the reviews untouched and returns nil.
func (p *Product) RemoveReview(id string) *Review {
	for i := range p.Reviews {
		if p.Reviews[i].ID == id {
			removed := p.Reviews[i]
			p.Reviews = append(p.Reviews[:i:i], p.Reviews[i+1:]...)
			p.recomputeRatings()
			return &removed
		}
	}
	p.recomputeRatings()
	return nil
}

func (p *Product) recomputeRatings() {
	if p.Reviews == nil {
		p.Reviews = []Review{}
	}
	p.NumOfReviews = len(p.Reviews)
	p.Ratings = MeanRating(p.Reviews)
}
