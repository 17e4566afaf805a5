package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/storefront-labs/orderengine/internal/auth"
	"github.com/storefront-labs/orderengine/internal/domain"
	"github.com/storefront-labs/orderengine/internal/event"
	"github.com/storefront-labs/orderengine/internal/lock"
	"github.com/storefront-labs/orderengine/internal/repository"
	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

// ReviewService maintains product reviews and the aggregate rating derived
// from them.
type ReviewService struct {
	store      repository.Store
	locker     lock.Locker
	events     EventPublisher
	maxRetries int
	logger     *slog.Logger
	now        func() time.Time
}

// NewReviewService creates a new review service. maxRetries bounds the
// compare-and-swap attempts per write and is at least 1.
func NewReviewService(store repository.Store, locker lock.Locker, events EventPublisher, maxRetries int, logger *slog.Logger) *ReviewService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &ReviewService{
		store:      store,
		locker:     locker,
		events:     events,
		maxRetries: maxRetries,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// UpsertReviewInput holds the parameters for writing a review. UserID and
// Name default to the principal's.
type UpsertReviewInput struct {
	ProductID string
	UserID    string
	Name      string
	Rating    int
	Comment   string
}

// UpsertReview writes input.UserID's review of the product, replacing the
// existing one in place or appending a new one. Admins may write on behalf
// of any user.
func (s *ReviewService) UpsertReview(ctx context.Context, principal domain.Principal, input UpsertReviewInput) (*domain.Product, error) {
	if !domain.IsValidRating(input.Rating) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}
	if input.UserID == "" {
		input.UserID = principal.ID
	}
	if input.Name == "" && input.UserID == principal.ID {
		input.Name = principal.Name
	}
	if !auth.CanModify(principal, input.UserID) {
		return nil, apperrors.Unauthorized("you are not authorized to update this review")
	}

	release, err := s.locker.Acquire(ctx, lock.ReviewKey(input.ProductID, input.UserID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return nil, apperrors.Conflict("another review write for this product is in progress, retry the request")
		}
		return nil, fmt.Errorf("acquire review lock: %w", err)
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.WarnContext(ctx, "failed to release review lock",
				slog.String("product_id", input.ProductID),
				slog.String("error", err.Error()),
			)
		}
	}()

	var (
		review   domain.Review
		replaced bool
	)
	product, err := s.writeReviews(ctx, input.ProductID, func(p *domain.Product) error {
		replaced = p.SetReview(domain.Review{
			ID:      uuid.New().String(),
			UserID:  input.UserID,
			Name:    input.Name,
			Rating:  input.Rating,
			Comment: input.Comment,
		}, p.UpdatedAt)
		review = *p.ReviewByUser(input.UserID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("upsert review: %w", err)
	}

	action := event.ReviewActionCreated
	if replaced {
		action = event.ReviewActionUpdated
	}
	reviewWritesTotal.WithLabelValues(action).Inc()
	s.logger.InfoContext(ctx, "review "+action,
		slog.String("product_id", product.ID),
		slog.String("review_id", review.ID),
		slog.String("user_id", review.UserID),
		slog.Float64("ratings", product.Ratings),
	)

	if err := s.events.PublishReviewChanged(ctx, product, &review, action); err != nil {
		logPublishFailure(ctx, s.logger, "product.review_changed", err, slog.String("product_id", product.ID))
	}
	return product, nil
}

// DeleteReview removes the review with reviewID. An id that is not on the
// product is a no-op that still rewrites the derived rating fields. An
// existing review may only be removed by its author or an admin.
func (s *ReviewService) DeleteReview(ctx context.Context, principal domain.Principal, productID, reviewID string) (*domain.Product, error) {
	var removed *domain.Review
	product, err := s.writeReviews(ctx, productID, func(p *domain.Product) error {
		if r := p.ReviewByID(reviewID); r != nil && !auth.CanModify(principal, r.UserID) {
			return apperrors.Unauthorized("you are not authorized to delete this review")
		}
		removed = p.RemoveReview(reviewID)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("delete review: %w", err)
	}

	if removed == nil {
		s.logger.InfoContext(ctx, "review not found, ratings recomputed",
			slog.String("product_id", productID),
			slog.String("review_id", reviewID),
		)
		return product, nil
	}

	reviewWritesTotal.WithLabelValues(event.ReviewActionDeleted).Inc()
	s.logger.InfoContext(ctx, "review deleted",
		slog.String("product_id", productID),
		slog.String("review_id", reviewID),
	)

	if err := s.events.PublishReviewChanged(ctx, product, removed, event.ReviewActionDeleted); err != nil {
		logPublishFailure(ctx, s.logger, "product.review_changed", err, slog.String("product_id", productID))
	}
	return product, nil
}

// ListReviews returns the product's reviews in insertion order.
func (s *ReviewService) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	product, err := s.store.Products().GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product.Reviews, nil
}

// writeReviews reads the product, applies mutate and saves the result with
// a version compare-and-swap, re-reading and retrying on conflict.
func (s *ReviewService) writeReviews(ctx context.Context, productID string, mutate func(p *domain.Product) error) (*domain.Product, error) {
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		p, err := s.store.Products().GetByID(ctx, productID)
		if err != nil {
			return nil, err
		}

		expected := p.Version
		p.UpdatedAt = s.now()
		if err := mutate(p); err != nil {
			return nil, err
		}

		err = s.store.Products().SaveReviews(ctx, p, expected)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}

		reviewConflictsTotal.Inc()
		s.logger.DebugContext(ctx, "review write lost version race, retrying",
			slog.String("product_id", productID),
			slog.Int("attempt", attempt),
		)
	}

	return nil, apperrors.Conflict(fmt.Sprintf("product %s is being updated concurrently, retry the request", productID))
}
