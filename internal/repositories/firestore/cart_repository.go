package firestore

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pfirestore "github.com/madenkorea/api/internal/platform/firestore"
)

const cartsCollection = "carts"

// CartRepository clears cart documents once the order that consumed them is paid.
// Carts are keyed by user ID, one active cart per user.
type CartRepository struct {
	provider *pfirestore.Provider
}

// NewCartRepository constructs a Firestore-backed cart repository.
func NewCartRepository(provider *pfirestore.Provider) (*CartRepository, error) {
	if provider == nil {
		return nil, errors.New("cart repository requires firestore provider")
	}
	return &CartRepository{provider: provider}, nil
}

// Clear deletes the user's cart document. Deleting an already absent cart is not an error.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if r == nil || r.provider == nil {
		return errors.New("cart repository not initialised")
	}
	id := strings.TrimSpace(userID)
	if id == "" {
		return errors.New("cart repository: user id is required")
	}

	client, err := r.provider.Client(ctx)
	if err != nil {
		return pfirestore.WrapError("carts.clear", err)
	}

	if _, err := client.Collection(cartsCollection).Doc(id).Delete(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil
		}
		return pfirestore.WrapError("carts.clear", err)
	}
	return nil
}
