package quota

import "context"

// Service orchestrates generation-quota logic.
type Service struct {
	store *Store
}

// NewService creates a Service backed by the given Store.
func NewService(store *Store) *Service {
	return &Service{store: store}
}

// Consume deducts one generation from the user's monthly allowance. If the
// user row does not exist yet it is initialised and the deduction retried
// once. Returns ErrQuotaExceeded when the month's allowance is used up.
func (s *Service) Consume(ctx context.Context, userID string) error {
	err := s.store.Consume(ctx, userID)
	if err != ErrQuotaExceeded {
		return err
	}

	if initErr := s.store.EnsureUser(ctx, userID); initErr != nil {
		return initErr
	}
	return s.store.Consume(ctx, userID)
}
