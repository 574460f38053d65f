package store

import "github.com/example/phone-store/internal/readmodel"

// ReadStoreInterface defines the interface for read model storage
type ReadStoreInterface interface {
	Set(collection, id string, data any) error

	// Get retrieves a read model by id. The bool reports whether it exists.
	Get(collection, id string) (any, bool, error)

	GetAll(collection string) ([]any, error)

	Delete(collection, id string) error

	// Update modifies a read model using an update function.
	// It reports false when there is nothing to update.
	Update(collection, id string, updateFn func(current any) any) (bool, error)
}

// UserReadStore adds the email lookup used by registration and login.
type UserReadStore interface {
	ReadStoreInterface
	GetUserByEmail(email string) (*readmodel.UserReadModel, bool, error)
}
