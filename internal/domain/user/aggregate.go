package user

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/example/phone-store/internal/apperr"
	"github.com/example/phone-store/internal/auth"
	"github.com/example/phone-store/internal/domain/aggregate"
	"github.com/example/phone-store/internal/infrastructure/store"
	"github.com/google/uuid"
)

const AggregateType = "User"

var (
	ErrUserNotFound       = apperr.New(apperr.KindNotFound, "USER_NOT_FOUND", "user not found")
	ErrEmailTaken         = apperr.New(apperr.KindConflict, "EMAIL_TAKEN", "email is already registered")
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrUserDeactivated    = apperr.New(apperr.KindForbidden, "USER_DEACTIVATED", "user account is deactivated")
	ErrInvalidEmail       = apperr.Validation("email", "a valid email is required")
	ErrInvalidName        = apperr.Validation("name", "name is required")
	ErrWrongPassword      = apperr.Validation("current_password", "current password is incorrect")
	ErrPasswordMismatch   = apperr.Validation("confirm_password", "passwords do not match")
	ErrInvalidStatus      = apperr.Validation("status", "status must be ACTIVE or INACTIVE")
	ErrSelfModification   = apperr.New(apperr.KindConflict, "CANNOT_MODIFY_SELF", "admins cannot deactivate or delete their own account")
)

// Account statuses accepted by the admin status endpoint
const (
	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"
)

var emailPattern = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)

func isValidEmail(email string) bool {
	return len(email) <= 254 && emailPattern.MatchString(email)
}

// NormalizeEmail is the form emails are stored and looked up in
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	Name         string    `json:"name"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	Deleted      bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int       `json:"version"`
}

func (u *User) GetID() string   { return u.ID }
func (u *User) GetVersion() int { return u.Version }

func (u *User) ApplyEvent(event store.Event) error {
	switch event.EventType {
	case EventUserCreated:
		var data UserCreated
		if err := event.Decode(&data); err != nil {
			return err
		}
		u.ID = data.UserID
		u.Email = data.Email
		u.PasswordHash = data.PasswordHash
		u.Name = data.Name
		u.Phone = data.Phone
		u.Role = data.Role
		u.IsActive = true
		u.CreatedAt = data.CreatedAt
		u.UpdatedAt = data.CreatedAt
	case EventUserUpdated:
		var data UserUpdated
		if err := event.Decode(&data); err != nil {
			return err
		}
		if data.Email != "" {
			u.Email = data.Email
		}
		u.Name = data.Name
		u.Phone = data.Phone
		u.UpdatedAt = data.UpdatedAt
	case EventUserPasswordChanged:
		var data UserPasswordChanged
		if err := event.Decode(&data); err != nil {
			return err
		}
		u.PasswordHash = data.PasswordHash
		u.UpdatedAt = data.ChangedAt
	case EventUserDeactivated:
		u.IsActive = false
	case EventUserActivated:
		u.IsActive = true
	case EventUserDeleted:
		u.IsActive = false
		u.Deleted = true
	}
	u.Version = event.Version
	return nil
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
}

// ProfileInput carries the fields a user may edit. An empty Email keeps the current one.
type ProfileInput struct {
	Email string
	Name  string
	Phone string
}

type Service struct {
	eventStore store.EventStoreInterface
}

func NewService(es store.EventStoreInterface) *Service {
	return &Service{eventStore: es}
}

// Register creates a user with the given role. Email uniqueness is checked
// by the caller against the users read model.
func (s *Service) Register(ctx context.Context, in RegisterInput, role string) (*User, error) {
	email := NormalizeEmail(in.Email)
	if !isValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	if role != auth.RoleAdmin {
		role = auth.RoleCustomer
	}

	passwordHash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	u := &User{ID: uuid.New().String()}
	_, err = aggregate.Record(ctx, s.eventStore, u, AggregateType, EventUserCreated, UserCreated{
		UserID:       u.ID,
		Email:        email,
		PasswordHash: passwordHash,
		Name:         name,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         role,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*User, error) {
	u, found, err := aggregate.LoadAggregate(ctx, s.eventStore, userID, func() *User { return &User{ID: userID} })
	if err != nil {
		return nil, err
	}
	if !found || u.Deleted {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile edits name, phone and optionally email. Email uniqueness is
// checked by the caller against the users read model.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*User, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	var email string
	if in.Email != "" {
		if email = NormalizeEmail(in.Email); !isValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		if email == u.Email {
			email = ""
		}
	}

	_, err = aggregate.Record(ctx, s.eventStore, u, AggregateType, EventUserUpdated, UserUpdated{
		UserID:    userID,
		Email:     email,
		Name:      name,
		Phone:     strings.TrimSpace(in.Phone),
		UpdatedAt: time.Now(),
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the password once the current one is verified
func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(currentPassword, u.PasswordHash) {
		return ErrWrongPassword
	}
	passwordHash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	_, err = aggregate.Record(ctx, s.eventStore, u, AggregateType, EventUserPasswordChanged, UserPasswordChanged{
		UserID:       userID,
		PasswordHash: passwordHash,
		ChangedAt:    time.Now(),
	})
	return err
}

// SetActive activates or deactivates an account. No event is recorded when
// the account is already in the requested state.
func (s *Service) SetActive(ctx context.Context, userID string, active bool) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsActive == active {
		return nil
	}
	if active {
		_, err = aggregate.Record(ctx, s.eventStore, u, AggregateType, EventUserActivated, UserActivated{UserID: userID, ActivatedAt: time.Now()})
	} else {
		_, err = aggregate.Record(ctx, s.eventStore, u, AggregateType, EventUserDeactivated, UserDeactivated{UserID: userID, DeactivatedAt: time.Now()})
	}
	return err
}

// Delete removes the account. Its events stay in the store; the user is
// reported as not found from then on.
func (s *Service) Delete(ctx context.Context, userID string) error {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return err
	}
	_, err = aggregate.Record(ctx, s.eventStore, u, AggregateType, EventUserDeleted, UserDeleted{UserID: userID, DeletedAt: time.Now()})
	return err
}
