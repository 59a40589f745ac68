package talentflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"talentflow/internal/model"
)

// AuthService implements login, signup and the session slot on top of the
// users collection. Passwords are compared in plaintext.
type AuthService struct {
	users   Collection[model.User]
	session SessionStore
	clock   Clock
	logger  Logger
}

func NewAuthService(users Collection[model.User], session SessionStore, clock Clock, logger Logger) *AuthService {
	return &AuthService{
		users:   users,
		session: session,
		clock:   clock,
		logger:  logger,
	}
}

// Login checks the credentials and records the user as logged in.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.findByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if user.Password != password {
		return nil, ErrInvalidCredentials
	}

	if err := s.session.SetUserID(ctx, user.ID); err != nil {
		return nil, err
	}
	s.logger.Info("user logged in", "user_id", user.ID, "email", user.Email)
	return user, nil
}

// Signup creates a user and logs them in. An email that is already
// registered yields ErrConflict.
func (s *AuthService) Signup(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)
	switch {
	case email == "":
		return nil, fmt.Errorf("%w: email is required", ErrValidation)
	case password == "":
		return nil, fmt.Errorf("%w: password is required", ErrValidation)
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrValidation)
	case !role.Valid():
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	if _, err := s.findByEmail(ctx, email); err == nil {
		return nil, fmt.Errorf("%w: email %s is already registered", ErrConflict, email)
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	user := &model.User{
		Email:     email,
		Password:  password,
		Name:      name,
		Role:      role,
		CreatedAt: s.clock.Now(),
	}
	if _, err := s.users.Put(ctx, user); err != nil {
		return nil, fmt.Errorf("creating user: %w", err)
	}
	if err := s.session.SetUserID(ctx, user.ID); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", "user_id", user.ID, "email", user.Email, "role", user.Role)
	return user, nil
}

// Logout clears the session slot.
func (s *AuthService) Logout(ctx context.Context) error {
	return s.session.Clear(ctx)
}

// CurrentUser returns the logged-in user, or nil when nobody is logged in
// or the stored id no longer resolves.
func (s *AuthService) CurrentUser(ctx context.Context) (*model.User, error) {
	id, ok, err := s.session.UserID(ctx)
	if err != nil || !ok {
		return nil, err
	}
	user, err := s.users.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading session user: %w", err)
	}
	return user, nil
}

// Users lists every account in id order.
func (s *AuthService) Users(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.All(ctx, Query{})
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

func (s *AuthService) findByEmail(ctx context.Context, email string) (*model.User, error) {
	users, err := s.users.All(ctx, Query{Index: "email", Equals: email, Limit: 1})
	if err != nil {
		return nil, fmt.Errorf("finding user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
	}
	return users[0], nil
}
