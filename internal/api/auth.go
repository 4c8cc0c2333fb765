package api

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/abelbrown/harbor/internal/model"
)

// Credentials log an existing user in.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Registration creates a new account.
type Registration struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthResponse is returned by login and register.
type AuthResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

var validate = validator.New()

// Login posts credentials to /auth/login. Invalid input is rejected
// before any request is issued.
func (c *Client) Login(ctx context.Context, cred Credentials) (*AuthResponse, error) {
	if err := validate.Struct(cred); err != nil {
		return nil, fmt.Errorf("api: invalid credentials: %w", err)
	}
	var out AuthResponse
	if err := c.Post(ctx, "/auth/login", cred, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Register posts a registration to /auth/register.
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthResponse, error) {
	if err := validate.Struct(reg); err != nil {
		return nil, fmt.Errorf("api: invalid registration: %w", err)
	}
	var out AuthResponse
	if err := c.Post(ctx, "/auth/register", reg, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user the current token belongs to.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var out model.User
	if err := c.Get(ctx, "/auth/me", &out); err != nil {
		return nil, err
	}
	return &out, nil
}
