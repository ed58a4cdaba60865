// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Tier Contributors

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/tier-app/tier/internal/auth")

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithRecorder sets the recorder that receives attempt outcomes.
func WithRecorder(r Recorder) ServiceOption {
	return func(s *Service) {
		s.recorder = r
	}
}

// Service coordinates registration, login and identity resolution.
type Service struct {
	users    UserRepository
	hashes   HashService
	sessions SessionCodec
	logger   *slog.Logger
	recorder Recorder
}

// NewService creates a Service. All dependencies are required.
func NewService(users UserRepository, hashes HashService, sessions SessionCodec, opts ...ServiceOption) (*Service, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hashes == nil {
		return nil, oops.Errorf("hash service is required")
	}
	if sessions == nil {
		return nil, oops.Errorf("session codec is required")
	}
	s := &Service{
		users:    users,
		hashes:   hashes,
		sessions: sessions,
		logger:   slog.Default(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "auth")
	return s, nil
}

// Register creates an account and returns it with a session token for it.
//
// The email lookup before hashing only avoids spending a hash on an address
// that is already taken. Two concurrent registrations can both pass it; the
// repository's unique constraint decides which one wins.
func (s *Service) Register(ctx context.Context, email, displayName, password string) (user *User, token string, err error) {
	ctx, span := tracer.Start(ctx, "auth.Register")
	defer func() { s.finish(span, FlowRegister, err) }()

	if err := ValidateEmail(email); err != nil {
		return nil, "", err
	}
	if err := ValidateDisplayName(displayName); err != nil {
		return nil, "", err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, "", err
	}
	email = NormalizeEmail(email)

	_, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", oops.Code("AUTH_DUPLICATE_EMAIL").With("stage", "precheck").Wrap(ErrDuplicateEmail)
	case !errors.Is(err, ErrNotFound):
		return nil, "", internal("check email", err)
	}

	hash, err := s.hashes.Hash(ctx, password)
	if err != nil {
		return nil, "", internal("hash password", err)
	}

	user, err = NewUser(email, displayName, hash)
	if err != nil {
		return nil, "", internal("build user", err)
	}

	if err = s.users.Create(ctx, user); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, "", oops.Code("AUTH_DUPLICATE_EMAIL").With("stage", "insert").Wrap(err)
		}
		return nil, "", internal("create user", err)
	}

	token, err = s.sessions.Mint(user.ID)
	if err != nil {
		return nil, "", internal("mint session", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	return user, token, nil
}

// Login checks the credentials and returns the user with a new session token.
func (s *Service) Login(ctx context.Context, email, password string) (user *User, token string, err error) {
	ctx, span := tracer.Start(ctx, "auth.Login")
	defer func() { s.finish(span, FlowLogin, err) }()

	email = NormalizeEmail(email)
	if email == "" {
		return nil, "", invalidInput("email", "Email is required")
	}

	user, err = s.users.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return nil, "", oops.Code("AUTH_EMAIL_NOT_FOUND").Wrap(ErrEmailNotFound)
	}
	if err != nil {
		return nil, "", internal("lookup user", err)
	}

	ok, err := s.hashes.Verify(ctx, password, user.PasswordHash)
	if err != nil {
		return nil, "", internal("verify password", err)
	}
	if !ok {
		return nil, "", oops.Code("AUTH_INCORRECT_PASSWORD").
			With("user_id", user.ID.String()).
			Wrap(ErrIncorrectPassword)
	}

	token, err = s.sessions.Mint(user.ID)
	if err != nil {
		return nil, "", internal("mint session", err)
	}
	return user, token, nil
}

// CurrentUser resolves the user a session token belongs to. It returns nil
// (anonymous) when the token is empty or invalid, when the user no longer
// exists, and when the lookup fails. Lookup failures are logged.
func (s *Service) CurrentUser(ctx context.Context, token string) *User {
	if token == "" {
		return nil
	}
	id, err := s.sessions.Validate(token)
	if err != nil {
		return nil
	}
	return s.lookup(ctx, id)
}

func (s *Service) lookup(ctx context.Context, id ulid.ULID) *User {
	user, err := s.users.GetByID(ctx, id)
	if err == nil {
		return user
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.WarnContext(ctx, "current user lookup failed", "user_id", id.String(), "error", err)
	}
	return nil
}

func (s *Service) finish(span trace.Span, flow string, err error) {
	defer span.End()
	outcome := outcomeOf(err)
	span.SetAttributes(attribute.String("auth.outcome", outcome))
	if err != nil && !IsUserFacing(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "internal error")
	}
	s.recorder.RecordAuth(flow, outcome)
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrDuplicateEmail):
		return OutcomeDuplicateEmail
	case errors.Is(err, ErrEmailNotFound):
		return OutcomeEmailNotFound
	case errors.Is(err, ErrIncorrectPassword):
		return OutcomeIncorrectPassword
	case errors.Is(err, ErrInvalidInput):
		return OutcomeInvalidInput
	default:
		return OutcomeInternalError
	}
}

// internal wraps err as an ErrInternal failure that keeps err as its cause.
func internal(operation string, err error) error {
	return oops.Code("AUTH_INTERNAL").
		With("operation", operation).
		Wrap(fmt.Errorf("%w: %w", ErrInternal, err))
}
