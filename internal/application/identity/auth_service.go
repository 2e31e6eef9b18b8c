package identity

import (
	"context"
	"errors"
	"strings"

	"github.com/clinicledger/backend/internal/domain/identity"
	"github.com/clinicledger/backend/internal/domain/shared"
	"github.com/clinicledger/backend/internal/infrastructure/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrMissingCredentials = shared.NewDomainError(shared.CodeUnauthorized, "Missing credentials")
	ErrInvalidCredentials = shared.NewDomainError(shared.CodeUnauthorized, "Invalid credentials")
	ErrUserNotSynced      = shared.NewDomainError(shared.CodeUnauthorized, "User has not been synced")
)

// AuthService resolves callers from bearer credentials and provisions users
// on first sign-in.
type AuthService struct {
	txScope        TransactionScope
	userRepo       identity.UserRepository
	orgRepo        identity.OrganizationRepository
	jwtService     *auth.JWTService
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewAuthService creates a new authentication service
func NewAuthService(
	txScope TransactionScope,
	userRepo identity.UserRepository,
	orgRepo identity.OrganizationRepository,
	jwtService *auth.JWTService,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		txScope:    txScope,
		userRepo:   userRepo,
		orgRepo:    orgRepo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// VerifyIdentityToken checks an identity provider token and returns its profile.
func (s *AuthService) VerifyIdentityToken(token string) (*SyncUserInput, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingCredentials
	}
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		s.logger.Debug("Identity token rejected", zap.Error(err))
		return nil, ErrInvalidCredentials
	}
	return &SyncUserInput{
		ExternalID: claims.ExternalID(),
		Email:      claims.Email,
		FirstName:  claims.FirstName,
		LastName:   claims.LastName,
	}, nil
}

// SyncUser returns the user for the external ID, creating the user and a new
// organization on first sign-in.
func (s *AuthService) SyncUser(ctx context.Context, input SyncUserInput) (*SyncUserResponse, error) {
	existing, err := s.userRepo.FindByExternalID(ctx, input.ExternalID)
	if err == nil {
		return s.syncedResponse(ctx, existing, false)
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	var (
		org  *identity.Organization
		user *identity.User
	)
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		org, err = identity.NewOrganization(identity.DefaultOrganizationName(input.FirstName))
		if err != nil {
			return err
		}
		if err := repos.OrganizationRepo().Save(ctx, org); err != nil {
			return err
		}
		user, err = identity.NewUser(org.TenantID(), input.ExternalID, input.Email, input.FirstName, input.LastName, identity.RoleOwner)
		if err != nil {
			return err
		}
		return repos.UserRepo().Save(ctx, user)
	})
	if err != nil {
		// A concurrent sync for the same external ID won the unique index.
		if errors.Is(err, shared.ErrAlreadyExists) {
			existing, findErr := s.userRepo.FindByExternalID(ctx, input.ExternalID)
			if findErr == nil {
				return s.syncedResponse(ctx, existing, false)
			}
		}
		return nil, err
	}

	s.logger.Info("Provisioned organization for new user",
		zap.String("tenant_id", org.ID.String()),
		zap.String("user_id", user.ID.String()))

	s.publish(ctx, org.GetDomainEvents()...)
	s.publish(ctx, user.GetDomainEvents()...)
	org.ClearDomainEvents()
	user.ClearDomainEvents()

	return &SyncUserResponse{
		IsSynced:     true,
		Created:      true,
		User:         ToUserResponse(user),
		Organization: ToOrganizationResponse(org),
	}, nil
}

func (s *AuthService) syncedResponse(ctx context.Context, user *identity.User, created bool) (*SyncUserResponse, error) {
	org, err := s.orgRepo.FindByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	return &SyncUserResponse{
		IsSynced:     true,
		Created:      created,
		User:         ToUserResponse(user),
		Organization: ToOrganizationResponse(org),
	}, nil
}

// Authenticate resolves a bearer credential. JWT-shaped values are verified as
// identity tokens; anything else is treated as an API key.
func (s *AuthService) Authenticate(ctx context.Context, bearer string) (*Principal, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return nil, ErrMissingCredentials
	}

	if auth.LooksLikeJWT(bearer) {
		profile, err := s.VerifyIdentityToken(bearer)
		if err != nil {
			return nil, err
		}
		user, err := s.userRepo.FindByExternalID(ctx, profile.ExternalID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, ErrUserNotSynced
			}
			return nil, err
		}
		return toPrincipal(user, false), nil
	}

	user, err := s.userRepo.FindByAPIKeyHash(ctx, auth.HashAPIKey(bearer))
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	return toPrincipal(user, true), nil
}

// RotateAPIKey replaces the user's API key and returns the new plaintext once.
func (s *AuthService) RotateAPIKey(ctx context.Context, userID uuid.UUID) (*APIKeyResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("User")
		}
		return nil, err
	}

	key, hash, err := auth.GenerateAPIKey()
	if err != nil {
		return nil, err
	}
	user.SetAPIKeyHash(hash)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("API key rotated", zap.String("user_id", user.ID.String()))
	return &APIKeyResponse{APIKey: key}, nil
}

// Me returns the user with their organization.
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*MeResponse, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NotFound("User")
		}
		return nil, err
	}
	org, err := s.orgRepo.FindByID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	return &MeResponse{
		User:         ToUserResponse(user),
		Organization: ToOrganizationResponse(org),
	}, nil
}

func (s *AuthService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish identity events", zap.Error(err))
	}
}

func toPrincipal(u *identity.User, viaKey bool) *Principal {
	return &Principal{
		UserID:   u.ID,
		TenantID: u.TenantID,
		Email:    u.Email,
		Role:     u.Role,
		ViaKey:   viaKey,
	}
}
