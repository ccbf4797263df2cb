package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Contabilidad-api/internal/application/dto"
	"github.com/jhoicas/Contabilidad-api/internal/application/ports"
	"github.com/jhoicas/Contabilidad-api/internal/domain"
	"github.com/jhoicas/Contabilidad-api/internal/domain/entity"
	"github.com/jhoicas/Contabilidad-api/pkg/jwt"
	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

// Config configuración para emisión de tokens y bloqueo de login.
type Config struct {
	Secret           string
	Issuer           string
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	MaxLoginAttempts int
	LockoutDuration  time.Duration
}

// dummyHash se verifica cuando el email no existe, para no revelar su existencia por tiempo de respuesta.
var dummyHash, _ = HashPassword("contabilidad-dummy-password")

// AuthUseCase casos de uso de autenticación: login, rotación de refresh, logout y validación.
type AuthUseCase struct {
	repos ports.Repos
	tx    ports.TxRunner
	cfg   Config
	log   *logger.Logger
	now   func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(repos ports.Repos, tx ports.TxRunner, cfg Config, log *logger.Logger) *AuthUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &AuthUseCase{repos: repos, tx: tx, cfg: cfg, log: log, now: time.Now}
}

// WithClock reemplaza el reloj (tests).
func (uc *AuthUseCase) WithClock(now func() time.Time) *AuthUseCase {
	uc.now = now
	return uc
}

// Login verifica email/password y emite access + refresh token.
// Cualquier fallo de identidad devuelve ErrInvalidCredentials sin distinguir la causa.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.TokenResponse, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := dto.Validate(in); err != nil {
		return nil, err
	}
	if in.TenantID != "" {
		if err := entity.ValidateTenantID(in.TenantID); err != nil {
			return nil, err
		}
	}
	now := uc.now()

	user, err := uc.repos.Users.FindByEmail(ctx, in.TenantID, in.Email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		_, _ = VerifyPassword(dummyHash, in.Password)
		return nil, domain.ErrInvalidCredentials
	}
	if user.IsLocked(now) {
		uc.log.Warn().Str(logger.FieldTenantID, user.TenantID).Str("user_id", user.ID).Msg("login rechazado: usuario bloqueado")
		return nil, domain.ErrInvalidCredentials
	}

	ok, err := VerifyPassword(user.PasswordHash, in.Password)
	if err != nil {
		uc.log.Error().Err(err).Str("user_id", user.ID).Msg("hash de password ilegible")
		return nil, domain.ErrInvalidCredentials
	}
	if !ok {
		if err := uc.registerFailure(ctx, user, now); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidCredentials
	}
	if user.Status != entity.UserStatusActive {
		return nil, domain.ErrInvalidCredentials
	}
	company, err := uc.repos.Companies.GetByTenantID(ctx, user.TenantID)
	if err != nil {
		return nil, err
	}
	if company == nil || company.Status != entity.CompanyStatusActive {
		return nil, domain.ErrInvalidCredentials
	}

	if user.FailedAttempts > 0 || user.LockedUntil != nil {
		if err := uc.repos.Users.ResetFailedLogins(ctx, user.TenantID, user.ID); err != nil {
			return nil, err
		}
	}

	var pair *dto.TokenResponse
	err = uc.tx.Run(ctx, func(tx ports.Repos) error {
		var err error
		pair, err = uc.issue(ctx, tx, user, uuid.NewString(), now)
		return err
	})
	if err != nil {
		return nil, err
	}
	pair.User = toUserResponse(user)
	return pair, nil
}

func (uc *AuthUseCase) registerFailure(ctx context.Context, user *entity.User, now time.Time) error {
	attempts := user.FailedAttempts + 1
	if user.LockedUntil != nil {
		// bloqueo vencido: el conteo vuelve a empezar
		attempts = 1
	}
	var lockedUntil *time.Time
	if attempts >= uc.cfg.MaxLoginAttempts {
		t := now.Add(uc.cfg.LockoutDuration)
		lockedUntil = &t
		uc.log.Warn().Str(logger.FieldTenantID, user.TenantID).Str("user_id", user.ID).
			Time("locked_until", t).Msg("usuario bloqueado por intentos fallidos")
	}
	return uc.repos.Users.RecordFailedLogin(ctx, user.TenantID, user.ID, attempts, lockedUntil)
}

// Refresh rota el refresh token: el presentado queda revocado y se emite un sucesor en la misma familia.
// Presentar un token ya revocado revoca toda la familia y devuelve ErrRefreshTokenReuse.
func (uc *AuthUseCase) Refresh(ctx context.Context, raw string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrTokenMalformed
	}
	hash := HashRefreshToken(raw)
	now := uc.now()

	// La revocación de familia debe confirmarse aunque la petición falle: se devuelve
	// el error después del commit.
	var failure error
	var pair *dto.TokenResponse
	err := uc.tx.Run(ctx, func(tx ports.Repos) error {
		tok, err := tx.Tokens.GetForUpdate(ctx, hash)
		if err != nil {
			return err
		}
		if tok == nil {
			return domain.ErrTokenMalformed
		}
		if tok.IsRevoked() {
			if _, err := tx.Tokens.RevokeFamily(ctx, tok.FamilyID, now); err != nil {
				return err
			}
			uc.log.Warn().Str(logger.FieldTenantID, tok.TenantID).Str("family_id", tok.FamilyID).
				Msg("reutilización de refresh token: familia revocada")
			failure = domain.ErrRefreshTokenReuse
			return nil
		}
		if tok.IsExpired(now) {
			return domain.ErrTokenExpired
		}
		user, err := tx.Users.GetByID(ctx, tok.TenantID, tok.UserID)
		if err != nil {
			return err
		}
		if user == nil || user.Status != entity.UserStatusActive {
			if _, err := tx.Tokens.RevokeFamily(ctx, tok.FamilyID, now); err != nil {
				return err
			}
			failure = domain.ErrTokenRevoked
			return nil
		}

		pair, err = uc.issueSuccessor(ctx, tx, user, tok, now)
		if errors.Is(err, domain.ErrRefreshTokenReuse) {
			if _, err := tx.Tokens.RevokeFamily(ctx, tok.FamilyID, now); err != nil {
				return err
			}
			failure = domain.ErrRefreshTokenReuse
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if failure != nil {
		return nil, failure
	}
	return pair, nil
}

// issueSuccessor revoca condicionalmente el token actual y persiste el sucesor encadenado.
func (uc *AuthUseCase) issueSuccessor(ctx context.Context, tx ports.Repos, user *entity.User, current *entity.RefreshToken, now time.Time) (*dto.TokenResponse, error) {
	raw, hash, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	revoked, err := tx.Tokens.Revoke(ctx, current.TokenHash, now, hash)
	if err != nil {
		return nil, err
	}
	if !revoked {
		// otra rotación ganó la carrera
		return nil, domain.ErrRefreshTokenReuse
	}
	return uc.persist(ctx, tx, user, current.FamilyID, raw, hash, now)
}

func (uc *AuthUseCase) issue(ctx context.Context, tx ports.Repos, user *entity.User, familyID string, now time.Time) (*dto.TokenResponse, error) {
	raw, hash, err := newRefreshToken()
	if err != nil {
		return nil, err
	}
	return uc.persist(ctx, tx, user, familyID, raw, hash, now)
}

func (uc *AuthUseCase) persist(ctx context.Context, tx ports.Repos, user *entity.User, familyID, raw, hash string, now time.Time) (*dto.TokenResponse, error) {
	rt := &entity.RefreshToken{
		TokenHash: hash,
		FamilyID:  familyID,
		UserID:    user.ID,
		TenantID:  user.TenantID,
		IssuedAt:  now,
		ExpiresAt: now.Add(uc.cfg.RefreshTTL),
	}
	if err := tx.Tokens.Create(ctx, rt); err != nil {
		return nil, err
	}
	access, err := jwt.Generate(uc.cfg.Secret, uc.cfg.Issuer, jwt.Subject{
		UserID:      user.ID,
		TenantID:    user.TenantID,
		Roles:       user.Roles,
		IsSuperuser: user.IsSuperuser,
	}, now, uc.cfg.AccessTTL)
	if err != nil {
		return nil, err
	}
	return &dto.TokenResponse{
		AccessToken:  access,
		RefreshToken: raw,
		TokenType:    "bearer",
		ExpiresIn:    int64(uc.cfg.AccessTTL / time.Second),
	}, nil
}

// Logout revoca la familia del refresh token. Un token desconocido no es error.
func (uc *AuthUseCase) Logout(ctx context.Context, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return domain.ErrTokenMalformed
	}
	hash := HashRefreshToken(raw)
	now := uc.now()
	return uc.tx.Run(ctx, func(tx ports.Repos) error {
		tok, err := tx.Tokens.GetForUpdate(ctx, hash)
		if err != nil || tok == nil {
			return err
		}
		_, err = tx.Tokens.RevokeFamily(ctx, tok.FamilyID, now)
		return err
	})
}

// Validate verifica el access token y devuelve el Principal. Solo requiere la firma.
func (uc *AuthUseCase) Validate(accessToken string) (entity.Principal, error) {
	if accessToken == "" {
		return entity.Principal{}, domain.ErrTokenMissing
	}
	claims, err := jwt.Parse(uc.cfg.Secret, accessToken)
	if err != nil {
		if errors.Is(err, jwt.ErrExpired) {
			return entity.Principal{}, domain.ErrTokenExpired
		}
		return entity.Principal{}, domain.ErrTokenMalformed
	}
	if err := entity.ValidateTenantID(claims.TenantID); err != nil {
		return entity.Principal{}, domain.ErrTokenMalformed
	}
	return entity.Principal{
		UserID:      claims.Subject,
		TenantID:    claims.TenantID,
		Roles:       claims.Roles,
		IsSuperuser: claims.IsSuperuser,
	}, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:          u.ID,
		TenantID:    u.TenantID,
		Email:       u.Email,
		Name:        u.Name,
		Roles:       u.Roles,
		IsSuperuser: u.IsSuperuser,
		Status:      u.Status,
		CreatedAt:   u.CreatedAt,
	}
}
