package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"jobmarket/config"
	"jobmarket/internal/auth"
	"jobmarket/internal/domain"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
	"jobmarket/pkg/mailer"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailExists  = errors.New("email already registered")
	ErrInvalidCreds = errors.New("invalid email or password")
)

type RegisterInput struct {
	FullName string `json:"fullName" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=USER SERVICE_PROVIDER"`
}

const (
	resetCodeTTL      = 3 * time.Minute
	resetKeyTTL       = 15 * time.Minute
	maxResetAttempts  = 5
	resetCodeExpired  = "the reset code has expired, request a new one"
	resetNotRequested = "no password reset is in progress for this account"
)

type AuthService struct {
	cfg      *config.Config
	userRepo *repository.UserRepository
	mail     Mailer
	now      func() time.Time
}

// NewAuthService builds the account service. mail may be nil, which disables
// password reset.
func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, mail Mailer) *AuthService {
	return &AuthService{cfg: cfg, userRepo: userRepo, mail: mail, now: time.Now}
}

func (s *AuthService) Register(in RegisterInput) (*models.User, *auth.TokenPair, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(&in); err != nil {
		return nil, nil, err
	}
	_, err := s.userRepo.GetByEmail(in.Email)
	if err == nil {
		return nil, nil, ErrEmailExists
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	u := &models.User{
		FullName:           in.FullName,
		Email:              in.Email,
		PasswordHash:       string(hash),
		Role:               in.Role,
		AccountStatus:      domain.AccountActive,
		VerificationStatus: domain.VerificationUnverified,
	}
	if err := s.userRepo.Create(u); err != nil {
		return nil, nil, err
	}
	pair, err := auth.GeneratePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
	if err != nil {
		return u, nil, err
	}
	return u, pair, nil
}

func (s *AuthService) Login(email, password string) (*models.User, *auth.TokenPair, error) {
	u, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCreds
		}
		return nil, nil, err
	}
	if u.PasswordHash == "" {
		return nil, nil, ErrInvalidCreds
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCreds
	}
	if !u.CanAct() {
		return nil, nil, domain.Forbidden("your account is not active")
	}
	pair, err := auth.GeneratePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
	return u, pair, err
}

// LoginWithGoogle finds the user by Google ID, links Google to an existing
// account with the same email, or creates a new account. role applies only to
// new accounts and defaults to USER.
func (s *AuthService) LoginWithGoogle(googleID, email, name, picture, role string) (*models.User, *auth.TokenPair, bool, error) {
	u, err := s.userRepo.GetByGoogleID(googleID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, false, err
	}
	isNew := false
	if u == nil {
		email = strings.ToLower(strings.TrimSpace(email))
		existing, err := s.userRepo.GetByEmail(email)
		switch {
		case err == nil:
			gid := googleID
			existing.GoogleID = &gid
			if existing.ProfileImage == "" {
				existing.ProfileImage = picture
			}
			if err := s.userRepo.Update(existing); err != nil {
				return nil, nil, false, err
			}
			u = existing
		case errors.Is(err, gorm.ErrRecordNotFound):
			if role != domain.RoleServiceProvider {
				role = domain.RoleUser
			}
			gid := googleID
			u = &models.User{
				FullName:           name,
				Email:              email,
				GoogleID:           &gid,
				Role:               role,
				ProfileImage:       picture,
				AccountStatus:      domain.AccountActive,
				VerificationStatus: domain.VerificationUnverified,
			}
			if err := s.userRepo.Create(u); err != nil {
				return nil, nil, false, err
			}
			isNew = true
		default:
			return nil, nil, false, err
		}
	}
	if !u.CanAct() {
		return nil, nil, false, domain.Forbidden("your account is not active")
	}
	pair, err := auth.GeneratePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
	return u, pair, isNew, err
}

func (s *AuthService) ChangePassword(userID uint, currentPassword, newPassword string) error {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return ErrInvalidCreds
	}
	if u.PasswordHash == "" {
		return domain.Validation("account uses Google sign-in")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrInvalidCreds
	}
	if len(newPassword) < 8 {
		return domain.Validation("password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hash)
	return s.userRepo.Update(u)
}

func (s *AuthService) RefreshToken(refreshToken string) (*auth.TokenPair, error) {
	userID, err := auth.ParseRefreshToken(&s.cfg.JWT, refreshToken)
	if err != nil {
		return nil, err
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	if !u.CanAct() {
		return nil, domain.Forbidden("your account is not active")
	}
	return auth.GeneratePair(&s.cfg.JWT, u.ID, u.Email, u.Role)
}

func (s *AuthService) Profile(userID uint) (*models.User, error) {
	return loadUser(s.userRepo, userID)
}

func (s *AuthService) SetDeviceToken(userID uint, token string) error {
	if strings.TrimSpace(token) == "" {
		return domain.Validation("deviceToken is required")
	}
	return s.userRepo.SetDeviceToken(userID, token)
}

// resettable loads the password account behind email.
func (s *AuthService) resettable(email string) (*models.User, error) {
	u, err := s.userRepo.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, lookupErr(err, "account")
	}
	if !u.CanAct() {
		return nil, domain.Forbidden("your account is not active")
	}
	if u.PasswordHash == "" {
		return nil, domain.Validation("account uses Google sign-in")
	}
	return u, nil
}

// RequestPasswordReset mails a six digit code to the account owner.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	if s.mail == nil {
		return domain.Dependency("password reset is unavailable", errors.New("mailer not configured"))
	}
	u, err := s.resettable(email)
	if err != nil {
		return err
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := s.userRepo.SetResetCode(u.ID, string(hash), s.now().Add(resetCodeTTL)); err != nil {
		return err
	}
	err = s.mail.SendResetCode(ctx, mailer.ResetCode{To: u.Email, Name: displayName(u), Code: code, ValidFor: resetCodeTTL})
	if err != nil {
		return domain.Dependency("reset code could not be sent", err)
	}
	log.Printf("[auth] reset code sent to user %d", u.ID)
	return nil
}

// VerifyResetCode exchanges a valid code for a single-use reset token.
func (s *AuthService) VerifyResetCode(email, code string) (string, error) {
	u, err := s.resettable(email)
	if err != nil {
		return "", err
	}
	if u.ResetCodeHash == "" || u.ResetExpiresAt == nil {
		return "", domain.Validation(resetNotRequested)
	}
	if s.now().After(*u.ResetExpiresAt) || u.ResetCodeAttempts >= maxResetAttempts {
		return "", domain.Validation(resetCodeExpired)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.ResetCodeHash), []byte(strings.TrimSpace(code))) != nil {
		if err := s.userRepo.RecordResetAttempt(u.ID); err != nil {
			return "", err
		}
		return "", domain.Validation("incorrect reset code")
	}
	token := uuid.NewString()
	keyHash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	ok, err := s.userRepo.ExchangeResetCode(u.ID, u.ResetCodeHash, string(keyHash), s.now().Add(resetKeyTTL))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", domain.Conflict("the reset code was already used")
	}
	return token, nil
}

// ResetPassword sets a new password with the token from VerifyResetCode.
func (s *AuthService) ResetPassword(email, token, newPassword string) error {
	if len(newPassword) < 8 {
		return domain.Validation("password must be at least 8 characters")
	}
	u, err := s.resettable(email)
	if err != nil {
		return err
	}
	if u.ResetKeyHash == "" || u.ResetExpiresAt == nil {
		return domain.Validation(resetNotRequested)
	}
	if s.now().After(*u.ResetExpiresAt) {
		return domain.Validation(resetCodeExpired)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.ResetKeyHash), []byte(token)) != nil {
		return domain.Validation("invalid reset token")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	ok, err := s.userRepo.CompleteReset(u.ID, u.ResetKeyHash, string(hash))
	if err != nil {
		return err
	}
	if !ok {
		return domain.Conflict("the reset token was already used")
	}
	return nil
}
