// Package services содержит логику бизнес-уровня для работы с пользователями и аутентификацией.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/soulsirensomatics/portal/internal/lib/jwt"
	"github.com/soulsirensomatics/portal/internal/lib/password"
	"github.com/soulsirensomatics/portal/internal/lib/patch"
	"github.com/soulsirensomatics/portal/internal/lib/sl"
	"github.com/soulsirensomatics/portal/internal/models"
	"github.com/soulsirensomatics/portal/internal/storage/repository"
)

// ErrInvalidCredentials возвращается при неверной паре email/пароль.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidResetToken возвращается при неверном или просроченном токене сброса пароля.
var ErrInvalidResetToken = errors.New("invalid reset token")

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int) (*models.User, error)
	UpdateUser(ctx context.Context, id int, b *patch.Builder) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id int, passwordHash string) error
}

// RegisterInput данные регистрации нового клиента.
type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     *string
}

// ProfileUpdate необязательные поля частичного обновления профиля.
type ProfileUpdate struct {
	FirstName *string
	LastName  *string
	Phone     *string
}

// AuthService отвечает за регистрацию, авторизацию и восстановление пароля.
type AuthService struct {
	users    UserRepository
	jwtMaker jwt.Maker
	log      *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, log *slog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		jwtMaker: jwtMaker,
		log:      log,
	}
}

// Register создает нового пользователя с хэшированием пароля и ролью "client".
// Возвращает созданного пользователя и токен доступа.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	const op = "services.AuthService.Register"

	hashed, err := password.GetHash(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.users.CreateUser(ctx, models.User{
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: hashed,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Role:         models.RoleClient,
	})
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("registered new user", slog.Int("user_id", user.ID))
	return user, token, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (*models.User, string, error) {
	const op = "services.AuthService.Login"

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.jwtMaker.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", op, err)
	}
	return user, token, nil
}

// UpdateProfile частично обновляет имя, фамилию и телефон пользователя.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int, upd ProfileUpdate) (*models.User, error) {
	const op = "services.AuthService.UpdateProfile"

	b := &patch.Builder{}
	if upd.FirstName != nil {
		b.Set("first_name", *upd.FirstName)
	}
	if upd.LastName != nil {
		b.Set("last_name", *upd.LastName)
	}
	if upd.Phone != nil {
		b.Set("phone", *upd.Phone)
	}
	if b.Empty() {
		return s.users.GetUserByID(ctx, userID)
	}

	user, err := s.users.UpdateUser(ctx, userID, b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

// ForgotPassword выдает токен сброса пароля для существующего аккаунта.
// Для неизвестного email возвращает пустой токен без ошибки, чтобы не
// раскрывать список зарегистрированных адресов.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (string, error) {
	const op = "services.AuthService.ForgotPassword"

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := s.jwtMaker.GenerateResetToken(user.ID)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("issued password reset token", slog.Int("user_id", user.ID))
	return token, nil
}

// ResetPassword меняет пароль по токену сброса.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	const op = "services.AuthService.ResetPassword"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		s.log.Info("reset token rejected", sl.Err(err))
		return ErrInvalidResetToken
	}
	if claims.Type != jwt.TokenTypeReset {
		return ErrInvalidResetToken
	}

	hashed, err := password.GetHash(newPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.users.UpdateUserPassword(ctx, claims.UserID, hashed); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("password reset", slog.Int("user_id", claims.UserID))
	return nil
}
