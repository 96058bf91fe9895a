package auth

import (
	"context"
	"errors"

	"go-permits/internal/features/account"
	"go-permits/pkg/utils"

	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*account.Account, error)
	Login(ctx context.Context, username, password string) (string, error)
}

type RegisterInput struct {
	Username string         `json:"username"`
	Password string         `json:"password"`
	Email    string         `json:"email"`
	FullName string         `json:"full_name"`
	UserType string         `json:"user_type"`
	Roles    []account.Role `json:"roles"`
}

type AuthServiceImpl struct {
	AccountRepo account.AccountRepository
}

func NewAuthService(accountRepo account.AccountRepository) AuthService {
	return &AuthServiceImpl{AccountRepo: accountRepo}
}

func (s *AuthServiceImpl) Register(ctx context.Context, input RegisterInput) (*account.Account, error) {
	if input.Username == "" || input.Password == "" {
		return nil, errors.New("username and password are required")
	}

	if existing, _ := s.AccountRepo.FindByUsername(ctx, input.Username); existing != nil {
		return nil, errors.New("username already taken")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	userType := account.UserType(input.UserType)
	if userType != account.UserTypePersonnel {
		userType = account.UserTypeClient
	}

	// Role assignments only apply to personnel accounts
	roles := input.Roles
	if userType == account.UserTypeClient {
		roles = nil
	}

	acc := &account.Account{
		Username:     input.Username,
		PasswordHash: string(hash),
		Email:        input.Email,
		FullName:     input.FullName,
		UserType:     userType,
		Roles:        roles,
	}

	if err := s.AccountRepo.Create(ctx, acc); err != nil {
		return nil, err
	}
	return acc, nil
}

func (s *AuthServiceImpl) Login(ctx context.Context, username, password string) (string, error) {
	acc, err := s.AccountRepo.FindByUsername(ctx, username)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	roles := make([]string, len(acc.Roles))
	for i, r := range acc.Roles {
		roles[i] = string(r)
	}

	return utils.GenerateToken(acc.ID, string(acc.UserType), roles)
}
