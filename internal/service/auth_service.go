package service

import (
	"errors"
	"time"

	"github.com/fisker/fleetops-backend/internal/model"
	"github.com/fisker/fleetops-backend/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// JWT Claims
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

type AuthService struct {
	repo           *repository.UserRepository
	jwtSecret      []byte
	sessionTimeout time.Duration
}

// NewAuthService 创建认证服务
func NewAuthService(repo *repository.UserRepository, jwtSecret string, sessionTimeoutSeconds int) *AuthService {
	if sessionTimeoutSeconds <= 0 {
		sessionTimeoutSeconds = 86400
	}
	return &AuthService{
		repo:           repo,
		jwtSecret:      []byte(jwtSecret),
		sessionTimeout: time.Duration(sessionTimeoutSeconds) * time.Second,
	}
}

// Login 用户名密码登录
func (s *AuthService) Login(username, password, loginIP string) (*LoginResponse, error) {
	user, err := s.repo.GetByUsername(username)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New("用户名或密码错误")
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.New("用户名或密码错误")
	}
	if !user.IsActive() {
		return nil, errors.New("账号已被禁用，请联系管理员")
	}

	token, err := s.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	if err := s.repo.UpdateLastLogin(user.ID, loginIP); err != nil {
		// 登录时间更新失败不阻塞登录
		_ = err
	}

	return &LoginResponse{Token: token, User: *user}, nil
}

// GenerateToken 签发 JWT Token
func (s *AuthService) GenerateToken(user *model.User) (string, error) {
	expirationTime := time.Now().Add(s.sessionTimeout)

	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "fleetops",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken 验证 JWT Token
func (s *AuthService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的Token")
}

// GetUserByID 获取用户
func (s *AuthService) GetUserByID(userID string) (*model.User, error) {
	return s.repo.GetByID(userID)
}

// HashPassword 生成密码哈希
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
