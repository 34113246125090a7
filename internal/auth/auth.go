// Package auth 负责签发与校验后台会话。
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/salessite/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrNotConfigured      = errors.New("auth provider not configured")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired session")
)

// Actor 表示执行写操作的编辑者。
type Actor struct {
	UserID string `json:"id"`
	Email  string `json:"email"`
}

// Valid 判断 actor 是否来自已校验的会话。
func (a Actor) Valid() bool {
	return strings.TrimSpace(a.UserID) != ""
}

// Session 为 Login 返回给调用方的结果。
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Actor     Actor     `json:"user"`
}

type sessionClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Provider 校验管理员账号并签名会话令牌。
type Provider struct {
	db     *gorm.DB
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewProvider 创建 Provider；secret 为空时视为未配置。
func NewProvider(gdb *gorm.DB, secret string, ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Provider{
		db:     gdb,
		secret: []byte(strings.TrimSpace(secret)),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Configured 判断是否可以签发与校验会话。
func (p *Provider) Configured() bool {
	return p != nil && p.db != nil && len(p.secret) > 0
}

// Login 校验密码并签发签名的会话令牌。
func (p *Provider) Login(ctx context.Context, email, password string) (Session, error) {
	if !p.Configured() {
		return Session{}, ErrNotConfigured
	}

	normalized := db.NormalizeEmail(email)
	if normalized == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}

	var user db.User
	if err := p.db.WithContext(ctx).Where("email = ?", normalized).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, fmt.Errorf("load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return Session{}, ErrInvalidCredentials
	}

	actor := Actor{UserID: strconv.FormatUint(uint64(user.ID), 10), Email: user.Email}
	now := p.now()
	expiresAt := now.Add(p.ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionClaims{
		Email: actor.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	})
	signed, err := token.SignedString(p.secret)
	if err != nil {
		return Session{}, fmt.Errorf("sign session: %w", err)
	}

	return Session{Token: signed, ExpiresAt: expiresAt, Actor: actor}, nil
}

// Verify 解析会话令牌并返回对应的 actor。
func (p *Provider) Verify(token string) (Actor, error) {
	if !p.Configured() {
		return Actor{}, ErrNotConfigured
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), claims, func(t *jwt.Token) (interface{}, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil || !parsed.Valid {
		return Actor{}, ErrInvalidToken
	}

	actor := Actor{UserID: claims.Subject, Email: claims.Email}
	if !actor.Valid() {
		return Actor{}, ErrInvalidToken
	}
	return actor, nil
}
