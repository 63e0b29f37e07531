package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/wyfcoding/pizzashop/pkg/errorx"
	"github.com/wyfcoding/pizzashop/pkg/logger"
	"github.com/wyfcoding/pizzashop/pkg/response"
)

// RoleAdmin 管理员角色
const RoleAdmin = "admin"

const (
	userIDCtxKey = "auth.user_id"
	roleCtxKey   = "auth.role"
)

// Claims 访问令牌声明，sub 为用户 ID
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuth 校验 Bearer 令牌（HS256）。令牌由外部身份服务签发
func JWTAuth(secret, issuer string) gin.HandlerFunc {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}
	parser := jwt.NewParser(opts...)
	keyFunc := func(*jwt.Token) (any, error) { return []byte(secret), nil }

	return func(c *gin.Context) {
		raw, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !ok || raw == "" {
			response.Error(c, errorx.Unauthorized("missing bearer token"))
			return
		}

		claims := &Claims{}
		if _, err := parser.ParseWithClaims(raw, claims, keyFunc); err != nil || claims.Subject == "" {
			logger.Debug(c.Request.Context(), "token rejected", "error", err)
			response.Error(c, errorx.Unauthorized("invalid or expired token"))
			return
		}

		c.Set(userIDCtxKey, claims.Subject)
		c.Set(roleCtxKey, claims.Role)
		c.Request = c.Request.WithContext(logger.ContextWithUserID(c.Request.Context(), claims.Subject))
		c.Next()
	}
}

// RequireRole 要求调用方具有指定角色，须在 JWTAuth 之后使用
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(roleCtxKey) != role {
			response.Error(c, errorx.Forbidden("requires %s role", role))
			return
		}
		c.Next()
	}
}

// UserID 当前调用方 ID
func UserID(c *gin.Context) string {
	return c.GetString(userIDCtxKey)
}

// IsAdmin 当前调用方是否为管理员
func IsAdmin(c *gin.Context) bool {
	return c.GetString(roleCtxKey) == RoleAdmin
}

// SignToken 签发 HS256 令牌，供本地调试与测试使用
func SignToken(secret, issuer, userID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return s, nil
}
