package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345"

var testIdentity = Identity{UserID: 42, Email: "lifter@example.com", Name: "Alex", Role: "member"}

func TestHashPassword(t *testing.T) {
	t.Run("Successfully hash password", func(t *testing.T) {
		password := "mySecurePassword123"
		hashed, err := HashPassword(password)

		assert.NoError(t, err)
		assert.NotEmpty(t, hashed)
		assert.NotEqual(t, password, hashed)
	})

	t.Run("Different hashes for same password", func(t *testing.T) {
		hash1, _ := HashPassword("samePassword")
		hash2, _ := HashPassword("samePassword")

		assert.NotEqual(t, hash1, hash2)
	})
}

func TestCheckPassword(t *testing.T) {
	hashed, _ := HashPassword("correctPassword")

	assert.True(t, CheckPassword(hashed, "correctPassword"))
	assert.False(t, CheckPassword(hashed, "wrongPassword"))
	assert.False(t, CheckPassword(hashed, ""))
}

func TestGenerateAccessToken(t *testing.T) {
	t.Run("Token carries the identity", func(t *testing.T) {
		token, err := GenerateAccessToken(testIdentity, testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)

		assert.Equal(t, testIdentity, claims.Identity())
		assert.Equal(t, "access", claims.TokenType)
		assert.Equal(t, jwtIssuer, claims.Issuer)
		assert.Contains(t, claims.Audience, jwtAudience)
	})

	t.Run("Fail with empty secret", func(t *testing.T) {
		token, err := GenerateAccessToken(testIdentity, "")

		assert.ErrorIs(t, err, ErrEmptyJWTSecret)
		assert.Empty(t, token)
	})

	t.Run("Access token expires after 15 minutes", func(t *testing.T) {
		token, err := GenerateAccessToken(testIdentity, testSecret)
		require.NoError(t, err)

		claims, err := ValidateToken(token, testSecret)
		require.NoError(t, err)

		diff := claims.ExpiresAt.Time.Sub(time.Now().Add(AccessTokenTTL)).Abs()
		assert.Less(t, diff, 2*time.Second)
	})
}

func TestGenerateTokens(t *testing.T) {
	t.Run("Successfully generate both tokens", func(t *testing.T) {
		access, refresh, err := GenerateTokens(testIdentity, "access-secret", "refresh-secret")

		assert.NoError(t, err)
		assert.NotEmpty(t, access)
		assert.NotEmpty(t, refresh)
		assert.NotEqual(t, access, refresh)
	})

	t.Run("Fail with empty refresh secret", func(t *testing.T) {
		access, refresh, err := GenerateTokens(testIdentity, "access-secret", "")

		assert.Error(t, err)
		assert.Empty(t, access)
		assert.Empty(t, refresh)
	})
}

func TestValidateToken(t *testing.T) {
	t.Run("Fail with wrong secret", func(t *testing.T) {
		token, _ := GenerateAccessToken(testIdentity, testSecret)

		claims, err := ValidateToken(token, "wrong-secret")

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Fail with invalid token format", func(t *testing.T) {
		claims, err := ValidateToken("invalid.token.format", testSecret)

		assert.Error(t, err)
		assert.Nil(t, claims)
	})

	t.Run("Fail with expired token", func(t *testing.T) {
		past := time.Now().Add(-time.Hour)
		claims := &JWTClaims{
			UserID:    testIdentity.UserID,
			TokenType: "access",
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    jwtIssuer,
				Audience:  []string{jwtAudience},
				ExpiresAt: jwt.NewNumericDate(past),
				IssuedAt:  jwt.NewNumericDate(past.Add(-15 * time.Minute)),
			},
		}
		tokenString, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))

		validated, err := ValidateToken(tokenString, testSecret)

		assert.Equal(t, ErrTokenExpired, err)
		assert.Nil(t, validated)
	})
}

func TestRefreshAccessToken(t *testing.T) {
	accessSecret := "access-secret"
	refreshSecret := "refresh-secret"

	t.Run("Successfully refresh access token", func(t *testing.T) {
		refreshToken, _ := GenerateRefreshToken(testIdentity, refreshSecret)

		newAccess, claims, err := RefreshAccessToken(refreshToken, refreshSecret, accessSecret)
		require.NoError(t, err)
		assert.Equal(t, testIdentity, claims.Identity())

		accessClaims, err := ValidateToken(newAccess, accessSecret)
		require.NoError(t, err)
		assert.Equal(t, "access", accessClaims.TokenType)
		assert.Equal(t, testIdentity.Name, accessClaims.Name)
	})

	t.Run("Fail with access token instead of refresh token", func(t *testing.T) {
		accessToken, _ := GenerateAccessToken(testIdentity, accessSecret)

		newAccess, claims, err := RefreshAccessToken(accessToken, accessSecret, accessSecret)

		assert.Equal(t, ErrInvalidTokenType, err)
		assert.Empty(t, newAccess)
		assert.Nil(t, claims)
	})
}
