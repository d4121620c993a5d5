package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"salesledger/internal/model"
	"salesledger/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const actorKey = "actor"

// Claims is the access token payload. Subject carries the user id.
type Claims struct {
	Role     string `json:"role"`
	BranchID string `json:"branch_id,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator turns bearer tokens into actors.
type Authenticator struct {
	secret     []byte
	privileged []string
}

func NewAuthenticator(secret string, privilegedRoles []string) *Authenticator {
	return &Authenticator{secret: []byte(secret), privileged: privilegedRoles}
}

// ParseActor validates an HMAC-signed token and builds the actor it describes.
func (a *Authenticator) ParseActor(tokenString string) (model.Actor, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Actor{}, fmt.Errorf("invalid token: %w", err)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return model.Actor{}, errors.New("token subject is not a user id")
	}
	if claims.Role == "" {
		return model.Actor{}, errors.New("role not found in token")
	}
	actor := model.Actor{
		UserID:     userID,
		Role:       claims.Role,
		Privileged: slices.Contains(a.privileged, claims.Role),
	}
	if claims.BranchID != "" {
		branchID, err := uuid.Parse(claims.BranchID)
		if err != nil {
			return model.Actor{}, errors.New("token branch_id is not a uuid")
		}
		actor.BranchID = &branchID
	}
	return actor, nil
}

// Sign issues a token for an actor. Used by tests and local tooling.
func (a *Authenticator) Sign(actor model.Actor, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = actor.UserID.String()
	c := Claims{Role: actor.Role, RegisteredClaims: claims}
	if actor.BranchID != nil {
		c.BranchID = actor.BranchID.String()
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(a.secret)
}

// RequireActor validates the JWT from the access_token cookie or the Authorization
// header and stores the actor on the context.
func (a *Authenticator) RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		actor, err := a.ParseActor(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, err.Error()))
			return
		}

		c.Set(actorKey, actor)
		c.Set("userID", actor.UserID.String())
		c.Set("userRole", actor.Role)
		c.Next()
	}
}

// RequirePrivileged must run after RequireActor.
func RequirePrivileged() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok || !actor.Privileged {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}
		c.Next()
	}
}

// ActorFrom returns the actor stored by RequireActor.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}
