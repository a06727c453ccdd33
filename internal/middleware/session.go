package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/attendance-dashboard-api/internal/models"
	appErrors "github.com/noah-isme/attendance-dashboard-api/pkg/errors"
	"github.com/noah-isme/attendance-dashboard-api/pkg/response"
)

// ContextCredentialsKey is the gin context key storing the portal session.
const ContextCredentialsKey = "portalCredentials"

var credentialSources = []struct {
	field  string
	header string
	query  string
}{
	{"StudentID", "X-Student-Id", "studentId"},
	{"UserID", "X-User-Id", "userId"},
	{"AccessToken", "Authorization", "accessToken"},
	{"SessionID", "X-Session-Id", "sessionId"},
	{"XToken", "X-Token", "xToken"},
}

// Session reads the caller's campus portal session from headers, falling back
// to query parameters, and rejects requests missing any part of it.
func Session(validate *validator.Validate) gin.HandlerFunc {
	if validate == nil {
		validate = validator.New()
	}
	parser := jwt.NewParser()
	return func(c *gin.Context) {
		creds := readCredentials(c)
		if err := validate.Struct(creds); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, missingMessage(err)))
			c.Abort()
			return
		}
		creds.ExpiresAt = tokenExpiry(parser, creds.AccessToken)
		c.Set(ContextCredentialsKey, creds)
		c.Next()
	}
}

// CredentialsFromContext returns the session stored by Session.
func CredentialsFromContext(c *gin.Context) (models.Credentials, bool) {
	value, exists := c.Get(ContextCredentialsKey)
	if !exists {
		return models.Credentials{}, false
	}
	creds, ok := value.(models.Credentials)
	return creds, ok
}

func readCredentials(c *gin.Context) models.Credentials {
	values := make(map[string]string, len(credentialSources))
	for _, src := range credentialSources {
		v := strings.TrimSpace(c.GetHeader(src.header))
		if v == "" {
			v = strings.TrimSpace(c.Query(src.query))
		}
		values[src.field] = v
	}
	return models.Credentials{
		StudentID:   values["StudentID"],
		UserID:      values["UserID"],
		AccessToken: stripBearer(values["AccessToken"]),
		SessionID:   values["SessionID"],
		XToken:      values["XToken"],
	}
}

func stripBearer(v string) string {
	if len(v) > 7 && strings.EqualFold(v[:7], "bearer ") {
		return strings.TrimSpace(v[7:])
	}
	return v
}

// tokenExpiry reads exp without verifying the signature; the portal owns
// verification. Opaque or exp-less tokens yield the zero time.
func tokenExpiry(parser *jwt.Parser, token string) time.Time {
	claims := jwt.RegisteredClaims{}
	if _, _, err := parser.ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func missingMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "portal session is incomplete"
	}
	missing := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		for _, src := range credentialSources {
			if src.field == fe.Field() {
				missing = append(missing, src.header)
			}
		}
	}
	return "missing portal session values: " + strings.Join(missing, ", ")
}
