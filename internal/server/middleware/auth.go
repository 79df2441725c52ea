package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const MasterUserID = "master"

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
}

// AuthMiddleware accepts the master API key or a JWT verified with
// App.Key. The user ID is read from the "id" claim, falling back to "sub".
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ac, ok := c.(*AppContext)
		if !ok {
			return unauthorized(c)
		}

		authHeader := c.Request().Header.Get("Authorization")
		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			return unauthorized(c)
		}

		app := ac.App
		if app.MasterAPIKey != "" && token == app.MasterAPIKey {
			ac.User = &AppUser{UserID: MasterUserID, Role: "admin"}
			return next(c)
		}

		if app.Key == nil {
			return unauthorized(c)
		}
		parsed, err := jwt.Parse(token, app.Key)
		if err != nil || !parsed.Valid {
			return unauthorized(c)
		}
		claims, ok := parsed.Claims.(jwt.MapClaims)
		if !ok {
			return unauthorized(c)
		}

		var userID string
		switch id := claims["id"].(type) {
		case string:
			userID = id
		case float64:
			userID = strconv.FormatInt(int64(id), 10)
		default:
			userID, _ = claims.GetSubject()
		}
		if userID == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid user ID"})
		}

		role := "user"
		if r, ok := claims["role"].(string); ok {
			role = r
		}

		ac.User = &AppUser{UserID: userID, Role: role}
		return next(c)
	}
}
