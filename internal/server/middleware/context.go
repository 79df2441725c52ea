package middleware

import (
	"github.com/OFFIS-RIT/ned/internal/queue"
	"github.com/OFFIS-RIT/ned/internal/storage"
	"github.com/OFFIS-RIT/ned/pkg/graph"
	"github.com/OFFIS-RIT/ned/pkg/oracle"
	"github.com/OFFIS-RIT/ned/pkg/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type AppUser struct {
	UserID string
	Role   string
}

// App holds the dependencies shared by all handlers.
type App struct {
	Graph   *graph.GraphClient
	Oracles oracle.Oracles
	Results store.ResultStore
	Queue   queue.Channel
	S3      storage.ObjectAPI

	// Key verifies bearer JWTs. Without it only the master key is accepted.
	Key          jwt.Keyfunc
	MasterAPIKey string
}

type AppContext struct {
	echo.Context
	App  *App
	User *AppUser
}

func AppContextMiddleware(app *App) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{Context: c, App: app})
		}
	}
}
