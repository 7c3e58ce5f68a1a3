package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mygithubaccountn/EduPacee/core/academic"
)

// roleMiddleware rebuilds the academic.Role carried by the token and stores it in the context.
func roleMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return errors.Wrap(err, "getting context claims")
		}
		role, err := academic.ParseRole(claims.RoleKind, claims.ProfileID)
		if err != nil {
			return errUnauthorized
		}
		ctx.Set(contextRoleKey, role)
		return next(ctx)
	}
}

// requireRole lets through the requests of the given role kinds only.
func requireRole(kinds ...academic.RoleKind) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			role := contextRole(ctx)
			for _, k := range kinds {
				if role.Kind == k {
					return next(ctx)
				}
			}
			return errHttpForbidden
		}
	}
}

func contextRole(ctx echo.Context) academic.Role {
	if role, ok := ctx.Get(contextRoleKey).(academic.Role); ok {
		return role
	}
	return academic.NoRole()
}
