package echoapi

import (
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/speakwell/academy/core"
	"github.com/speakwell/academy/core/account"
)

// learnerMiddleware checks the token audience and loads the learner's profile,
// creating it the first time the learner shows up.
func learnerMiddleware(conf *core.Config, svc account.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return errors.Wrap(err, "getting context claims")
			}
			if claims.Subject == "" || !claims.VerifyAudience(conf.Server.JWTAudience, true) {
				return errHttpForbidden
			}

			p, err := svc.GetOrCreate(ctx.Request().Context(), claims.Identity())
			if err != nil {
				return errors.Wrap(err, "getting learner profile")
			}
			ctx.Set(learnerContextKey, p)
			return next(ctx)
		}
	}
}
