package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/speakwell/academy/core/account"
)

type accountApi struct {
	svc account.Service
}

func registerAccountAPI(g *echo.Group, learner []echo.MiddlewareFunc, svc account.Service) {
	api := accountApi{svc: svc}

	g.GET("/account", api.retrieve, learner...)
	g.PUT("/account", api.update, learner...)
}

// Handlers

func (api *accountApi) retrieve(ctx echo.Context) error {
	learner, err := getContextLearner(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context learner")
	}
	return ctx.JSON(http.StatusOK, learner)
}

func (api *accountApi) update(ctx echo.Context) error {
	learner, err := getContextLearner(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context learner")
	}

	var data account.UpdateProfile
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}

	p, err := api.svc.Update(ctx.Request().Context(), learner.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, p)
}
