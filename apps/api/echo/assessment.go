package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/speakwell/academy/core/assessment"
)

type assessmentApi struct {
	svc assessment.Service
}

func registerAssessmentAPI(g *echo.Group, learner []echo.MiddlewareFunc, svc assessment.Service) {
	api := assessmentApi{svc: svc}

	g.GET("/modules/:id/assessment", api.retrieveForModule, learner...)

	ag := g.Group("/assessments/:id", learner...)
	ag.GET("", api.retrieve)
	ag.POST("/submissions", api.submit)
	ag.GET("/submissions", api.querySubmissions)
}

// Handlers

func (api *assessmentApi) retrieveForModule(ctx echo.Context) error {
	a, err := api.svc.GetForModule(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting module assessment")
	}
	return ctx.JSON(http.StatusOK, a.Public())
}

func (api *assessmentApi) retrieve(ctx echo.Context) error {
	a, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting assessment")
	}
	return ctx.JSON(http.StatusOK, a.Public())
}

func (api *assessmentApi) submit(ctx echo.Context) error {
	learner, err := getContextLearner(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context learner")
	}

	var data assessment.Submission
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Submission")
	}

	res, err := api.svc.Submit(ctx.Request().Context(), learner, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "submitting answers")
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *assessmentApi) querySubmissions(ctx echo.Context) error {
	learner, err := getContextLearner(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context learner")
	}
	attempts, err := api.svc.Attempts(ctx.Request().Context(), learner.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	return ctx.JSON(http.StatusOK, attempts)
}
