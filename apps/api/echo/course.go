package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/speakwell/academy/core/course"
	"github.com/speakwell/academy/core/markdown"
	"github.com/speakwell/academy/core/visibility"
)

type courseApi struct {
	svc      course.Service
	validate *validator.Validate
}

// VisibilityReport is a client observation of a lesson's end marker.
type VisibilityReport struct {
	Intersecting bool    `json:"intersecting"`
	Ratio        float64 `json:"ratio" validate:"min=0,max=1"`
}

type VisibilityResponse struct {
	Notified int `json:"notified"`
}

func registerCourseAPI(g *echo.Group, learner []echo.MiddlewareFunc, svc course.Service, validate *validator.Validate) {
	api := courseApi{svc: svc, validate: validate}

	// catalog
	g.GET("/courses", api.query)
	g.GET("/courses/:id", api.retrieve)

	g.GET("/dashboard", api.dashboard, learner...)

	lg := g.Group("/lessons/:id", learner...)
	lg.GET("", api.openLesson)
	lg.GET("/html", api.lessonHTML)
	lg.POST("/visibility", api.reportVisibility)
	lg.POST("/complete", api.completeLesson)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	filter := new(course.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	published := true
	filter.Published = &published

	ordering := new(Ordering)
	if err := ordering.Bind(ctx, course.Orderings); err != nil {
		return err
	}

	courses, err := api.svc.Query(ctx.Request().Context(), *filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) retrieve(ctx echo.Context) error {
	c, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting course")
	}
	if !c.Published {
		return course.ErrCourseNotFound
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseApi) dashboard(ctx echo.Context) error {
	learner, err := getContextLearner(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context learner")
	}
	dash, err := api.svc.Dashboard(ctx.Request().Context(), learner.ID)
	if err != nil {
		return errors.Wrap(err, "getting dashboard")
	}
	return ctx.JSON(http.StatusOK, dash)
}

func (api *courseApi) openLesson(ctx echo.Context) error {
	learner, err := getContextLearner(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context learner")
	}
	content, err := api.svc.OpenLesson(ctx.Request().Context(), learner.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "opening lesson")
	}
	return ctx.JSON(http.StatusOK, content)
}

func (api *courseApi) lessonHTML(ctx echo.Context) error {
	content, err := api.svc.Lesson(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting lesson")
	}
	return ctx.HTML(http.StatusOK, string(markdown.HTML(content.Blocks)))
}

func (api *courseApi) reportVisibility(ctx echo.Context) error {
	learner, err := getContextLearner(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context learner")
	}

	var data VisibilityReport
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to VisibilityReport")
	}
	if err = api.validate.Struct(data); err != nil {
		return err
	}

	n, err := api.svc.ReportVisibility(
		ctx.Request().Context(),
		learner.ID,
		ctx.Param("id"),
		visibility.Entry{Intersecting: data.Intersecting, Ratio: data.Ratio},
	)
	if err != nil {
		return errors.Wrap(err, "reporting visibility")
	}
	return ctx.JSON(http.StatusOK, VisibilityResponse{Notified: n})
}

func (api *courseApi) completeLesson(ctx echo.Context) error {
	learner, err := getContextLearner(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context learner")
	}
	p, err := api.svc.CompleteLesson(ctx.Request().Context(), learner.ID, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "completing lesson")
	}
	return ctx.JSON(http.StatusOK, p)
}
