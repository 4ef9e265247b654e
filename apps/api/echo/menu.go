package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

type menuApi struct {
	svc      *menu.Service
	board    *ordering.Board
	validate *validator.Validate
}

func registerMenuAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *menu.Service, board *ordering.Board, validate *validator.Validate) {
	api := menuApi{
		svc:      svc,
		board:    board,
		validate: validate,
	}

	g.GET("/menu", api.publicMenu)

	sg := g.Group("/settings")
	sg.Group("", jwt, menuManagerMiddleware).PUT("", api.updateSettings)
	sg.GET("", api.settings)

	ig := g.Group("/menu-items")
	mg := ig.Group("", jwt, menuManagerMiddleware)
	mg.POST("", api.create)
	mg.PUT("/:id", api.update)
	mg.PATCH("/:id/availability", api.setAvailability)
	mg.DELETE("/:id", api.destroy)
	registerOrderingAPI(mg, board, validate, true /* grouped */)

	ig.GET("", api.query)
	ig.GET("/:id", api.retrieve)
}

func (api *menuApi) publicMenu(ctx echo.Context) error {
	m, err := api.svc.PublicMenu(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "building public menu")
	}
	return ctx.JSON(http.StatusOK, m)
}

func (api *menuApi) settings(ctx echo.Context) error {
	settings, err := api.svc.GetSettings(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting menu settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *menuApi) updateSettings(ctx echo.Context) error {
	var data menu.UpdateSettings
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSettings")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	settings, err := api.svc.UpdateSettings(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "updating menu settings")
	}
	return ctx.JSON(http.StatusOK, settings)
}

func (api *menuApi) query(ctx echo.Context) error {
	filter := new(menu.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []menu.MenuItem{})
	}
	filter.Clean()

	items, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying menu items")
	}
	return ctx.JSON(http.StatusOK, items)
}

func (api *menuApi) retrieve(ctx echo.Context) error {
	item, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting menu item")
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *menuApi) create(ctx echo.Context) error {
	var data menu.NewMenuItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMenuItem")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	item, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating menu item")
	}
	api.board.Invalidate(item.CategoryID)
	return ctx.JSON(http.StatusCreated, item)
}

func (api *menuApi) update(ctx echo.Context) error {
	orig, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting menu item")
	}

	var data menu.UpdateMenuItem
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMenuItem")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	item, err := api.svc.Update(ctx.Request().Context(), orig, data)
	if err != nil {
		return errors.Wrap(err, "updating menu item")
	}
	if item.CategoryID != orig.CategoryID || item.Name != orig.Name {
		api.board.Invalidate(orig.CategoryID, item.CategoryID)
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *menuApi) setAvailability(ctx echo.Context) error {
	var data menu.SetAvailability
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetAvailability")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	item, err := api.svc.SetAvailability(ctx.Request().Context(), ctx.Param("id"), *data.Available)
	if err != nil {
		return errors.Wrap(err, "setting menu item availability")
	}
	return ctx.JSON(http.StatusOK, item)
}

func (api *menuApi) destroy(ctx echo.Context) error {
	item, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting menu item")
	}
	if err := api.svc.Delete(ctx.Request().Context(), item.ID); err != nil {
		return errors.Wrap(err, "deleting menu item")
	}
	api.board.Invalidate(item.CategoryID)
	return ctx.NoContent(http.StatusNoContent)
}
