package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

type categoryApi struct {
	svc       *category.Service
	board     *ordering.Board
	menuItems *ordering.Board
	validate  *validator.Validate
}

func registerCategoryAPI(
	g *echo.Group,
	jwt echo.MiddlewareFunc,
	svc *category.Service,
	board *ordering.Board,
	menuItems *ordering.Board,
	validate *validator.Validate,
) {
	api := categoryApi{
		svc:       svc,
		board:     board,
		menuItems: menuItems,
		validate:  validate,
	}

	cg := g.Group("/categories")

	// the middleware group catches every method of its prefix: register public routes after it
	mg := cg.Group("", jwt, menuManagerMiddleware)
	mg.POST("", api.create)
	mg.PUT("/:id", api.update)
	mg.DELETE("/:id", api.destroy)
	registerOrderingAPI(mg, board, validate, false /* grouped */)

	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
}

func (api *categoryApi) query(ctx echo.Context) error {
	cats, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying categories")
	}
	return ctx.JSON(http.StatusOK, cats)
}

func (api *categoryApi) retrieve(ctx echo.Context) error {
	cat, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting category")
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *categoryApi) create(ctx echo.Context) error {
	var data category.NewCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCategory")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cat, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating category")
	}
	api.board.Invalidate(ordering.RootGroup)
	return ctx.JSON(http.StatusCreated, cat)
}

func (api *categoryApi) update(ctx echo.Context) error {
	orig, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting category")
	}

	var data category.UpdateCategory
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCategory")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	cat, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating category")
	}
	if cat.Name != orig.Name { // the name breaks ties between equal orders
		api.board.Invalidate(ordering.RootGroup)
	}
	return ctx.JSON(http.StatusOK, cat)
}

func (api *categoryApi) destroy(ctx echo.Context) error {
	id := ctx.Param("id")
	if err := api.svc.Delete(ctx.Request().Context(), id); err != nil {
		return errors.Wrap(err, "deleting category")
	}
	api.board.Invalidate(ordering.RootGroup)
	api.menuItems.Forget(id)
	return ctx.NoContent(http.StatusNoContent)
}
