package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core/ordering"
	"github.com/ahmadkeyhan/qrcodile/core/product"
)

type productApi struct {
	svc      *product.Service
	board    *ordering.Board
	validate *validator.Validate
}

func registerProductAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *product.Service, board *ordering.Board, validate *validator.Validate) {
	api := productApi{
		svc:      svc,
		board:    board,
		validate: validate,
	}

	pg := g.Group("/products")
	mg := pg.Group("", jwt, menuManagerMiddleware)
	mg.POST("", api.create)
	mg.PUT("/:id", api.update)
	mg.DELETE("/:id", api.destroy)
	registerOrderingAPI(mg, board, validate, false /* grouped */)

	pg.GET("", api.query)
	pg.GET("/:id", api.retrieve)
}

func (api *productApi) query(ctx echo.Context) error {
	products, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying products")
	}
	return ctx.JSON(http.StatusOK, products)
}

func (api *productApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting product")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *productApi) create(ctx echo.Context) error {
	var data product.NewProduct
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewProduct")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	p, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating product")
	}
	api.board.Invalidate(ordering.RootGroup)
	return ctx.JSON(http.StatusCreated, p)
}

func (api *productApi) update(ctx echo.Context) error {
	orig, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting product")
	}

	var data product.UpdateProduct
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProduct")
	}
	if err := data.Validate(orig, api.validate); err != nil {
		return err
	}

	p, err := api.svc.Update(ctx.Request().Context(), orig.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating product")
	}
	if p.Name != orig.Name {
		api.board.Invalidate(ordering.RootGroup)
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *productApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting product")
	}
	api.board.Invalidate(ordering.RootGroup)
	return ctx.NoContent(http.StatusNoContent)
}
