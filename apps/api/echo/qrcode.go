package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core/qrcode"
)

type qrcodeApi struct {
	svc      *qrcode.Service
	validate *validator.Validate
}

func registerQRCodeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *qrcode.Service, validate *validator.Validate) {
	api := qrcodeApi{
		svc:      svc,
		validate: validate,
	}

	qg := g.Group("/qrcodes", jwt, menuManagerMiddleware)
	qg.GET("", api.query)
	qg.POST("", api.create)
	qg.GET("/:id", api.retrieve)
	qg.PUT("/:id", api.update)
	qg.DELETE("/:id", api.destroy)
}

func (api *qrcodeApi) query(ctx echo.Context) error {
	codes, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying qr codes")
	}
	return ctx.JSON(http.StatusOK, codes)
}

func (api *qrcodeApi) retrieve(ctx echo.Context) error {
	qr, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting qr code")
	}
	return ctx.JSON(http.StatusOK, qr)
}

func (api *qrcodeApi) create(ctx echo.Context) error {
	var data qrcode.NewQRCode
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQRCode")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	qr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating qr code")
	}
	return ctx.JSON(http.StatusCreated, qr)
}

func (api *qrcodeApi) update(ctx echo.Context) error {
	var data qrcode.NewQRCode
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQRCode")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	qr, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating qr code")
	}
	return ctx.JSON(http.StatusOK, qr)
}

func (api *qrcodeApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting qr code")
	}
	return ctx.NoContent(http.StatusNoContent)
}
