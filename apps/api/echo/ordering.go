package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
)

const (
	invalidMoveMessage      = "invalid move"
	categoryRequiredMessage = "category_id is required"
	movePersistedMessage    = "the new order has been saved"
	moveReconciledMessage   = "the new order could not be saved; the list has been reloaded"
	moveAcceptedMessage     = "the new order is being saved"
)

var orderingMessages = map[string]core.Texts{
	invalidMoveMessage:      {core.LocaleFa: "جابجایی نامعتبر است"},
	categoryRequiredMessage: {core.LocaleFa: "دسته‌بندی مشخص نشده است"},
	movePersistedMessage:    {core.LocaleFa: "ترتیب جدید ذخیره شد"},
	moveReconciledMessage:   {core.LocaleFa: "ذخیره ترتیب جدید ناموفق بود؛ فهرست دوباره بارگذاری شد"},
	moveAcceptedMessage:     {core.LocaleFa: "ترتیب جدید در حال ذخیره است"},
}

type (
	// MoveRequest drops MovedID onto the position of TargetID.
	MoveRequest struct {
		MovedID    string `json:"moved_id" validate:"required"`
		TargetID   string `json:"target_id" validate:"required"`
		CategoryID string `json:"category_id"`
		// Async answers as soon as the move is applied; the outcome is only logged & counted.
		Async bool `json:"async"`
	}

	// ReorderRequest replaces the whole order of a group.
	ReorderRequest struct {
		IDs        []string `json:"ids" validate:"required,min=1,dive,required"`
		CategoryID string   `json:"category_id"`
	}

	SequenceQuery struct {
		CategoryID string `query:"category_id"`
	}

	ReorderResponse struct {
		Message  string            `json:"message"`
		Sequence []ordering.Entity `json:"sequence"`
		Changed  []string          `json:"changed,omitempty"`
	}

	ReorderErrorResponse struct {
		Error    string            `json:"error"`
		Sequence []ordering.Entity `json:"sequence"`
	}
)

func (mr *MoveRequest) Validate(validate *validator.Validate) error {
	mr.MovedID = core.CleanString(mr.MovedID)
	mr.TargetID = core.CleanString(mr.TargetID)
	mr.CategoryID = core.CleanString(mr.CategoryID)
	return validate.Struct(mr)
}

func (rr *ReorderRequest) Validate(validate *validator.Validate) error {
	for i, id := range rr.IDs {
		rr.IDs[i] = core.CleanString(id)
	}
	rr.CategoryID = core.CleanString(rr.CategoryID)
	return validate.Struct(rr)
}

// orderingApi serves the drag & drop endpoints of one ordered collection.
type orderingApi struct {
	board    *ordering.Board
	validate *validator.Validate
	grouped  bool // groups are selected by category_id; otherwise the collection is a single list
}

func registerOrderingAPI(g *echo.Group, board *ordering.Board, validate *validator.Validate, grouped bool) {
	api := orderingApi{
		board:    board,
		validate: validate,
		grouped:  grouped,
	}

	g.GET("/order", api.sequence)
	g.POST("/move", api.move)
	g.POST("/reorder", api.reorder)
}

func (api *orderingApi) groupID(categoryID string) (string, error) {
	if !api.grouped {
		return ordering.RootGroup, nil
	}
	if categoryID == "" {
		return "", core.NewValidationError(nil, core.FieldError{Field: "category_id", Error: categoryRequiredMessage})
	}
	return categoryID, nil
}

func (api *orderingApi) sequence(ctx echo.Context) error {
	var query SequenceQuery
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to SequenceQuery")
	}
	groupID, err := api.groupID(core.CleanString(query.CategoryID))
	if err != nil {
		return err
	}

	ctrl, err := api.board.Controller(ctx.Request().Context(), groupID)
	if err != nil {
		return errors.Wrap(err, "loading group")
	}
	return ctx.JSON(http.StatusOK, ctrl.Sequence())
}

func (api *orderingApi) move(ctx echo.Context) error {
	var data MoveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MoveRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	groupID, err := api.groupID(data.CategoryID)
	if err != nil {
		return err
	}

	ctrl, err := api.board.Controller(ctx.Request().Context(), groupID)
	if err != nil {
		return errors.Wrap(err, "loading group")
	}

	if data.Async {
		if err := ctrl.HandleMove(ctx.Request().Context(), data.MovedID, data.TargetID); err != nil {
			return err
		}
		return ctx.JSON(http.StatusAccepted, ReorderResponse{
			Message:  core.Translate(contextTranslator(ctx), moveAcceptedMessage),
			Sequence: ctrl.Sequence(),
		})
	}

	r, err := ctrl.Move(ctx.Request().Context(), data.MovedID, data.TargetID)
	return api.respond(ctx, ctrl, r, err)
}

func (api *orderingApi) reorder(ctx echo.Context) error {
	var data ReorderRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ReorderRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	groupID, err := api.groupID(data.CategoryID)
	if err != nil {
		return err
	}

	ctrl, err := api.board.Controller(ctx.Request().Context(), groupID)
	if err != nil {
		return errors.Wrap(err, "loading group")
	}
	r, err := ctrl.Reorder(ctx.Request().Context(), data.IDs)
	return api.respond(ctx, ctrl, r, err)
}

// respond renders the settled sequence of ctrl. A failed write answers 503 with the reloaded sequence.
func (api *orderingApi) respond(ctx echo.Context, ctrl *ordering.Controller, r ordering.Reorder, err error) error {
	trans := contextTranslator(ctx)
	if err != nil {
		if ordering.IsStoreError(err) {
			ctx.Logger().Warnf("%+v", err)
			return ctx.JSON(http.StatusServiceUnavailable, ReorderErrorResponse{
				Error:    core.Translate(trans, moveReconciledMessage),
				Sequence: ctrl.Sequence(),
			})
		}
		return err
	}
	return ctx.JSON(http.StatusOK, ReorderResponse{
		Message:  core.Translate(trans, movePersistedMessage),
		Sequence: ctrl.Sequence(),
		Changed:  r.Changed,
	})
}
