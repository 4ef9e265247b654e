// Package qrcode stores the QR code configurations printed on table cards.
// Rendering happens client side.
package qrcode

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("qr code not found")

	defaultFgColor = "#000000"
	defaultBgColor = "#ffffff"
)

type QRCode struct {
	ID        string    `json:"id" db:"id"`
	Label     string    `json:"label" db:"label"`
	URL       string    `json:"url" db:"url"`
	FgColor   string    `json:"fg_color" db:"fg_color"`
	BgColor   string    `json:"bg_color" db:"bg_color"`
	CreatedAt time.Time `json:"created_at" db:"created_at"` // UTC
}

type NewQRCode struct {
	Label   string `json:"label" validate:"required,max=100"`
	URL     string `json:"url" validate:"required,url"`
	FgColor string `json:"fg_color" validate:"omitempty,hexcolor"`
	BgColor string `json:"bg_color" validate:"omitempty,hexcolor"`
}

func (nq *NewQRCode) Validate(validate *validator.Validate) error {
	nq.Label = core.CleanString(nq.Label)
	nq.URL = core.CleanString(nq.URL)
	nq.FgColor = core.CleanString(nq.FgColor, true /* lower */)
	nq.BgColor = core.CleanString(nq.BgColor, true /* lower */)
	if nq.FgColor == "" {
		nq.FgColor = defaultFgColor
	}
	if nq.BgColor == "" {
		nq.BgColor = defaultBgColor
	}
	return validate.Struct(nq)
}

type (
	Repository interface {
		CreateQRCode(ctx context.Context, qr QRCode) (QRCode, error)
		// QueryQRCodes returns every QR code, newest first.
		QueryQRCodes(ctx context.Context) ([]QRCode, error)
		GetQRCode(ctx context.Context, id string) (QRCode, error)
		UpdateQRCode(ctx context.Context, qr QRCode) (QRCode, error)
		DeleteQRCode(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, nq NewQRCode) (QRCode, error) {
	qr, err := svc.repo.CreateQRCode(ctx, QRCode{
		Label:     nq.Label,
		URL:       nq.URL,
		FgColor:   nq.FgColor,
		BgColor:   nq.BgColor,
		CreatedAt: NowFunc().UTC(),
	})
	if err != nil {
		return QRCode{}, errors.Wrap(err, "creating qr code")
	}
	return qr, nil
}

func (svc *Service) Query(ctx context.Context) ([]QRCode, error) {
	qrs, err := svc.repo.QueryQRCodes(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying qr codes")
	}
	return qrs, nil
}

func (svc *Service) Get(ctx context.Context, id string) (QRCode, error) {
	return svc.repo.GetQRCode(ctx, id)
}

// Update replaces the label, url & colors of the QR code id.
func (svc *Service) Update(ctx context.Context, id string, nq NewQRCode) (QRCode, error) {
	return svc.repo.UpdateQRCode(ctx, QRCode{
		ID:      id,
		Label:   nq.Label,
		URL:     nq.URL,
		FgColor: nq.FgColor,
		BgColor: nq.BgColor,
	})
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteQRCode(ctx, id)
}
