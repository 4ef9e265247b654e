package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/ahmadkeyhan/qrcodile/core"
	"github.com/ahmadkeyhan/qrcodile/core/qrcode"
)

const qrCodeColumns = `id, label, url, fg_color, bg_color, created_at`

type qrCodeRepository struct {
	db core.DB
}

var _ qrcode.Repository = (*qrCodeRepository)(nil) // interface compliance check

func NewQRCodeRepository(db core.DB) *qrCodeRepository {
	return &qrCodeRepository{db: db}
}

func (repo qrCodeRepository) CreateQRCode(ctx context.Context, qr qrcode.QRCode) (qrcode.QRCode, error) {
	qr.ID = uuid.New().String()
	q := `INSERT INTO qr_code (` + qrCodeColumns + `) VALUES (:id, :label, :url, :fg_color, :bg_color, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, qr); err != nil {
		return qrcode.QRCode{}, errors.Wrap(err, "inserting qr code")
	}
	return qr, nil
}

func (repo qrCodeRepository) QueryQRCodes(ctx context.Context) ([]qrcode.QRCode, error) {
	qrs := make([]qrcode.QRCode, 0)
	q := `SELECT ` + qrCodeColumns + ` FROM qr_code ORDER BY created_at DESC, id`
	if err := repo.db.SelectContext(ctx, &qrs, q); err != nil {
		return nil, errors.Wrap(err, "selecting qr codes")
	}
	return qrs, nil
}

func (repo qrCodeRepository) GetQRCode(ctx context.Context, id string) (qrcode.QRCode, error) {
	if !isUUID(id) {
		return qrcode.QRCode{}, qrcode.ErrNotFound
	}
	var qr qrcode.QRCode
	q := `SELECT ` + qrCodeColumns + ` FROM qr_code WHERE id = $1`
	if err := repo.db.GetContext(ctx, &qr, q, id); err != nil {
		return qrcode.QRCode{}, trapNoRowsErr(err, qrcode.ErrNotFound, "selecting qr code")
	}
	return qr, nil
}

func (repo qrCodeRepository) UpdateQRCode(ctx context.Context, qr qrcode.QRCode) (qrcode.QRCode, error) {
	if !isUUID(qr.ID) {
		return qrcode.QRCode{}, qrcode.ErrNotFound
	}
	var updated qrcode.QRCode
	q := `UPDATE qr_code SET label = $2, url = $3, fg_color = $4, bg_color = $5 WHERE id = $1 RETURNING ` + qrCodeColumns
	if err := repo.db.GetContext(ctx, &updated, q, qr.ID, qr.Label, qr.URL, qr.FgColor, qr.BgColor); err != nil {
		return qrcode.QRCode{}, trapNoRowsErr(err, qrcode.ErrNotFound, "updating qr code")
	}
	return updated, nil
}

func (repo qrCodeRepository) DeleteQRCode(ctx context.Context, id string) error {
	if !isUUID(id) {
		return qrcode.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM qr_code WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting qr code")
	}
	return checkAffected(res, qrcode.ErrNotFound)
}
