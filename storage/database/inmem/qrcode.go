package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/ahmadkeyhan/qrcodile/core/qrcode"
)

type qrCodeRepository struct {
	db *DB
}

var _ qrcode.Repository = (*qrCodeRepository)(nil) // interface compliance check

func NewQRCodeRepository(db *DB) *qrCodeRepository {
	return &qrCodeRepository{db: db}
}

func (repo *qrCodeRepository) CreateQRCode(_ context.Context, qr qrcode.QRCode) (qrcode.QRCode, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	qr.ID = uuid.New().String()
	repo.db.qrCodes[qr.ID] = qr
	return qr, nil
}

func (repo *qrCodeRepository) QueryQRCodes(_ context.Context) ([]qrcode.QRCode, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	qrs := make([]qrcode.QRCode, 0, len(repo.db.qrCodes))
	for _, qr := range repo.db.qrCodes {
		qrs = append(qrs, qr)
	}
	sort.Slice(qrs, func(i, j int) bool {
		if !qrs[i].CreatedAt.Equal(qrs[j].CreatedAt) {
			return qrs[i].CreatedAt.After(qrs[j].CreatedAt)
		}
		return qrs[i].ID < qrs[j].ID
	})
	return qrs, nil
}

func (repo *qrCodeRepository) GetQRCode(_ context.Context, id string) (qrcode.QRCode, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if qr, ok := repo.db.qrCodes[id]; ok {
		return qr, nil
	}
	return qrcode.QRCode{}, qrcode.ErrNotFound
}

func (repo *qrCodeRepository) UpdateQRCode(_ context.Context, qr qrcode.QRCode) (qrcode.QRCode, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.qrCodes[qr.ID]
	if !ok {
		return qrcode.QRCode{}, qrcode.ErrNotFound
	}
	qr.CreatedAt = orig.CreatedAt
	repo.db.qrCodes[qr.ID] = qr
	return qr, nil
}

func (repo *qrCodeRepository) DeleteQRCode(_ context.Context, id string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.qrCodes[id]; !ok {
		return qrcode.ErrNotFound
	}
	delete(repo.db.qrCodes, id)
	return nil
}
