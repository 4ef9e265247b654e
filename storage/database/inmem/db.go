// Package inmemdb implements every repository in memory. It backs tests & the "inmem" database engine.
package inmemdb

import (
	"sync"

	"github.com/ahmadkeyhan/qrcodile/core/category"
	"github.com/ahmadkeyhan/qrcodile/core/event"
	"github.com/ahmadkeyhan/qrcodile/core/menu"
	"github.com/ahmadkeyhan/qrcodile/core/ordering"
	"github.com/ahmadkeyhan/qrcodile/core/product"
	"github.com/ahmadkeyhan/qrcodile/core/qrcode"
	"github.com/ahmadkeyhan/qrcodile/core/user"
)

// DB holds every table behind a single lock, so multi-table writes are atomic.
type DB struct {
	mutex sync.RWMutex

	users      map[string]user.User
	categories map[string]category.Category
	menuItems  map[string]menu.MenuItem
	settings   *menu.Settings
	products   map[string]product.Product
	events     map[string]event.Event
	qrCodes    map[string]qrcode.QRCode

	orderWriteErr  error         // returned by the next order write
	orderWriteHold chan struct{} // order writes block until it is closed
}

func NewDB() *DB {
	db := &DB{}
	db.reset()
	return db
}

func (db *DB) reset() {
	db.users = make(map[string]user.User)
	db.categories = make(map[string]category.Category)
	db.menuItems = make(map[string]menu.MenuItem)
	db.settings = nil
	db.products = make(map[string]product.Product)
	db.events = make(map[string]event.Event)
	db.qrCodes = make(map[string]qrcode.QRCode)
	db.orderWriteErr = nil
}

// Reset empties every table.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.reset()
}

// FailNextOrderWrite makes the next order write fail with err, without writing anything.
func (db *DB) FailNextOrderWrite(err error) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.orderWriteErr = err
}

// HoldOrderWrites blocks every order write until release is called.
func (db *DB) HoldOrderWrites() (release func()) {
	hold := make(chan struct{})
	db.mutex.Lock()
	db.orderWriteHold = hold
	db.mutex.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			db.mutex.Lock()
			db.orderWriteHold = nil
			db.mutex.Unlock()
			close(hold)
		})
	}
}

func (db *DB) Close() error { return nil }

// waitOrderWrite blocks while order writes are held; db.mutex must not be held.
func (db *DB) waitOrderWrite() {
	db.mutex.RLock()
	hold := db.orderWriteHold
	db.mutex.RUnlock()
	if hold != nil {
		<-hold
	}
}

// takeOrderWriteErr returns & clears the injected failure; db.mutex must be held.
func (db *DB) takeOrderWriteErr() error {
	err := db.orderWriteErr
	db.orderWriteErr = nil
	return err
}

// checkOrders validates that orders only reference members of a group; db.mutex must be held.
func checkOrders(orders ordering.Assignment, isMember func(id string) bool) error {
	for id := range orders {
		if !isMember(id) {
			return &ordering.InvalidMoveError{MovedID: id, Reason: "not a member of the group"}
		}
	}
	return nil
}
