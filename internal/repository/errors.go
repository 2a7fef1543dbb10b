// Package repository holds the MySQL data access for hotels, bookings, pricing
// config and users. Not-found sentinels wrap apperr.ErrNotFound so handlers can
// map them without knowing which table was read.
package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/iliyamo/hotel-booking/internal/apperr"
)

var (
	ErrHotelNotFound       = fmt.Errorf("hotel %w", apperr.ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", apperr.ErrNotFound)
	ErrPolicyNotFound      = fmt.Errorf("booking policy %w", apperr.ErrNotFound)
	ErrMetaSearchNotFound  = fmt.Errorf("meta search %w", apperr.ErrNotFound)
	ErrUserNotFound        = fmt.Errorf("user %w", apperr.ErrNotFound)
	ErrConfigNotFound      = errors.New("pricing config not found")
)

// ErrEmailExists is returned when registering an address already in users.
var ErrEmailExists = fmt.Errorf("%w: email already exists", apperr.ErrValidation)

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlDuplicateEntry
	}
	return err != nil && strings.Contains(err.Error(), "1062")
}
