package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Facturacion-api/internal/domain"
)

func TestTranslateWriteError(t *testing.T) {
	unique := fmt.Errorf("wrap: %w", &pgconn.PgError{Code: "23505"})
	fk := &pgconn.PgError{Code: "23503"}
	badUUID := &pgconn.PgError{Code: "22P02"}
	other := errors.New("conexión cerrada")

	assert.ErrorIs(t, translateWriteError("insert client", unique), domain.ErrDuplicate)
	assert.ErrorIs(t, translateWriteError("delete product", fk), domain.ErrReferenced)
	assert.ErrorIs(t, translateWriteError("get", badUUID), domain.ErrInvalidInput)

	err := translateWriteError("update", other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, domain.ErrDuplicate)
}

func TestHelpers(t *testing.T) {
	assert.Nil(t, nullIfEmpty(""))
	assert.Equal(t, "x", *nullIfEmpty("x"))
	assert.Equal(t, "", derefStr(nil))
	assert.Nil(t, limitArg(0))
	assert.Equal(t, 20, limitArg(20))
}

func TestNumberingLockKey(t *testing.T) {
	assert.Equal(t, "invoice_numbering:A:0001", numberingLockKey("A", "0001"))
	assert.NotEqual(t, numberingLockKey("A", "0001"), numberingLockKey("B", "0001"))
}
