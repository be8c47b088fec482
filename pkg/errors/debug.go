package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"go.uber.org/multierr"
)

// productFailure is implemented by causes that belong to a single product,
// such as a checkout stock shortage.
type productFailure interface {
	FailedProductID() uint
}

// ErrorDump is the log-side view of an error. It is never sent to clients.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	// Causes lists each aggregated failure separately, e.g. one entry per
	// out-of-stock cart line of a STOCK_SHORTAGE.
	Causes     []string `json:"causes,omitempty"`
	ProductIDs []uint   `json:"product_ids,omitempty"`
	Chain      []string `json:"chain,omitempty"`
	Details    string   `json:"details,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}

	if te := As(err); te != nil {
		d.Code = te.Code()
		if details := te.Details(); details != nil {
			d.Details = fmt.Sprintf("%T", details)
		}
		if te.cause != nil {
			parts := multierr.Errors(te.cause)
			for _, part := range parts {
				if len(parts) > 1 {
					d.Causes = append(d.Causes, part.Error())
				}
				var pf productFailure
				if errors.As(part, &pf) {
					d.ProductIDs = append(d.ProductIDs, pf.FailedProductID())
				}
			}
		}
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	}

	return d
}
