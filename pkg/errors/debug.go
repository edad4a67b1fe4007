package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// ErrorReport flattens an error chain for structured logging. Postgres
// diagnostics are lifted out when a driver error sits anywhere in the chain.
type ErrorReport struct {
	Message string `json:"message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	PGCode       string `json:"pg_code,omitempty"`
	PGConstraint string `json:"pg_constraint,omitempty"`
	PGTable      string `json:"pg_table,omitempty"`
	PGColumn     string `json:"pg_column,omitempty"`
	PGDetail     string `json:"pg_detail,omitempty"`
	PGMessage    string `json:"pg_message,omitempty"`
}

// Dump walks err and fills an ErrorReport. Both drivers are checked because
// gorm queries surface pgx errors while goose migrations surface pq ones.
func Dump(err error) ErrorReport {
	if err == nil {
		return ErrorReport{}
	}

	report := ErrorReport{Message: err.Error()}
	if typed := As(err); typed != nil {
		report.Code = typed.Code()
	}
	for link := err; link != nil; link = errors.Unwrap(link) {
		report.Chain = append(report.Chain, fmt.Sprintf("%T: %v", link, link))
	}
	report.fillPostgres(err)
	return report
}

func (d *ErrorReport) fillPostgres(err error) {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGColumn = pgxErr.ColumnName
		d.PGDetail = pgxErr.Detail
		d.PGMessage = pgxErr.Message
		return
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGColumn = pqErr.Column
		d.PGDetail = pqErr.Detail
		d.PGMessage = pqErr.Message
	}
}
