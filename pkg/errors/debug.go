package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// LogFields flattens err into structured log fields: the typed code, the
// unwrap chain and, when a postgres error sits in the chain, its SQLSTATE
// and constraint details. Empty values are omitted. The message itself is
// left to the logger's error field.
func LogFields(err error) map[string]any {
	if err == nil {
		return nil
	}
	fields := map[string]any{
		"error_code": string(CodeOf(err)),
	}

	var chain []string
	for e := err; e != nil; e = errors.Unwrap(e) {
		chain = append(chain, fmt.Sprintf("%T", e))
	}
	if len(chain) > 1 {
		fields["error_chain"] = chain
	}

	for key, value := range postgresFields(err) {
		if value != "" {
			fields[key] = value
		}
	}
	return fields
}

func postgresFields(err error) map[string]string {
	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		return map[string]string{
			"pg_code":       pgxErr.Code,
			"pg_constraint": pgxErr.ConstraintName,
			"pg_table":      pgxErr.TableName,
			"pg_detail":     pgxErr.Detail,
		}
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return map[string]string{
			"pg_code":       string(pqErr.Code),
			"pg_constraint": pqErr.Constraint,
			"pg_table":      pqErr.Table,
			"pg_detail":     pqErr.Detail,
		}
	}
	return nil
}
