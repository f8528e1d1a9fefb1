package repositories

import (
	"errors"
	"fmt"
	"strings"

	catalogerrors "katalog/internal/errors"
	"katalog/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// pgUniqueViolation is the SQLSTATE PostgreSQL reports for unique index conflicts.
const pgUniqueViolation = "23505"

// uniqueViolation reports whether err is a unique constraint failure and
// returns a description naming the offending constraint or column.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName + " " + pgErr.Detail, true
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return sqliteErr.Error(), true
	}
	return "", false
}

// translateProductError maps storage-level unique violations on the products
// table to the catalog error kinds. Other errors are returned unchanged.
func translateProductError(err error) error {
	detail, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	if strings.Contains(strings.ToLower(detail), "sku") {
		return fmt.Errorf("%w: %v", catalogerrors.ErrDuplicateSKU, err)
	}
	return fmt.Errorf("%w: %v", catalogerrors.ErrDuplicateName, err)
}

// translateUserError does the same for the users table.
func translateUserError(err error) error {
	detail, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	if strings.Contains(strings.ToLower(detail), "email") {
		return fmt.Errorf("%w: %v", catalogerrors.ErrEmailTaken, err)
	}
	return fmt.Errorf("%w: %v", catalogerrors.ErrUsernameTaken, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE pattern matching the folded fragment anywhere,
// with the LIKE wildcards in fragment escaped by a backslash.
func containsPattern(fragment string) string {
	return "%" + likeEscaper.Replace(models.FoldName(fragment)) + "%"
}
