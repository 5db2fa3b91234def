package dberr

import (
	"database/sql"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/deppfellow/base-api/internal/errs"
)

// uniqueKeyRe matches "<table>_<column>_key" and "<table>_<column>_ukey".
var uniqueKeyRe = regexp.MustCompile(`_([^_]+)_(?:key|ukey)$`)

// Translate converts a low-level database error into an HTTPError.
//
// The second return value is false when err is not a database error
// this package recognises; the caller keeps handling it.
//
//   - pgconn.PgError constraint violations -> 400 with a friendly message
//   - other pgconn.PgError                  -> 500
//   - pgx/sql ErrNoRows, mongo ErrNoDocuments -> 404
//   - mongo duplicate key                   -> 400
func Translate(err error) (*errs.HTTPError, bool) {
	if err == nil {
		return nil, false
	}

	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return translatePg(ConvertPgError(pgerr)), true
	}

	switch {
	case errors.Is(err, pgx.ErrNoRows), errors.Is(err, sql.ErrNoRows), errors.Is(err, mongo.ErrNoDocuments):
		return notFound(err), true
	case mongo.IsDuplicateKeyError(err):
		return errs.NewBadRequestError(
			"A record with this identifier already exists",
			Details{Code: generateErrorCode("", UniqueViolation)},
		), true
	}

	return nil, false
}

func translatePg(sqlErr *Error) *errs.HTTPError {
	errorCode := generateErrorCode(sqlErr.TableName, sqlErr.Code)
	userMessage := formatUserFriendlyMessage(sqlErr)

	switch sqlErr.Code {
	case ForeignKeyViolation, CheckViolation:
		return errs.NewBadRequestError(userMessage, Details{Code: errorCode})

	case UniqueViolation:
		if columnName := extractColumnForUniqueViolation(sqlErr.ConstraintName); columnName != "" {
			userMessage = strings.ReplaceAll(userMessage, "identifier", humanizeText(columnName))
		}
		return errs.NewBadRequestError(userMessage, Details{Code: errorCode})

	case NotNullViolation:
		return errs.NewBadRequestError(userMessage, Details{
			Code: errorCode,
			Errors: []errs.FieldError{{
				Field: strings.ToLower(sqlErr.ColumnName),
				Error: "is required",
			}},
		})

	default:
		// Unknown database failures don't leak driver details.
		return errs.New(http.StatusInternalServerError, "An error occurred while processing your request", nil)
	}
}

// notFound infers the entity from a "table:<name>:" marker repositories
// may put in the wrapped error message.
func notFound(err error) *errs.HTTPError {
	const tablePrefix = "table:"

	errMsg := err.Error()
	if strings.Contains(errMsg, tablePrefix) {
		table := strings.Split(strings.Split(errMsg, tablePrefix)[1], ":")[0]
		return errs.NewNotFoundError(fmt.Sprintf("%s not found", getEntityName(table, "")))
	}

	return errs.NewNotFoundError("Resource not found")
}

// generateErrorCode builds <DOMAIN>_<ACTION>, e.g. USER_ALREADY_EXISTS.
func generateErrorCode(tableName string, errType Code) string {
	if tableName == "" {
		tableName = "RECORD"
	}

	domain := strings.ToUpper(tableName)
	if strings.HasSuffix(domain, "S") && len(domain) > 1 {
		domain = domain[:len(domain)-1]
	}

	action := "ERROR"
	switch errType {
	case ForeignKeyViolation:
		action = "NOT_FOUND"
	case UniqueViolation:
		action = "ALREADY_EXISTS"
	case NotNullViolation:
		action = "REQUIRED"
	case CheckViolation:
		action = "INVALID"
	}

	return fmt.Sprintf("%s_%s", domain, action)
}

func formatUserFriendlyMessage(sqlErr *Error) string {
	entityName := getEntityName(sqlErr.TableName, sqlErr.ColumnName)

	switch sqlErr.Code {
	case ForeignKeyViolation:
		return fmt.Sprintf("The referenced %s does not exist", entityName)

	case UniqueViolation:
		// "identifier" is replaced later when the column can be inferred.
		return fmt.Sprintf("A %s with this identifier already exists", entityName)

	case NotNullViolation:
		fieldName := humanizeText(sqlErr.ColumnName)
		if fieldName == "" {
			fieldName = "field"
		}
		return fmt.Sprintf("The %s is required", fieldName)

	case CheckViolation:
		if fieldName := humanizeText(sqlErr.ColumnName); fieldName != "" {
			return fmt.Sprintf("The %s value does not meet required conditions", fieldName)
		}
		return "One or more values do not meet required conditions"

	default:
		return "An error occurred while processing your request"
	}
}

// getEntityName prefers a "<entity>_id" column, then the singular table name.
func getEntityName(tableName, columnName string) string {
	if columnName != "" && strings.HasSuffix(strings.ToLower(columnName), "_id") {
		return humanizeText(strings.TrimSuffix(strings.ToLower(columnName), "_id"))
	}

	if tableName != "" {
		entity := tableName
		if strings.HasSuffix(entity, "s") && len(entity) > 1 {
			entity = entity[:len(entity)-1]
		}
		return humanizeText(entity)
	}

	return "record"
}

// humanizeText converts snake_case into Title Case: "first_name" -> "First Name".
func humanizeText(text string) string {
	if text == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(text, "_", " "))
}

// extractColumnForUniqueViolation infers the column from the constraint
// name: "unique_<table>_<column>" or "<table>_<column>_(key|ukey)".
func extractColumnForUniqueViolation(constraintName string) string {
	if constraintName == "" {
		return ""
	}

	if strings.HasPrefix(constraintName, "unique_") {
		parts := strings.Split(constraintName, "_")
		if len(parts) >= 3 {
			return parts[len(parts)-1]
		}
	}

	if matches := uniqueKeyRe.FindStringSubmatch(constraintName); len(matches) > 1 {
		return matches[1]
	}

	return ""
}
