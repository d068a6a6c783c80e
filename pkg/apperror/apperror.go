package apperror

import (
	"errors"
	"regexp"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/mongo"
)

// Error is the normalized failure shape every handler reports with.
// The boundary renders it as {"success": false, "message": ...} with StatusCode.
type Error struct {
	Message    string
	StatusCode int
}

func (e *Error) Error() string {
	return e.Message
}

func New(message string, statusCode int) *Error {
	return &Error{Message: message, StatusCode: statusCode}
}

// ValidationError carries field-attributable messages from schema validation.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, ", ")
}

// CastError reports a malformed identifier that could not be parsed
// into a storage id (bad ObjectID hex and the like).
type CastError struct {
	Field string
	Value string
}

func (e *CastError) Error() string {
	return "cast to ObjectID failed for value " + e.Value + " at path " + e.Field
}

// dup key index names look like "email_1"
var dupIndexRegex = regexp.MustCompile(`index: ([^ ]+?)_\d+`)

func duplicateKeyField(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if m := dupIndexRegex.FindStringSubmatch(e.Message); m != nil {
				return m[1]
			}
		}
	}
	if m := dupIndexRegex.FindStringSubmatch(err.Error()); m != nil {
		return m[1]
	}
	return "field"
}

// Normalize maps any failure raised below the HTTP boundary onto a single
// {message, statusCode} pair. Unrecognized errors keep their message but
// are reported as 500; an empty message becomes "Internal Server Error".
func Normalize(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}

	var valErr *ValidationError
	if errors.As(err, &valErr) {
		return New(strings.Join(valErr.Messages, ", "), 400)
	}

	var castErr *CastError
	if errors.As(err, &castErr) {
		return New("Resource not found. Invalid "+castErr.Field, 400)
	}

	if mongo.IsDuplicateKeyError(err) {
		return New("Duplicate "+duplicateKeyField(err)+" Entered", 400)
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return New("Json Web Token is Expired, Try Again", 400)
	}
	if errors.Is(err, jwt.ErrTokenMalformed) ||
		errors.Is(err, jwt.ErrTokenSignatureInvalid) ||
		errors.Is(err, jwt.ErrTokenUnverifiable) ||
		errors.Is(err, jwt.ErrTokenNotValidYet) ||
		errors.Is(err, jwt.ErrTokenInvalidClaims) {
		return New("Json Web Token is Invalid, Try Again", 400)
	}

	msg := err.Error()
	if msg == "" {
		msg = "Internal Server Error"
	}
	return New(msg, 500)
}
