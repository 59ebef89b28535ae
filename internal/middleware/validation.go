package middleware

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/akshadjaiswal/hot-takes-arena/internal/service"
)

// MaxQueryIDs bounds comma-separated id lists in query strings.
const MaxQueryIDs = 100

var statusByCode = map[service.Code]int{
	service.CodeValidation:        fiber.StatusBadRequest,
	service.CodeContentValidation: fiber.StatusUnprocessableEntity,
	service.CodeRateLimited:       fiber.StatusTooManyRequests,
	service.CodeDuplicateVote:     fiber.StatusConflict,
	service.CodeNotFound:          fiber.StatusNotFound,
	service.CodeContentHidden:     fiber.StatusGone,
	service.CodeUnauthorized:      fiber.StatusUnauthorized,
	service.CodeDatabase:          fiber.StatusInternalServerError,
	service.CodeUnexpected:        fiber.StatusInternalServerError,
}

// StatusFor maps an error code to its HTTP status.
func StatusFor(code service.Code) int {
	if s, ok := statusByCode[code]; ok {
		return s
	}
	return fiber.StatusInternalServerError
}

// ErrorResponse is a helper that returns a standard API error response.
func ErrorResponse(c fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    code,
			"message": message,
		},
	})
}

// HandleError writes err as an API error. Service errors keep their code;
// anything else becomes an opaque UNEXPECTED_ERROR.
func HandleError(c fiber.Ctx, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		log.Error().Err(err).Str("path", sanitizePath(c.Path())).Msg("unhandled error")
		return ErrorResponse(c, fiber.StatusInternalServerError, string(service.CodeUnexpected), "An unexpected error occurred.")
	}

	if se.Code == service.CodeRateLimited {
		secs := int(se.RetryAfter / time.Second)
		c.Set(fiber.HeaderRetryAfter, strconv.Itoa(secs))
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
			"error": fiber.Map{
				"code":       string(se.Code),
				"message":    se.Message,
				"retryAfter": secs,
			},
		})
	}
	return ErrorResponse(c, StatusFor(se.Code), string(se.Code), se.Message)
}

// ErrorHandler is the fiber.Config ErrorHandler. Framework errors (unknown
// route, bad body) keep their status; everything else goes through HandleError.
func ErrorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch {
		case fe.Code == fiber.StatusNotFound:
			return ErrorResponse(c, fe.Code, string(service.CodeNotFound), "Route not found")
		case fe.Code < fiber.StatusInternalServerError:
			return ErrorResponse(c, fe.Code, string(service.CodeValidation), fe.Message)
		}
	}
	return HandleError(c, err)
}

// ParseLimit reads an optional positive integer query parameter.
func ParseLimit(raw string) (int, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ""
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, "limit must be a positive integer"
	}
	return n, ""
}

// ParseIDList splits a comma-separated id list, dropping blanks.
func ParseIDList(raw string) ([]string, string) {
	var ids []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	if len(ids) == 0 {
		return nil, "takeIds is required"
	}
	if len(ids) > MaxQueryIDs {
		return nil, "takeIds must contain at most 100 items"
	}
	return ids, ""
}
