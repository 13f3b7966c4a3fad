package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/diarized-transcriber/errors"
)

// JobIDKey is the echo context key holding the parsed job ID
const JobIDKey = "job_id"

// RequireJobID middleware: parse the :id path parameter as a job UUID
func RequireJobID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			jobID, err := uuid.Parse(c.Param("id"))
			if err != nil {
				return c.JSON(http.StatusBadRequest, map[string]interface{}{
					"code":    errors.ErrorCode_INVALID_ARGUMENT.String(),
					"message": "job ID must be a valid UUID",
					"details": map[string]string{"id": c.Param("id")},
				})
			}
			c.Set(JobIDKey, jobID)
			return next(c)
		}
	}
}

// JobID returns the job ID stored by RequireJobID
func JobID(c echo.Context) (uuid.UUID, bool) {
	jobID, ok := c.Get(JobIDKey).(uuid.UUID)
	return jobID, ok
}
