package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/wanderio/tourbooking/internal/domain"
)

// writeError maps domain errors onto the HTTP contract. Anything unmapped is
// a persistence or collaborator failure: log the detail, answer generically.
func writeError(c *gin.Context, err error) {
	var (
		invalidInput  *domain.InvalidInputError
		countMismatch *domain.CountMismatchError
		incomplete    *domain.IncompleteTravelerError
		groupSize     *domain.GroupSizeViolationError
		transition    *domain.IllegalTransitionError
	)

	switch {
	case errors.Is(err, domain.ErrBookingNotFound), errors.Is(err, domain.ErrSubjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &countMismatch), errors.As(err, &incomplete), errors.Is(err, domain.ErrMissingMainContact):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &invalidInput), errors.As(err, &groupSize),
		errors.Is(err, domain.ErrInvalidDate), errors.Is(err, domain.ErrSubjectInactive):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
	}
}
