package util

import (
	"errors"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidTransitionCarriesStatuses(t *testing.T) {
	err := NewInvalidTransition("CLOSED", "CANCELLED")
	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_TRANSITION", domainErr.Code)
	assert.Equal(t, http.StatusConflict, domainErr.HTTPStatus)
	assert.Equal(t, "CLOSED", domainErr.Details["current_status"])
	assert.Equal(t, "CANCELLED", domainErr.Details["attempted_status"])
}

func TestSameStatusUsesTransitionCode(t *testing.T) {
	err := NewSameStatus("CANCELLED")
	assert.True(t, IsCode(err, "INVALID_TRANSITION"))
	var domainErr *DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, domainErr.Details["current_status"], domainErr.Details["attempted_status"])
}

func TestToDomainErrorMapsNoRows(t *testing.T) {
	domainErr := ToDomainError(pgx.ErrNoRows)
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Equal(t, http.StatusNotFound, domainErr.HTTPStatus)
}

func TestToDomainErrorWrapsUnknown(t *testing.T) {
	domainErr := ToDomainError(errors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", domainErr.Code)
	assert.Equal(t, http.StatusInternalServerError, domainErr.HTTPStatus)
}

func TestIsCode(t *testing.T) {
	assert.True(t, IsCode(NewNoEligibleWorker("IT"), "NO_ELIGIBLE_WORKER"))
	assert.False(t, IsCode(errors.New("plain"), "NO_ELIGIBLE_WORKER"))
	assert.False(t, IsCode(nil, "NO_ELIGIBLE_WORKER"))
}
