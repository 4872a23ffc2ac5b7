package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/evalgo/digitaltwins/internal/catalog"
	"github.com/evalgo/digitaltwins/internal/dataplane"
	"github.com/evalgo/digitaltwins/internal/jobs"
)

func TestClassify_NotFoundErrors(t *testing.T) {
	for _, err := range []error{
		catalog.ErrModelNotFound,
		dataplane.ErrDigitalTwinNotFound,
		dataplane.ErrRelationshipNotFound,
		dataplane.ErrComponentNotFound,
		jobs.ErrJobNotFound,
	} {
		code, label := classify(err)
		require.Equal(t, http.StatusNotFound, code, err)
		require.Equal(t, "not_found", label)
	}
}

func TestClassify_ConflictErrors(t *testing.T) {
	for _, err := range []error{
		catalog.ErrModelAlreadyExists,
		catalog.ErrModelReferencesNotDeleted,
		jobs.ErrJobExists,
		jobs.ErrLockHeld,
	} {
		code, _ := classify(err)
		require.Equal(t, http.StatusConflict, code, err)
	}
}

func TestClassify_PreconditionFailed(t *testing.T) {
	code, label := classify(dataplane.ErrPreconditionFailed)
	require.Equal(t, http.StatusPreconditionFailed, code)
	require.Equal(t, "precondition_failed", label)
}

func TestClassify_ValidationErrors(t *testing.T) {
	code, label := classify(&dataplane.ValidationFailed{ID: "room-1", Issues: []string{"bad property"}})
	require.Equal(t, http.StatusBadRequest, code)
	require.Equal(t, "validation_failed", label)
}

func TestClassify_UnknownErrorIsInternal(t *testing.T) {
	code, label := classify(errors.New("boom"))
	require.Equal(t, http.StatusInternalServerError, code)
	require.Equal(t, "internal_error", label)
}
