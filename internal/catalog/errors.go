package catalog

import (
	"errors"
	"fmt"
)

// Sentinel errors for the model catalog, matching the error taxonomy spec
// §4.2 and §7 name explicitly.
var (
	ErrModelNotFound             = errors.New("catalog: model not found")
	ErrModelAlreadyExists        = errors.New("catalog: model already exists")
	ErrModelExtendsChanged       = errors.New("catalog: replace would change direct extends")
	ErrModelUpdateValidationError = errors.New("catalog: replace collides with a descendant's declared content")
	ErrModelReferencesNotDeleted = errors.New("catalog: model is still referenced or instantiated")
)

// ResolutionError reports the batch-create DTMIs that could not be
// resolved either within the batch or in the catalog (spec §4.2 step 2).
type ResolutionError struct {
	Unresolved []string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("catalog: unresolved model references: %v", e.Unresolved)
}

// ValidationError carries one or more validation issue messages
// encountered while validating a model document during create/replace.
type ValidationError struct {
	DTMI   string
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("catalog: model %s failed validation: %v", e.DTMI, e.Issues)
}
