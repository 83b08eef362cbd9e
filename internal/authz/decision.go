package authz

import (
	"fmt"
	"net/http"
)

// Reason classifies why a request was denied.
type Reason string

const (
	ReasonAuthenticationRequired Reason = "authentication_required"
	ReasonInsufficientPermission Reason = "insufficient_permission"
	ReasonResourceNotFound       Reason = "resource_not_found"
	ReasonPassphraseRequired     Reason = "passphrase_required"
	ReasonPassphraseIncorrect    Reason = "passphrase_incorrect"
	ReasonDuplicateGrant         Reason = "duplicate_grant"
	ReasonValidationError        Reason = "validation_error"
)

// Decision is the tagged outcome of an authorization check. Denial is an
// expected result, not an error; store failures surface separately.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// Allow returns an allowing decision.
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny returns a denying decision carrying the given reason.
func Deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Err converts a denying decision into a DeniedError for propagation
// through service call chains. Allowing decisions yield nil.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &DeniedError{Reason: d.Reason}
}

// DeniedError wraps a deny outcome so services can return it as an error.
type DeniedError struct {
	Reason Reason
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("authz: denied (%s)", e.Reason)
}

// StatusForReason maps a denial reason to its HTTP status. Passphrase
// required is deliberately indistinguishable from not-found at the HTTP
// layer so protected journeys do not leak their existence.
func StatusForReason(r Reason) int {
	switch r {
	case ReasonAuthenticationRequired:
		return http.StatusUnauthorized
	case ReasonInsufficientPermission, ReasonPassphraseIncorrect:
		return http.StatusForbidden
	case ReasonResourceNotFound, ReasonPassphraseRequired:
		return http.StatusNotFound
	case ReasonValidationError:
		return http.StatusBadRequest
	case ReasonDuplicateGrant:
		return http.StatusConflict
	default:
		return http.StatusForbidden
	}
}
