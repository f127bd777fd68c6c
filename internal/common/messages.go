package common

import "errors"

// UserMessage maps an error to the short text shown to the user.
// Unknown errors fall back to a generic message; details go to the log.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, ErrDuplicateAccount):
		return "An account with this email already exists"
	case errors.Is(err, ErrValidation):
		return "Please check the form fields"
	case errors.Is(err, ErrMissingExchangeToken):
		return "Invalid session"
	case errors.Is(err, ErrInvalidOrExpiredToken):
		return "Could not sign in with the external provider"
	case errors.Is(err, ErrAuthorizationExpired):
		return "Your session has expired, please sign in again"
	case errors.Is(err, ErrTimeout):
		return "The server took too long to respond"
	case errors.Is(err, ErrUnavailable):
		return "Server unavailable"
	case errors.Is(err, ErrForbidden):
		return "Access denied"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	case errors.Is(err, ErrOperationInProgress):
		return "Please wait for the current operation to finish"
	default:
		return "Something went wrong"
	}
}
