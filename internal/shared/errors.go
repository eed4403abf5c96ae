package shared

import "errors"

var (
	// ErrNotFound indicates the requested invoice is not in the store.
	ErrNotFound = errors.New("invoice not found")
	// ErrStorageUnavailable indicates the blob store rejected an operation.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrRendererUnavailable indicates the PDF collaborator could not run.
	ErrRendererUnavailable = errors.New("pdf renderer unavailable")
)

// UserSafeMessage maps an internal error to text safe to show the user.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "Invoice not found."
	case errors.Is(err, ErrStorageUnavailable):
		return "Could not reach invoice storage. Please try again."
	case errors.Is(err, ErrRendererUnavailable):
		return "PDF export is unavailable right now. Please try again."
	default:
		return "Something went wrong. Please try again."
	}
}
