// Package endpoint implements the remote translation backends used by the
// translation client.
package endpoint

import "github.com/lafaom-mao/apilocale"

// Endpoint is an alias to the root package interface for convenience.
type Endpoint = apilocale.Endpoint

// TranslateRequest is an alias to the root package type.
type TranslateRequest = apilocale.TranslateRequest

// retryableStatus reports whether an HTTP status is worth retrying.
func retryableStatus(code int) bool {
	return code == 429 || code >= 500
}
