package web

import "net/http"

const (
	// csrfFormField is the hidden form field carrying the setup CSRF token.
	csrfFormField  = "_csrf_token"
	csrfHeaderName = "X-CSRF-Token"
)

// submittedCSRFToken returns the CSRF token sent with r. The header is
// checked first (scripted clients send it there), then the form field.
func submittedCSRFToken(r *http.Request) string {
	if token := r.Header.Get(csrfHeaderName); token != "" {
		return token
	}
	return r.PostFormValue(csrfFormField)
}
