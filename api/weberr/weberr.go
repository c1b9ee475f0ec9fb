// Package weberr decorates errors with the pieces the outer middleware needs
// to answer and log a failed request: a response body with a status code,
// and extra structured log fields. Handlers return plain errors; only the
// decorations decide what the client sees.
package weberr

// Opt decorates an error on its way out of a handler.
type Opt func(error) error

// Wrap applies opts to err in order, innermost first.
func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

// WithResponse attaches the body and status code the client receives.
func WithResponse(body interface{}, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// WithFields attaches structured fields for the error log line.
func WithFields(fields map[string]interface{}) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}
