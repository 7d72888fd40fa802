package forecast

import "errors"

var (
	// ErrForecastFailed indicates a forecaster could not produce a result
	ErrForecastFailed = errors.New("forecast failed")

	// ErrInsufficientHistory indicates the history is too short to model
	ErrInsufficientHistory = errors.New("insufficient history for forecast")

	// ErrServiceUnavailable indicates the remote model service is unreachable
	ErrServiceUnavailable = errors.New("forecast service unavailable")

	// ErrInvalidResponse indicates the remote model service returned an
	// unusable payload
	ErrInvalidResponse = errors.New("invalid response from forecast service")
)
