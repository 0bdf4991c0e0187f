// Package validator provides a small validation abstraction for usecase inputs.
//
// Besides the stock go-playground rules it registers the domain rules used by
// the service: password, recipient, otp_code and api_key.
package validator
