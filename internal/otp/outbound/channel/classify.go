package channel

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"net"
	"net/textproto"
	"os"
	"slices"
	"strings"

	"github.com/shandysiswandi/otpgate/internal/otp/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
)

// postmark reports a bad or missing server token with API error 10.
const postmarkInvalidToken = 10

var authMarkers = []string{
	"authentication failed",
	"password not accepted",
	"invalid login",
	"invalid credentials",
	"username and password not accepted",
}

// Classify maps a provider error onto a delivery result. A nil error is a success.
func Classify(provider string, err error) entity.DeliveryResult {
	if err == nil {
		return entity.Delivered()
	}

	res := entity.DeliveryResult{
		Reason:          entity.ReasonUnclassified,
		ProviderMessage: err.Error(),
	}

	switch {
	case isAuthFailure(err):
		res.Reason = entity.ReasonAuthenticationFailed
		res.Hints = authHints(provider)
	case isTimeout(err):
		res.Reason = entity.ReasonTimeout
	case isTLSFailure(err):
		res.Reason = entity.ReasonTLSError
	}

	return res
}

func isAuthFailure(err error) bool {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) && (tpErr.Code == 534 || tpErr.Code == 535) {
		return true
	}

	var pErr *mail.ProviderError
	if errors.As(err, &pErr) && pErr.Code == postmarkInvalidToken {
		return true
	}

	msg := strings.ToLower(err.Error())
	return slices.ContainsFunc(authMarkers, func(m string) bool {
		return strings.Contains(msg, m)
	})
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var tpErr *textproto.Error
	return errors.As(err, &tpErr) && tpErr.Code == 421
}

func isTLSFailure(err error) bool {
	var (
		recErr    tls.RecordHeaderError
		alertErr  tls.AlertError
		verifyErr *tls.CertificateVerificationError
		authErr   x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		certErr   x509.CertificateInvalidError
	)

	switch {
	case errors.As(err, &recErr),
		errors.As(err, &alertErr),
		errors.As(err, &verifyErr),
		errors.As(err, &authErr),
		errors.As(err, &hostErr),
		errors.As(err, &certErr):
		return true
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "x509:")
}

func authHints(provider string) []mail.Hint {
	p, err := mail.Lookup(provider)
	if err != nil || len(p.AuthHints) == 0 {
		return nil
	}
	return slices.Clone(p.AuthHints)
}
