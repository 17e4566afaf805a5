package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/storefront-labs/orderengine/pkg/errors"
)

// remoteErrorBody matches both the {error:{code,message}} envelope and the
// flat {code,message} shape many processors answer with.
type remoteErrorBody struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ParseResponseError consumes and closes the body of a non-2xx response and
// translates it into an AppError named after the remote party.
func ParseResponseError(resp *http.Response, remote string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", remote, resp.StatusCode, err)
	}

	var parsed remoteErrorBody
	if json.Unmarshal(body, &parsed) == nil {
		switch {
		case parsed.Error != nil:
			return mapRemoteError(resp.StatusCode, parsed.Error.Code, parsed.Error.Message, remote)
		case parsed.Message != "":
			return mapRemoteError(resp.StatusCode, parsed.Code, parsed.Message, remote)
		}
	}

	return mapRemoteError(resp.StatusCode, "", string(body), remote)
}

func mapRemoteError(status int, code, message, remote string) error {
	msg := fmt.Sprintf("%s: %s", remote, message)

	switch {
	case status == http.StatusBadRequest, status == http.StatusUnprocessableEntity, status == http.StatusPaymentRequired:
		return apperrors.PaymentFailed(msg)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperrors.Internal(fmt.Errorf("%s rejected credentials (%d): %s", remote, status, message))
	case status == http.StatusConflict:
		return apperrors.Conflict(msg)
	case status == http.StatusServiceUnavailable, status == http.StatusTooManyRequests:
		return apperrors.ServiceUnavailable(msg)
	default:
		return fmt.Errorf("%s returned status %d (%s): %s", remote, status, code, message)
	}
}
