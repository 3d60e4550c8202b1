package session

import (
	"strings"

	"github.com/marc-hebbo/marketgo/market"
)

// classifyLoginError maps a failed login response to a Status by inspecting
// the backend's status code and message text. The substring matching is a
// contract with the backend: it distinguishes "needs verification" from
// "wrong password" only through the message wording, so the two must stay
// in sync. It is kept in one pure function for that reason.
func classifyLoginError(err error) Status {
	apiErr, ok := market.AsAPIError(err)
	if !ok {
		return StatusError
	}

	msg := strings.ToLower(apiErr.Message)

	if (apiErr.StatusCode == 403 || apiErr.StatusCode == 400) && strings.Contains(msg, "verify") {
		return StatusUnverified
	}
	if apiErr.StatusCode == 400 && strings.Contains(msg, "already verified") {
		return StatusSuccess
	}

	return StatusError
}
