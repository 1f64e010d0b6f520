package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// StatusError is a non-2xx answer from a downstream service. Messages holds
// the body's "message" field, which services send as a string or a list.
type StatusError struct {
	Service  string
	Status   int
	Messages []string
}

func (e *StatusError) Error() string {
	if len(e.Messages) == 0 {
		return fmt.Sprintf("%s returned status %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Message())
}

// Message joins the downstream messages for display.
func (e *StatusError) Message() string {
	return strings.Join(e.Messages, ", ")
}

// IsClientError reports a 4xx status.
func (e *StatusError) IsClientError() bool {
	return e.Status >= 400 && e.Status < 500
}

type errorBody struct {
	Message json.RawMessage `json:"message"`
}

// ParseResponseError reads and closes the body of a non-2xx response and
// returns a *StatusError.
func ParseResponseError(resp *http.Response, serviceName string) error {
	defer func() { _ = resp.Body.Close() }()

	statusErr := &StatusError{Service: serviceName, Status: resp.StatusCode}

	bodyBytes, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil || len(bodyBytes) == 0 {
		return statusErr
	}

	var body errorBody
	if json.Unmarshal(bodyBytes, &body) == nil && len(body.Message) > 0 {
		var one string
		if json.Unmarshal(body.Message, &one) == nil {
			if one != "" {
				statusErr.Messages = []string{one}
			}
			return statusErr
		}
		var many []string
		if json.Unmarshal(body.Message, &many) == nil {
			statusErr.Messages = many
			return statusErr
		}
	}

	if text := strings.TrimSpace(string(bodyBytes)); text != "" && !strings.HasPrefix(text, "{") {
		statusErr.Messages = []string{text}
	}
	return statusErr
}
