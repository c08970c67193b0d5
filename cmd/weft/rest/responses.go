package rest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apierr "github.com/weft-dev/weft/pkg/api/types/errors"
)

type MessageFor map[StatusCodeRange]string

// unmarshal http response which has json content.
//
// args:
//   - resp: http response to be processed.
//   - v: value which response should be.
//   - messageFor: title of error message for HTTP status code range.
//
// return:
//
//	error if...
//	- can not read response body
//	- response body is not shaped of v
//	- status code is in 4xx or 5xx
func unmarshalJsonResponse[T any](resp *http.Response, v *T, messageFor MessageFor) error {
	scr := StatusCodeRangeOf(resp)
	if scr <= Status2xx {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf(
				"unexpected error: %s (status code = %d)", err.Error(), resp.StatusCode,
			)
		}
		return nil
	}

	message, ok := messageFor[scr]
	if !ok {
		message = scr.String()
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s\ncannot read server message: %w", message, err)
	}

	return fmt.Errorf("%s\n%s", message, parseErrorMessage(body))
}

// parseErrorMessage renders the server's error body: the structured
// envelope when it parses, the raw body otherwise.
func parseErrorMessage(body []byte) string {
	em := new(apierr.ErrorMessage)
	if err := json.Unmarshal(body, em); err == nil {
		return em.String()
	}

	msg := new(struct {
		Message *string `json:"message"`
	})
	if err := json.Unmarshal(body, msg); err == nil && msg.Message != nil {
		return *msg.Message
	}

	return string(body)
}
