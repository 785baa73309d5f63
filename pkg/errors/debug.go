package errors

import (
	"errors"
	"fmt"
	"net/url"
)

type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	URLOp      string `json:"url_op,omitempty"`
	URLTarget  string `json:"url_target,omitempty"`
	URLTimeout bool   `json:"url_timeout,omitempty"`
}

// Dump flattens an error chain for structured logging.
func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{
		TopMessage: err.Error(),
	}

	if te := As(err); te != nil {
		d.Code = te.Code()
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		d.URLOp = urlErr.Op
		d.URLTarget = urlErr.URL
		d.URLTimeout = urlErr.Timeout()
	}

	return d
}
