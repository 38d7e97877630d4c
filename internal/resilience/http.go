package resilience

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HeaderRetryAfter is the standard retry hint header.
const HeaderRetryAfter = "Retry-After"

// maxBodyInMessage truncates raw bodies quoted in error messages.
const maxBodyInMessage = 512

// errorBody covers the error payloads of the inference APIs we talk to:
// {"error": "..."} with an optional estimated_time (Hugging Face),
// and {"error": {"message": "..."}} (OpenAI, Anthropic).
type errorBody struct {
	Error         json.RawMessage `json:"error"`
	Message       string          `json:"message"`
	EstimatedTime float64         `json:"estimated_time"`
}

// FromHTTPStatus classifies a non-2xx response. It returns nil for 2xx.
//
// 429 is rate limited and honours Retry-After. 408 and 5xx are transient;
// a model-loading estimate in the body becomes the retry hint. Every other
// status is a client error.
func FromHTTPStatus(status int, header http.Header, body []byte) error {
	if status >= 200 && status < 300 {
		return nil
	}

	msg, estimate := parseErrorBody(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	cause := errors.New(msg)

	switch {
	case status == http.StatusTooManyRequests:
		var hint time.Duration
		if header != nil {
			hint = ParseRetryAfter(header.Get(HeaderRetryAfter), time.Now())
		}
		if hint == 0 {
			hint = estimate
		}
		return &Error{Kind: KindRateLimited, StatusCode: status, RetryAfter: hint, Err: cause}
	case status == http.StatusRequestTimeout || status >= 500:
		return &Error{Kind: KindTransient, StatusCode: status, RetryAfter: estimate, Err: cause}
	default:
		return &Error{Kind: KindClient, StatusCode: status, Err: cause}
	}
}

// ParseRetryAfter parses a Retry-After value given either as seconds or as
// an HTTP date. Unparseable or past values yield 0.
func ParseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

func parseErrorBody(body []byte) (string, time.Duration) {
	if len(body) == 0 {
		return "", 0
	}
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return truncate(strings.TrimSpace(string(body))), 0
	}

	estimate := time.Duration(eb.EstimatedTime * float64(time.Second))

	if len(eb.Error) > 0 {
		var s string
		if json.Unmarshal(eb.Error, &s) == nil {
			return s, estimate
		}
		var nested struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(eb.Error, &nested) == nil && nested.Message != "" {
			return nested.Message, estimate
		}
	}
	if eb.Message != "" {
		return eb.Message, estimate
	}
	return truncate(strings.TrimSpace(string(body))), estimate
}

func truncate(s string) string {
	if len(s) > maxBodyInMessage {
		return s[:maxBodyInMessage] + "..."
	}
	return s
}

// FromTransportError classifies a failure to complete an HTTP exchange.
// Cancellation of ctx is reported as is; anything else is transient.
func FromTransportError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return Transient(err)
}
