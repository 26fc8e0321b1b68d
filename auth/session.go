package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/samber/mo"
)

// SessionCookieName is the cookie that carries the serialized Principal.
const SessionCookieName = "user_session"

// MaxSessionCookieSize bounds the raw cookie value accepted by DecodeSession.
// Browsers cap a single cookie at 4 KiB, so anything longer was not set by us.
const MaxSessionCookieSize = 4096

// ErrMalformedSession is wrapped by every DecodeError.
var ErrMalformedSession = errors.New("malformed session")

// Principal is the identity asserted by a session cookie.
type Principal struct {
	ID   string `json:"id"`
	Role string `json:"role"`
}

// DecodeError describes why a session cookie value was rejected.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", ErrMalformedSession, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrMalformedSession, e.Reason)
}

func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrMalformedSession, e.Err}
	}
	return []error{ErrMalformedSession}
}

func decodeErr[T any](reason string, err error) mo.Result[T] {
	return mo.Err[T](&DecodeError{Reason: reason, Err: err})
}

// DecodeSession parses a raw user_session cookie value. It is total: every
// input yields either a Principal or a *DecodeError, never a panic.
//
// The payload is a JSON object with string fields "id" and "role". Numeric
// ids are accepted and kept in their literal decimal form. The value may be
// URL-escaped, as browsers and most login handlers store it that way.
func DecodeSession(raw string) mo.Result[Principal] {
	if raw == "" {
		return decodeErr[Principal]("empty value", nil)
	}
	if len(raw) > MaxSessionCookieSize {
		return decodeErr[Principal](fmt.Sprintf("value exceeds %d bytes", MaxSessionCookieSize), nil)
	}

	payload := raw
	if strings.ContainsRune(raw, '%') {
		unescaped, err := url.QueryUnescape(raw)
		if err != nil {
			return decodeErr[Principal]("invalid escaping", err)
		}
		payload = unescaped
	}
	if !utf8.ValidString(payload) {
		return decodeErr[Principal]("invalid utf-8", nil)
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.UseNumber()

	var fields map[string]json.RawMessage
	if err := dec.Decode(&fields); err != nil {
		return decodeErr[Principal]("not a json object", err)
	}
	if fields == nil {
		return decodeErr[Principal]("not a json object", nil)
	}
	if _, err := dec.Token(); err != io.EOF {
		return decodeErr[Principal]("trailing data after object", nil)
	}

	id, err := identityField(fields["id"])
	if err != nil {
		return decodeErr[Principal]("field id", err)
	}
	role, err := stringField(fields["role"])
	if err != nil {
		return decodeErr[Principal]("field role", err)
	}

	return mo.Ok(Principal{ID: id, Role: role})
}

var errMissingField = errors.New("missing or empty")

func stringField(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", errMissingField
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", err
	}
	if s == "" {
		return "", errMissingField
	}
	return s, nil
}

func identityField(raw json.RawMessage) (string, error) {
	if len(raw) > 0 && raw[0] != '"' {
		var n json.Number
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&n); err == nil && n != "" {
			return n.String(), nil
		}
	}
	return stringField(raw)
}

// EncodeSession serializes p into a cookie-safe session value that
// DecodeSession accepts. Login handlers use it when issuing user_session.
func EncodeSession(p Principal) (string, error) {
	if p.ID == "" || p.Role == "" {
		return "", &DecodeError{Reason: "principal requires id and role"}
	}
	data, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return url.QueryEscape(string(data)), nil
}
