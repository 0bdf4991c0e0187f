package router

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
)

const maxDecodedBodyBytes = 1 << 20

// Request wraps http.Request with helpers for inbound handlers.
type Request struct {
	*http.Request
}

// GetParam reads a path parameter from the request context (as stored by httprouter).
func (r *Request) GetParam(key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

func (r *Request) GetParamInt64(key string) (int64, error) {
	value, err := strconv.ParseInt(r.GetParam(key), 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat("param must integer value")
	}
	return value, nil
}

func (r *Request) GetQuery(key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

// GetQueryInt64 parses an optional integer query value; absent yields 0.
func (r *Request) GetQueryInt64(key string) (int64, error) {
	v := r.GetQuery(key)
	if v == "" {
		return 0, nil
	}

	value, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, goerror.NewInvalidFormat("Invalid query " + key)
	}
	return value, nil
}

// DecodeBody decodes a single JSON object into dst, rejecting unknown fields.
func (r *Request) DecodeBody(dst any) error {
	if r == nil || r.Body == nil {
		return goerror.NewInvalidFormat()
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return goerror.NewInvalidFormat()
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return goerror.NewInvalidFormat()
	}

	return nil
}

// DecodeOptionalBody is DecodeBody that accepts an empty body and leaves dst untouched.
func (r *Request) DecodeOptionalBody(dst any) error {
	if r == nil || r.Body == nil {
		return nil
	}

	b, err := io.ReadAll(io.LimitReader(r.Body, maxDecodedBodyBytes))
	if err != nil {
		return goerror.NewInvalidFormat()
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}

	r.Body = io.NopCloser(bytes.NewReader(b))
	return r.DecodeBody(dst)
}
