// Package http is the transport seam: a chi backed router, the JSON envelope
// every endpoint answers with, and the server that hosts them
package http

import (
	"encoding/json"
	stdhttp "net/http"

	perr "insightsdb/internal/platform/errors"
	pnet "insightsdb/internal/platform/net"
	"insightsdb/internal/platform/net/http/bind"
)

// Envelope wraps every JSON body. Data holds the payload on success; Code,
// Error and Field describe a failure
type Envelope struct {
	StatusCode int    `json:"status_code"`
	Status     string `json:"status"`
	Code       string `json:"code,omitempty"`
	Error      string `json:"error,omitempty"`
	Field      string `json:"field,omitempty"`
	RequestID  string `json:"request_id,omitempty"`
	Data       any    `json:"data,omitempty"`
}

// JSON writes v with status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Response is what a return style handler produces; an error Body is mapped
// to its status
type Response struct {
	Status int
	Body   any
}

// OK is a 200 carrying data
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Error maps err to its status and envelope
func Error(err error) Response { return Response{Body: err} }

// WriteError writes err's envelope; middleware that rejects a request uses it
func WriteError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	Error(err).write(w, r)
}

// Handle adapts a return style handler
func Handle(h func(*stdhttp.Request) Response) Handler {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	env := Envelope{RequestID: pnet.RequestID(r.Context())}
	status := resp.Status
	if err, ok := resp.Body.(error); ok && err != nil {
		status = perr.HTTPStatus(err)
		wire := perr.WireFrom(err)
		env.Code, env.Error, env.Field = wire.Code.String(), wire.Message, wire.Field
	} else {
		env.Data = resp.Body
	}
	if status == 0 {
		status = stdhttp.StatusOK
	}
	env.StatusCode, env.Status = status, stdhttp.StatusText(status)
	JSON(w, status, env)
}

// JSONHandler binds and validates a T from the body, then envelopes fn's result
func JSONHandler[T any](fn func(*stdhttp.Request, T) (any, error)) Handler {
	return Handle(func(r *stdhttp.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		return OK(out)
	})
}
