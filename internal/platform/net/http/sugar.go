package http

import (
	"net/http"

	"enrollcam/internal/platform/net/http/bind"
)

// JSONHandler binds and validates a T body before calling fn
// fn's result is wrapped with wrap, defaulting to OK
func JSONHandler[T any](fn func(*http.Request, T) (any, error), wrap ...func(any) Response) Handler {
	ok := pickWrap(wrap)
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r)
		if err != nil {
			return Error(err)
		}
		out, err := fn(r, in)
		if err != nil {
			return Error(err)
		}
		return ok(out)
	})
}

// JSONHandlerNoBody calls fn without reading a body
func JSONHandlerNoBody(fn func(*http.Request) (any, error), wrap ...func(any) Response) Handler {
	ok := pickWrap(wrap)
	return Handle(func(r *http.Request) Response {
		out, err := fn(r)
		if err != nil {
			return Error(err)
		}
		return ok(out)
	})
}

func pickWrap(w []func(any) Response) func(any) Response {
	if len(w) > 0 && w[0] != nil {
		return w[0]
	}
	return OK
}

// GetJSON mounts fn for GET
func GetJSON(r Router, path string, fn func(*http.Request) (any, error)) {
	r.Get(path, JSONHandlerNoBody(fn))
}

// PostJSON mounts fn for POST with a bound body
func PostJSON[T any](r Router, path string, fn func(*http.Request, T) (any, error), wrap ...func(any) Response) {
	r.Post(path, JSONHandler(fn, wrap...))
}

// PostNoBody mounts fn for POST without binding a body
func PostNoBody(r Router, path string, fn func(*http.Request) (any, error), wrap ...func(any) Response) {
	r.Post(path, JSONHandlerNoBody(fn, wrap...))
}
