package http

import (
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "enrollcam/internal/platform/errors"
)

func decode(t *testing.T, rr *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v (%s)", err, rr.Body.String())
	}
	return env
}

func TestHandleSuccessAndError(t *testing.T) {
	ok := Handle(func(*stdhttp.Request) Response { return Accepted(map[string]int{"good": 3}) })
	rr := httptest.NewRecorder()
	ok(rr, httptest.NewRequest(stdhttp.MethodGet, "/", nil))
	if rr.Code != stdhttp.StatusAccepted {
		t.Fatalf("status = %d", rr.Code)
	}
	if env := decode(t, rr); env.StatusCode != 202 || env.Data == nil {
		t.Fatalf("envelope = %+v", env)
	}

	bad := Handle(func(*stdhttp.Request) Response { return Error(perr.Conflictf("capture already running")) })
	rr = httptest.NewRecorder()
	bad(rr, httptest.NewRequest(stdhttp.MethodGet, "/", nil))
	env := decode(t, rr)
	if rr.Code != stdhttp.StatusConflict || env.Code != perr.ErrorCodeConflict || env.Error != "capture already running" {
		t.Fatalf("error envelope = %d %+v", rr.Code, env)
	}

	none := Handle(func(*stdhttp.Request) Response { return NoContent() })
	rr = httptest.NewRecorder()
	none(rr, httptest.NewRequest(stdhttp.MethodGet, "/", nil))
	if rr.Code != stdhttp.StatusNoContent || rr.Body.Len() != 0 {
		t.Fatalf("no content = %d %q", rr.Code, rr.Body.String())
	}
}

func TestSugarMountsOnRouter(t *testing.T) {
	type in struct {
		SubjectID string `json:"subject_id" validate:"required"`
	}
	r := NewRouter()
	r.Route("/v1", func(v Router) {
		PostJSON(v, "/echo", func(_ *stdhttp.Request, b in) (any, error) { return b.SubjectID, nil }, Accepted)
		GetJSON(v, "/ping", func(*stdhttp.Request) (any, error) { return "pong", nil })
		PostNoBody(v, "/fail", func(*stdhttp.Request) (any, error) { return nil, perr.Unavailablef("device busy") })
	})

	rr := httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodPost, "/v1/echo", strings.NewReader(`{"subject_id":"E-7"}`)))
	if rr.Code != stdhttp.StatusAccepted || decode(t, rr).Data != "E-7" {
		t.Fatalf("echo = %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodPost, "/v1/echo", strings.NewReader(`{}`)))
	if rr.Code != stdhttp.StatusBadRequest {
		t.Fatalf("validation status = %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodGet, "/v1/ping", nil))
	if rr.Code != stdhttp.StatusOK || decode(t, rr).Data != "pong" {
		t.Fatalf("ping = %d %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	r.Mux().ServeHTTP(rr, httptest.NewRequest(stdhttp.MethodPost, "/v1/fail", nil))
	if rr.Code != stdhttp.StatusServiceUnavailable {
		t.Fatalf("fail = %d", rr.Code)
	}
}
