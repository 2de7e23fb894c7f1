package bind

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	perr "enrollcam/internal/platform/errors"
	kit "enrollcam/internal/platform/testkit"
)

type startReq struct {
	SubjectID string `json:"subject_id" validate:"required,max=64"`
}

type opts struct {
	Count int `env:"BURST_COUNT" validate:"min=1"`
}

func req(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/v1/capture/burst", strings.NewReader(body))
}

func TestParseJSONHappy(t *testing.T) {
	got, err := ParseJSON[startReq](req(`{"subject_id":"E-1001"}`))
	if err != nil || got.SubjectID != "E-1001" {
		t.Fatalf("ParseJSON = %+v, %v", got, err)
	}
}

func TestParseJSONFailures(t *testing.T) {
	cases := []struct {
		name string
		body string
		code perr.ErrorCode
		msg  string
	}{
		{"empty", ``, perr.ErrorCodeJSON, "empty body"},
		{"malformed", `{"subject_id":`, perr.ErrorCodeJSON, "invalid JSON"},
		{"unknown field", `{"subject_id":"a","x":1}`, perr.ErrorCodeJSON, "invalid JSON"},
		{"trailing", `{"subject_id":"a"}{}`, perr.ErrorCodeJSON, "trailing"},
		{"missing", `{}`, perr.ErrorCodeValidation, "subject_id is a required field"},
		{"too long", `{"subject_id":"` + strings.Repeat("x", 65) + `"}`, perr.ErrorCodeValidation, "subject_id must be at most 64"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := ParseJSON[startReq](req(c.body))
			if !perr.IsCode(err, c.code) {
				t.Fatalf("code = %v, want %v (%v)", perr.CodeOf(err), c.code, err)
			}
			kit.MustContain(t, err.Error(), c.msg)
		})
	}
}

func TestParseJSONAllowEmpty(t *testing.T) {
	type none struct{}
	if _, err := ParseJSON[none](req(``), Options{AllowEmptyBody: true}); err != nil {
		t.Fatalf("empty body should be allowed: %v", err)
	}
}

func TestStructUsesEnvTagNames(t *testing.T) {
	err := Struct(opts{Count: 0})
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	kit.MustContain(t, err.Error(), "BURST_COUNT must be at least 1")
	if Struct(opts{Count: 3}) != nil {
		t.Fatalf("valid struct should pass")
	}
	if f, m := FieldAndMessage(nil); f != "" || m != "" {
		t.Fatalf("FieldAndMessage(nil) = %q %q", f, m)
	}
}
