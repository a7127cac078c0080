package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
)

type refundBody struct {
	OrderItemID string `json:"orderItemId" validate:"required,uuid"`
	Reason      string `json:"reason" validate:"required,max=500"`
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"orderItemId":"nope","reason":""}`))
	var body refundBody
	err := DecodeJSONBody(req, &body)
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", pkgerrors.As(err).Details())
	}
	if details["orderItemId"] == "" || details["reason"] != "is required" {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"reason":"x","extra":1}`))
	var body refundBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id.String())
	rc.URLParams.Add("bad", "123")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "orderId")
	if err != nil || got != id {
		t.Fatalf("ParseUUIDParam = %s, %v", got, err)
	}
	if _, err := ParseUUIDParam(req, "bad"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for malformed id")
	}
	if _, err := ParseUUIDParam(req, "missing"); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for missing id")
	}
}

func TestSanitizeString(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"  hello world  ", 5, "hello"},
		{"bolts\x00 stripped", 0, "bolts stripped"},
		{"line one\nline two", 0, "line one\nline two"},
		{"ünïcode", 3, "ünï"},
	}
	for _, tc := range cases {
		if got := SanitizeString(tc.in, tc.max); got != tc.want {
			t.Fatalf("SanitizeString(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

type lineBody struct {
	Lines []struct {
		Quantity int `json:"quantity" validate:"min=1"`
	} `json:"lines" validate:"required,dive"`
	Amount decimal.Decimal `json:"amount" validate:"money"`
}

func TestDecodeJSONBodyNestedPathsAndMoney(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"lines":[{"quantity":0}],"amount":"10.005"}`))
	var body lineBody
	err := DecodeJSONBody(req, &body)
	details, ok := pkgerrors.As(err).Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %v", err)
	}
	if details["lines[0].quantity"] != "must be at least 1" {
		t.Fatalf("unexpected nested detail %v", details)
	}
	if details["amount"] == "" {
		t.Fatalf("expected money violation, got %v", details)
	}

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"lines":[{"quantity":2}],"amount":"66.66"}`))
	if err := DecodeJSONBody(req, &body); err != nil {
		t.Fatalf("valid body rejected: %v", err)
	}
}

func TestDecodeJSONBodyRejectsTrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"orderItemId":"`+uuid.NewString()+`","reason":"x"} {}`))
	var body refundBody
	if err := DecodeJSONBody(req, &body); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for trailing data, got %v", err)
	}
}
