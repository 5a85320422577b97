package pagination

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func paramsFor(t *testing.T, target string) Params {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return FromContext(e.NewContext(req, rec))
}

func TestFromContext_Defaults(t *testing.T) {
	p := paramsFor(t, "/")

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected default offset 0, got %d", p.Offset)
	}
}

func TestFromContext_CustomValues(t *testing.T) {
	p := paramsFor(t, "/?limit=25&offset=10")

	if p.Limit != 25 {
		t.Errorf("expected limit 25, got %d", p.Limit)
	}
	if p.Offset != 10 {
		t.Errorf("expected offset 10, got %d", p.Offset)
	}
}

func TestFromContext_ClampsLimit(t *testing.T) {
	p := paramsFor(t, "/?limit=99999")

	if p.Limit != MaxLimit {
		t.Errorf("expected limit clamped to %d, got %d", MaxLimit, p.Limit)
	}
}

func TestFromContext_NegativeValues(t *testing.T) {
	p := paramsFor(t, "/?limit=-5&offset=-3")

	if p.Limit != DefaultLimit {
		t.Errorf("expected default limit %d, got %d", DefaultLimit, p.Limit)
	}
	if p.Offset != 0 {
		t.Errorf("expected offset 0, got %d", p.Offset)
	}
}

func TestSlice(t *testing.T) {
	tests := []struct {
		name       string
		params     Params
		total      int
		start, end int
	}{
		{"full page", Params{Limit: 10, Offset: 0}, 25, 0, 10},
		{"middle page", Params{Limit: 10, Offset: 10}, 25, 10, 20},
		{"partial last page", Params{Limit: 10, Offset: 20}, 25, 20, 25},
		{"offset past end", Params{Limit: 10, Offset: 40}, 25, 25, 25},
		{"empty collection", Params{Limit: 10, Offset: 0}, 0, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := tt.params.Slice(tt.total)
			if start != tt.start || end != tt.end {
				t.Errorf("Slice(%d) = (%d, %d), want (%d, %d)", tt.total, start, end, tt.start, tt.end)
			}
		})
	}
}

func TestHasNext(t *testing.T) {
	p := Params{Limit: 10, Offset: 10}
	if !p.HasNext(25) {
		t.Error("expected HasNext with results remaining")
	}
	if p.HasNext(20) {
		t.Error("expected no next page at the end")
	}
}

func TestNewResponse(t *testing.T) {
	p := Params{Limit: 10, Offset: 0}
	resp := NewResponse([]string{"a", "b"}, 25, p)

	if resp.Total != 25 {
		t.Errorf("expected total 25, got %d", resp.Total)
	}
	if !resp.HasMore {
		t.Error("expected has_more true")
	}
}
