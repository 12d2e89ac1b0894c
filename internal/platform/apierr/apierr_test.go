package apierr

import (
	"fmt"
	"net/http"
	"testing"

	types "github.com/yungbote/casegraph-backend/internal/domain"
)

func TestFromDomain(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("merge: %w", types.ErrNotFound), http.StatusNotFound, "not_found"},
		{types.NewValidationError("kind", "mismatch"), http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("wrap: %w", types.ErrUnsupportedOperation), http.StatusNotImplemented, "unsupported_operation"},
		{types.ErrBackendUnavailable, http.StatusServiceUnavailable, "backend_unavailable"},
		{types.ErrConflict, http.StatusConflict, "conflict"},
		{fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		got := FromDomain(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("%v: got %d/%s want %d/%s", tc.err, got.Status, got.Code, tc.status, tc.code)
		}
	}
	if FromDomain(nil) != nil {
		t.Fatalf("nil error should map to nil")
	}
	pre := New(http.StatusTeapot, "teapot", nil)
	if FromDomain(fmt.Errorf("x: %w", pre)) != pre {
		t.Fatalf("existing api error should pass through")
	}
}
