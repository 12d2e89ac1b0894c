package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/platform/ctxutil"
	"github.com/yungbote/casegraph-backend/internal/platform/logger"
	"github.com/yungbote/casegraph-backend/internal/services"
)

type stubQuery struct {
	gotHops   int
	gotLabels []types.Kind
}

func (s *stubQuery) SearchEntities(context.Context, string, string, string, int, types.Principal) ([]types.NodeSummary, error) {
	return []types.NodeSummary{}, nil
}

func (s *stubQuery) NeighborsGraph(_ context.Context, _ string, maxHops int, labels []types.Kind, _ types.Principal) (*services.TriPane, error) {
	s.gotHops, s.gotLabels = maxHops, labels
	return &services.TriPane{}, nil
}

func (s *stubQuery) GetEntity(_ context.Context, id string, _ types.Principal) (*types.Node, error) {
	return nil, types.ErrNotFound
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func serve(t *testing.T, h gin.HandlerFunc, path, target string, principal *types.Principal) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET(path, func(c *gin.Context) {
		if principal != nil {
			c.Request = c.Request.WithContext(ctxutil.WithPrincipal(c.Request.Context(), principal))
		}
		h(c)
	})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHandlersRequirePrincipal(t *testing.T) {
	q := &stubQuery{}
	view := NewViewHandler(q)
	entity := NewEntityHandler(logger.NewNop(), q, nil, nil)

	if rec := serve(t, view.TriPane, "/v", "/v?entityId=x", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("tripane without principal: %d", rec.Code)
	}
	if rec := serve(t, entity.Search, "/s", "/s?caseId=c1", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("search without principal: %d", rec.Code)
	}
}

func TestTriPaneQueryParsing(t *testing.T) {
	p := &types.Principal{UserID: "u", TenantID: "t1"}
	q := &stubQuery{}
	view := NewViewHandler(q)

	if rec := serve(t, view.TriPane, "/v", "/v", p); rec.Code != http.StatusBadRequest {
		t.Fatalf("missing entityId: %d", rec.Code)
	}
	if rec := serve(t, view.TriPane, "/v", "/v?entityId=x&maxHops=-1", p); rec.Code != http.StatusBadRequest {
		t.Fatalf("negative maxHops: %d", rec.Code)
	}
	if rec := serve(t, view.TriPane, "/v", "/v?entityId=x&labels=vehicle", p); rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown label: %d", rec.Code)
	}

	rec := serve(t, view.TriPane, "/v", "/v?entityId=x&maxHops=3&labels=person,org&labels=event", p)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid request: %d %s", rec.Code, rec.Body.String())
	}
	if q.gotHops != 3 || len(q.gotLabels) != 3 {
		t.Fatalf("hops=%d labels=%v", q.gotHops, q.gotLabels)
	}
}

func TestGetEntityNotFound(t *testing.T) {
	entity := NewEntityHandler(logger.NewNop(), &stubQuery{}, nil, nil)
	rec := serve(t, entity.Get, "/e/:id", "/e/person:1", &types.Principal{UserID: "u", TenantID: "t1"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestReadyReportsFailingDependency(t *testing.T) {
	ok := NewHealthHandler(map[string]Pinger{"graph": stubPinger{}})
	if rec := serve(t, ok.Ready, "/readyz", "/readyz", nil); rec.Code != http.StatusOK {
		t.Fatalf("ready: %d", rec.Code)
	}
	down := NewHealthHandler(map[string]Pinger{"graph": stubPinger{err: errors.New("connection refused")}})
	if rec := serve(t, down.Ready, "/readyz", "/readyz", nil); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("not ready: %d", rec.Code)
	}
}
