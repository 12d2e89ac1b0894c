package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/casegraph-backend/internal/platform/ctxutil"
)

func TestAttachTraceContext(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name      string
		url       string
		headers   map[string]string
		wantReq   string
		wantTrace string
		wantCase  string
	}{
		{"generated", "/x", nil, "", "", ""},
		{"headers", "/x", map[string]string{headerRequestID: "req-1", headerTraceID: "trace-1", headerCaseID: "case-h"}, "req-1", "trace-1", "case-h"},
		{"case from query", "/x?caseId=case-q", nil, "", "", "case-q"},
		{"header wins over query", "/x?caseId=case-q", map[string]string{headerCaseID: "case-h"}, "", "", "case-h"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got *ctxutil.TraceData
			r := gin.New()
			r.Use(AttachTraceContext())
			r.GET("/x", func(c *gin.Context) {
				got = ctxutil.GetTraceData(c.Request.Context())
				c.Status(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			if got == nil {
				t.Fatalf("trace data not attached")
			}
			if got.RequestID == "" || got.TraceID == "" {
				t.Fatalf("ids not generated: %+v", got)
			}
			if tc.wantReq != "" && got.RequestID != tc.wantReq {
				t.Fatalf("request id = %q, want %q", got.RequestID, tc.wantReq)
			}
			if tc.wantTrace != "" && got.TraceID != tc.wantTrace {
				t.Fatalf("trace id = %q, want %q", got.TraceID, tc.wantTrace)
			}
			if got.CaseID != tc.wantCase {
				t.Fatalf("case id = %q, want %q", got.CaseID, tc.wantCase)
			}
			if rec.Header().Get(headerRequestID) != got.RequestID || rec.Header().Get(headerTraceID) != got.TraceID {
				t.Fatalf("response headers not echoed: %v", rec.Header())
			}
		})
	}
}
