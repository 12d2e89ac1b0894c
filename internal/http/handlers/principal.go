package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/casegraph-backend/internal/domain"
	"github.com/yungbote/casegraph-backend/internal/http/response"
	"github.com/yungbote/casegraph-backend/internal/platform/ctxutil"
)

var errNoPrincipal = errors.New("no authenticated principal")

// requirePrincipal writes a 401 and returns false when auth did not run.
func requirePrincipal(c *gin.Context) (types.Principal, bool) {
	p := ctxutil.GetPrincipal(c.Request.Context())
	if p == nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", errNoPrincipal)
		return types.Principal{}, false
	}
	return *p, true
}

func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, types.NewValidationError(name, "must be a non-negative integer")
	}
	return n, nil
}
