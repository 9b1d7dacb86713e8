package httpx_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Gunvolt24/ordersync/pkg/ctxmeta"
	"github.com/Gunvolt24/ordersync/pkg/httpx"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// serveWithID — запрос с заданным X-Request-ID; возвращает заголовок ответа и id из контекста.
func serveWithID(t *testing.T, provided string) (header, fromCtx string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(httpx.RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) {
		id, ok := ctxmeta.RequestIDFromContext(c.Request.Context())
		if !ok {
			t.Fatalf("request id должен быть в контексте")
		}
		fromCtx = id
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", http.NoBody)
	if provided != "" {
		req.Header.Set(httpx.HeaderRequestID, provided)
	}
	r.ServeHTTP(w, req)
	return w.Header().Get(httpx.HeaderRequestID), fromCtx
}

func TestRequestIDMiddleware_GeneratesWhenMissing(t *testing.T) {
	rid, ctxID := serveWithID(t, "")
	if _, err := uuid.Parse(rid); err != nil {
		t.Fatalf("сгенерированный X-Request-ID должен быть UUID, got=%q err=%v", rid, err)
	}
	if ctxID != rid {
		t.Fatalf("request id в контексте должен совпадать с заголовком: ctx=%q header=%q", ctxID, rid)
	}
}

func TestRequestIDMiddleware_UsesProvidedHeader(t *testing.T) {
	const provided = "edge-7f3a:42.b_c"
	rid, ctxID := serveWithID(t, provided)
	if rid != provided || ctxID != provided {
		t.Fatalf("переданный X-Request-ID должен сохраняться: header=%q ctx=%q", rid, ctxID)
	}
}

func TestRequestIDMiddleware_ReplacesUnsafeHeader(t *testing.T) {
	for _, bad := range []string{"has space", "line\tbreak", "<script>", strings.Repeat("a", 129)} {
		rid, ctxID := serveWithID(t, bad)
		if rid == bad {
			t.Fatalf("недопустимый X-Request-ID %q не должен отражаться в ответе", bad)
		}
		if _, err := uuid.Parse(rid); err != nil || ctxID != rid {
			t.Fatalf("ожидался новый UUID вместо %q: header=%q ctx=%q", bad, rid, ctxID)
		}
	}
}
