package middlewares

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_sync/utils"
)

func TestAPIKeyStore_GeneratesOnce(t *testing.T) {
	store := NewAPIKeyStore()
	if _, ok := store.Get(); ok {
		t.Fatalf("expected no key before first use")
	}

	var wg sync.WaitGroup
	keys := make([]string, 20)
	for i := range keys {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key, err := store.GetOrCreate()
			if err != nil {
				t.Errorf("GetOrCreate: %v", err)
			}
			keys[i] = key
		}(i)
	}
	wg.Wait()

	if len(keys[0]) != 2*utils.APIKeyBytes {
		t.Fatalf("unexpected key length %d", len(keys[0]))
	}
	for _, k := range keys {
		if k != keys[0] {
			t.Fatalf("keys differ: %q vs %q", k, keys[0])
		}
	}
	if !store.Verify(keys[0]) || store.Verify("wrong") || store.Verify("") {
		t.Fatalf("Verify mismatch")
	}
}

func TestAPIKeyStore_GenerateError(t *testing.T) {
	store := &APIKeyStore{generate: func() (string, error) { return "", errors.New("no entropy") }}
	if _, err := store.GetOrCreate(); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := store.Get(); ok {
		t.Fatalf("failed generation must not store a key")
	}
}

func TestBearerToken(t *testing.T) {
	cases := map[string]struct {
		token string
		ok    bool
	}{
		"Bearer abc":    {"abc", true},
		"bearer   abc ": {"abc", true},
		"Bearer ":       {"", false},
		"Basic abc":     {"", false},
		"abc":           {"", false},
		"":              {"", false},
	}
	for header, want := range cases {
		token, ok := BearerToken(header)
		if token != want.token || ok != want.ok {
			t.Fatalf("BearerToken(%q) = %q, %v; want %q, %v", header, token, ok, want.token, want.ok)
		}
	}
}

func newAuthRouter(store *APIKeyStore, allowQuery bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	auth := APIKeyAuth(store)
	if allowQuery {
		auth = APIKeyAuthWithQuery(store)
	}
	r.GET("/protected", auth, func(c *gin.Context) {
		addr, _ := utils.GetClientAddrFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"authenticated": utils.IsAuthenticated(c.Request.Context()), "addr": addr})
	})
	return r
}

func TestAPIKeyAuth(t *testing.T) {
	store := NewAPIKeyStore()
	r := newAuthRouter(store, false)

	// no key generated yet: everything is rejected
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer anything")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before pairing, got %d", w.Code)
	}

	key, err := store.GetOrCreate()
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}

	for _, header := range []string{"", "Bearer wrong", key} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
		if w.Body.String() != `{"error":"Unauthorized"}` {
			t.Fatalf("unexpected body %s", w.Body.String())
		}
	}

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+key)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	// query tokens are only accepted where enabled
	req = httptest.NewRequest(http.MethodGet, "/protected?token="+key, nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for query token, got %d", w.Code)
	}
}

func TestAPIKeyAuthWithQuery(t *testing.T) {
	store := NewAPIKeyStore()
	key, err := store.GetOrCreate()
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	r := newAuthRouter(store, true)

	req := httptest.NewRequest(http.MethodGet, "/protected?token="+key, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/protected?token=nope", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}
