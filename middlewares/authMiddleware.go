package middlewares

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_sync/utils"
)

// APIKeyStore is a single-slot in-memory holder for the pairing key.
// The key is never persisted: it is generated on the first config fetch
// and is gone when the process exits.
type APIKeyStore struct {
	mu       sync.RWMutex
	key      string
	generate func() (string, error)
}

func NewAPIKeyStore() *APIKeyStore {
	return &APIKeyStore{generate: utils.GenerateAPIKey}
}

// Get returns the current key, if one was generated.
func (s *APIKeyStore) Get() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.key, s.key != ""
}

// GetOrCreate returns the current key, generating it once if absent.
func (s *APIKeyStore) GetOrCreate() (string, error) {
	if key, ok := s.Get(); ok {
		return key, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != "" {
		return s.key, nil
	}
	key, err := s.generate()
	if err != nil {
		return "", err
	}
	s.key = key
	return key, nil
}

// Verify reports whether token matches the current key.
func (s *APIKeyStore) Verify(token string) bool {
	key, ok := s.Get()
	return ok && utils.TokensEqual(key, token)
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

// APIKeyAuth rejects requests that do not carry the pairing key.
func APIKeyAuth(store *APIKeyStore) gin.HandlerFunc {
	return authorize(store, false)
}

// APIKeyAuthWithQuery also accepts ?token=<key>; browsers cannot set headers
// on a websocket upgrade.
func APIKeyAuthWithQuery(store *APIKeyStore) gin.HandlerFunc {
	return authorize(store, true)
}

func authorize(store *APIKeyStore, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok && allowQuery {
			token = strings.TrimSpace(c.Query("token"))
			ok = token != ""
		}
		if !ok || !store.Verify(token) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		ctx := utils.SetAuthenticatedInContext(c.Request.Context(), true)
		ctx = utils.SetClientAddrInContext(ctx, c.ClientIP())
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
