package possync_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_sync/middlewares"
	"github.com/mmdatafocus/pos_sync/models"
	"github.com/mmdatafocus/pos_sync/possync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClientServer(t *testing.T) (*httptest.Server, *models.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc, store := newTestService(t)
	keys := middlewares.NewAPIKeyStore()

	r := gin.New()
	baseURL := func(c *gin.Context) string { return "http://" + c.Request.Host }
	r.GET("/api/config", func(c *gin.Context) {
		key, err := keys.GetOrCreate()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, possync.Pairing{APIKey: key, APIURL: baseURL(c)})
	})
	api := r.Group("/api", middlewares.APIKeyAuth(keys))
	api.GET("/sync", possync.PullHandler(svc, baseURL))
	api.POST("/sync", possync.PushHandler(svc))
	api.GET("/sync/history", possync.HistoryHandler(svc))

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, store
}

func TestClient_PairPushPullHistory(t *testing.T) {
	srv, _ := newClientServer(t)
	ctx := context.Background()

	client, err := possync.NewClient(srv.URL+"/", "")
	require.NoError(t, err)

	_, err = client.Pull(ctx)
	var statusErr *possync.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusUnauthorized, statusErr.Code)
	assert.Equal(t, "Unauthorized", statusErr.Message)

	p, err := client.Pair(ctx)
	require.NoError(t, err)
	assert.Equal(t, srv.URL, p.APIURL)

	results, err := client.Push(ctx, []possync.Operation{
		{Type: possync.OpAddProduct, Data: models.Record{"id": "p1", "localImage": "img/cola.png"}},
		{Type: possync.OpDeleteUser, Data: models.Record{"id": "ghost"}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, possync.ResultApplied, results[0].Status)
	assert.Equal(t, possync.ReasonNotFound, results[1].Reason)

	snap, err := client.Pull(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Products, 1)
	assert.Equal(t, srv.URL+"/assets/cola.png", snap.Products[0]["image"])

	history, err := client.History(ctx, 5)
	require.NoError(t, err)
	require.Len(t, history.Items, 1)
	assert.Equal(t, models.SyncRunStatusPartial, history.Items[0].Status)
}

func TestClient_PushFailureKeepsResults(t *testing.T) {
	srv, store := newClientServer(t)
	ctx := context.Background()
	require.NoError(t, writeBrokenList(store, models.CollectionUsers))

	client, err := possync.NewClient(srv.URL, "")
	require.NoError(t, err)
	_, err = client.Pair(ctx)
	require.NoError(t, err)

	results, err := client.Push(ctx, []possync.Operation{
		{Type: possync.OpAddExpense, Data: models.Record{"amount": 1}},
		{Type: possync.OpAddUser, Data: models.Record{"id": "u1"}},
	})
	var statusErr *possync.StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "Sync failed", statusErr.Message)
	require.Len(t, results, 2)
	assert.Equal(t, possync.ResultFailed, results[1].Status)
}

func TestNewClient_RequiresURL(t *testing.T) {
	_, err := possync.NewClient("  ", "key")
	assert.Error(t, err)
}

func writeBrokenList(store *models.Store, c models.Collection) error {
	return os.WriteFile(store.Path(c), []byte(`{"not":"a list"}`), 0o644)
}
