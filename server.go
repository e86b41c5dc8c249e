package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_sync/config"
	"github.com/mmdatafocus/pos_sync/middlewares"
	"github.com/mmdatafocus/pos_sync/models"
	"github.com/mmdatafocus/pos_sync/possync"
	"github.com/mmdatafocus/pos_sync/realtime"
	"github.com/mmdatafocus/pos_sync/utils"
	"github.com/sirupsen/logrus"
)

// app holds everything the HTTP handlers share.
type app struct {
	settings config.Settings
	store    *models.Store
	keys     *middlewares.APIKeyStore
	sync     *possync.Service
	hub      *realtime.Hub
	printer  receiptPrinter

	// port is the port the listener actually bound.
	port int
}

func main() {
	settings := config.LoadSettings()
	logger := config.GetLogger()

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	var locker models.Locker
	notifiers := realtime.Notifiers{}
	if settings.RedisAddress != "" {
		if err := config.ConnectRedisWithRetry(sigCtx, settings.RedisAddress, 3); err != nil {
			logger.WithFields(logrus.Fields{"field": "redis"}).Warn("redis unavailable, continuing without it: " + err.Error())
		} else {
			defer config.CloseRedis()
			notifiers = append(notifiers, realtime.NewRedisPublisher(config.GetRedisDB(), settings.EventsChannel))
			if settings.RedisLocks {
				locker = models.NewRedisLocker(config.GetRedisLock(), models.DefaultRedisLockPrefix, models.DefaultRedisLockTTL)
			}
		}
	}

	store := models.NewStore(settings.DataDir, locker)
	if err := store.EnsureCollections(sigCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "store", "dir": settings.DataDir}).Fatal(err)
	}
	if err := os.MkdirAll(thumbnailDir(settings.AssetsDir), 0o755); err != nil {
		logger.WithFields(logrus.Fields{"field": "assets", "dir": settings.AssetsDir}).Fatal(err)
	}

	hub := realtime.NewHub()
	go hub.Run(sigCtx)
	notifiers = append(notifiers, hub)

	a := &app{
		settings: settings,
		store:    store,
		keys:     middlewares.NewAPIKeyStore(),
		hub:      hub,
		printer:  newReceiptPrinter(settings.PrintCommand),
		sync: possync.NewService(store,
			possync.WithNotifier(notifiers),
			possync.WithTransactionWindow(settings.TransactionWindow),
		),
	}

	ln, err := net.Listen("tcp", ":"+settings.Port)
	if err != nil {
		logger.WithFields(logrus.Fields{"field": "server", "port": settings.Port}).Fatal(err)
	}
	if tcpAddr, ok := ln.Addr().(*net.TCPAddr); ok {
		a.port = tcpAddr.Port
	}

	srv := &http.Server{
		Handler:           newRouter(a),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.Serve(ln)
	}()
	logger.WithFields(logrus.Fields{
		"field":   "server",
		"port":    a.port,
		"dataDir": settings.DataDir,
	}).Info("pos sync server listening")

	select {
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		hub.Stop()
		_ = srv.Shutdown(shutdownCtx)
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "server"}).Error(err)
		}
	}
}

func newRouter(a *app) *gin.Engine {
	logger := config.GetLogger()

	r := gin.New()
	r.Use(middlewares.CorrelationMiddleware())

	corsConfig := cors.DefaultConfig()
	if a.settings.Production {
		corsConfig.AllowOrigins = a.settings.CorsAllowedOrigins
		if len(corsConfig.AllowOrigins) == 0 {
			// cors rejects an empty allow list; deny every cross origin instead
			corsConfig.AllowOriginFunc = func(string) bool { return false }
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization", middlewares.CorrelationHeader)
	corsConfig.AddExposeHeaders("Content-Length", middlewares.CorrelationHeader)
	r.Use(cors.New(corsConfig))
	r.Use(middlewares.RequestLogger(logger))
	r.Use(gin.Recovery())

	r.GET("/api/status", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/api/config", pairingHandler(a))
	r.GET("/api/config/qr", pairingQRHandler(a))
	r.Static(utils.AssetsRoutePrefix, a.settings.AssetsDir)

	r.GET("/api/events", middlewares.APIKeyAuthWithQuery(a.keys), realtime.EventsHandler(a.hub))

	api := r.Group("/api", middlewares.APIKeyAuth(a.keys))
	{
		api.GET("/sync", possync.PullHandler(a.sync, a.baseURL))
		api.POST("/sync", possync.PushHandler(a.sync))
		api.GET("/sync/history", possync.HistoryHandler(a.sync))

		api.GET("/products", listHandler(a, models.CollectionProducts))
		api.POST("/products", operationHandler(a, possync.OpAddProduct))
		api.GET("/users", listHandler(a, models.CollectionUsers))
		api.POST("/users", operationHandler(a, possync.OpAddUser))
		api.PUT("/users/:id", updateUserHandler(a))
		api.GET("/transactions", listHandler(a, models.CollectionTransactions))
		api.POST("/transactions", operationHandler(a, possync.OpNewTransaction))
		api.GET("/expenses", listHandler(a, models.CollectionExpenses))
		api.POST("/expenses", operationHandler(a, possync.OpAddExpense))
		api.GET("/business-setup", getBusinessSetupHandler(a))
		api.POST("/business-setup", updateBusinessSetupHandler(a))
		api.GET("/credit-customers/summary", creditSummaryHandler(a))

		api.POST("/print-receipt", printReceiptHandler(a))
		api.POST("/assets", uploadAssetHandler(a))
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})
	return r
}

// baseURL is the address paired devices reach this server at.
func (a *app) baseURL(_ *gin.Context) string {
	if a.settings.PublicBaseURL != "" {
		return a.settings.PublicBaseURL
	}
	host, _ := utils.LocalIPv4()
	port := a.port
	if port == 0 {
		port, _ = strconv.Atoi(a.settings.Port)
	}
	return utils.BuildBaseURL(host, port)
}
