package main

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_sync/config"
	"github.com/mmdatafocus/pos_sync/possync"
	qrcode "github.com/skip2/go-qrcode"
)

const pairingQRSize = 256

// pairing lazily creates the API key. Anyone who can reach the port can
// pair; the desktop shell shows the QR only to the operator.
func (a *app) pairing() (possync.Pairing, error) {
	key, err := a.keys.GetOrCreate()
	if err != nil {
		return possync.Pairing{}, err
	}
	return possync.Pairing{APIKey: key, APIURL: a.baseURL(nil)}, nil
}

func pairingHandler(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := a.pairing()
		if err != nil {
			config.LogError(config.GetLogger(), "main", "pairingHandler", "generate api key", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get config"})
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func pairingQRHandler(a *app) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		p, err := a.pairing()
		if err != nil {
			config.LogError(logger, "main", "pairingQRHandler", "generate api key", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get config"})
			return
		}
		payload, err := json.Marshal(p)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get config"})
			return
		}
		png, err := qrcode.Encode(string(payload), qrcode.Medium, pairingQRSize)
		if err != nil {
			config.LogError(logger, "main", "pairingQRHandler", "encode qr", nil, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get config"})
			return
		}
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "image/png", png)
	}
}
