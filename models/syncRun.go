package models

import (
	"encoding/json"
	"time"

	"github.com/mmdatafocus/pos_sync/utils"
)

const (
	SyncRunStatusSuccess = "success"
	SyncRunStatusFailed  = "failed"
	SyncRunStatusPartial = "partial"
)

// MaxSyncRuns bounds the push history kept on disk.
const MaxSyncRuns = 50

// SyncRun is the outcome of one push batch.
type SyncRun struct {
	ID            string    `json:"id"`
	Status        string    `json:"status"`
	StartedAt     time.Time `json:"startedAt"`
	FinishedAt    time.Time `json:"finishedAt"`
	DurationMs    int64     `json:"durationMs"`
	Operations    int       `json:"operations"`
	Applied       int       `json:"applied"`
	Skipped       int       `json:"skipped"`
	Failed        int       `json:"failed"`
	CorrelationId string    `json:"correlationId,omitempty"`
	ClientAddr    string    `json:"clientAddr,omitempty"`
	Error         string    `json:"error,omitempty"`
}

func (r SyncRun) ToRecord() (Record, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := utils.DecodeJSON(data, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func SyncRunFromRecord(rec Record) (SyncRun, error) {
	var run SyncRun
	data, err := json.Marshal(rec)
	if err != nil {
		return run, err
	}
	err = json.Unmarshal(data, &run)
	return run, err
}
