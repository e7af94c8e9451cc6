package app

import (
	"encoding/json"
	"net/http"
	"time"

	"sharepal/cmd/internal/share"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// healthResponse is the auxiliary status query body (read-only, no side effects).
type healthResponse struct {
	Status         string  `json:"status"`
	Timestamp      string  `json:"timestamp"`
	UptimeSeconds  float64 `json:"uptime"`
	ConnectedUsers int     `json:"connectedUsers"`
	HasSharedText  bool    `json:"hasSharedText"`
	HasSharedFile  bool    `json:"hasSharedFile"`
}

type statsTextSummary struct {
	UserName      string    `json:"userName"`
	Timestamp     time.Time `json:"timestamp"`
	ContentLength int       `json:"contentLength"`
}

type statsFileSummary struct {
	FileName  string    `json:"fileName"`
	UserName  string    `json:"userName"`
	Timestamp time.Time `json:"timestamp"`
	FileSize  int64     `json:"fileSize"`
}

// statsResponse summarizes both slots without their payloads.
type statsResponse struct {
	ConnectedUsers    int               `json:"connectedUsers"`
	CurrentSharedText *statsTextSummary `json:"currentSharedText"`
	CurrentSharedFile *statsFileSummary `json:"currentSharedFile"`
}

func registerHTTP(
	mux *http.ServeMux,
	log Logger,
	engine *share.Engine,
	ws *share.WSGateway,
	startedAt time.Time,
) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		// No external dependencies: ready as soon as the server accepts.
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready\n"))
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		snap, count := engine.CurrentContent()
		writeJSON(w, log, http.StatusOK, healthResponse{
			Status:         "OK",
			Timestamp:      time.Now().UTC().Format(time.RFC3339),
			UptimeSeconds:  time.Since(startedAt).Seconds(),
			ConnectedUsers: count,
			HasSharedText:  snap.Text != nil,
			HasSharedFile:  snap.File != nil,
		})
	})

	mux.HandleFunc("/api/stats", func(w http.ResponseWriter, _ *http.Request) {
		snap, count := engine.CurrentContent()

		resp := statsResponse{ConnectedUsers: count}
		if snap.Text != nil {
			resp.CurrentSharedText = &statsTextSummary{
				UserName:      snap.Text.OwnerName,
				Timestamp:     snap.Text.CreatedAt,
				ContentLength: len(snap.Text.Content),
			}
		}
		if snap.File != nil {
			resp.CurrentSharedFile = &statsFileSummary{
				FileName:  snap.File.FileName,
				UserName:  snap.File.OwnerName,
				Timestamp: snap.File.CreatedAt,
				FileSize:  snap.File.FileSizeBytes,
			}
		}
		writeJSON(w, log, http.StatusOK, resp)
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/ws", ws.HandleWS)
}

func writeJSON(w http.ResponseWriter, log Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Info("http.write_json.fail", "err", err)
	}
}
