package controllers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/northfarm/sales-backend/api/responses"
	"github.com/northfarm/sales-backend/internal/snapshots"
	pkgerrors "github.com/northfarm/sales-backend/pkg/errors"
	"github.com/northfarm/sales-backend/pkg/logger"
)

const streamKeepAlive = 25 * time.Second

// SnapshotStream serves the live ledger view over server-sent events. Each
// event carries a full snapshot; the client replaces its state wholesale.
func SnapshotStream(cache *snapshots.Cache, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeInternal, "streaming unsupported"))
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		updates, cancel := cache.Watch()
		defer cancel()

		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case snap := <-updates:
				payload, err := json.Marshal(snap)
				if err != nil {
					if logg != nil {
						logg.Error(r.Context(), "encoding snapshot event failed", err)
					}
					continue
				}
				fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
