package blockworker

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/buildbarn/bb-blockworker/pkg/blockstore"
)

type storeMetaHTTPHandler struct {
	store blockstore.BlockStore
}

// NewStoreMetaHTTPHandler creates an HTTP handler that returns the
// capacity and usage of a block store as a JSON object. The IDs of the
// blocks stored in every directory are included if the "full" query
// parameter is provided.
func NewStoreMetaHTTPHandler(store blockstore.BlockStore) http.Handler {
	return &storeMetaHTTPHandler{
		store: store,
	}
}

func (h *storeMetaHTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var meta blockstore.BlockStoreMeta
	if r.URL.Query().Has("full") {
		meta = h.store.GetBlockStoreMetaFull()
	} else {
		meta = h.store.GetBlockStoreMeta()
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(&meta); err != nil {
		log.Print("Failed to write block store metadata: ", err)
	}
}
