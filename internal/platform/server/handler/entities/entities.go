package entities

import (
	"QuorumKV/internal/application/service"
	"QuorumKV/internal/platform/api/rest"
	"net/http"

	"go.uber.org/zap"
)

const descendingOrder = "desc"

// EntitiesHandler streams a local key range, one chunk per record.
type EntitiesHandler struct {
	rangeService *service.RangeEntriesService
	logger       *zap.Logger
}

func NewEntitiesHandler(rangeService *service.RangeEntriesService, logger *zap.Logger) *EntitiesHandler {
	return &EntitiesHandler{
		rangeService: rangeService,
		logger:       logger.Named("entities"),
	}
}

func (h *EntitiesHandler) GetEntities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	start := query.Get(rest.StartParam)
	if start == "" {
		http.Error(w, "missing start", http.StatusBadRequest)
		return
	}
	var end []byte
	if query.Has(rest.EndParam) {
		if query.Get(rest.EndParam) == "" {
			http.Error(w, "empty end", http.StatusBadRequest)
			return
		}
		end = []byte(query.Get(rest.EndParam))
	}

	it, err := h.rangeService.Execute(service.RangeEntriesQuery{
		Start:      []byte(start),
		End:        end,
		Descending: query.Get(rest.OrderParam) == descendingOrder,
	})
	if err != nil {
		h.logger.Error("opening range", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer it.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	flusher, _ := w.(http.Flusher)
	chunk := make([]byte, 0, 256)
	for it.Next() {
		record := it.Record()
		chunk = append(chunk[:0], record.Key...)
		chunk = append(chunk, '\n')
		chunk = append(chunk, record.Value...)
		if _, err := w.Write(chunk); err != nil {
			h.logger.Debug("client went away", zap.Error(err))
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	}
	if err := it.Err(); err != nil {
		h.logger.Error("range interrupted", zap.Error(err))
	}
}
