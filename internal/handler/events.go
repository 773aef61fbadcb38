package handler

import (
	"encoding/json"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// Events отдаёт ленту изменений как server-sent events. Необязательный
// повторяемый параметр collection ограничивает подписку перечисленными
// коллекциями. Подписка снимается при разрыве соединения клиентом.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	collections := r.URL.Query()["collection"]
	sub := h.hub.Subscribe(collections...)
	defer sub.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}

			data, err := json.Marshal(e)
			if err != nil {
				h.logger.Error("marshal event", zap.Error(err))
				continue
			}

			if _, err := fmt.Fprintf(w, "event: %s.%s\ndata: %s\n\n", e.Collection, e.Op, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
