package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/audit"
)

// handleListHistory returns recorded settings changes, newest first.
//
// Query parameters:
//   - tag: only changes to this kind of node (device, devicemanager, ...)
//   - element: only changes to this element path
//   - session: only changes made in this session
//   - limit: max results (default 50, max 200)
//   - offset: pagination offset
func (s *Server) handleListHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeUnavailable(w, "change history requires the store")
		return
	}

	q := r.URL.Query()
	filter := audit.Filter{
		Tag:     q.Get("tag"),
		Element: q.Get("element"),
		Session: q.Get("session"),
	}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	result, err := s.history.List(r.Context(), filter)
	if err != nil {
		s.logger.Error("failed to list settings history", "error", err)
		writeInternalError(w, "failed to list settings history")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SnapshotView is the JSON form of a stored snapshot.
type SnapshotView struct {
	Name     string    `json:"name"`
	RootName string    `json:"root"`
	SavedAt  time.Time `json:"saved_at"`
	Elements int       `json:"elements"`
}

// handleListSnapshots returns the stored settings snapshots.
func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeUnavailable(w, "snapshots require the store")
		return
	}

	infos, err := s.snapshots.List(r.Context())
	if err != nil {
		s.logger.Error("failed to list snapshots", "error", err)
		writeInternalError(w, "failed to list snapshots")
		return
	}
	views := make([]SnapshotView, 0, len(infos))
	for _, info := range infos {
		views = append(views, SnapshotView(info))
	}
	writeJSON(w, http.StatusOK, map[string]any{"snapshots": views, "count": len(views)})
}
