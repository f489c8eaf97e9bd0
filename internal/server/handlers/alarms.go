package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// ListAlarmInstances returns every instance of an alarm.
func (h *Handlers) ListAlarmInstances(w http.ResponseWriter, r *http.Request) {
	alarmID, err := pathID(r, "alarmID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid alarm id", nil)
		return
	}
	insts, err := h.repo.GetByAlarmID(r.Context(), alarmID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if insts == nil {
		insts = []types.Instance{}
	}
	_ = json.NewEncoder(w).Encode(insts)
}

// NextUpcoming returns the alarm's instance with the earliest fire time.
func (h *Handlers) NextUpcoming(w http.ResponseWriter, r *http.Request) {
	alarmID, err := pathID(r, "alarmID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid alarm id", nil)
		return
	}
	inst, err := h.repo.GetNextUpcomingByAlarmID(r.Context(), alarmID)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(inst)
}

// DeleteOtherInstances removes every instance of the alarm except ?keep=.
func (h *Handlers) DeleteOtherInstances(w http.ResponseWriter, r *http.Request) {
	alarmID, err := pathID(r, "alarmID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid alarm id", nil)
		return
	}
	keep, err := strconv.ParseInt(r.URL.Query().Get("keep"), 10, 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "keep must be an instance id", nil)
		return
	}
	if err := h.repo.DeleteOtherInstances(r.Context(), alarmID, keep); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
