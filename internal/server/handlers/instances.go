package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/dwsmith1983/alarmd/internal/watchdog"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// ListInstances returns the instances in the state named by ?state=.
func (h *Handlers) ListInstances(w http.ResponseWriter, r *http.Request) {
	state, err := types.ParseState(r.URL.Query().Get("state"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	insts, err := h.repo.GetByState(r.Context(), state)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	if insts == nil {
		insts = []types.Instance{}
	}
	_ = json.NewEncoder(w).Encode(insts)
}

// ScheduleInstance persists a materialized instance and registers its
// first wake. A duplicate (alarm, fire time) returns the existing row.
func (h *Handlers) ScheduleInstance(w http.ResponseWriter, r *http.Request) {
	var inst types.Instance
	if err := json.NewDecoder(r.Body).Decode(&inst); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON", err)
		return
	}
	inst.ID = types.InvalidID
	if inst.State == "" {
		inst.State = types.StateSilent
	}
	if err := h.engine.Schedule(r.Context(), &inst); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(inst)
}

// GetInstance returns a single instance.
func (h *Handlers) GetInstance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "instanceID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid instance id", nil)
		return
	}
	inst, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(inst)
}

// DeleteInstance removes an instance row.
func (h *Handlers) DeleteInstance(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "instanceID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid instance id", nil)
		return
	}
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type wakeResponse struct {
	InstanceID int64      `json:"instanceId"`
	WakeAt     *time.Time `json:"wakeAt,omitempty"`
}

// GetWake reports when the instance's next time-based transition is due.
func (h *Handlers) GetWake(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "instanceID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid instance id", nil)
		return
	}
	at, ok, err := h.engine.NextWake(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	resp := wakeResponse{InstanceID: id}
	if ok {
		resp.WakeAt = &at
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// Advance applies any due time-based transitions.
func (h *Handlers) Advance(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.engine.Advance)
}

// Dismiss ends the instance.
func (h *Handlers) Dismiss(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.engine.Dismiss)
}

// Snooze postpones a ringing instance.
func (h *Handlers) Snooze(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.engine.Snooze)
}

// RingtoneEnded reports that the ringtone finished playing.
func (h *Handlers) RingtoneEnded(w http.ResponseWriter, r *http.Request) {
	h.trigger(w, r, h.engine.RingtoneEnded)
}

func (h *Handlers) trigger(w http.ResponseWriter, r *http.Request, fn func(context.Context, int64) error) {
	id, err := pathID(r, "instanceID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid instance id", nil)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		h.writeEngineError(w, err)
		return
	}
	inst, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		h.writeEngineError(w, err)
		return
	}
	_ = json.NewEncoder(w).Encode(inst)
}

// Sweep runs one recovery pass over every non-terminal instance.
func (h *Handlers) Sweep(w http.ResponseWriter, r *http.Request) {
	res := watchdog.Sweep(r.Context(), watchdog.CheckOptions{
		Store:  h.repo,
		Engine: h.engine,
		Logger: h.logger,
	})
	_ = json.NewEncoder(w).Encode(map[string]int{
		"scanned":  res.Scanned,
		"advanced": res.Advanced,
		"idle":     res.Idle,
		"failed":   res.Failed,
	})
}
