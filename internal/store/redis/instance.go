package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dwsmith1983/alarmd/internal/store"
	"github.com/dwsmith1983/alarmd/pkg/types"
)

// Create allocates an id and writes the record and both indexes in one
// MULTI/EXEC.
func (b *Backend) Create(ctx context.Context, inst types.Instance) (int64, error) {
	id, err := b.client.Incr(ctx, b.sequenceKey()).Result()
	if err != nil {
		return 0, fmt.Errorf("allocating instance id: %w", err)
	}
	inst.ID = id

	data, err := json.Marshal(inst)
	if err != nil {
		return 0, err
	}

	_, err = b.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Set(ctx, b.instanceKey(id), data, 0)
		pipe.SAdd(ctx, b.stateIndexKey(inst.State), id)
		if inst.AlarmID != nil {
			pipe.ZAdd(ctx, b.alarmIndexKey(*inst.AlarmID), goredis.Z{Score: float64(id), Member: id})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

// Get returns the record for id.
func (b *Backend) Get(ctx context.Context, id int64) (*types.Instance, error) {
	data, err := b.client.Get(ctx, b.instanceKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("instance %d: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return decode(data)
}

func decode(data []byte) (*types.Instance, error) {
	var inst types.Instance
	if err := json.Unmarshal(data, &inst); err != nil {
		return nil, fmt.Errorf("unmarshaling instance: %w", err)
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Replace overwrites an existing record and moves its index entries. The
// record key is watched so a concurrent delete aborts the write.
func (b *Backend) Replace(ctx context.Context, inst types.Instance) error {
	data, err := json.Marshal(inst)
	if err != nil {
		return err
	}
	key := b.instanceKey(inst.ID)

	return b.watch(ctx, key, func(tx *goredis.Tx) error {
		prev, err := b.readTx(ctx, tx, inst.ID)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)
			if prev.State != inst.State {
				pipe.SRem(ctx, b.stateIndexKey(prev.State), inst.ID)
			}
			pipe.SAdd(ctx, b.stateIndexKey(inst.State), inst.ID)
			if prev.AlarmID != nil && !inst.SameAlarm(prev.AlarmID) {
				pipe.ZRem(ctx, b.alarmIndexKey(*prev.AlarmID), inst.ID)
			}
			if inst.AlarmID != nil {
				pipe.ZAdd(ctx, b.alarmIndexKey(*inst.AlarmID), goredis.Z{Score: float64(inst.ID), Member: inst.ID})
			}
			return nil
		})
		return err
	})
}

// Remove deletes the record and its index entries. Missing ids are ignored.
func (b *Backend) Remove(ctx context.Context, id int64) error {
	key := b.instanceKey(id)
	err := b.watch(ctx, key, func(tx *goredis.Tx) error {
		prev, err := b.readTx(ctx, tx, id)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SRem(ctx, b.stateIndexKey(prev.State), id)
			if prev.AlarmID != nil {
				pipe.ZRem(ctx, b.alarmIndexKey(*prev.AlarmID), id)
			}
			return nil
		})
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}

func (b *Backend) readTx(ctx context.Context, tx *goredis.Tx, id int64) (*types.Instance, error) {
	data, err := tx.Get(ctx, b.instanceKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, fmt.Errorf("instance %d: %w", id, store.ErrNotFound)
		}
		return nil, err
	}
	return decode(data)
}

// watch runs fn under WATCH key, retrying when another client touched it.
func (b *Backend) watch(ctx context.Context, key string, fn func(*goredis.Tx) error) error {
	for i := 0; i < maxWatchRetries; i++ {
		err := b.client.Watch(ctx, fn, key)
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", key, goredis.TxFailedErr)
}

// ListByAlarm returns the alarm's records in id order.
func (b *Backend) ListByAlarm(ctx context.Context, alarmID int64) ([]types.Instance, error) {
	members, err := b.client.ZRange(ctx, b.alarmIndexKey(alarmID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	rows, err := b.load(ctx, members)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, r := range rows {
		if r.SameAlarm(&alarmID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// ListByState returns the records whose state index entry is current.
func (b *Backend) ListByState(ctx context.Context, state types.State) ([]types.Instance, error) {
	members, err := b.client.SMembers(ctx, b.stateIndexKey(state)).Result()
	if err != nil {
		return nil, err
	}
	rows, err := b.load(ctx, members)
	if err != nil {
		return nil, err
	}
	out := rows[:0]
	for _, r := range rows {
		if r.State == state {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// load fetches records for index members, skipping ids whose record is gone.
func (b *Backend) load(ctx context.Context, members []string) ([]types.Instance, error) {
	if len(members) == 0 {
		return nil, nil
	}
	keys := make([]string, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		keys = append(keys, b.instanceKey(id))
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := b.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	out := make([]types.Instance, 0, len(vals))
	for _, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		inst, err := decode([]byte(s))
		if err != nil {
			continue
		}
		out = append(out, *inst)
	}
	return out, nil
}
