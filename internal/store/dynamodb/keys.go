package dynamodb

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dwsmith1983/alarmd/pkg/types"
)

// PK/SK prefix constants.
const (
	prefixInstance = "INSTANCE#"
	prefixAlarm    = "ALARM#"
	prefixState    = "STATE#"
	prefixLock     = "LOCK#"

	pkSequence = "SEQUENCE#instance"
	pkSettings = "SETTINGS"

	skInstance = "INSTANCE"
	skLock     = "LOCK"
	skSequence = "SEQUENCE"
	skSettings = "CURRENT"
)

func instancePK(id int64) string   { return prefixInstance + strconv.FormatInt(id, 10) }
func alarmPK(alarmID int64) string { return prefixAlarm + strconv.FormatInt(alarmID, 10) }
func statePK(s types.State) string { return prefixState + string(s) }
func lockPK(key string) string     { return prefixLock + key }
func truthSK() string              { return skInstance }
func lockSK() string               { return skLock }

// instanceListSK zero-pads the id so list queries return rows in id order.
func instanceListSK(id int64) string {
	return fmt.Sprintf("%s%019d", prefixInstance, id)
}

func ttlEpoch(now time.Time, d time.Duration) int64 {
	return now.Add(d).Unix()
}
