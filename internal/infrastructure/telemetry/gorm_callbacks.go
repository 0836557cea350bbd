package telemetry

import (
	"time"

	"gorm.io/gorm"
)

const queryStartKey = "telemetry:query_start"

// gormHook registers fn around one GORM processor
type gormHook struct {
	op     string
	before func(name string, fn func(*gorm.DB)) error
	after  func(name string, fn func(*gorm.DB)) error
}

func gormHooks(db *gorm.DB) []gormHook {
	cb := db.Callback()
	return []gormHook{
		{"create",
			func(n string, fn func(*gorm.DB)) error { return cb.Create().Before("gorm:create").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Create().After("gorm:create").Register(n, fn) }},
		{"query",
			func(n string, fn func(*gorm.DB)) error { return cb.Query().Before("gorm:query").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Query().After("gorm:query").Register(n, fn) }},
		{"update",
			func(n string, fn func(*gorm.DB)) error { return cb.Update().Before("gorm:update").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Update().After("gorm:update").Register(n, fn) }},
		{"delete",
			func(n string, fn func(*gorm.DB)) error { return cb.Delete().Before("gorm:delete").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Delete().After("gorm:delete").Register(n, fn) }},
		{"row",
			func(n string, fn func(*gorm.DB)) error { return cb.Row().Before("gorm:row").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Row().After("gorm:row").Register(n, fn) }},
		{"raw",
			func(n string, fn func(*gorm.DB)) error { return cb.Raw().Before("gorm:raw").Register(n, fn) },
			func(n string, fn func(*gorm.DB)) error { return cb.Raw().After("gorm:raw").Register(n, fn) }},
	}
}

// registerTimed stamps the start time before every processor and calls
// after(op) once it finished
func registerTimed(db *gorm.DB, prefix string, after func(op string) func(*gorm.DB)) error {
	for _, h := range gormHooks(db) {
		if err := h.before(prefix+":before_"+h.op, markQueryStart); err != nil {
			return err
		}
		if err := h.after(prefix+":after_"+h.op, after(h.op)); err != nil {
			return err
		}
	}
	return nil
}

func markQueryStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

// queryElapsed returns the time since markQueryStart ran for this statement
func queryElapsed(db *gorm.DB) (time.Duration, bool) {
	v, ok := db.InstanceGet(queryStartKey)
	if !ok {
		return 0, false
	}
	start, ok := v.(time.Time)
	if !ok {
		return 0, false
	}
	return time.Since(start), true
}
