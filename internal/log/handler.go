package log

import (
	"io"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Handler writes log records somewhere.
type Handler interface {
	Log(r *Record) error
}

// FuncHandler returns a Handler that calls fn.
func FuncHandler(fn func(r *Record) error) Handler {
	return funcHandler(fn)
}

type funcHandler func(r *Record) error

func (h funcHandler) Log(r *Record) error { return h(r) }

// StreamHandler writes records to wr in the given format.
// Writes are serialized.
func StreamHandler(wr io.Writer, fmtr Format) Handler {
	var mu sync.Mutex
	return FuncHandler(func(r *Record) error {
		b := fmtr.Format(r)
		mu.Lock()
		defer mu.Unlock()
		_, err := wr.Write(b)
		return err
	})
}

// FileHandler writes logfmt records to path, rotating the file once it
// grows beyond maxSizeMB megabytes.
func FileHandler(path string, maxSizeMB int) Handler {
	return StreamHandler(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: 3,
	}, LogfmtFormat())
}

// LvlFilterHandler passes on records at maxLvl or more severe.
func LvlFilterHandler(maxLvl Lvl, h Handler) Handler {
	return FuncHandler(func(r *Record) error {
		if r.Lvl <= maxLvl {
			return h.Log(r)
		}
		return nil
	})
}

// MultiHandler sends every record to all of hs.
func MultiHandler(hs ...Handler) Handler {
	return FuncHandler(func(r *Record) error {
		for _, h := range hs {
			// Keep going on error so every handler gets the record.
			h.Log(r)
		}
		return nil
	})
}

// DiscardHandler drops everything.
func DiscardHandler() Handler {
	return FuncHandler(func(r *Record) error { return nil })
}
