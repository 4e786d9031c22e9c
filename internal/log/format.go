package log

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
)

const (
	timeFormat     = "2006-01-02T15:04:05-0700"
	termTimeFormat = "01-02|15:04:05.000"
	termMsgJust    = 40
)

// Format turns a record into bytes.
type Format interface {
	Format(r *Record) []byte
}

// FormatFunc returns a Format that calls fn.
func FormatFunc(fn func(*Record) []byte) Format {
	return formatFunc(fn)
}

type formatFunc func(*Record) []byte

func (f formatFunc) Format(r *Record) []byte { return f(r) }

var levelColors = map[Lvl]*color.Color{
	LvlCrit:  color.New(color.FgMagenta),
	LvlError: color.New(color.FgRed),
	LvlWarn:  color.New(color.FgYellow),
	LvlInfo:  color.New(color.FgGreen),
	LvlDebug: color.New(color.FgCyan),
	LvlTrace: color.New(color.FgBlue),
}

// TerminalFormat formats records for a human reading a terminal:
//
//	INFO [10-19|14:02:11.104] Compiled program      file=loop.bas words=12
//
// With usecolor the level is coloured and keys are highlighted.
func TerminalFormat(usecolor bool) Format {
	return FormatFunc(func(r *Record) []byte {
		b := &bytes.Buffer{}
		lvl := r.Lvl.AlignedString()
		if usecolor {
			c := levelColors[r.Lvl]
			c.EnableColor()
			lvl = c.Sprint(lvl)
		}
		fmt.Fprintf(b, "%s[%s] %s ", lvl, r.Time.Format(termTimeFormat), r.Msg)
		if len(r.Ctx) > 0 && len(r.Msg) < termMsgJust {
			b.Write(bytes.Repeat([]byte{' '}, termMsgJust-len(r.Msg)))
		}
		logfmt(b, r.Ctx, usecolor)
		return b.Bytes()
	})
}

// LogfmtFormat formats records as key=value lines, one per record,
// including the call site.
func LogfmtFormat() Format {
	return FormatFunc(func(r *Record) []byte {
		common := []interface{}{
			"t", r.Time.Format(timeFormat),
			"lvl", r.Lvl,
			"msg", r.Msg,
			"caller", fmt.Sprintf("%+v", r.Call),
		}
		b := &bytes.Buffer{}
		logfmt(b, append(common, r.Ctx...), false)
		return b.Bytes()
	})
}

func logfmt(buf *bytes.Buffer, ctx []interface{}, usecolor bool) {
	keyColor := color.New(color.FgHiBlack)
	if usecolor {
		keyColor.EnableColor()
	}
	for i := 0; i < len(ctx); i += 2 {
		if i != 0 {
			buf.WriteByte(' ')
		}
		k, ok := ctx[i].(string)
		if !ok {
			k = errorKey
		}
		v := formatValue(ctx[i+1])
		if usecolor {
			k = keyColor.Sprint(k)
		}
		buf.WriteString(k)
		buf.WriteByte('=')
		buf.WriteString(v)
	}
	buf.WriteByte('\n')
}

func formatValue(value interface{}) string {
	if value == nil {
		return "nil"
	}
	switch v := value.(type) {
	case error:
		return escape(v.Error())
	case fmt.Stringer:
		return escape(v.String())
	case string:
		return escape(v)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	}
	return escape(fmt.Sprintf("%+v", value))
}

func escape(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, " =\"\t\n\r") {
		return strconv.Quote(s)
	}
	return s
}
