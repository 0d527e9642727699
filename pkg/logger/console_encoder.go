package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorRed     = "\x1b[31m"
	colorYellow  = "\x1b[33m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorReset   = "\x1b[0m"
)

var _bufferPool = buffer.NewPool()

// colorConsoleEncoder implements zapcore.Encoder for the scheduler's
// console output: a bracketed context prefix (class name, plan set index),
// a colored level tag, caller info, the message, then any remaining
// structured fields rendered as key=value pairs.
type colorConsoleEncoder struct {
	zapcore.EncoderConfig
	colors       bool
	loggerOpts   Options
	levelStrings map[Level]string
}

func NewColorConsoleEncoder(cfg zapcore.EncoderConfig, opts Options) zapcore.Encoder {
	return &colorConsoleEncoder{
		EncoderConfig: cfg,
		colors:        true,
		loggerOpts:    opts,
		levelStrings:  cacheLevelStrings(true, opts.ColorConsole),
	}
}

func NewPlainTextConsoleEncoder(cfg zapcore.EncoderConfig, opts Options) zapcore.Encoder {
	return &colorConsoleEncoder{
		EncoderConfig: cfg,
		colors:        false,
		loggerOpts:    opts,
		levelStrings:  cacheLevelStrings(false, false),
	}
}

func cacheLevelStrings(color bool, useColor bool) map[Level]string {
	m := make(map[Level]string)
	for _, l := range []Level{DebugLevel, InfoLevel, NoticeLevel, WarningLevel, ErrorLevel} {
		str := fmt.Sprintf("[%s]", l.CapitalString())
		if color && useColor {
			m[l] = levelToColor(l, str)
		} else {
			m[l] = str
		}
	}
	return m
}

func (enc *colorConsoleEncoder) Clone() zapcore.Encoder {
	return &colorConsoleEncoder{
		EncoderConfig: enc.EncoderConfig,
		colors:        enc.colors,
		loggerOpts:    enc.loggerOpts,
		levelStrings:  enc.levelStrings,
	}
}

// The AddXxx/AppendXxx methods below exist only to satisfy zapcore.Encoder;
// EncodeEntry reads structured values straight out of the fields slice it
// receives rather than accumulating them through these calls.

func (enc *colorConsoleEncoder) OpenNamespace(key string)                                {}
func (enc *colorConsoleEncoder) AddArray(key string, arr zapcore.ArrayMarshaler) error    { return nil }
func (enc *colorConsoleEncoder) AddObject(key string, obj zapcore.ObjectMarshaler) error  { return nil }
func (enc *colorConsoleEncoder) AddBinary(key string, val []byte)                        {}
func (enc *colorConsoleEncoder) AddByteString(key string, val []byte)                     {}
func (enc *colorConsoleEncoder) AddBool(key string, val bool)                             {}
func (enc *colorConsoleEncoder) AddComplex128(key string, val complex128)                 {}
func (enc *colorConsoleEncoder) AddComplex64(key string, val complex64)                   {}
func (enc *colorConsoleEncoder) AddDuration(key string, val time.Duration)                {}
func (enc *colorConsoleEncoder) AddFloat64(key string, val float64)                       {}
func (enc *colorConsoleEncoder) AddFloat32(key string, val float32)                       {}
func (enc *colorConsoleEncoder) AddInt(key string, val int)                               {}
func (enc *colorConsoleEncoder) AddInt64(key string, val int64)                           {}
func (enc *colorConsoleEncoder) AddInt32(key string, val int32)                           {}
func (enc *colorConsoleEncoder) AddInt16(key string, val int16)                           {}
func (enc *colorConsoleEncoder) AddInt8(key string, val int8)                             {}
func (enc *colorConsoleEncoder) AddString(key, val string)                                {}
func (enc *colorConsoleEncoder) AddTime(key string, val time.Time)                        {}
func (enc *colorConsoleEncoder) AddUint(key string, val uint)                             {}
func (enc *colorConsoleEncoder) AddUint64(key string, val uint64)                         {}
func (enc *colorConsoleEncoder) AddUint32(key string, val uint32)                         {}
func (enc *colorConsoleEncoder) AddUint16(key string, val uint16)                         {}
func (enc *colorConsoleEncoder) AddUint8(key string, val uint8)                           {}
func (enc *colorConsoleEncoder) AddUintptr(key string, val uintptr)                       {}
func (enc *colorConsoleEncoder) AddReflected(key string, obj interface{}) error           { return nil }

func (enc *colorConsoleEncoder) AppendArray(zapcore.ArrayMarshaler) error   { return nil }
func (enc *colorConsoleEncoder) AppendObject(zapcore.ObjectMarshaler) error { return nil }
func (enc *colorConsoleEncoder) AppendBool(bool)                           {}
func (enc *colorConsoleEncoder) AppendByteString([]byte)                   {}
func (enc *colorConsoleEncoder) AppendBinary([]byte)                       {}
func (enc *colorConsoleEncoder) AppendComplex128(complex128)               {}
func (enc *colorConsoleEncoder) AppendComplex64(complex64)                 {}
func (enc *colorConsoleEncoder) AppendDuration(time.Duration)              {}
func (enc *colorConsoleEncoder) AppendFloat64(float64)                    {}
func (enc *colorConsoleEncoder) AppendFloat32(float32)                    {}
func (enc *colorConsoleEncoder) AppendInt(int)                            {}
func (enc *colorConsoleEncoder) AppendInt64(int64)                        {}
func (enc *colorConsoleEncoder) AppendInt32(int32)                        {}
func (enc *colorConsoleEncoder) AppendInt16(int16)                        {}
func (enc *colorConsoleEncoder) AppendInt8(int8)                          {}
func (enc *colorConsoleEncoder) AppendString(string)                      {}
func (enc *colorConsoleEncoder) AppendTime(time.Time)                     {}
func (enc *colorConsoleEncoder) AppendUint(uint)                          {}
func (enc *colorConsoleEncoder) AppendUint64(uint64)                      {}
func (enc *colorConsoleEncoder) AppendUint32(uint32)                      {}
func (enc *colorConsoleEncoder) AppendUint16(uint16)                      {}
func (enc *colorConsoleEncoder) AppendUint8(uint8)                        {}
func (enc *colorConsoleEncoder) AppendUintptr(uintptr)                    {}

// orderedContextKeys lists the structured fields EncodeEntry promotes into
// the bracketed prefix, in display order, and the short tag each one uses.
var orderedContextKeys = []struct{ key, short string }{
	{"class_name", "C"},
	{"set_index", "S"},
	{"dispatch_id", "D"},
}

func (enc *colorConsoleEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	line := _bufferPool.Get()

	if enc.TimeKey != "" {
		line.AppendString(ent.Time.Format(enc.loggerOpts.TimestampFormat))
		line.AppendString(" ")
	}

	contextValues := make(map[string]string)
	remaining := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		matched := false
		for _, ck := range orderedContextKeys {
			if f.Key == ck.key {
				contextValues[ck.key] = f.String
				matched = true
				break
			}
		}
		if !matched && f.Key != "customlevel" {
			remaining = append(remaining, f)
		}
	}

	var prefix strings.Builder
	for _, ck := range orderedContextKeys {
		if v, ok := contextValues[ck.key]; ok && v != "" {
			prefix.WriteString(fmt.Sprintf("[%s:%s]", ck.short, v))
		}
	}
	if prefix.Len() > 0 {
		line.AppendString(prefix.String())
		line.AppendString(" ")
	}

	levelStr := ""
	for _, f := range fields {
		if f.Key == "customlevel" && f.Type == zapcore.StringType {
			switch strings.ToUpper(f.String) {
			case "DEBUG":
				levelStr = enc.levelStrings[DebugLevel]
			case "INFO":
				levelStr = enc.levelStrings[InfoLevel]
			case "NOTICE":
				levelStr = enc.levelStrings[NoticeLevel]
			case "WARNING":
				levelStr = enc.levelStrings[WarningLevel]
			case "ERROR":
				levelStr = enc.levelStrings[ErrorLevel]
			}
			break
		}
	}
	if levelStr == "" {
		text := fmt.Sprintf("[%s]", strings.ToUpper(ent.Level.String()))
		if enc.colors {
			levelStr = levelToColorZap(ent.Level, text)
		} else {
			levelStr = text
		}
	}
	line.AppendString(levelStr)
	line.AppendString(" ")

	if ent.Caller.Defined && enc.CallerKey != "" && enc.EncodeCaller != nil {
		callerBuf := _bufferPool.Get()
		tempEnc := &tempEncoder{buf: callerBuf, EncoderConfig: enc.EncoderConfig}
		enc.EncodeCaller(ent.Caller, tempEnc)
		if callerBuf.Len() > 0 {
			line.Write(callerBuf.Bytes())
			line.AppendString(" ")
		}
		callerBuf.Free()
	}

	line.AppendString(ent.Message)

	for _, f := range remaining {
		line.AppendString(" ")
		line.AppendString(f.Key)
		line.AppendString("=")
		switch f.Type {
		case zapcore.StringType:
			if strings.Contains(f.String, " ") || f.String == "" {
				fmt.Fprintf(line, "%q", f.String)
			} else {
				line.AppendString(f.String)
			}
		case zapcore.ErrorType:
			if f.Interface != nil {
				fmt.Fprintf(line, "%q", f.Interface.(error).Error())
			} else {
				line.AppendString("nil")
			}
		case zapcore.BoolType:
			line.AppendBool(f.Integer == 1)
		case zapcore.Int8Type, zapcore.Int16Type, zapcore.Int32Type, zapcore.Int64Type:
			line.AppendInt(f.Integer)
		case zapcore.Uint8Type, zapcore.Uint16Type, zapcore.Uint32Type, zapcore.Uint64Type, zapcore.UintptrType:
			line.AppendUint(uint64(f.Integer))
		case zapcore.Float32Type:
			line.AppendFloat(float64(f.Interface.(float32)), 32)
		case zapcore.Float64Type:
			line.AppendFloat(f.Interface.(float64), 64)
		default:
			fmt.Fprintf(line, "%v", f.Interface)
		}
	}

	line.AppendString(enc.LineEnding)
	return line, nil
}

// tempEncoder is a minimal encoder used only to let zap's EncodeCaller
// function render caller info into a standalone buffer.
type tempEncoder struct {
	buf *buffer.Buffer
	zapcore.EncoderConfig
}

func (t *tempEncoder) AddArray(key string, marshaler zapcore.ArrayMarshaler) error   { return nil }
func (t *tempEncoder) AddObject(key string, marshaler zapcore.ObjectMarshaler) error { return nil }
func (t *tempEncoder) AddBinary(key string, value []byte)                           {}
func (t *tempEncoder) AddByteString(key string, value []byte)                       { t.AppendByteString(value) }
func (t *tempEncoder) AddBool(key string, value bool)                               { t.AppendBool(value) }
func (t *tempEncoder) AddComplex128(key string, value complex128)                    { t.AppendComplex128(value) }
func (t *tempEncoder) AddComplex64(key string, value complex64)                      { t.AppendComplex64(value) }
func (t *tempEncoder) AddDuration(key string, value time.Duration)                   { t.AppendDuration(value) }
func (t *tempEncoder) AddFloat64(key string, value float64)                          { t.AppendFloat64(value) }
func (t *tempEncoder) AddFloat32(key string, value float32)                          { t.AppendFloat32(value) }
func (t *tempEncoder) AddInt(key string, value int)                                  { t.AppendInt(value) }
func (t *tempEncoder) AddInt64(key string, value int64)                              { t.AppendInt64(value) }
func (t *tempEncoder) AddInt32(key string, value int32)                              { t.AppendInt32(value) }
func (t *tempEncoder) AddInt16(key string, value int16)                              { t.AppendInt16(value) }
func (t *tempEncoder) AddInt8(key string, value int8)                                { t.AppendInt8(value) }
func (t *tempEncoder) AddString(key, val string) {
	if key != "" {
		t.buf.AppendString(key)
		t.buf.AppendString("=")
	}
	t.buf.AppendString(val)
}
func (t *tempEncoder) AddTime(key string, value time.Time)   { t.AppendTime(value) }
func (t *tempEncoder) AddUint(key string, value uint)        { t.AppendUint(value) }
func (t *tempEncoder) AddUint64(key string, value uint64)    { t.AppendUint64(value) }
func (t *tempEncoder) AddUint32(key string, value uint32)    { t.AppendUint32(value) }
func (t *tempEncoder) AddUint16(key string, value uint16)    { t.AppendUint16(value) }
func (t *tempEncoder) AddUint8(key string, value uint8)      { t.AppendUint8(value) }
func (t *tempEncoder) AddUintptr(key string, v uintptr)      {}
func (t *tempEncoder) AddReflected(k string, i interface{}) error { return nil }
func (t *tempEncoder) OpenNamespace(key string)                   {}
func (t *tempEncoder) Clone() zapcore.Encoder                     { return t }
func (t *tempEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	return t.buf, nil
}
func (t *tempEncoder) AppendArray(zapcore.ArrayMarshaler) error   { return nil }
func (t *tempEncoder) AppendObject(zapcore.ObjectMarshaler) error { return nil }
func (t *tempEncoder) AppendBool(v bool)                          { t.buf.AppendBool(v) }
func (t *tempEncoder) AppendByteString(v []byte)                  { t.buf.AppendString(string(v)) }
func (t *tempEncoder) AppendBinary(v []byte)                      { t.buf.AppendString(string(v)) }
func (t *tempEncoder) AppendComplex128(v complex128)              { t.buf.AppendString(fmt.Sprintf("%v", v)) }
func (t *tempEncoder) AppendComplex64(v complex64)                { t.buf.AppendString(fmt.Sprintf("%v", v)) }
func (t *tempEncoder) AppendDuration(v time.Duration)             { t.buf.AppendString(v.String()) }
func (t *tempEncoder) AppendFloat64(v float64)                    { t.buf.AppendFloat(v, 64) }
func (t *tempEncoder) AppendFloat32(v float32)                    { t.buf.AppendFloat(float64(v), 32) }
func (t *tempEncoder) AppendInt(v int)                            { t.buf.AppendInt(int64(v)) }
func (t *tempEncoder) AppendInt64(v int64)                        { t.buf.AppendInt(v) }
func (t *tempEncoder) AppendInt32(v int32)                        { t.buf.AppendInt(int64(v)) }
func (t *tempEncoder) AppendInt16(v int16)                        { t.buf.AppendInt(int64(v)) }
func (t *tempEncoder) AppendInt8(v int8)                          { t.buf.AppendInt(int64(v)) }
func (t *tempEncoder) AppendString(v string)                      { t.buf.AppendString(v) }
func (t *tempEncoder) AppendTime(v time.Time)                     { t.buf.AppendTime(v, t.EncoderConfig.EncodeTime.Layout()) }
func (t *tempEncoder) AppendUint(v uint)                          { t.buf.AppendUint(uint64(v)) }
func (t *tempEncoder) AppendUint64(v uint64)                      { t.buf.AppendUint(v) }
func (t *tempEncoder) AppendUint32(v uint32)                      { t.buf.AppendUint(uint64(v)) }
func (t *tempEncoder) AppendUint16(v uint16)                      { t.buf.AppendUint(uint64(v)) }
func (t *tempEncoder) AppendUint8(v uint8)                        { t.buf.AppendUint(uint64(v)) }
func (t *tempEncoder) AppendUintptr(v uintptr)                    {}

func levelToColor(level Level, message string) string {
	switch level {
	case DebugLevel:
		return colorMagenta + message + colorReset
	case NoticeLevel:
		return colorCyan + message + colorReset
	case WarningLevel:
		return colorYellow + message + colorReset
	case ErrorLevel:
		return colorRed + message + colorReset
	default:
		return message
	}
}

func levelToColorZap(level zapcore.Level, message string) string {
	switch level {
	case zapcore.DebugLevel:
		return colorMagenta + message + colorReset
	case zapcore.WarnLevel:
		return colorYellow + message + colorReset
	case zapcore.ErrorLevel:
		return colorRed + message + colorReset
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		return colorRed + message + colorReset
	default:
		return message
	}
}
