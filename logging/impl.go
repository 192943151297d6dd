package logging

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// errUnpairedKey is logged in place of the value of a trailing key passed to a w variant.
var errUnpairedKey = errors.New("unpaired log key")

// callerSkip is the number of frames between getCaller and the code calling a Logger method:
// getCaller, logAt and the exported method itself.
const callerSkip = 3

type impl struct {
	name      string
	level     AtomicLevel
	utc       bool
	appenders []Appender
}

func (imp *impl) AddAppender(appender Appender) {
	imp.appenders = append(imp.appenders, appender)
}

func (imp *impl) SetLevel(level Level) {
	imp.level.Set(level)
}

func (imp *impl) GetLevel() Level {
	return imp.level.Get()
}

func (imp *impl) Sublogger(subname string) Logger {
	name := subname
	if imp.name != "" {
		name = imp.name + "." + subname
	}
	return &impl{
		name:      name,
		level:     NewAtomicLevelAt(imp.level.Get()),
		utc:       imp.utc,
		appenders: imp.appenders,
	}
}

func (imp *impl) Sync() error {
	var err error
	for _, appender := range imp.appenders {
		err = multierr.Append(err, appender.Sync())
	}
	return err
}

// logAt hands one entry to every appender when level is enabled. Messages are only rendered once the
// level check passes. An appender failing does not stop the others from receiving the entry.
func (imp *impl) logAt(level Level, render func() string, fields []zapcore.Field) {
	if level < imp.level.Get() {
		return
	}
	now := time.Now()
	if imp.utc {
		now = now.UTC()
	}
	entry := zapcore.Entry{
		Level:      level.AsZap(),
		Time:       now,
		LoggerName: imp.name,
		Message:    render(),
		Caller:     getCaller(),
	}
	for _, appender := range imp.appenders {
		if err := appender.Write(entry, fields); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}
}

func sprint(args []interface{}) func() string {
	return func() string { return fmt.Sprint(args...) }
}

func sprintf(template string, args []interface{}) func() string {
	return func() string { return fmt.Sprintf(template, args...) }
}

func message(msg string) func() string {
	return func() string { return msg }
}

// keyValueFields pairs up alternating keys and values. A trailing key without a value is kept with
// errUnpairedKey as its value.
func keyValueFields(keysAndValues []interface{}) []zapcore.Field {
	fields := make([]zapcore.Field, 0, (len(keysAndValues)+1)/2)
	for i := 0; i < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			key = fmt.Sprint(keysAndValues[i])
		}
		if i+1 == len(keysAndValues) {
			fields = append(fields, zap.Any(key, errUnpairedKey))
			break
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

func (imp *impl) Debug(args ...interface{}) {
	imp.logAt(DEBUG, sprint(args), nil)
}

func (imp *impl) Debugf(template string, args ...interface{}) {
	imp.logAt(DEBUG, sprintf(template, args), nil)
}

func (imp *impl) Debugw(msg string, keysAndValues ...interface{}) {
	imp.logAt(DEBUG, message(msg), keyValueFields(keysAndValues))
}

func (imp *impl) Info(args ...interface{}) {
	imp.logAt(INFO, sprint(args), nil)
}

func (imp *impl) Infof(template string, args ...interface{}) {
	imp.logAt(INFO, sprintf(template, args), nil)
}

func (imp *impl) Infow(msg string, keysAndValues ...interface{}) {
	imp.logAt(INFO, message(msg), keyValueFields(keysAndValues))
}

func (imp *impl) Warn(args ...interface{}) {
	imp.logAt(WARN, sprint(args), nil)
}

func (imp *impl) Warnf(template string, args ...interface{}) {
	imp.logAt(WARN, sprintf(template, args), nil)
}

func (imp *impl) Warnw(msg string, keysAndValues ...interface{}) {
	imp.logAt(WARN, message(msg), keyValueFields(keysAndValues))
}

func (imp *impl) Error(args ...interface{}) {
	imp.logAt(ERROR, sprint(args), nil)
}

func (imp *impl) Errorf(template string, args ...interface{}) {
	imp.logAt(ERROR, sprintf(template, args), nil)
}

func (imp *impl) Errorw(msg string, keysAndValues ...interface{}) {
	imp.logAt(ERROR, message(msg), keyValueFields(keysAndValues))
}

func getCaller() zapcore.EntryCaller {
	pc, file, line, ok := runtime.Caller(callerSkip)
	if !ok {
		return zapcore.EntryCaller{}
	}
	caller := zapcore.EntryCaller{Defined: true, PC: pc, File: file, Line: line}
	if fn := runtime.FuncForPC(pc); fn != nil {
		caller.Function = fn.Name()
	}
	return caller
}
