package applog

import (
	"go.uber.org/zap"
)

var GLog struct {
	ZapLogger *zap.Logger
	Logger    Logger
}

func init() {
	GLog.ZapLogger = zap.NewNop()
	GLog.Logger = NewNopLogger()
}

func InitZap() (zapLogger *zap.Logger) {
	conf := zap.NewProductionConfig()
	conf.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	conf.DisableCaller = true
	conf.DisableStacktrace = true
	zapLogger, e := conf.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if e != nil {
		panic(e)
	}
	return
}
