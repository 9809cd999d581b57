package applog

import (
	"context"
	"runtime/debug"

	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/utils"
	"go.uber.org/zap"
	"google.golang.org/grpc/metadata"
)

var metadataKeys = []string{
	"real-ip",
	"user-agent",
	"forwarded-host",
	"request-id",
	"user-id",
}

// NewProductionZapLogger returns a production logger backed by zap
func NewProductionZapLogger() (Logger, error) {
	conf := zap.NewProductionConfig()
	conf.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	conf.DisableCaller = true
	conf.DisableStacktrace = true
	zapLogger, err := conf.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if err != nil {
		return nil, err
	}

	return zpLg{lg: zapLogger.Sugar()}, nil
}

// NewZapLogger returns a logger backed by the provided zap instance
func NewZapLogger(lg *zap.Logger) Logger {
	return zpLg{lg: lg.Sugar()}
}

func NewNopLogger() Logger {
	return zpLg{lg: zap.NewNop().Sugar()}
}

type zpLg struct {
	lg *zap.SugaredLogger
}

func (l zpLg) Log(keyvals ...interface{}) error {
	l.lg.Infow("", keyvals...)
	return nil
}

func (l zpLg) With(keyvals ...interface{}) Logger {
	return zpLg{lg: l.lg.With(keyvals...)}
}

func (l zpLg) FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}

	vals := extractContextValues(ctx)
	if len(vals) == 0 {
		return l
	}

	valarray := make([]interface{}, 0, len(vals)*2)
	for k, v := range vals {
		valarray = append(valarray, k, v)
	}
	return zpLg{lg: l.lg.With(valarray...)}
}

func extractContextValues(ctx context.Context) map[string]string {
	vals := make(map[string]string, len(metadataKeys)+1)
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, key := range metadataKeys {
			if val, ok := md[key]; ok && len(val) > 0 {
				vals[key] = val[0]
			}
		}
	}

	if trackingId, ok := ctx.Value(utils.CtxTrackingId).(string); ok && trackingId != "" {
		vals[string(utils.CtxTrackingId)] = trackingId
	}
	return vals
}

func (l zpLg) Debug(msg string, keyvals ...interface{}) {
	l.lg.Debugw(msg, keyvals...)
}

func (l zpLg) Info(msg string, keyvals ...interface{}) {
	l.lg.Infow(msg, keyvals...)
}

func (l zpLg) Warn(msg string, keyvals ...interface{}) {
	l.lg.Warnw(msg, keyvals...)
}

func (l zpLg) Error(msg string, keyvals ...interface{}) {
	l.lg.With("stacktrace", string(debug.Stack())).Errorw(msg, keyvals...)
}

func (l zpLg) Fatal(msg string, keyvals ...interface{}) {
	l.lg.Fatalw(msg, keyvals...)
}
