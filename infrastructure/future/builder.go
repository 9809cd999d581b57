package future

import (
	"time"

	"github.com/pkg/errors"
)

var ErrSendTimeout = errors.New("send timeout")

type Builder struct {
	iFuture    *iFutureImpl
	dataFuture *iDataFutureImpl
}

func Factory() Builder {
	return Builder{
		iFuture: &iFutureImpl{},
	}
}

// FactoryOf returns a builder that completes a future previously obtained from Build.
func FactoryOf(future IFuture) Builder {
	return Builder{
		iFuture: future.(*iFutureImpl),
	}
}

func (builder Builder) SetCapacity(capacity int) Builder {
	builder.iFuture.capacity = capacity
	return builder
}

func (builder Builder) SetCount(count int) Builder {
	builder.iFuture.count = count
	return builder
}

func (builder Builder) SetData(data interface{}) Builder {
	if builder.dataFuture == nil {
		builder.dataFuture = &iDataFutureImpl{}
	}
	builder.dataFuture.data = data
	return builder
}

func (builder Builder) SetError(code ErrorCode, message string, reason error) Builder {
	if builder.dataFuture == nil {
		builder.dataFuture = &iDataFutureImpl{}
	}
	builder.dataFuture.futureError = iErrorFutureImpl{code: code, message: message, reason: reason}
	return builder
}

func (builder Builder) SetErrorOf(errorFuture IErrorFuture) Builder {
	return builder.SetError(errorFuture.Code(), errorFuture.Message(), errorFuture.Reason())
}

func (builder Builder) result() IDataFuture {
	if builder.dataFuture == nil {
		return iDataFutureImpl{}
	}
	return *builder.dataFuture
}

func (builder Builder) ensureChannel() {
	if builder.iFuture.channel == nil {
		if builder.iFuture.capacity < 1 {
			builder.iFuture.capacity = 1
		}
		builder.iFuture.channel = make(stream, builder.iFuture.capacity)
	}
}

func (builder Builder) Send() {
	builder.ensureChannel()
	defer close(builder.iFuture.channel)
	builder.iFuture.channel <- builder.result()
}

func (builder Builder) SendTimeout(duration time.Duration) error {
	builder.ensureChannel()
	defer close(builder.iFuture.channel)
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case builder.iFuture.channel <- builder.result():
		return nil
	case <-timer.C:
		return ErrSendTimeout
	}
}

func (builder Builder) BuildAndSend() IFuture {
	builder.Send()
	return builder.iFuture
}

func (builder Builder) Build() IFuture {
	builder.ensureChannel()
	return builder.iFuture
}
