package events

import (
	"context"
	"errors"
	"testing"

	"github.com/aymens/orgadmin/internal/orgadmin/models"
	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type MockKafkaReader struct {
	mock.Mock
}

func (m *MockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	args := m.Called(ctx)
	return args.Get(0).(kafka.Message), args.Error(1)
}

func (m *MockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaReader) Close() error {
	return m.Called().Error(0)
}

func TestConsumer_Run(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	good := kafka.Message{Value: mustMarshal(NewEvent(CompanyCreated, models.KindCompany, 1, nil))}
	bad := kafka.Message{Value: []byte("{not json")}

	reader := new(MockKafkaReader)
	reader.On("FetchMessage", mock.Anything).Return(good, nil).Once()
	reader.On("FetchMessage", mock.Anything).Return(bad, nil).Once()
	reader.On("FetchMessage", mock.Anything).Run(func(mock.Arguments) { cancel() }).
		Return(kafka.Message{}, context.Canceled)
	reader.On("CommitMessages", mock.Anything, mock.Anything).Return(nil)

	core, recorded := observer.New(zap.InfoLevel)
	consumer := &Consumer{reader: reader, logger: zap.New(core)}

	var handled []EventType
	consumer.RegisterHandler(func(_ context.Context, event Event) error {
		handled = append(handled, event.Type)
		return nil
	})
	consumer.Run(ctx)

	assert.Equal(t, []EventType{CompanyCreated}, handled)
	assert.Equal(t, 1, recorded.FilterMessage("Failed to parse event").Len())
	reader.AssertNumberOfCalls(t, "CommitMessages", 2)
}

func noDelay() backoff.BackOff {
	return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, handlerRetries)
}

func TestConsumer_HandlerRetried(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := kafka.Message{Value: mustMarshal(NewEvent(EmployeeCreated, models.KindEmployee, 2, nil))}
	reader := new(MockKafkaReader)
	reader.On("FetchMessage", mock.Anything).Return(msg, nil).Once()
	reader.On("FetchMessage", mock.Anything).Run(func(mock.Arguments) { cancel() }).
		Return(kafka.Message{}, context.Canceled)
	reader.On("CommitMessages", mock.Anything, mock.Anything).Return(nil)

	core, recorded := observer.New(zap.WarnLevel)
	consumer := &Consumer{reader: reader, logger: zap.New(core), retryPolicy: noDelay}

	calls := 0
	consumer.RegisterHandler(func(context.Context, Event) error {
		calls++
		if calls == 1 {
			return errors.New("boom")
		}
		return nil
	})
	consumer.Run(ctx)

	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, recorded.FilterMessage("Failed to handle event").Len())
	assert.Zero(t, recorded.FilterMessage("Dropping event after failed retries").Len())
	reader.AssertNumberOfCalls(t, "CommitMessages", 1)
}

func TestConsumer_HandlerFailureDropsEvent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := kafka.Message{Value: mustMarshal(NewEvent(EmployeeCreated, models.KindEmployee, 2, nil)), Offset: 7}
	reader := new(MockKafkaReader)
	reader.On("FetchMessage", mock.Anything).Return(msg, nil).Once()
	reader.On("FetchMessage", mock.Anything).Run(func(mock.Arguments) { cancel() }).
		Return(kafka.Message{}, context.Canceled)
	reader.On("CommitMessages", mock.Anything, []kafka.Message{msg}).Return(nil)
	reader.On("Close").Return(nil)

	core, recorded := observer.New(zap.ErrorLevel)
	consumer := &Consumer{reader: reader, logger: zap.New(core), retryPolicy: noDelay}

	calls := 0
	consumer.RegisterHandler(func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	})
	consumer.Run(ctx)
	consumer.Close()

	assert.Equal(t, 1+handlerRetries, calls)
	dropped := recorded.FilterMessage("Dropping event after failed retries").All()
	if assert.Len(t, dropped, 1) {
		assert.Equal(t, int64(7), dropped[0].ContextMap()["offset"])
	}
	reader.AssertNumberOfCalls(t, "CommitMessages", 1)
	reader.AssertCalled(t, "Close")
}

func TestConsumer_CancelledDuringRetryKeepsOffset(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := kafka.Message{Value: mustMarshal(NewEvent(EmployeeCreated, models.KindEmployee, 2, nil))}
	reader := new(MockKafkaReader)
	reader.On("FetchMessage", mock.Anything).Return(msg, nil).Once()

	consumer := &Consumer{reader: reader, logger: zap.NewNop(), retryPolicy: noDelay}
	consumer.RegisterHandler(func(context.Context, Event) error {
		cancel()
		return errors.New("shutting down")
	})
	consumer.Run(ctx)

	reader.AssertNotCalled(t, "CommitMessages", mock.Anything, mock.Anything)
}
