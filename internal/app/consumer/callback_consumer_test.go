package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbaplan/internal/app/domains/services/svcallback"
	"urbaplan/internal/entity"
	"urbaplan/internal/framework"
	"urbaplan/internal/model"
	"urbaplan/pkg/infra/db"
	"urbaplan/pkg/infra/redis"
	"urbaplan/pkg/logger"
)

type fakeSource struct {
	messages []*framework.Message
	acked    []string
}

func (s *fakeSource) Consume(string, time.Duration, time.Duration) (*framework.Message, error) {
	if len(s.messages) == 0 {
		return nil, nil
	}
	msg := s.messages[0]
	s.messages = s.messages[1:]
	return msg, nil
}

func (s *fakeSource) Ack(_ string, jobID string) error {
	s.acked = append(s.acked, jobID)
	return nil
}

type update struct {
	jobID, status, errorMsg string
	result                  []byte
}

type fakeRepo struct {
	updates []update
	err     error
}

func (r *fakeRepo) CreateJob(context.Context, *entity.FeasibilityJob) error { return nil }

func (r *fakeRepo) GetJob(context.Context, string) (*entity.FeasibilityJob, error) {
	return nil, db.ErrJobNotFound
}

func (r *fakeRepo) UpdateResult(_ context.Context, jobID string, result []byte, status, errorMsg string) error {
	if r.err != nil {
		return r.err
	}
	r.updates = append(r.updates, update{jobID: jobID, status: status, errorMsg: errorMsg, result: result})
	return nil
}

type fakeNotifier struct {
	sent []*redis.ResultNotification
}

func (n *fakeNotifier) PublishResult(_ context.Context, notification *redis.ResultNotification) error {
	n.sent = append(n.sent, notification)
	return nil
}

func message(t *testing.T, id string, callback interface{}) *framework.Message {
	t.Helper()
	data, err := json.Marshal(callback)
	require.NoError(t, err)
	return &framework.Message{ID: id, Data: data}
}

func newConsumer(source *fakeSource, repo *fakeRepo, notifier *fakeNotifier) *CallbackConsumer {
	service := svcallback.NewCallbackService(repo, notifier, logger.NewNop())
	return NewCallbackConsumer(source, service, &Config{QueueName: "callback", PollInterval: time.Millisecond}, logger.NewNop())
}

func TestConsumeOne_Success(t *testing.T) {
	source := &fakeSource{messages: []*framework.Message{
		message(t, "m-1", model.FeasibilityCallback{
			RequestID: "r-1",
			JobID:     "job-1",
			Status:    model.CallbackStatusSuccess,
			Result:    json.RawMessage(`{"zone_id":"ZH1"}`),
		}),
	}}
	repo := &fakeRepo{}
	notifier := &fakeNotifier{}

	require.NoError(t, newConsumer(source, repo, notifier).consumeOne(context.Background()))

	assert.Equal(t, []string{"m-1"}, source.acked)
	require.Len(t, repo.updates, 1)
	assert.Equal(t, entity.JobStatusDone, repo.updates[0].status)
	assert.JSONEq(t, `{"zone_id":"ZH1"}`, string(repo.updates[0].result))
	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "job-1", notifier.sent[0].JobID)
	assert.Equal(t, entity.JobStatusDone, notifier.sent[0].Status)
}

func TestConsumeOne_Failed(t *testing.T) {
	source := &fakeSource{messages: []*framework.Message{
		message(t, "m-2", model.FeasibilityCallback{JobID: "job-2", Status: model.CallbackStatusFailed, Error: "bad geometry"}),
	}}
	repo := &fakeRepo{}

	require.NoError(t, newConsumer(source, repo, &fakeNotifier{}).consumeOne(context.Background()))

	require.Len(t, repo.updates, 1)
	assert.Equal(t, entity.JobStatusFailed, repo.updates[0].status)
	assert.Equal(t, "bad geometry", repo.updates[0].errorMsg)
	assert.Nil(t, repo.updates[0].result)
}

func TestConsumeOne_InvalidMessageIsAcked(t *testing.T) {
	source := &fakeSource{messages: []*framework.Message{
		{ID: "m-3", Data: []byte("not json")},
		message(t, "m-4", map[string]string{"status": "SUCCESS"}),
	}}
	repo := &fakeRepo{}
	c := newConsumer(source, repo, &fakeNotifier{})

	require.NoError(t, c.consumeOne(context.Background()))
	require.NoError(t, c.consumeOne(context.Background()))

	assert.Equal(t, []string{"m-3", "m-4"}, source.acked)
	assert.Empty(t, repo.updates)
}

func TestConsumeOne_StoreFailureIsNotAcked(t *testing.T) {
	source := &fakeSource{messages: []*framework.Message{
		message(t, "m-5", model.FeasibilityCallback{JobID: "job-5", Status: model.CallbackStatusSuccess}),
	}}
	repo := &fakeRepo{err: errors.New("connection refused")}

	err := newConsumer(source, repo, &fakeNotifier{}).consumeOne(context.Background())
	require.Error(t, err)
	assert.Empty(t, source.acked)
}

func TestConsumeOne_UnknownJobIsDropped(t *testing.T) {
	source := &fakeSource{messages: []*framework.Message{
		message(t, "m-6", model.FeasibilityCallback{JobID: "job-6", Status: model.CallbackStatusSuccess}),
	}}
	repo := &fakeRepo{err: fmt.Errorf("%w: job-6", db.ErrJobNotFound)}
	notifier := &fakeNotifier{}

	require.NoError(t, newConsumer(source, repo, notifier).consumeOne(context.Background()))
	assert.Equal(t, []string{"m-6"}, source.acked)
	assert.Empty(t, notifier.sent)
}

func TestStart_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	c := newConsumer(&fakeSource{}, &fakeRepo{}, &fakeNotifier{})

	done := make(chan error, 1)
	go func() { done <- c.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("consumer did not stop")
	}
}
