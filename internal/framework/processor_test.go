package framework

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbaplan/pkg/lmstfyx"
	"urbaplan/pkg/logger"
)

// fakeSource 内存消息源
type fakeSource struct {
	mu    sync.Mutex
	queue []*Message
	acked []string
}

func (f *fakeSource) Consume(queue string, timeout, ttr time.Duration) (*Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		time.Sleep(time.Millisecond)
		return nil, nil
	}
	msg := f.queue[0]
	f.queue = f.queue[1:]
	return msg, nil
}

func (f *fakeSource) Ack(queue, jobID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acked = append(f.acked, jobID)
	return nil
}

func (f *fakeSource) ackedIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.acked...)
}

type countingObserver struct {
	mu     sync.Mutex
	counts map[string]int
}

func (o *countingObserver) JobProcessed(result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.counts[result]++
}

// actionByID 按消息 ID 决定处理结果
func actionByID(actions map[string]lmstfyx.JobRespStatus) lmstfyx.Proc {
	return func(ctx context.Context, job *client.Job) *lmstfyx.JobResp {
		return &lmstfyx.JobResp{Action: actions[job.ID]}
	}
}

func TestProcessor_SettlesByAction(t *testing.T) {
	source := &fakeSource{}
	observer := &countingObserver{counts: map[string]int{}}
	proc := actionByID(map[string]lmstfyx.JobRespStatus{
		"ok":      lmstfyx.JobRespStatusSuccess,
		"retry":   lmstfyx.JobRespStatusRelease,
		"corrupt": lmstfyx.JobRespStatusBury,
	})
	p := NewProcessor(&ProcessorConfig{Concurrency: 2, Timeout: time.Second}, proc, source, logger.NewNop(), observer)

	input := make(chan *Message, 3)
	input <- &Message{ID: "ok", Queue: "q"}
	input <- &Message{ID: "retry", Queue: "q"}
	input <- &Message{ID: "corrupt", Queue: "q"}

	require.NoError(t, p.Start(context.Background(), input))
	p.SignalShutdown()
	p.Wait()

	assert.ElementsMatch(t, []string{"ok", "corrupt"}, source.ackedIDs())
	assert.Equal(t, map[string]int{ResultSuccess: 1, ResultRelease: 1, ResultBury: 1}, observer.counts)
}

func TestSubscriber_ForwardsUntilStopped(t *testing.T) {
	source := &fakeSource{queue: []*Message{{ID: "a", Queue: "q"}, {ID: "b", Queue: "q"}}}
	s := NewSubscriber(&SubscriberConfig{QueueName: "q", Concurrency: 1, Rate: time.Millisecond}, source, logger.NewNop())

	out := make(chan *Message, 4)
	require.NoError(t, s.Start(context.Background(), out))

	received := []string{(<-out).ID, (<-out).ID}
	s.Stop()
	s.Wait()

	assert.Equal(t, []string{"a", "b"}, received)
	st := s.Stats()
	assert.Equal(t, int64(2), st.Pulled)
	assert.Equal(t, int64(2), st.Forwarded)
	assert.Zero(t, st.ConsumeErrors)
}

func TestSubscriber_CountsRedeliveries(t *testing.T) {
	source := &fakeSource{queue: []*Message{{ID: "a", Queue: "q", Attempts: 2}}}
	s := NewSubscriber(&SubscriberConfig{QueueName: "q", Concurrency: 1}, source, logger.NewNop())

	out := make(chan *Message, 1)
	require.NoError(t, s.Start(context.Background(), out))
	assert.Equal(t, "a", (<-out).ID)
	s.Stop()
	s.Wait()

	assert.Equal(t, int64(1), s.Stats().Redelivered)
}

func TestPreProcessor_StopsAtFirstError(t *testing.T) {
	var calls []string
	step := func(name string, err error) Step {
		return Step{Name: name, Run: func(context.Context) error {
			calls = append(calls, name)
			return err
		}}
	}

	err := NewPreProcessor(
		step("validate", nil),
		step("execute", assert.AnError),
		step("notify", nil),
	).Run(context.Background())

	require.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "step execute")
	assert.Equal(t, []string{"validate", "execute"}, calls)
}

func TestPreProcessor_StopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls []string

	err := NewPreProcessor(
		Step{Name: "validate", Run: func(context.Context) error {
			calls = append(calls, "validate")
			cancel()
			return nil
		}},
		Step{Name: "execute", Run: func(context.Context) error {
			calls = append(calls, "execute")
			return nil
		}},
	).Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "step execute not started")
	assert.Equal(t, []string{"validate"}, calls)
}
