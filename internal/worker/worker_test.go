package worker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bitleak/lmstfy/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"urbaplan/internal/framework"
	"urbaplan/pkg/config"
	"urbaplan/pkg/lmstfyx"
	"urbaplan/pkg/logger"
)

type memSource struct {
	mu    sync.Mutex
	queue []*framework.Message
	acked []string
}

func (s *memSource) Consume(queue string, timeout, ttr time.Duration) (*framework.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		time.Sleep(time.Millisecond)
		return nil, nil
	}
	msg := s.queue[0]
	s.queue = s.queue[1:]
	return msg, nil
}

func (s *memSource) Ack(queue, jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acked = append(s.acked, jobID)
	return nil
}

func (s *memSource) ackCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.acked)
}

func TestWorker_ProcessesAndShutsDown(t *testing.T) {
	source := &memSource{queue: []*framework.Message{{ID: "1", Queue: "q"}, {ID: "2", Queue: "q"}}}
	proc := func(ctx context.Context, job *client.Job) *lmstfyx.JobResp {
		return &lmstfyx.JobResp{Action: lmstfyx.JobRespStatusSuccess}
	}

	w, err := NewWorkerInstance(context.Background(), "test",
		&framework.SubscriberConfig{QueueName: "q", Concurrency: 1, Rate: time.Millisecond},
		&framework.ProcessorConfig{Concurrency: 1, BufferSize: 2, Timeout: time.Second},
		source, proc, nil, logger.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "test", w.GetName())

	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()

	require.Eventually(t, func() bool { return source.ackCount() == 2 }, 2*time.Second, 5*time.Millisecond)
	w.Shutdown()
	<-done
}

func TestNewManagerInstance_Validation(t *testing.T) {
	cfg := config.Default()

	_, err := NewManagerInstance(cfg, nil, nil, nil, logger.NewNop())
	assert.ErrorContains(t, err, "message source")

	_, err = NewManagerInstance(cfg, &memSource{}, nil, nil, logger.NewNop())
	assert.ErrorContains(t, err, "at least one worker")
}
