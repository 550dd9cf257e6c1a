package worker

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"xenon-assistant/internal/models"
	"xenon-assistant/internal/services"
)

const defaultPollTimeout = 5 * time.Second

type completer interface {
	Complete(ctx context.Context, id, jobID uuid.UUID) (*models.Session, error)
}

// Publisher pushes a session state transition to its subscribers.
type Publisher interface {
	Publish(ctx context.Context, sessionID uuid.UUID, msg models.WSMessage)
}

type Pool struct {
	queue        Queue
	orchestrator completer
	publisher    Publisher
	workerCount  int
	pollTimeout  time.Duration
	stopChan     chan struct{}
	wg           sync.WaitGroup
}

func NewPool(queue Queue, orchestrator completer, publisher Publisher, workerCount int) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	return &Pool{
		queue:        queue,
		orchestrator: orchestrator,
		publisher:    publisher,
		workerCount:  workerCount,
		pollTimeout:  defaultPollTimeout,
		stopChan:     make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

// Stop waits for in-flight jobs. A provider call is bounded by its own timeout.
func (p *Pool) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		job, err := p.queue.Dequeue(ctx, p.pollTimeout)
		if err != nil {
			log.Printf("Worker %d: dequeue failed: %v", id, err)
			select {
			case <-p.stopChan:
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		log.Printf("Worker %d: generating reply for session %s (job %s)", id, job.SessionID, job.ID)
		p.process(ctx, job)
	}
}

func (p *Pool) process(ctx context.Context, job *models.GenerationJob) {
	sess, err := p.orchestrator.Complete(ctx, job.SessionID, job.ID)
	if err != nil {
		if errors.Is(err, services.ErrNoPendingGeneration) {
			log.Printf("Job %s dropped: session %s has no matching pending question", job.ID, job.SessionID)
			return
		}
		log.Printf("Job %s failed: %v", job.ID, err)
		p.publisher.Publish(ctx, job.SessionID, models.WSMessage{
			Type: models.WSGenerationFailed,
			Payload: models.GenerationEvent{
				SessionID: job.SessionID,
				JobID:     job.ID,
				State:     models.StateFailed,
				Error:     err.Error(),
			},
		})
		return
	}

	event := models.GenerationEvent{
		SessionID: job.SessionID,
		JobID:     job.ID,
		State:     sess.State,
		Error:     sess.LastError,
	}
	if n := len(sess.Transcript); n > 0 {
		last := sess.Transcript[n-1]
		event.Message = &last
	}

	msgType := models.WSGenerationDone
	if sess.State == models.StateFailed {
		msgType = models.WSGenerationFailed
	}
	p.publisher.Publish(ctx, job.SessionID, models.WSMessage{Type: msgType, Payload: event})

	log.Printf("Job %s completed (%s)", job.ID, sess.State)
}
