package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"

	log "github.com/sirupsen/logrus"

	"stakehouse/domain/interfaces"
)

const jobSubjectPrefix = "stakehouse.jobs."

// NATSJobQueue enqueues named background jobs on JetStream. Durable
// consumers with redelivery give each job at-least-once execution.
type NATSJobQueue struct {
	client *NATSClient
}

func NewNATSJobQueue(client *NATSClient) *NATSJobQueue {
	return &NATSJobQueue{client: client}
}

// Submit enqueues a job for asynchronous execution
func (q *NATSJobQueue) Submit(ctx context.Context, name interfaces.JobName, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal job payload: %w", err)
	}

	subject := jobSubjectPrefix + string(name)
	if err := q.client.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to submit job %s: %w", name, err)
	}

	log.WithFields(log.Fields{
		"job":     name,
		"subject": subject,
	}).Debug("Submitted job")
	return nil
}

// RegisterHandler subscribes a durable handler for one job name. The raw
// payload is handed to the handler as submitted.
func (q *NATSJobQueue) RegisterHandler(name interfaces.JobName, handler func(ctx context.Context, payload []byte) error) error {
	subject := jobSubjectPrefix + string(name)
	return q.client.Subscribe(subject, func(data []byte) error {
		return handler(context.Background(), data)
	})
}

var _ interfaces.JobQueue = (*NATSJobQueue)(nil)
