package queue

import (
	"context"
	"fmt"

	"github.com/syncodehq/syncode/internal/jobs"
	"github.com/syncodehq/syncode/internal/notifications"
	"github.com/syncodehq/syncode/internal/queue/redisclient"
)

// EmailQueue is the list the API produces to and the worker consumes
// from.
const EmailQueue = "syncode:jobs:email"

// Producer satisfies the service's ResetSender by enqueueing a
// delivery job instead of sending inline. The worker owns retries.
type Producer struct {
	client *redisclient.Client
}

func NewProducer(client *redisclient.Client) *Producer {
	return &Producer{client: client}
}

func (p *Producer) SendPasswordReset(ctx context.Context, in notifications.SendPasswordResetInput) error {
	payload, err := jobs.EncodePayload(jobs.JobSendPasswordReset, jobs.SendPasswordResetPayload{
		Email:    in.Email,
		Name:     in.Name,
		ResetURL: in.ResetURL,
	})

	if err != nil {
		return fmt.Errorf("encode reset job: %w", err)
	}

	j, err := jobs.NewJob(jobs.JobSendPasswordReset, payload)

	if err != nil {
		return err
	}

	b, err := jobs.EncodeJob(j)

	if err != nil {
		return err
	}

	return p.client.Enqueue(ctx, EmailQueue, b)
}
