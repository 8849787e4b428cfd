package main

// Build the Lambda handler binary:
//   GOOS=linux GOARCH=amd64 CGO_ENABLED=0 go build -o bootstrap ./cmd/lambda-worker

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"course-backend/internal/bootstrap"
	"course-backend/internal/shared/config"
	"course-backend/internal/shared/metrics"
	"course-backend/internal/shared/telemetry"
	"course-backend/internal/workerproc"
)

var (
	initOnce sync.Once
	initErr  error
	app      *bootstrap.App
)

func initApp() {
	cfg := config.Load()
	built, err := bootstrap.Build(cfg)
	if err != nil {
		initErr = err
		return
	}
	app = built
}

// unrecoverable reports whether retrying the message can ever succeed. Parse
// failures are dropped instead of being sent back to the queue forever.
func unrecoverable(err error) bool {
	var emptyBody workerproc.ErrEmptyBody
	var decodeErr workerproc.ErrDecode
	var missingID workerproc.ErrMissingEvaluationID
	return errors.As(err, &emptyBody) || errors.As(err, &decodeErr) || errors.As(err, &missingID)
}

func handler(ctx context.Context, event events.SQSEvent) (events.SQSEventResponse, error) {
	initOnce.Do(initApp)
	if initErr != nil {
		log.Printf("bootstrap error: %v", initErr)
		failures := make([]events.SQSBatchItemFailure, 0, len(event.Records))
		for _, record := range event.Records {
			failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
		}
		return events.SQSEventResponse{BatchItemFailures: failures}, initErr
	}

	failures := make([]events.SQSBatchItemFailure, 0)
	for _, record := range event.Records {
		metrics.IncEvaluationJobsReceived()
		err := workerproc.HandleMessage(ctx, app, record.Body)
		if err == nil {
			metrics.IncEvaluationJobsCompleted()
			continue
		}
		if unrecoverable(err) {
			metrics.IncEvaluationJobsDeletedUnrecoverable()
			telemetry.Error("worker.evaluation.dropped", map[string]any{
				"message_id": record.MessageId,
				"error":      err.Error(),
			})
			continue
		}
		metrics.IncEvaluationJobsFailed()
		telemetry.Error("worker.evaluation.failed", map[string]any{
			"message_id": record.MessageId,
			"error":      err.Error(),
		})
		failures = append(failures, events.SQSBatchItemFailure{ItemIdentifier: record.MessageId})
	}

	return events.SQSEventResponse{BatchItemFailures: failures}, nil
}

func main() {
	lambda.Start(handler)
}
