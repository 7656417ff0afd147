package camunda

import (
	"context"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// CompleteTimeout bounds completing a job once its handler has finished.
const CompleteTimeout = 15 * time.Second

// CompleteJob completes the job with output as its variables, retrying transient
// broker errors. The handler's deadline does not carry over: a job that
// succeeded late still gets the full CompleteTimeout to be completed.
func CompleteJob(ctx context.Context, client worker.JobClient, job entities.Job, output interface{}) error {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		return fmt.Errorf("create complete job command: %w", err)
	}

	ctx, cancel := completionContext(ctx)
	defer cancel()

	return WithRetry(ctx, DefaultRetryConfig, "complete-job", func(ctx context.Context) error {
		_, err := cmd.Send(ctx)
		return err
	})
}

// completionContext keeps the values of parent but not its deadline or cancellation.
func completionContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(parent), CompleteTimeout)
}

// JobFields are the log fields every job carries.
func JobFields(job entities.Job) map[string]interface{} {
	return map[string]interface{}{
		"jobKey":             job.Key,
		"processInstanceKey": job.ProcessInstanceKey,
		"bpmnProcessId":      job.BpmnProcessId,
		"retries":            job.Retries,
	}
}
