package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/berfenger/furnace2mqtt/internal/core/domain"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/quartz"
	"go.uber.org/zap"
)

const AUTOSAVE_JOB_KEY = "autosave"

// SaveAllJob asks the master actor to persist every furnace
type SaveAllJob struct {
	root    *actor.RootContext
	master  *actor.PID
	timeout time.Duration
	logger  *zap.Logger
}

func NewSaveAllJob(root *actor.RootContext, master *actor.PID, timeout time.Duration, logger *zap.Logger) *SaveAllJob {
	return &SaveAllJob{root: root, master: master, timeout: timeout, logger: logger}
}

func (j *SaveAllJob) Execute(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := j.root.RequestFuture(j.master, domain.SaveAllFurnacesRequest{}, j.timeout).Result()
	if err != nil {
		j.logger.Warn("autosave: request failed", zap.Error(err))
		return err
	}
	resp, ok := res.(domain.SaveAllFurnacesResponse)
	if !ok {
		return fmt.Errorf("autosave: unexpected response %T", res)
	}
	if resp.ResponseError != nil {
		j.logger.Warn("autosave: save failed", zap.Error(resp.ResponseError))
		return resp.ResponseError
	}
	j.logger.Debug("autosave: done", zap.Int("furnaces", resp.Requested))
	return nil
}

func (j *SaveAllJob) Description() string {
	return "save all furnaces"
}

// Autosave runs a SaveAllJob on a quartz cron trigger
type Autosave struct {
	sched   quartz.Scheduler
	job     quartz.Job
	trigger quartz.Trigger
	logger  *zap.Logger
}

func NewAutosave(expression string, job quartz.Job, logger *zap.Logger) (*Autosave, error) {
	if expression == "" {
		return nil, errors.New("empty autosave cron expression")
	}
	trigger, err := quartz.NewCronTrigger(expression)
	if err != nil {
		return nil, fmt.Errorf("autosave cron %q: %w", expression, err)
	}
	sched, err := quartz.NewStdScheduler()
	if err != nil {
		return nil, err
	}
	return &Autosave{sched: sched, job: job, trigger: trigger, logger: logger}, nil
}

func (a *Autosave) Start(ctx context.Context) error {
	a.sched.Start(ctx)
	detail := quartz.NewJobDetail(a.job, quartz.NewJobKey(AUTOSAVE_JOB_KEY))
	if err := a.sched.ScheduleJob(detail, a.trigger); err != nil {
		a.sched.Stop()
		return err
	}
	a.logger.Info("autosave: scheduled", zap.String("trigger", a.trigger.Description()))
	return nil
}

func (a *Autosave) Stop(ctx context.Context) {
	a.sched.Stop()
	a.sched.Wait(ctx)
}
