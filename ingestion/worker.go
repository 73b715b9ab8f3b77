// Copyright 2025 PedanticGeek
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/storage"
)

// Worker poll backoffs. An unrecoverable pipeline error stops the worker
// after the longer backoff; the host supervisor is expected to restart the
// process (crash-and-restart, not in-process retry).
const (
	DefaultEmptyBackoff = 10 * time.Second
	DefaultFatalBackoff = 30 * time.Second
)

// Worker is the single-threaded ingestion loop: it receives one queue
// message at a time, runs the pipeline variant the message selects, and
// settles the message only after the pipeline succeeds.
type Worker struct {
	queue        storage.WorkQueue
	pipeline     *Pipeline
	emptyBackoff time.Duration
	fatalBackoff time.Duration
	logger       *slog.Logger
}

// WorkerOption is a functional option for configuring a Worker.
type WorkerOption func(*Worker) error

// WithBackoffs overrides the empty-queue and fatal-error backoffs.
func WithBackoffs(empty, fatal time.Duration) WorkerOption {
	return func(w *Worker) error {
		if empty <= 0 || fatal <= 0 {
			return errors.New("backoffs must be positive")
		}
		w.emptyBackoff = empty
		w.fatalBackoff = fatal
		return nil
	}
}

// NewWorker creates an ingestion worker over the given queue and pipeline.
func NewWorker(queue storage.WorkQueue, pipeline *Pipeline, opts ...WorkerOption) (*Worker, error) {
	w := &Worker{
		queue:        queue,
		pipeline:     pipeline,
		emptyBackoff: DefaultEmptyBackoff,
		fatalBackoff: DefaultFatalBackoff,
		logger:       slog.Default().With("component", "worker"),
	}
	for _, opt := range opts {
		if err := opt(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Run polls the queue until ctx is cancelled or a pipeline run fails
// unrecoverably. A failed message is released back to the queue before the
// worker stops, so a restarted process picks it up again.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started")
	for {
		msg, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, storage.ErrQueueEmpty) {
				if err := sleepCtx(ctx, w.emptyBackoff); err != nil {
					return err
				}
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return w.fatal(ctx, 0, fmt.Errorf("receive message: %w", err))
		}

		task, err := parseTask(msg.Body)
		if err != nil {
			return w.fatal(ctx, msg.ID, err)
		}

		w.logger.Info("processing file", "filename", task.Filename, "scan", task.VScan)
		if task.VScan {
			err = w.pipeline.RunScan(ctx, task.Filename)
		} else {
			err = w.pipeline.Run(ctx, task.Filename)
		}
		if err != nil {
			return w.fatal(ctx, msg.ID, err)
		}

		if err := w.queue.Delete(ctx, msg.ID); err != nil {
			return w.fatal(ctx, 0, fmt.Errorf("delete message: %w", err))
		}
		w.logger.Info("processed file", "filename", task.Filename)
	}
}

// fatal logs the error, releases the in-flight message, waits the fatal
// backoff, and surfaces the error to stop the worker.
func (w *Worker) fatal(ctx context.Context, msgID uint64, err error) error {
	w.logger.Error("unrecoverable ingestion error", "err", err)
	if msgID != 0 {
		if relErr := w.queue.Release(context.WithoutCancel(ctx), msgID); relErr != nil {
			w.logger.Warn("failed to release message", "id", msgID, "err", relErr)
		}
	}
	if sleepErr := sleepCtx(ctx, w.fatalBackoff); sleepErr != nil {
		return errors.Join(err, sleepErr)
	}
	return err
}

// parseTask strictly decodes a queue message body.
func parseTask(body []byte) (*core.QueueMessage, error) {
	var task core.QueueMessage
	if err := json.Unmarshal(body, &task); err != nil {
		return nil, fmt.Errorf("parse queue message: %w", err)
	}
	if err := task.Validate(); err != nil {
		return nil, fmt.Errorf("invalid queue message: %w", err)
	}
	return &task, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
