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


package ingestion_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pedanticgeek/docsearch/core"
	"github.com/pedanticgeek/docsearch/extract"
	"github.com/pedanticgeek/docsearch/ingestion"
	"github.com/pedanticgeek/docsearch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newWorker(t *testing.T, env *pipelineEnv) *ingestion.Worker {
	t.Helper()
	worker, err := ingestion.NewWorker(env.queue, env.pipeline,
		ingestion.WithBackoffs(time.Millisecond, time.Millisecond))
	require.NoError(t, err)
	return worker
}

func enqueue(t *testing.T, env *pipelineEnv, filename string, scan bool) {
	t.Helper()
	body, err := json.Marshal(core.QueueMessage{
		Filename:   filename,
		Sourcefile: core.SourcefileKey(filename),
		ID:         string(core.FileIDFromName(filename)),
		VScan:      scan,
	})
	require.NoError(t, err)
	require.NoError(t, env.queue.Send(context.Background(), body))
}

// runUntil runs the worker in the background until check passes, then
// cancels and returns the worker's error.
func runUntil(t *testing.T, worker *ingestion.Worker, check func() bool) error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	deadline := time.After(5 * time.Second)
	for !check() {
		select {
		case err := <-done:
			return err
		case <-deadline:
			t.Fatal("worker did not reach expected state")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()
	return <-done
}

func TestWorkerProcessesMessageAndDeletes(t *testing.T) {
	env := newPipelineEnv(t)
	env.putSource(t, "report.pdf")
	env.analyzer.pages = pagesOf(500)
	enqueue(t, env, "report.pdf", false)

	worker := newWorker(t, env)
	err := runUntil(t, worker, func() bool {
		_, ok := env.idx.Section(core.FileIDFromName("report.pdf").SummaryID())
		return ok
	})
	assert.ErrorIs(t, err, context.Canceled)

	// The message was settled: nothing left to receive.
	_, recvErr := env.queue.Receive(context.Background())
	assert.ErrorIs(t, recvErr, storage.ErrQueueEmpty)
}

func TestWorkerDispatchesScanMode(t *testing.T) {
	env := newPipelineEnv(t)
	env.putSource(t, "deck.pdf")
	env.renderer.images = []extract.PageImage{{PageNum: 0, PNG: []byte("png")}}
	enqueue(t, env, "deck.pdf", true)

	worker := newWorker(t, env)
	fileID := core.FileIDFromName("deck.pdf")
	err := runUntil(t, worker, func() bool {
		_, ok := env.idx.Section(fileID.SummaryID())
		return ok
	})
	assert.ErrorIs(t, err, context.Canceled)

	// The scan category proves the v-scan flag selected the scan variant.
	summary, ok := env.idx.Section(fileID.SummaryID())
	require.True(t, ok)
	assert.Equal(t, "Business Summary Document", summary.Category)
}

func TestWorkerBacksOffOnEmptyQueue(t *testing.T) {
	env := newPipelineEnv(t)
	worker := newWorker(t, env)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := worker.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorkerStopsOnPipelineFailure(t *testing.T) {
	env := newPipelineEnv(t)
	// No source blob uploaded: the pipeline fails unrecoverably.
	enqueue(t, env, "missing.pdf", false)

	worker := newWorker(t, env)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := worker.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// The failed message is released for the next worker incarnation.
	msg, recvErr := env.queue.Receive(context.Background())
	require.NoError(t, recvErr)
	assert.Contains(t, string(msg.Body), "missing.pdf")
}

func TestWorkerStopsOnMalformedMessage(t *testing.T) {
	env := newPipelineEnv(t)
	require.NoError(t, env.queue.Send(context.Background(), []byte("not json")))

	worker := newWorker(t, env)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := worker.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse queue message")
}

func TestWorkerRejectsMessageMissingFields(t *testing.T) {
	env := newPipelineEnv(t)
	body, err := json.Marshal(map[string]any{"sourcefile": "sourcefiles/x.pdf", "v-scan": false})
	require.NoError(t, err)
	require.NoError(t, env.queue.Send(context.Background(), body))

	worker := newWorker(t, env)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	runErr := worker.Run(ctx)
	require.Error(t, runErr)
	assert.ErrorIs(t, runErr, core.ErrMissingField)
}
