package renderer

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/df07/go-subsurface-lut/pkg/bake"
	"github.com/df07/go-subsurface-lut/pkg/integrator"
)

// TileTask represents a tile integration task for the worker pool
type TileTask struct {
	Tile   *Tile
	TaskID int // Index of the tile, used to match results
	Config bake.Config
	Grid   *ResultGrid // Shared grid to write to
}

// TileResult contains the result from integrating a tile
type TileResult struct {
	TaskID int
	Stats  TileStats
	Error  error
}

// WorkerPool manages parallel tile integration
type WorkerPool struct {
	taskQueue   chan TileTask
	resultQueue chan TileResult
	workers     []*Worker
	numWorkers  int
	group       errgroup.Group
}

// Worker handles individual tile integration tasks
type Worker struct {
	ID          int
	renderer    *TileRenderer
	taskQueue   chan TileTask
	resultQueue chan TileResult
}

// NewWorkerPool creates a worker pool with the specified number of workers.
// The queues are buffered for maxTiles so workers never block on results.
func NewWorkerPool(kernel integrator.Kernel, maxTiles, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	wp := &WorkerPool{
		taskQueue:   make(chan TileTask, maxTiles),
		resultQueue: make(chan TileResult, maxTiles),
		numWorkers:  numWorkers,
	}

	// Create workers
	for i := 0; i < numWorkers; i++ {
		worker := &Worker{
			ID:          i,
			renderer:    NewTileRenderer(kernel),
			taskQueue:   wp.taskQueue,
			resultQueue: wp.resultQueue,
		}
		wp.workers = append(wp.workers, worker)
	}

	return wp
}

// Start begins all workers
func (wp *WorkerPool) Start() {
	for _, worker := range wp.workers {
		wp.group.Go(worker.run)
	}
}

// Stop gracefully shuts down all workers
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue) // No more tasks
	_ = wp.group.Wait() // Workers report failures per task, never through the group
	close(wp.resultQueue)
}

// SubmitTask submits a tile task to the worker pool
func (wp *WorkerPool) SubmitTask(task TileTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed tile result
func (wp *WorkerPool) GetResult() (TileResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

// run is the main worker loop
func (w *Worker) run() error {
	for task := range w.taskQueue {
		w.resultQueue <- w.renderTask(task)
	}
	return nil
}

// renderTask integrates one tile, turning a kernel panic into a task error
func (w *Worker) renderTask(task TileTask) (result TileResult) {
	result.TaskID = task.TaskID
	defer func() {
		if r := recover(); r != nil {
			result.Error = fmt.Errorf("worker %d: tile %d at %v: kernel panic: %v", w.ID, task.Tile.ID, task.Tile.Bounds, r)
		}
	}()

	// Each tile has non-overlapping bounds, so writing the shared grid is safe
	result.Stats = w.renderer.RenderTileBounds(task.Tile.Bounds, task.Config, task.Grid)
	return result
}
