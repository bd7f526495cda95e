package system

import (
	"github.com/shirou/gopsutil/v3/mem"
)

// AvailableMemory reports the bytes the OS considers available, or 0 when
// it cannot tell.
func AvailableMemory() uint64 {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0
	}
	return vm.Available
}

// minBatchPerWorker keeps every worker busy for a few frames per batch.
const minBatchPerWorker = 4

// FrameBatchSize decides how many frames are rendered before they are
// flushed to the encoder. The whole clip is buffered when it fits in a
// quarter of available memory; otherwise batches are capped to that quarter,
// never going below a few frames per worker.
func FrameBatchSize(frameBytes, frameCount, workers int, available uint64) int {
	if frameCount <= 0 {
		return 0
	}
	if workers < 1 {
		workers = 1
	}
	floor := workers * minBatchPerWorker
	if floor > frameCount {
		floor = frameCount
	}
	if frameBytes <= 0 || available == 0 {
		return floor
	}

	budget := available / 4
	total := uint64(frameBytes) * uint64(frameCount)
	if total <= budget {
		return frameCount
	}

	n := int(budget / uint64(frameBytes))
	if n < floor {
		return floor
	}
	return n
}
