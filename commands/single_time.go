package commands

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"golang.org/x/exp/slog"
)

// Submitter records commands into a command buffer, submits it and blocks until the device has
// finished executing it
type Submitter interface {
	Submit(record func(commandBuffer core1_0.CommandBuffer) error) error
}

// SingleTime submits each recording in its own primary command buffer, allocated from
// commandPool and freed once the queue is idle
type SingleTime struct {
	logger      *slog.Logger
	device      core1_0.Device
	commandPool core1_0.CommandPool
	queue       core1_0.Queue
}

var _ Submitter = &SingleTime{}

func NewSingleTime(logger *slog.Logger, device core1_0.Device, commandPool core1_0.CommandPool, queue core1_0.Queue) *SingleTime {
	return &SingleTime{
		logger:      logger,
		device:      device,
		commandPool: commandPool,
		queue:       queue,
	}
}

func (s *SingleTime) Submit(record func(commandBuffer core1_0.CommandBuffer) error) error {
	s.logger.Debug("SingleTime::Submit")

	commandBuffers, _, err := s.device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        s.commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return errors.Wrap(err, "failed to allocate a single-time command buffer")
	}
	defer s.device.FreeCommandBuffers(commandBuffers)

	commandBuffer := commandBuffers[0]
	_, err = commandBuffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageOneTimeSubmit,
	})
	if err != nil {
		return errors.Wrap(err, "failed to begin a single-time command buffer")
	}

	err = record(commandBuffer)
	if err != nil {
		// The buffer is freed without being submitted, its recording state no longer matters
		return err
	}

	_, err = commandBuffer.End()
	if err != nil {
		return errors.Wrap(err, "failed to end a single-time command buffer")
	}

	_, err = s.queue.Submit(nil, []core1_0.SubmitInfo{
		{
			CommandBuffers: []core1_0.CommandBuffer{commandBuffer},
		},
	})
	if err != nil {
		return errors.Wrap(err, "failed to submit a single-time command buffer")
	}

	_, err = s.queue.WaitIdle()
	if err != nil {
		return errors.Wrap(err, "failed waiting for a single-time command buffer")
	}

	return nil
}
