package commands

import (
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/mocks"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

func readySubmitter(ctrl *gomock.Controller) (*SingleTime, *mocks.MockDevice, *mocks.MockQueue, *mocks.MockCommandBuffer) {
	device := mocks.NewMockDevice(ctrl)
	commandPool := mocks.NewMockCommandPool(ctrl)
	queue := mocks.NewMockQueue(ctrl)
	commandBuffer := mocks.NewMockCommandBuffer(ctrl)

	device.EXPECT().AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}).Return([]core1_0.CommandBuffer{commandBuffer}, core1_0.VKSuccess, nil)
	device.EXPECT().FreeCommandBuffers([]core1_0.CommandBuffer{commandBuffer})

	logger := slog.New(slog.NewTextHandler(io.Discard))
	return NewSingleTime(logger, device, commandPool, queue), device, queue, commandBuffer
}

func TestSingleTimeSubmit(t *testing.T) {
	ctrl := gomock.NewController(t)

	submitter, _, queue, commandBuffer := readySubmitter(ctrl)

	gomock.InOrder(
		commandBuffer.EXPECT().Begin(core1_0.CommandBufferBeginInfo{
			Flags: core1_0.CommandBufferUsageOneTimeSubmit,
		}).Return(core1_0.VKSuccess, nil),
		commandBuffer.EXPECT().End().Return(core1_0.VKSuccess, nil),
		queue.EXPECT().Submit(nil, []core1_0.SubmitInfo{
			{CommandBuffers: []core1_0.CommandBuffer{commandBuffer}},
		}).Return(core1_0.VKSuccess, nil),
		queue.EXPECT().WaitIdle().Return(core1_0.VKSuccess, nil),
	)

	recorded := false
	err := submitter.Submit(func(cb core1_0.CommandBuffer) error {
		require.Equal(t, commandBuffer, cb)
		recorded = true
		return nil
	})
	require.NoError(t, err)
	require.True(t, recorded)
}

func TestSingleTimeRecordFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	submitter, _, _, commandBuffer := readySubmitter(ctrl)
	commandBuffer.EXPECT().Begin(gomock.Any()).Return(core1_0.VKSuccess, nil)

	recordErr := errors.New("record failed")
	err := submitter.Submit(func(cb core1_0.CommandBuffer) error {
		return recordErr
	})
	require.ErrorIs(t, err, recordErr)
}

func TestSingleTimeSubmitFailure(t *testing.T) {
	ctrl := gomock.NewController(t)

	submitter, _, queue, commandBuffer := readySubmitter(ctrl)
	commandBuffer.EXPECT().Begin(gomock.Any()).Return(core1_0.VKSuccess, nil)
	commandBuffer.EXPECT().End().Return(core1_0.VKSuccess, nil)
	queue.EXPECT().Submit(nil, gomock.Any()).Return(core1_0.VKErrorDeviceLost, core1_0.VKErrorDeviceLost.ToError())

	err := submitter.Submit(func(cb core1_0.CommandBuffer) error { return nil })
	require.Error(t, err)
}
