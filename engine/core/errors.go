package core

import (
	"errors"
)

var (
	ErrSwapchainBooting = errors.New("swapchain resized or recreated, booting")
	ErrUnknown          = errors.New("unknown")

	ErrTextureNotFound  = errors.New("texture not found")
	ErrShapeNotFound    = errors.New("shape not found")
	ErrNoImageAvailable = errors.New("no swapchain image available")
	ErrFrameFinished    = errors.New("render frame already finished")
	ErrInvalidShape     = errors.New("invalid shape")
	ErrInvalidImage     = errors.New("invalid image")
	ErrSubmitFailed     = errors.New("device submission failed")
	ErrAllocationFailed = errors.New("resource allocation failed")
	ErrShaderCompile    = errors.New("shader compilation failed")
	ErrQueueFull        = errors.New("queue is full")
	ErrQueueEmpty       = errors.New("queue is empty")
	ErrEventLoopClosed  = errors.New("event loop closed")
)
