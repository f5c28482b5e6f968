// Package hal is the narrow hardware abstraction the frame core is written
// against. The production implementation lives in hal/vulkan; hal/haltest
// provides a recording in-memory backend for tests.
package hal

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

var (
	// ErrOutOfDate is returned by acquire or present when the swapchain no
	// longer matches the surface and must be recreated.
	ErrOutOfDate = errors.New("swapchain out of date")
	// ErrSuboptimal is returned by present when the image was presented but
	// the swapchain should be recreated.
	ErrSuboptimal = errors.New("swapchain suboptimal")
	// ErrUnsupportedWindow is returned when a backend cannot build a surface
	// from the window handle it was given.
	ErrUnsupportedWindow = errors.New("unsupported window handle")
)

type Format int32

const (
	FormatUndefined                  Format = 0
	FormatR8G8B8A8UnsignedNormalized Format = 37
	FormatB8G8R8A8UnsignedNormalized Format = 44
	FormatB8G8R8A8SRGB               Format = 50
)

type ColorSpace int32

const ColorSpaceSRGBNonlinear ColorSpace = 0

type PresentMode int32

const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFIFO
	PresentModeFIFORelaxed
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "Immediate"
	case PresentModeMailbox:
		return "Mailbox"
	case PresentModeFIFO:
		return "FIFO"
	case PresentModeFIFORelaxed:
		return "FIFORelaxed"
	}
	return fmt.Sprintf("PresentMode(%d)", int32(m))
}

type QueueFlags uint32

const (
	QueueGraphics QueueFlags = 1 << iota
	QueueCompute
	QueueTransfer
	QueueSparseBinding
)

type PipelineStage uint32

const PipelineStageColorAttachmentOutput PipelineStage = 0x00000400

type ImageAspect uint32

const ImageAspectColor ImageAspect = 0x00000001

// UndefinedDimension is the value the binding reports for an all-ones
// (0xFFFFFFFF) extent dimension.
const UndefinedDimension = -1

type Extent2D struct {
	Width  int
	Height int
}

// Undefined reports whether the surface left the extent up to the swapchain.
func (e Extent2D) Undefined() bool {
	return e.Width == UndefinedDimension
}

// Version is a packed Vulkan API version.
type Version uint32

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", (v>>22)&0x7f, (v>>12)&0x3ff, v&0xfff)
}

type SurfaceCapabilities struct {
	MinImageCount int
	// MaxImageCount is zero when the surface imposes no upper bound.
	MaxImageCount  int
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D
}

type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

type QueueFamily struct {
	Flags      QueueFlags
	QueueCount int
}

type MemoryType struct {
	PropertyFlags uint32
	HeapIndex     int
}

type MemoryHeap struct {
	Size uint64
}

type MemoryProperties struct {
	Types []MemoryType
	Heaps []MemoryHeap
}

type Features struct {
	SamplerAnisotropy  bool
	GeometryShader     bool
	TessellationShader bool
	FillModeNonSolid   bool
	WideLines          bool
}

type PhysicalDeviceProperties struct {
	Name              string
	VendorID          uint32
	DeviceID          uint32
	APIVersion        Version
	PipelineCacheUUID uuid.UUID
}

type Severity int

const (
	SeverityVerbose Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
)

type DebugMessage struct {
	Severity Severity
	Type     string
	Message  string
}

// DebugCallback receives validation messages. Backends never abort the
// driver call that produced the message.
type DebugCallback func(msg DebugMessage)

type Backend interface {
	AvailableLayers() ([]string, error)
	AvailableExtensions() ([]string, error)
	CreateInstance(desc InstanceDescriptor) (Instance, error)
}

type InstanceDescriptor struct {
	ApplicationName      string
	EngineName           string
	Layers               []string
	Extensions           []string
	EnumeratePortability bool
}

type Instance interface {
	CreateDebugMessenger(callback DebugCallback) (DebugMessenger, error)
	EnumeratePhysicalDevices() ([]PhysicalDevice, error)
	CreateSurface(window any) (Surface, error)
	Destroy()
}

type DebugMessenger interface {
	Destroy()
}

type PhysicalDevice interface {
	Properties() (PhysicalDeviceProperties, error)
	Extensions() ([]string, error)
	QueueFamilies() []QueueFamily
	Features() Features
	MemoryProperties() MemoryProperties
	SurfaceSupport(surface Surface, family int) (bool, error)
	SurfaceCapabilities(surface Surface) (SurfaceCapabilities, error)
	SurfaceFormats(surface Surface) ([]SurfaceFormat, error)
	CreateDevice(desc DeviceDescriptor) (Device, error)
}

type QueueRequest struct {
	Family     int
	Priorities []float32
}

type DeviceDescriptor struct {
	Queues     []QueueRequest
	Extensions []string
}

type Device interface {
	Queue(family, index int) Queue
	WaitIdle() error
	CreateSwapchain(desc SwapchainDescriptor) (Swapchain, error)
	CreateImageView(desc ImageViewDescriptor) (ImageView, error)
	CreateRenderPass(desc RenderPassDescriptor) (RenderPass, error)
	CreateFramebuffer(desc FramebufferDescriptor) (Framebuffer, error)
	CreateCommandPool(desc CommandPoolDescriptor) (CommandPool, error)
	CreateFence(signaled bool) (Fence, error)
	CreateSemaphore() (Semaphore, error)
	Destroy()
}

type SubmitInfo struct {
	CommandBuffers   []CommandBuffer
	WaitSemaphores   []Semaphore
	WaitStages       []PipelineStage
	SignalSemaphores []Semaphore
}

type PresentInfo struct {
	Swapchain      Swapchain
	ImageIndex     int
	WaitSemaphores []Semaphore
}

type Queue interface {
	// Submit enqueues work; fence may be nil.
	Submit(info SubmitInfo, fence Fence) error
	Present(info PresentInfo) error
	WaitIdle() error
}

type Surface interface {
	Destroy()
}

// SwapchainDescriptor always produces exclusive, opaque, color attachment
// images.
type SwapchainDescriptor struct {
	Surface       Surface
	MinImageCount int
	Format        SurfaceFormat
	Extent        Extent2D
	ArrayLayers   int
	PresentMode   PresentMode
	Clipped       bool
}

// Image is a presentable image owned by its swapchain.
type Image any

type Swapchain interface {
	Images() ([]Image, error)
	// AcquireNextImage blocks until an image is available and returns its
	// index. signal is signaled once the image may be written.
	AcquireNextImage(signal Semaphore) (int, error)
	Destroy()
}

type ImageViewDescriptor struct {
	Image       Image
	Format      Format
	Aspect      ImageAspect
	MipLevels   int
	ArrayLayers int
}

type ImageView interface {
	Destroy()
}

// RenderPassDescriptor describes a single subpass, single color attachment
// pass that clears on load and hands the image to presentation.
type RenderPassDescriptor struct {
	ColorFormat Format
}

type RenderPass interface {
	Destroy()
}

type FramebufferDescriptor struct {
	RenderPass  RenderPass
	Attachments []ImageView
	Extent      Extent2D
	Layers      int
}

type Framebuffer interface {
	Destroy()
}

type CommandPoolDescriptor struct {
	QueueFamily  int
	ResetBuffers bool
}

type CommandBufferLevel int

const (
	CommandBufferLevelPrimary CommandBufferLevel = iota
	CommandBufferLevelSecondary
)

type CommandPool interface {
	Allocate(level CommandBufferLevel, count int) ([]CommandBuffer, error)
	Free(buffers ...CommandBuffer)
	Destroy()
}

type CommandBufferUsage uint32

const (
	CommandBufferUsageOneTimeSubmit CommandBufferUsage = 1 << iota
	CommandBufferUsageRenderPassContinue
	CommandBufferUsageSimultaneousUse
)

type InheritanceInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Subpass     int
}

type BeginInfo struct {
	Usage       CommandBufferUsage
	Inheritance *InheritanceInfo
}

type RenderPassBeginInfo struct {
	RenderPass  RenderPass
	Framebuffer Framebuffer
	Area        Extent2D
	ClearColor  [4]float32
}

type CommandBuffer interface {
	Begin(info BeginInfo) error
	End() error
	Reset(releaseResources bool) error
	BeginRenderPass(info RenderPassBeginInfo) error
	EndRenderPass()
}

type Fence interface {
	// Wait blocks with no timeout.
	Wait() error
	Reset() error
	Destroy()
}

type Semaphore interface {
	Destroy()
}
