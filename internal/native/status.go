package native

import "fmt"

// StatusCode is a native status code returned by the underlying compute
// API, generalizing the teacher's syscall.Errno into the OpenCL-class
// status space. Values match the canonical cl_int error codes so an API
// implementation can pass them straight through without translation.
type StatusCode int32

const (
	StatusSuccess                                 StatusCode = 0
	StatusDeviceNotFound                          StatusCode = -1
	StatusDeviceNotAvailable                      StatusCode = -2
	StatusCompilerNotAvailable                    StatusCode = -3
	StatusMemObjectAllocationFailure              StatusCode = -4
	StatusOutOfResources                          StatusCode = -5
	StatusOutOfHostMemory                         StatusCode = -6
	StatusProfilingInfoNotAvailable               StatusCode = -7
	StatusMemCopyOverlap                          StatusCode = -8
	StatusImageFormatMismatch                     StatusCode = -9
	StatusImageFormatNotSupported                 StatusCode = -10
	StatusBuildProgramFailure                     StatusCode = -11
	StatusMapFailure                              StatusCode = -12
	StatusMisalignedSubBufferOffset               StatusCode = -13
	StatusExecStatusErrorForEventsInWaitList      StatusCode = -14
	StatusCompileProgramFailure                   StatusCode = -15
	StatusLinkerNotAvailable                      StatusCode = -16
	StatusLinkProgramFailure                      StatusCode = -17
	StatusDevicePartitionFailed                   StatusCode = -18
	StatusKernelArgInfoNotAvailable               StatusCode = -19
	StatusInvalidValue                            StatusCode = -30
	StatusInvalidDeviceType                       StatusCode = -31
	StatusInvalidPlatform                         StatusCode = -32
	StatusInvalidDevice                           StatusCode = -33
	StatusInvalidContext                          StatusCode = -34
	StatusInvalidQueueProperties                  StatusCode = -35
	StatusInvalidCommandQueue                     StatusCode = -36
	StatusInvalidHostPtr                          StatusCode = -37
	StatusInvalidMemObject                        StatusCode = -38
	StatusInvalidImageFormatDescriptor            StatusCode = -39
	StatusInvalidImageSize                        StatusCode = -40
	StatusInvalidSampler                          StatusCode = -41
	StatusInvalidBinary                           StatusCode = -42
	StatusInvalidBuildOptions                     StatusCode = -43
	StatusInvalidProgram                          StatusCode = -44
	StatusInvalidProgramExecutable                StatusCode = -45
	StatusInvalidKernelName                       StatusCode = -46
	StatusInvalidKernelDefinition                 StatusCode = -47
	StatusInvalidKernel                           StatusCode = -48
	StatusInvalidArgIndex                         StatusCode = -49
	StatusInvalidArgValue                         StatusCode = -50
	StatusInvalidArgSize                          StatusCode = -51
	StatusInvalidKernelArgs                       StatusCode = -52
	StatusInvalidWorkDimension                    StatusCode = -53
	StatusInvalidWorkGroupSize                    StatusCode = -54
	StatusInvalidWorkItemSize                     StatusCode = -55
	StatusInvalidGlobalOffset                     StatusCode = -56
	StatusInvalidEventWaitList                    StatusCode = -57
	StatusInvalidEvent                            StatusCode = -58
	StatusInvalidOperation                        StatusCode = -59
	StatusInvalidGLObject                         StatusCode = -60
	StatusInvalidBufferSize                       StatusCode = -61
	StatusInvalidMipLevel                         StatusCode = -62
	StatusInvalidGlobalWorkSize                   StatusCode = -63
	StatusInvalidProperty                         StatusCode = -64
	StatusInvalidImageDescriptor                  StatusCode = -65
	StatusInvalidCompilerOptions                  StatusCode = -66
	StatusInvalidLinkerOptions                    StatusCode = -67
	StatusInvalidDevicePartitionCount             StatusCode = -68
	StatusInvalidPipeSize                         StatusCode = -69
	StatusInvalidDeviceQueue                      StatusCode = -70
	StatusInvalidSpecID                           StatusCode = -71
	StatusMaxSizeRestrictionExceeded               StatusCode = -72
)

// statusNames is the exhaustive, named portion of the status space. Any
// code not present here renders as CL_UNKNOWN(code) in String, mirroring
// the teacher's mapErrnoToCode default case.
var statusNames = map[StatusCode]string{
	StatusSuccess:                            "CL_SUCCESS",
	StatusDeviceNotFound:                     "CL_DEVICE_NOT_FOUND",
	StatusDeviceNotAvailable:                 "CL_DEVICE_NOT_AVAILABLE",
	StatusCompilerNotAvailable:                "CL_COMPILER_NOT_AVAILABLE",
	StatusMemObjectAllocationFailure:          "CL_MEM_OBJECT_ALLOCATION_FAILURE",
	StatusOutOfResources:                      "CL_OUT_OF_RESOURCES",
	StatusOutOfHostMemory:                     "CL_OUT_OF_HOST_MEMORY",
	StatusProfilingInfoNotAvailable:           "CL_PROFILING_INFO_NOT_AVAILABLE",
	StatusMemCopyOverlap:                      "CL_MEM_COPY_OVERLAP",
	StatusImageFormatMismatch:                 "CL_IMAGE_FORMAT_MISMATCH",
	StatusImageFormatNotSupported:             "CL_IMAGE_FORMAT_NOT_SUPPORTED",
	StatusBuildProgramFailure:                 "CL_BUILD_PROGRAM_FAILURE",
	StatusMapFailure:                          "CL_MAP_FAILURE",
	StatusMisalignedSubBufferOffset:           "CL_MISALIGNED_SUB_BUFFER_OFFSET",
	StatusExecStatusErrorForEventsInWaitList:  "CL_EXEC_STATUS_ERROR_FOR_EVENTS_IN_WAIT_LIST",
	StatusCompileProgramFailure:               "CL_COMPILE_PROGRAM_FAILURE",
	StatusLinkerNotAvailable:                  "CL_LINKER_NOT_AVAILABLE",
	StatusLinkProgramFailure:                  "CL_LINK_PROGRAM_FAILURE",
	StatusDevicePartitionFailed:               "CL_DEVICE_PARTITION_FAILED",
	StatusKernelArgInfoNotAvailable:           "CL_KERNEL_ARG_INFO_NOT_AVAILABLE",
	StatusInvalidValue:                        "CL_INVALID_VALUE",
	StatusInvalidDeviceType:                   "CL_INVALID_DEVICE_TYPE",
	StatusInvalidPlatform:                     "CL_INVALID_PLATFORM",
	StatusInvalidDevice:                       "CL_INVALID_DEVICE",
	StatusInvalidContext:                      "CL_INVALID_CONTEXT",
	StatusInvalidQueueProperties:              "CL_INVALID_QUEUE_PROPERTIES",
	StatusInvalidCommandQueue:                 "CL_INVALID_COMMAND_QUEUE",
	StatusInvalidHostPtr:                      "CL_INVALID_HOST_PTR",
	StatusInvalidMemObject:                    "CL_INVALID_MEM_OBJECT",
	StatusInvalidImageFormatDescriptor:        "CL_INVALID_IMAGE_FORMAT_DESCRIPTOR",
	StatusInvalidImageSize:                    "CL_INVALID_IMAGE_SIZE",
	StatusInvalidSampler:                      "CL_INVALID_SAMPLER",
	StatusInvalidBinary:                       "CL_INVALID_BINARY",
	StatusInvalidBuildOptions:                 "CL_INVALID_BUILD_OPTIONS",
	StatusInvalidProgram:                      "CL_INVALID_PROGRAM",
	StatusInvalidProgramExecutable:            "CL_INVALID_PROGRAM_EXECUTABLE",
	StatusInvalidKernelName:                   "CL_INVALID_KERNEL_NAME",
	StatusInvalidKernelDefinition:             "CL_INVALID_KERNEL_DEFINITION",
	StatusInvalidKernel:                       "CL_INVALID_KERNEL",
	StatusInvalidArgIndex:                     "CL_INVALID_ARG_INDEX",
	StatusInvalidArgValue:                     "CL_INVALID_ARG_VALUE",
	StatusInvalidArgSize:                      "CL_INVALID_ARG_SIZE",
	StatusInvalidKernelArgs:                   "CL_INVALID_KERNEL_ARGS",
	StatusInvalidWorkDimension:                "CL_INVALID_WORK_DIMENSION",
	StatusInvalidWorkGroupSize:                "CL_INVALID_WORK_GROUP_SIZE",
	StatusInvalidWorkItemSize:                 "CL_INVALID_WORK_ITEM_SIZE",
	StatusInvalidGlobalOffset:                 "CL_INVALID_GLOBAL_OFFSET",
	StatusInvalidEventWaitList:                "CL_INVALID_EVENT_WAIT_LIST",
	StatusInvalidEvent:                        "CL_INVALID_EVENT",
	StatusInvalidOperation:                    "CL_INVALID_OPERATION",
	StatusInvalidGLObject:                     "CL_INVALID_GL_OBJECT",
	StatusInvalidBufferSize:                   "CL_INVALID_BUFFER_SIZE",
	StatusInvalidMipLevel:                     "CL_INVALID_MIP_LEVEL",
	StatusInvalidGlobalWorkSize:               "CL_INVALID_GLOBAL_WORK_SIZE",
	StatusInvalidProperty:                     "CL_INVALID_PROPERTY",
	StatusInvalidImageDescriptor:              "CL_INVALID_IMAGE_DESCRIPTOR",
	StatusInvalidCompilerOptions:              "CL_INVALID_COMPILER_OPTIONS",
	StatusInvalidLinkerOptions:                "CL_INVALID_LINKER_OPTIONS",
	StatusInvalidDevicePartitionCount:         "CL_INVALID_DEVICE_PARTITION_COUNT",
	StatusInvalidPipeSize:                     "CL_INVALID_PIPE_SIZE",
	StatusInvalidDeviceQueue:                  "CL_INVALID_DEVICE_QUEUE",
	StatusInvalidSpecID:                       "CL_INVALID_SPEC_ID",
	StatusMaxSizeRestrictionExceeded:          "CL_MAX_SIZE_RESTRICTION_EXCEEDED",
}

// String renders the status the way a native display would: the named
// constant when known, otherwise the bare numeric code. Every code must be
// representable (spec.md §4.10), so this never panics.
func (s StatusCode) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("CL_UNKNOWN(%d)", int32(s))
}

// Known reports whether s has a named mapping.
func (s StatusCode) Known() bool {
	_, ok := statusNames[s]
	return ok
}
