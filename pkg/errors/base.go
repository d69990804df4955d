package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// OK represents a successful operation.
var OK = Register(&Errno{
	Code:      0,
	HTTP:      http.StatusOK,
	GRPCCode:  codes.OK,
	MessageEN: "Success",
	MessageZH: "成功",
})

// ============================================================================
// Request Errors (Category: 01)
// ============================================================================

var (
	// ErrBadRequest indicates a malformed request.
	ErrBadRequest = NewRequestErr(ServiceCommon, 0, "Bad request", "请求错误")

	// ErrInvalidParam indicates an invalid parameter.
	ErrInvalidParam = NewRequestErr(ServiceCommon, 1, "Invalid parameter", "参数无效")

	// ErrRequestTooLarge indicates a request body over the configured limit.
	ErrRequestTooLarge = NewBuilder(ServiceCommon, CategoryRequest, 2).
				HTTP(http.StatusRequestEntityTooLarge).
				GRPC(codes.InvalidArgument).
				Message("Request body too large", "请求体过大").
				MustBuild()
)

// ============================================================================
// Resource Errors (Category: 04)
// ============================================================================

var (
	// ErrNotFound indicates a generic missing resource.
	ErrNotFound = NewNotFoundErr(ServiceCommon, 0, "Resource not found", "资源不存在")

	// ErrRouteNotFound indicates an unknown HTTP route.
	ErrRouteNotFound = NewNotFoundErr(ServiceCommon, 4, "Route not found", "路由不存在")
)

// ============================================================================
// Internal Errors (Category: 07)
// ============================================================================

var (
	// ErrInternal is the fallback for unclassified failures.
	ErrInternal = NewInternalErr(ServiceCommon, 0, "Internal server error", "服务器内部错误")

	// ErrPanic indicates a recovered panic.
	ErrPanic = NewInternalErr(ServiceCommon, 2, "Internal server error", "服务器内部错误")
)

// ============================================================================
// Infrastructure Errors
// ============================================================================

var (
	// ErrDatabase indicates a database failure.
	ErrDatabase = NewBuilder(ServiceInfraDB, CategoryDatabase, 0).
			Message("Database error", "数据库错误").
			MustBuild()

	// ErrCache indicates a cache failure.
	ErrCache = NewBuilder(ServiceInfraCache, CategoryCache, 0).
			Message("Cache error", "缓存错误").
			MustBuild()

	// ErrServiceUnavailable indicates a dependency is down.
	ErrServiceUnavailable = NewUnavailableErr(ServiceCommon, 1, "Service unavailable", "服务不可用")

	// ErrTimeout indicates an operation exceeded its deadline.
	ErrTimeout = NewBuilder(ServiceCommon, CategoryTimeout, 0).
			HTTP(http.StatusGatewayTimeout).
			GRPC(codes.DeadlineExceeded).
			Message("Operation timeout", "操作超时").
			MustBuild()

	// ErrConfigInvalid indicates invalid configuration.
	ErrConfigInvalid = NewBuilder(ServiceCommon, CategoryConfig, 2).
				Message("Invalid configuration", "配置无效").
				MustBuild()
)
