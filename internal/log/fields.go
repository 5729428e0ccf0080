package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldReport     = "report"
	FieldFormat     = "format"
	FieldRows       = "rows"
	FieldKey        = "key"
	FieldProductID  = "product_id"
	FieldDelta      = "delta"
	FieldStock      = "stock"
	FieldTableID    = "table_id"
	FieldSessionID  = "session_id"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentReport    = "report"
	ComponentStore     = "store"
	ComponentStock     = "stock"
	ComponentSession   = "session"
	ComponentWorker    = "worker"
	ComponentAMQP      = "amqp"
	ComponentCache     = "cache"
	ComponentBackend   = "backend"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTemplate  = "template"
)

// Operations
const (
	OpRead     = "read"
	OpRender   = "render"
	OpExport   = "export"
	OpStockIn  = "stock_in"
	OpStockOut = "stock_out"
	OpCreate   = "create"
	OpDelete   = "delete"
	OpRefresh  = "refresh"
	OpStart    = "start"
	OpExtend   = "extend"
	OpTransfer = "transfer"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// LogFields builds structured attributes.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithStockChange records a catalog mutation.
func (f LogFields) WithStockChange(productID string, delta, stock int) LogFields {
	f[FieldProductID] = productID
	f[FieldDelta] = delta
	f[FieldStock] = stock
	return f
}

// WithReport records which report was produced and in which format.
func (f LogFields) WithReport(name, format string, rows int) LogFields {
	f[FieldReport] = name
	f[FieldFormat] = format
	f[FieldRows] = rows
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to slog key/value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
