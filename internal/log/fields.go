package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldConcertID   = "concert_id"
	FieldExpenseID   = "expense_id"
	FieldInvoiceID   = "invoice_id"
	FieldMusician    = "musician"
	FieldAmount      = "amount"
	FieldDate        = "date"
	FieldLocation    = "location"
	FieldTxType      = "transaction_type"
	FieldTxCount     = "transaction_count"
	FieldGrossAmount = "gross_amount"
	FieldQueue       = "queue"
	FieldExchange    = "exchange"
	FieldSheetsRef   = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentPayroll = "payroll"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentAuth    = "auth"
	ComponentTrace   = "trace"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpCalculate = "calculate"
	OpExport    = "export"
	OpReconcile = "reconcile"
	OpValidate  = "validate"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)
