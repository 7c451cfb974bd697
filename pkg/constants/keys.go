package constants

type contextKey string

const (
	LoggerKey        contextKey = "logger"
	RequestStart     contextKey = "requestStart"
	RequestIDKey     contextKey = "requestID"
	AppKey           contextKey = "app"
	DBKey            contextKey = "db"
	TxKey            contextKey = "tx"
	UserKey          contextKey = "user"
	SessionKey       contextKey = "session"
	TenantContextKey contextKey = "tenantContext"
	ParamsKey        contextKey = "params"
	RLSModeKey       contextKey = "rlsMode"
)
