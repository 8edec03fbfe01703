package constants

type ContextKey string

const (
	TxKey      ContextKey = "tx"
	PoolKey    ContextKey = "pool"
	ActorIDKey ContextKey = "actor_id"
	LoggerKey  ContextKey = "logger"
)
