package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "quantumpay"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanLiveEvents — каждый записанный ConnectionEvent в JSON.
	RedisChanLiveEvents = RedisNamespace + ":events:live"
)

// BankChannel — канал событий конкретного банка (для точечной подписки).
func BankChannel(bankID string) string {
	return fmt.Sprintf("%s:events:bank:%s", RedisNamespace, bankID)
}
