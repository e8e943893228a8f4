package domain

// FailMode — сконфигурированная категория исхода для банка (демо-симуляция).
type FailMode string

const (
	FailNone        FailMode = "none"
	FailServerError FailMode = "server_error"
	FailTimeout     FailMode = "timeout"
)

// Bank — запись реестра. Неизменяема после старта процесса.
type Bank struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	FailMode FailMode `json:"-"` // Наружу режим отказа не отдаем
}
