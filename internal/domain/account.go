package domain

// Balances — суммы в валюте счета, округлены до центов.
type Balances struct {
	Available float64 `json:"available"`
	Current   float64 `json:"current"`
}

// Account — синтетический счет, создается заново на каждое успешное подключение.
type Account struct {
	AccountID   string   `json:"accountId"`
	Institution string   `json:"institution"`
	Mask        string   `json:"mask"` // Маскированный номер, видны последние 4 цифры
	Balances    Balances `json:"balances"`
}
