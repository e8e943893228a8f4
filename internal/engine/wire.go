package engine

import "github.com/xela07ax/quantumpay/internal/domain"

// Wire-модели HTTP и gRPC фасадов.
type (
	BankView struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	BanksResponse struct {
		Banks []BankView `json:"banks"`
	}
	ConnectRequest struct {
		BankID   string `json:"bankId"`
		BankCode string `json:"bankCode,omitempty"` // Имя поля из первой версии стенда
	}
	ConnectResponse struct {
		Success   bool            `json:"success"`
		SessionID string          `json:"sessionId,omitempty"`
		Account   *domain.Account `json:"account,omitempty"`
		Error     string          `json:"error,omitempty"`
		Message   string          `json:"message,omitempty"`
	}
	EventsRequest struct {
		Limit int `json:"limit,omitempty"`
	}
	EventsResponse struct {
		Events []domain.ConnectionEvent `json:"events"`
	}
)

// ID: bankId с откатом на legacy bankCode.
func (r ConnectRequest) ID() string {
	if r.BankID != "" {
		return r.BankID
	}
	return r.BankCode
}

func NewBanksResponse(banks []domain.Bank) BanksResponse {
	resp := BanksResponse{Banks: make([]BankView, 0, len(banks))}
	for _, b := range banks {
		resp.Banks = append(resp.Banks, BankView{ID: b.ID, Name: b.Name})
	}
	return resp
}
