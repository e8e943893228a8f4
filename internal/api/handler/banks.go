package handler

import (
	"net/http"

	"github.com/xela07ax/quantumpay/internal/engine"
)

type BankHandler struct {
	banks engine.BankLister
}

func NewBankHandler(banks engine.BankLister) *BankHandler {
	return &BankHandler{banks: banks}
}

// List возвращает каталог банков без режимов отказа
// GET /api/banks
func (h *BankHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, engine.NewBanksResponse(h.banks.List()))
}
