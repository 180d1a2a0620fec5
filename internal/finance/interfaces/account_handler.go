package interfaces

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/mkrzemien/BudgetManager/internal/finance/domain"
	financeErrors "github.com/mkrzemien/BudgetManager/internal/finance/errors"
	"github.com/shopspring/decimal"
)

type AccountServiceInterface interface {
	CreateAccount(ctx context.Context, account *domain.Account) error
	GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
	GetUserAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	SetPrimaryAccount(ctx context.Context, userID, accountID string) error
	DeleteAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
}

type AccountHandler struct {
	service      AccountServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string)
}

func NewAccountHandler(
	service AccountServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string),
) *AccountHandler {
	if service == nil {
		panic("Service must not be nil")
	}
	if respondJSON == nil || respondError == nil {
		panic("Responder functions must not be nil")
	}
	return &AccountHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

type accountRequest struct {
	Name          string `json:"name"`
	Type          string `json:"type"`
	Currency      string `json:"currency"`
	AccountNumber string `json:"account_number"`
}

// accountResponse is the display form of an account: the account number is
// masked and never echoed in full.
type accountResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Currency      string          `json:"currency"`
	AccountNumber string          `json:"account_number,omitempty"`
	Balance       decimal.Decimal `json:"balance"`
	IsPrimary     bool            `json:"is_primary"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toAccountResponse(account domain.Account) accountResponse {
	return accountResponse{
		ID:            account.ID,
		Name:          account.Name,
		Type:          string(account.Type),
		Currency:      account.Currency,
		AccountNumber: account.MaskedNumber(),
		Balance:       account.Balance,
		IsPrimary:     account.IsPrimary,
		CreatedAt:     account.CreatedAt,
	}
}

func (h *AccountHandler) respondServiceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case financeErrors.IsValidationError(err):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case financeErrors.IsNotFoundError(err):
		h.respondError(w, http.StatusNotFound, err.Error())
	default:
		log.Printf("%s: %v", fallback, err)
		h.respondError(w, http.StatusInternalServerError, fallback)
	}
}

func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req accountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	account := domain.Account{
		UserID:        userID,
		Name:          req.Name,
		Type:          domain.AccountType(req.Type),
		Currency:      req.Currency,
		AccountNumber: req.AccountNumber,
	}
	if err := h.service.CreateAccount(r.Context(), &account); err != nil {
		h.respondServiceError(w, err, "Failed to create account")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Account successfully created.",
		"data":    toAccountResponse(account),
	})
}

func (h *AccountHandler) GetUserAccounts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accounts, err := h.service.GetUserAccounts(r.Context(), userID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to retrieve accounts")
		return
	}
	responses := make([]accountResponse, len(accounts))
	for i, account := range accounts {
		responses[i] = toAccountResponse(account)
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Accounts retrieved successfully.",
		"data":    responses,
	})
}

func (h *AccountHandler) SetPrimaryAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID := r.PathValue("accountID")
	if err := h.service.SetPrimaryAccount(r.Context(), userID, accountID); err != nil {
		h.respondServiceError(w, err, "Failed to set primary account")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Primary account updated.",
	})
}

func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	accountID := r.PathValue("accountID")
	account, err := h.service.DeleteAccount(r.Context(), userID, accountID)
	if err != nil {
		h.respondServiceError(w, err, "Failed to delete account")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Account successfully deleted.",
		"data":    toAccountResponse(*account),
	})
}
