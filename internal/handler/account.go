package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banking-core/internal/model"
	"banking-core/internal/service"
)

// AccountHandler serves /api/accounts, including the cards nested under an account.
type AccountHandler struct {
	accounts service.AccountOperations
	cards    service.CardOperations
	owner    ownership
	logger   *logrus.Logger
}

func NewAccountHandler(accounts service.AccountOperations, cards service.CardOperations, logger *logrus.Logger) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		cards:    cards,
		owner:    ownership{accounts: accounts, cards: cards},
		logger:   logger,
	}
}

func (h *AccountHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", authenticated(h.logger, h.CreateAccount)).Methods(http.MethodPost)
	router.HandleFunc("", authenticated(h.logger, h.GetUserAccounts)).Methods(http.MethodGet)
	router.HandleFunc("/{id}", authenticated(h.logger, h.GetAccount)).Methods(http.MethodGet)
	router.HandleFunc("/{id}/deposit", authenticated(h.logger, h.Deposit)).Methods(http.MethodPost)
	router.HandleFunc("/{id}/cards", authenticated(h.logger, h.CreateCard)).Methods(http.MethodPost)
	router.HandleFunc("/{id}/cards", authenticated(h.logger, h.GetAccountCards)).Methods(http.MethodGet)
	router.HandleFunc("/{id}/cards", authenticated(h.logger, h.DeleteAccountCards)).Methods(http.MethodDelete)
}

// CreateAccount accepts an empty body and falls back to the default currency.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req model.CreateAccountRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err, "Failed to decode create account request")
			return
		}
	}

	account, err := h.accounts.CreateAccountForUser(r.Context(), userID, req.Currency)
	if err != nil {
		writeError(w, h.logger, err, "Failed to create account")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, account)
}

func (h *AccountHandler) GetUserAccounts(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	accounts, err := h.accounts.GetUserAccounts(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to list accounts")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, accounts)
}

func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err, "Bad account id")
		return
	}
	account, err := h.owner.account(r.Context(), userID, accountID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to get account")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, account)
}

// Deposit leaves the ownership check to the service.
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err, "Bad account id")
		return
	}
	var req model.DepositRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "Failed to decode deposit request")
		return
	}

	result, err := h.accounts.Deposit(r.Context(), accountID, req.Amount, userID)
	if err != nil {
		writeError(w, h.logger, err, "Deposit failed")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}

func (h *AccountHandler) CreateCard(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err, "Bad account id")
		return
	}
	var req model.CreateCardRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, h.logger, err, "Failed to decode create card request")
			return
		}
	}
	if _, err := h.owner.account(r.Context(), userID, accountID); err != nil {
		writeError(w, h.logger, err, "Card issuance refused")
		return
	}

	card, err := h.cards.CreateCardForAccount(r.Context(), accountID, req.CardType, req.PaymentSystem)
	if err != nil {
		writeError(w, h.logger, err, "Failed to issue card")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, card)
}

func (h *AccountHandler) GetAccountCards(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err, "Bad account id")
		return
	}
	if _, err := h.owner.account(r.Context(), userID, accountID); err != nil {
		writeError(w, h.logger, err, "Card listing refused")
		return
	}

	cards, err := h.cards.GetCardsByAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to list account cards")
		return
	}
	if cards == nil {
		cards = []model.CardView{}
	}
	writeJSON(w, h.logger, http.StatusOK, cards)
}

func (h *AccountHandler) DeleteAccountCards(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	accountID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err, "Bad account id")
		return
	}
	if _, err := h.owner.account(r.Context(), userID, accountID); err != nil {
		writeError(w, h.logger, err, "Card deletion refused")
		return
	}

	result, err := h.cards.DeleteCardsByAccountID(r.Context(), accountID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to delete cards")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, result)
}
