package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banking-core/internal/model"
	"banking-core/internal/service"
)

type TransactionHandler struct {
	transfers service.TransferOperations
	owner     ownership
	logger    *logrus.Logger
}

func NewTransactionHandler(
	transfers service.TransferOperations,
	accounts service.AccountOperations,
	cards service.CardOperations,
	logger *logrus.Logger,
) *TransactionHandler {
	return &TransactionHandler{
		transfers: transfers,
		owner:     ownership{accounts: accounts, cards: cards},
		logger:    logger,
	}
}

func (h *TransactionHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", authenticated(h.logger, h.Transfer)).Methods(http.MethodPost)
	router.HandleFunc("", authenticated(h.logger, h.ListTransactions)).Methods(http.MethodGet)
	router.HandleFunc("/card/{cardId}", authenticated(h.logger, h.ListByCardID)).Methods(http.MethodGet)
	router.HandleFunc("/card-number/{number}", authenticated(h.logger, h.ListByCardNumber)).Methods(http.MethodGet)
	router.HandleFunc("/{id}", authenticated(h.logger, h.GetTransaction)).Methods(http.MethodGet)
}

// Transfer always runs with the caller as the acting user.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	var req model.TransferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "Failed to decode transfer request")
		return
	}

	view, err := h.transfers.Transfer(r.Context(), req, &userID)
	if err != nil {
		writeError(w, h.logger, err, "Transfer failed")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, view)
}

func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	list, err := h.transfers.GetUserTransactions(r.Context(), userID)
	h.writeList(w, list, err)
}

func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err, "Bad transaction id")
		return
	}
	view, err := h.transfers.GetTransactionByID(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err, "Failed to get transaction")
		return
	}
	if err := h.owner.transaction(r.Context(), userID, view); err != nil {
		writeError(w, h.logger, err, "Transaction access refused")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, view)
}

func (h *TransactionHandler) ListByCardID(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	cardID, err := pathID(r, "cardId")
	if err != nil {
		writeError(w, h.logger, err, "Bad card id")
		return
	}
	if _, err := h.owner.cardByID(r.Context(), userID, cardID); err != nil {
		writeError(w, h.logger, err, "Card history refused")
		return
	}
	list, err := h.transfers.GetTransactionsByCardID(r.Context(), cardID)
	h.writeList(w, list, err)
}

func (h *TransactionHandler) ListByCardNumber(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	number := mux.Vars(r)["number"]
	if _, err := h.owner.cardByNumber(r.Context(), userID, number); err != nil {
		writeError(w, h.logger, err, "Card history refused")
		return
	}
	list, err := h.transfers.GetTransactionsByCardNumber(r.Context(), number)
	h.writeList(w, list, err)
}

func (h *TransactionHandler) writeList(w http.ResponseWriter, list []model.TransactionView, err error) {
	if err != nil {
		writeError(w, h.logger, err, "Failed to list transactions")
		return
	}
	if list == nil {
		list = []model.TransactionView{}
	}
	writeJSON(w, h.logger, http.StatusOK, list)
}
