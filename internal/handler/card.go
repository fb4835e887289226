package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"banking-core/internal/model"
	"banking-core/internal/service"
)

type CardHandler struct {
	cards  service.CardOperations
	owner  ownership
	logger *logrus.Logger
}

func NewCardHandler(cards service.CardOperations, accounts service.AccountOperations, logger *logrus.Logger) *CardHandler {
	return &CardHandler{
		cards:  cards,
		owner:  ownership{accounts: accounts, cards: cards},
		logger: logger,
	}
}

func (h *CardHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("", authenticated(h.logger, h.ListCards)).Methods(http.MethodGet)
	router.HandleFunc("/number/{number}", authenticated(h.logger, h.GetCardByNumber)).Methods(http.MethodGet)
	router.HandleFunc("/{id}", authenticated(h.logger, h.GetCard)).Methods(http.MethodGet)
	router.HandleFunc("/{id}/cvv", authenticated(h.logger, h.RevealCVV)).Methods(http.MethodPost)
}

func (h *CardHandler) ListCards(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	cards, err := h.cards.GetUserCards(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to list cards")
		return
	}
	if cards == nil {
		cards = []model.CardView{}
	}
	writeJSON(w, h.logger, http.StatusOK, cards)
}

func (h *CardHandler) GetCard(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	cardID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err, "Bad card id")
		return
	}
	card, err := h.owner.cardByID(r.Context(), userID, cardID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to get card")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, card)
}

func (h *CardHandler) GetCardByNumber(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	card, err := h.owner.cardByNumber(r.Context(), userID, mux.Vars(r)["number"])
	if err != nil {
		writeError(w, h.logger, err, "Failed to get card by number")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, card)
}

// RevealCVV re-authenticates with the password in the body; the service
// checks ownership.
func (h *CardHandler) RevealCVV(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	cardID, err := pathID(r, "id")
	if err != nil {
		writeError(w, h.logger, err, "Bad card id")
		return
	}
	var req model.CVVRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, h.logger, err, "Failed to decode CVV request")
		return
	}

	result, err := h.cards.GetCVVForCard(r.Context(), cardID, req.Password, userID)
	if err != nil {
		writeError(w, h.logger, err, "CVV reveal failed")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, h.logger, http.StatusOK, result)
}
