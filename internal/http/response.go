package http

import (
	"encoding/json"
	"net/http"
)

// Envelope é o formato único das respostas da API: exatamente um de
// Data ou Error vem preenchido. O mural de mensagens é a exceção e
// responde no contrato legado, sem envelope.
type Envelope struct {
	Data  any        `json:"data"`
	Error *ErrorBody `json:"error"`
}

// ErrorBody descreve falhas normalizadas pelo código da taxonomia
// (VALIDATION, NOT_FOUND, AUTH, INTERNAL...).
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON envelopa dados de sucesso.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, Envelope{Data: data})
}

// WriteError envelopa uma falha normalizada.
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	write(w, status, Envelope{Error: &ErrorBody{Code: code, Message: message, Details: details}})
}

func write(w http.ResponseWriter, status int, body Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
