package controllers

import (
	"net/http"

	"github.com/iota-uz/staffledger/pkg/httpapi"
)

func writeJSON(w http.ResponseWriter, status int, payload any) {
	_ = httpapi.WriteJSON(w, status, payload)
}

func writeAPIError(w http.ResponseWriter, r *http.Request, status int, code string, message string) {
	_ = httpapi.WriteError(w, r, status, code, message)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	_ = httpapi.WriteServiceError(w, r, err)
}
