package web

import (
	"net/http"
	"strconv"

	"tienda/pkg/passgen"
)

// DefaultPasswordWords is used when the words parameter is absent.
const DefaultPasswordWords = 4

type passwordResponse struct {
	Password string `json:"password"`
	Words    int    `json:"words"`
}

// generatePassword returns a password built from dictionary words.
// @Summary Generate password
// @Produce json
// @Param words query int false "Number of words (1-32)"
// @Success 200 {object} passwordResponse
// @Failure 400
// @Router /password-generator [get]
func (h *Handler) generatePassword(w http.ResponseWriter, r *http.Request) {
	n := DefaultPasswordWords
	if v := r.URL.Query().Get("words"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			http.Error(w, "words must be a positive integer", http.StatusBadRequest)
			return
		}
		n = min(parsed, passgen.MaxWords)
	}
	pw, err := h.passwords.Generate(n)
	if err != nil {
		h.writeError(w, r, "generate password", err)
		return
	}
	writeJSON(w, http.StatusOK, passwordResponse{Password: pw, Words: n})
}

// dictionary serves the word list the generator draws from.
// @Summary Password dictionary
// @Produce plain
// @Success 200 {string} string
// @Router /password-generator/dictionary [get]
func (h *Handler) dictionary(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write(h.passwords.Dictionary())
}
