package web

import (
	"encoding/base64"
	"net/http"
	"strings"
)

// Flash is a one-shot message carried across a POST/redirect/GET in a cookie.
type Flash struct {
	Kind    string
	Message string
}

const (
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashError   = "error"
)

const flashCookie = "flash"

func redirect(w http.ResponseWriter, rq *http.Request, url string, kind string, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(kind + "\n" + message)),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, rq, url, http.StatusSeeOther)
}

// flash returns the pending message, if any, and clears it.
func flash(w http.ResponseWriter, rq *http.Request) *Flash {
	cookie, err := rq.Cookie(flashCookie)
	if err != nil {
		return nil
	}

	http.SetCookie(w, &http.Cookie{
		Name:   flashCookie,
		Path:   "/",
		MaxAge: -1,
	})

	bytes, err := base64.RawURLEncoding.DecodeString(cookie.Value)
	if err != nil {
		return nil
	}

	kind, message, ok := strings.Cut(string(bytes), "\n")
	if !ok {
		return nil
	}

	return &Flash{
		Kind:    kind,
		Message: message,
	}
}
