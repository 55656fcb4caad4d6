package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/gorilla/schema"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

// maxFormMemory is the part of a multipart body kept in memory; larger
// uploads spill to temporary files.
const maxFormMemory = 1 << 20

// errTooLarge is returned by decodeForm for bodies over the upload limit.
var errTooLarge = errors.New("request body too large")

// decodeForm parses the urlencoded or multipart body of r into dst.
func decodeForm(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImageSize+maxFormMemory)
	var err error
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		err = r.ParseMultipartForm(maxFormMemory)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return errTooLarge
		}
		return err
	}
	return decoder.Decode(dst, r.PostForm)
}

// formError answers a body that could not be decoded.
func (s *Server) formError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, errTooLarge) {
		s.renderError(w, r, http.StatusRequestEntityTooLarge, "The upload may not be larger than 5 MB.")
		return
	}
	s.renderError(w, r, http.StatusBadRequest, "The form could not be read.")
}

// VisitorCookie identifies an anonymous browser for form gating.
const VisitorCookie = "visitor_id"

// visitorCookie makes sure the browser carries a visitor id, so its
// anonymous form submissions can be told apart from other browsers'.
func (s *Server) visitorCookie(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(VisitorCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     VisitorCookie,
		Value:    uuid.NewString(),
		Path:     "/",
		HttpOnly: true,
		Secure:   s.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// clientKey identifies the submitting client: the signed-in user, or the
// visitor cookie of an anonymous browser.  A request without either gets a
// key of its own and is never gated.
func clientKey(r *http.Request) string {
	if u := currentUser(r); u != nil {
		return "user:" + u.ID
	}
	if c, err := r.Cookie(VisitorCookie); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return "visitor:" + c.Value
		}
	}
	return "request:" + uuid.NewString()
}

// submit runs fn as the only in-flight submission of the form instance
// identified by the client and the form path.  A concurrent second
// submission is answered with 409.  fn writes the response and returns the
// outcome recorded by the form tracker.
func (s *Server) submit(fn func(w http.ResponseWriter, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		release, err := s.Forms.Begin(clientKey(r) + " " + r.URL.Path)
		if err != nil {
			s.renderError(w, r, http.StatusConflict, "This form is already being submitted. Please wait for it to finish.")
			return
		}
		var outcome error
		defer func() { release(outcome) }()
		outcome = fn(w, r)
	}
}

// safeRedirect returns target when it is a local path, fallback otherwise.
func safeRedirect(target, fallback string) string {
	if !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return fallback
	}
	return target
}
