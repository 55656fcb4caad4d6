package core

import (
	"net/mail"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"hospital-portal/pkg"
)

// ValidationErrors maps form field names to a human readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Any reports whether at least one field failed.
func (v ValidationErrors) Any() bool { return len(v) > 0 }

func (v ValidationErrors) required(field, value, label string) {
	if strings.TrimSpace(value) == "" {
		v[field] = label + " is required."
	}
}

func (v ValidationErrors) maxLen(field, value, label string, n int) {
	if _, ok := v[field]; !ok && utf8.RuneCountInString(value) > n {
		v[field] = label + " may not be longer than " + strconv.Itoa(n) + " characters."
	}
}

// ArticleForm is the payload of the article create and edit forms.
type ArticleForm struct {
	Title     string `schema:"title"`
	Category  string `schema:"category"`
	Excerpt   string `schema:"excerpt"`
	Body      string `schema:"body"`
	Published bool   `schema:"published"`
}

func (f *ArticleForm) Validate() ValidationErrors {
	errs := ValidationErrors{}
	errs.required("title", f.Title, "Title")
	errs.maxLen("title", f.Title, "Title", 200)
	errs.required("category", f.Category, "Category")
	errs.required("body", f.Body, "Body")
	errs.maxLen("excerpt", f.Excerpt, "Excerpt", 500)
	return errs
}

// Apply copies the form onto a. The slug is derived from the title and the
// article id, so a must already carry its id.
func (f *ArticleForm) Apply(a *pkg.Article) {
	a.Title = strings.TrimSpace(f.Title)
	a.Category = strings.TrimSpace(f.Category)
	a.Excerpt = strings.TrimSpace(f.Excerpt)
	a.Body = f.Body
	a.Published = f.Published
	a.Slug = ArticleSlug(a.Title, a.ID)
}

// ArticleFormFrom prefills the edit form.
func ArticleFormFrom(a *pkg.Article) ArticleForm {
	return ArticleForm{Title: a.Title, Category: a.Category, Excerpt: a.Excerpt, Body: a.Body, Published: a.Published}
}

// ArticleSlug builds a unique slug from the title and the first block of
// the id.
func ArticleSlug(title, id string) string {
	suffix := id
	if i := strings.IndexByte(id, '-'); i > 0 {
		suffix = id[:i]
	}
	s := Slugify(title)
	if s == "" {
		return suffix
	}
	return s + "-" + suffix
}

// MedicineForm is the payload of the medicine forms.
type MedicineForm struct {
	Name        string `schema:"name"`
	Category    string `schema:"category"`
	Dosage      string `schema:"dosage"`
	Description string `schema:"description"`
	Available   bool   `schema:"available"`
}

func (f *MedicineForm) Validate() ValidationErrors {
	errs := ValidationErrors{}
	errs.required("name", f.Name, "Name")
	errs.maxLen("name", f.Name, "Name", 120)
	errs.required("category", f.Category, "Category")
	errs.required("dosage", f.Dosage, "Dosage")
	return errs
}

func (f *MedicineForm) Apply(m *pkg.Medicine) {
	m.Name = strings.TrimSpace(f.Name)
	m.Category = strings.TrimSpace(f.Category)
	m.Dosage = strings.TrimSpace(f.Dosage)
	m.Description = f.Description
	m.Available = f.Available
}

func MedicineFormFrom(m *pkg.Medicine) MedicineForm {
	return MedicineForm{Name: m.Name, Category: m.Category, Dosage: m.Dosage, Description: m.Description, Available: m.Available}
}

// ScheduleForm is the payload of the doctor schedule forms.
type ScheduleForm struct {
	DoctorName string `schema:"doctor_name"`
	Specialty  string `schema:"specialty"`
	Day        string `schema:"day"`
	StartTime  string `schema:"start_time"`
	EndTime    string `schema:"end_time"`
	Room       string `schema:"room"`
	Available  bool   `schema:"available"`
}

const clockLayout = "15:04"

func (f *ScheduleForm) Validate() ValidationErrors {
	errs := ValidationErrors{}
	errs.required("doctor_name", f.DoctorName, "Doctor name")
	errs.required("specialty", f.Specialty, "Specialty")
	if DayIndex(strings.ToLower(strings.TrimSpace(f.Day))) < 0 {
		errs["day"] = "Day must be a weekday name."
	}
	start, err := time.Parse(clockLayout, strings.TrimSpace(f.StartTime))
	if err != nil {
		errs["start_time"] = "Start time must use the HH:MM format."
	}
	end, err2 := time.Parse(clockLayout, strings.TrimSpace(f.EndTime))
	if err2 != nil {
		errs["end_time"] = "End time must use the HH:MM format."
	}
	if err == nil && err2 == nil && !start.Before(end) {
		errs["end_time"] = "End time must be after the start time."
	}
	return errs
}

func (f *ScheduleForm) Apply(s *pkg.Schedule) {
	s.DoctorName = strings.TrimSpace(f.DoctorName)
	s.Specialty = strings.TrimSpace(f.Specialty)
	s.Day = strings.ToLower(strings.TrimSpace(f.Day))
	s.StartTime = strings.TrimSpace(f.StartTime)
	s.EndTime = strings.TrimSpace(f.EndTime)
	s.Room = strings.TrimSpace(f.Room)
	s.Available = f.Available
}

func ScheduleFormFrom(s *pkg.Schedule) ScheduleForm {
	return ScheduleForm{
		DoctorName: s.DoctorName,
		Specialty:  s.Specialty,
		Day:        s.Day,
		StartTime:  s.StartTime,
		EndTime:    s.EndTime,
		Room:       s.Room,
		Available:  s.Available,
	}
}

// NoteForm is the payload of the knowledge-base note forms.
type NoteForm struct {
	Title   string `schema:"title"`
	Content string `schema:"content"`
}

func (f *NoteForm) Validate() ValidationErrors {
	errs := ValidationErrors{}
	errs.required("title", f.Title, "Title")
	errs.maxLen("title", f.Title, "Title", 200)
	errs.required("content", f.Content, "Content")
	return errs
}

func (f *NoteForm) Apply(n *pkg.Note) {
	n.Title = strings.TrimSpace(f.Title)
	n.Content = f.Content
}

func NoteFormFrom(n *pkg.Note) NoteForm {
	return NoteForm{Title: n.Title, Content: n.Content}
}

// RegisterForm is the payload of the registration form.
type RegisterForm struct {
	Name                 string `schema:"name"`
	Email                string `schema:"email"`
	Password             string `schema:"password"`
	PasswordConfirmation string `schema:"password_confirmation"`
}

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

// MaxPasswordLength is the longest password bcrypt can hash, in bytes.
const MaxPasswordLength = 72

func (f *RegisterForm) Validate() ValidationErrors {
	errs := ValidationErrors{}
	errs.required("name", f.Name, "Name")
	errs.required("email", f.Email, "Email")
	if _, ok := errs["email"]; !ok {
		if _, err := mail.ParseAddress(f.Email); err != nil {
			errs["email"] = "Email must be a valid address."
		}
	}
	switch {
	case len(f.Password) < MinPasswordLength:
		errs["password"] = "Password must be at least " + strconv.Itoa(MinPasswordLength) + " characters."
	case len(f.Password) > MaxPasswordLength:
		errs["password"] = "Password may not be longer than " + strconv.Itoa(MaxPasswordLength) + " bytes."
	}
	if f.Password != f.PasswordConfirmation {
		errs["password_confirmation"] = "Passwords do not match."
	}
	return errs
}

// LoginForm is the payload of the login form.
type LoginForm struct {
	Email    string `schema:"email"`
	Password string `schema:"password"`
}

func (f *LoginForm) Validate() ValidationErrors {
	errs := ValidationErrors{}
	errs.required("email", f.Email, "Email")
	errs.required("password", f.Password, "Password")
	return errs
}

// NormalizeEmail reduces email to its lowercased bare address, dropping a
// display name such as the "Bob" of "Bob <bob@example.org>".
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	if addr, err := mail.ParseAddress(email); err == nil {
		email = addr.Address
	}
	return strings.ToLower(email)
}
