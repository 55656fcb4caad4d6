package pkg

import "time"

// Article is a news item or announcement published on the public site.
type Article struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Category  string    `json:"category"`
	Excerpt   string    `json:"excerpt"`
	Body      string    `json:"body"`
	ImagePath string    `json:"image_path,omitempty"`
	Published bool      `json:"published"`
	AuthorID  string    `json:"author_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Medicine is an entry of the public medicine directory.
type Medicine struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Dosage      string    `json:"dosage"`
	Description string    `json:"description"`
	ImagePath   string    `json:"image_path,omitempty"`
	Available   bool      `json:"available"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Schedule is one weekly practice slot of a doctor.  StartTime and EndTime
// use the 24h "15:04" layout.
type Schedule struct {
	ID         string    `json:"id"`
	DoctorName string    `json:"doctor_name"`
	Specialty  string    `json:"specialty"`
	Day        string    `json:"day"`
	StartTime  string    `json:"start_time"`
	EndTime    string    `json:"end_time"`
	Room       string    `json:"room"`
	Available  bool      `json:"available"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Note is a knowledge-base entry.  Notes are also fed to the chatbot as
// reference material.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Role is the access level of a back-office user.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// User is a back-office account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// MessageRole describes who authored a chat message.
type MessageRole string

const (
	RoleUser MessageRole = "user"
	RoleBot  MessageRole = "bot"
)

// Message represents a chat message in a visitor's chat session.
type Message struct {
	ID        int64       `json:"id"`
	SessionID string      `json:"session_id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}

// ChatRequest is the body accepted by the chat endpoint.
type ChatRequest struct {
	Message string `json:"message"`
}

// ChatResponse is the body returned by the chat endpoint.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// ErrorResponse is the JSON body of a failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListQuery carries the listing parameters forwarded from the query string.
// Sort must already be normalised to one of the entity's sort keys.
type ListQuery struct {
	Search string
	Sort   string
	Page   int
	// PerPage of zero means no pagination.
	PerPage int
	// OnlyVisible restricts the listing to published articles or available
	// medicines and schedules.
	OnlyVisible bool
}

// Offset returns the index of the first row of the requested page.
func (q ListQuery) Offset() int {
	if q.Page <= 1 || q.PerPage <= 0 {
		return 0
	}
	return (q.Page - 1) * q.PerPage
}

// Page is one page of a listing.
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// HasNext reports whether more rows follow this page.
func (p Page[T]) HasNext() bool {
	return p.PerPage > 0 && p.Page*p.PerPage < p.Total
}

// HasPrev reports whether this is not the first page.
func (p Page[T]) HasPrev() bool {
	return p.Page > 1
}

// DashboardStats are the counts shown on the back-office dashboard.
type DashboardStats struct {
	Articles  int `json:"articles"`
	Published int `json:"published"`
	Medicines int `json:"medicines"`
	Schedules int `json:"schedules"`
	Notes     int `json:"notes"`
}
