package models

import "time"

type User struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	TeamID       *int64     `json:"team_id"`
	Phone        *string    `json:"phone"`
	OptIn        bool       `json:"opt_in"`
	OptInDate    *time.Time `json:"opt_in_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type Team struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	LeaderID  *int64    `json:"leader_id"`
	CreatedAt time.Time `json:"created_at"`
}

type Task struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  *string    `json:"description"`
	Status       string     `json:"status"`
	Priority     string     `json:"priority"`
	AssignedToID *int64     `json:"assigned_to_id"`
	AssignedByID *int64     `json:"assigned_by_id"`
	DueDate      *time.Time `json:"due_date"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

type CalendarEvent struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	Title           string    `json:"title"`
	Description     *string   `json:"description"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	AllDay          bool      `json:"all_day"`
	Location        *string   `json:"location"`
	Color           *string   `json:"color"`
	EventType       string    `json:"event_type"`
	Status          string    `json:"status"`
	Reminder        bool      `json:"reminder"`
	ReminderMinutes int       `json:"reminder_minutes"`
	CreatedAt       time.Time `json:"created_at"`
}

type DailyNote struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Date      time.Time `json:"date"`
	Title     *string   `json:"title"`
	Content   string    `json:"content"`
	Mood      string    `json:"mood"`
	TagsJSON  *string   `json:"tags_json"`
	IsPrivate bool      `json:"is_private"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Notification struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"user_id"`
	Type        string     `json:"type"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	PayloadJSON *string    `json:"payload_json"`
	Read        bool       `json:"read"`
	ReadAt      *time.Time `json:"read_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AuditLog struct {
	ID           int64     `json:"id"`
	UserID       *int64    `json:"user_id"`
	Action       string    `json:"action"`
	Resource     string    `json:"resource"`
	ResourceID   *int64    `json:"resource_id"`
	MetadataJSON *string   `json:"metadata_json"`
	IPAddress    *string   `json:"ip_address"`
	CreatedAt    time.Time `json:"created_at"`
}

type Contact struct {
	ID          int64      `json:"id"`
	PhoneNumber string     `json:"phone_number"`
	Name        *string    `json:"name"`
	OptIn       bool       `json:"opt_in"`
	OptInDate   *time.Time `json:"opt_in_date"`
	UserID      *int64     `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Conversation struct {
	ID            int64     `json:"id"`
	ContactID     int64     `json:"contact_id"`
	LastMessageAt time.Time `json:"last_message_at"`
	IsArchived    bool      `json:"is_archived"`
	CreatedAt     time.Time `json:"created_at"`
}

type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	FromNumber     string    `json:"from_number"`
	ToNumber       string    `json:"to_number"`
	Text           *string   `json:"text"`
	MediaURL       *string   `json:"media_url"`
	MediaType      *string   `json:"media_type"`
	MessageID      string    `json:"message_id"`
	Timestamp      time.Time `json:"timestamp"`
	Direction      string    `json:"direction"`
	Status         string    `json:"status"`
	MetadataJSON   *string   `json:"metadata_json"`
	CreatedAt      time.Time `json:"created_at"`
}

type DSR struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	Date          time.Time `json:"date"`
	RawInputsJSON string    `json:"raw_inputs_json"`
	Summary       string    `json:"summary"`
	LLMModel      string    `json:"llm_model"`
	Status        string    `json:"status"`
	ErrorMessage  *string   `json:"error_message"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ChatSummary struct {
	ID              int64     `json:"id"`
	ConversationID  int64     `json:"conversation_id"`
	ContactName     string    `json:"contact_name"`
	ContactPhone    string    `json:"contact_phone"`
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	MessageCount    int       `json:"message_count"`
	Summary         string    `json:"summary"`
	KeyTopicsJSON   *string   `json:"key_topics_json"`
	SentimentScore  float64   `json:"sentiment_score"`
	ActionItemsJSON *string   `json:"action_items_json"`
	LLMModel        string    `json:"llm_model"`
	GeneratedAt     time.Time `json:"generated_at"`
}
