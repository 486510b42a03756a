package store

import "time"

// Visibility controls who can see a profile.
type Visibility string

const (
	VisibilityPublic      Visibility = "public"
	VisibilityConnections Visibility = "connections"
	VisibilityPrivate     Visibility = "private"
)

// Availability is how open a professional is to being approached.
type Availability string

const (
	Available    Availability = "available"
	Busy         Availability = "busy"
	DoNotDisturb Availability = "do-not-disturb"
)

// Profile is a user's public professional profile.
type Profile struct {
	ID          string            `json:"id"`
	Email       string            `json:"email"`
	FullName    string            `json:"fullName"`
	AvatarURL   string            `json:"avatarUrl,omitempty"`
	Designation string            `json:"designation,omitempty"`
	Company     string            `json:"company,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	Skills      []string          `json:"skills,omitempty"`
	Preferences map[string]string `json:"preferences,omitempty"`
	Visibility  Visibility        `json:"visibility"`
	Status      Availability      `json:"status"`
	// Networking is the "show me for networking" switch.
	Networking  bool      `json:"networking"`
	LinkedInURL string    `json:"linkedinUrl,omitempty"`
	GitHubURL   string    `json:"githubUrl,omitempty"`
	IsPremium   bool      `json:"isPremium"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CheckInStatus is the lifecycle state of a check-in.
type CheckInStatus string

const (
	CheckInActive    CheckInStatus = "active"
	CheckInCompleted CheckInStatus = "completed"
	CheckInCancelled CheckInStatus = "cancelled"
)

// CheckIn records a user working from a cafe.
type CheckIn struct {
	ID           string        `json:"id"`
	UserID       string        `json:"userId"`
	CafeID       string        `json:"cafeId"`
	Status       CheckInStatus `json:"status"`
	CheckInTime  time.Time     `json:"checkInTime"`
	CheckOutTime *time.Time    `json:"checkOutTime,omitempty"`
}

// MeetupStatus is the lifecycle state of a meetup request.
type MeetupStatus string

const (
	MeetupPending  MeetupStatus = "pending"
	MeetupAccepted MeetupStatus = "accepted"
	MeetupDeclined MeetupStatus = "declined"
)

// MeetupRequest is an invitation from one professional to another to meet
// at a cafe.
type MeetupRequest struct {
	ID         string       `json:"id"`
	SenderID   string       `json:"senderId"`
	ReceiverID string       `json:"receiverId"`
	CafeID     string       `json:"cafeId"`
	Message    string       `json:"message,omitempty"`
	Status     MeetupStatus `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// Favorite is a cafe a user saved.
type Favorite struct {
	CafeID  string    `json:"cafeId"`
	AddedAt time.Time `json:"addedAt"`
}
