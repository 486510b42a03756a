package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/soshbru/soshbru/pkg/cafe"
	"github.com/soshbru/soshbru/pkg/common/errors"
	"github.com/soshbru/soshbru/pkg/store"
)

// Member is a professional currently checked in at a cafe.
type Member struct {
	store.Profile
	CheckedInAt time.Time `json:"checkedInAt"`
}

// ProfileUpdate carries the editable profile fields. Nil fields are left
// as they are.
type ProfileUpdate struct {
	FullName    *string             `json:"fullName,omitempty"`
	AvatarURL   *string             `json:"avatarUrl,omitempty"`
	Designation *string             `json:"designation,omitempty"`
	Company     *string             `json:"company,omitempty"`
	Bio         *string             `json:"bio,omitempty"`
	Skills      []string            `json:"skills,omitempty"`
	Preferences map[string]string   `json:"preferences,omitempty"`
	Visibility  *store.Visibility   `json:"visibility,omitempty"`
	Status      *store.Availability `json:"status,omitempty"`
	Networking  *bool               `json:"networking,omitempty"`
	LinkedInURL *string             `json:"linkedinUrl,omitempty"`
	GitHubURL   *string             `json:"githubUrl,omitempty"`
}

// SocialService handles profiles, check-ins, meetups and favorites.
type SocialService struct {
	store  *store.Store
	cafes  cafe.Source
	logger *zap.Logger
}

// NewSocialService creates a new SocialService. cafes is used to validate
// cafe ids; ids of remote places are accepted as they are.
func NewSocialService(st *store.Store, cafes cafe.Source, logger *zap.Logger) *SocialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SocialService{store: st, cafes: cafes, logger: logger}
}

// Profile returns the profile of userID.
func (s *SocialService) Profile(userID string) (store.Profile, error) {
	return s.store.GetProfile(userID)
}

// EnsureProfile returns the profile of userID, creating a minimal one on
// first sight.
func (s *SocialService) EnsureProfile(userID, email, fullName string) (store.Profile, error) {
	p, err := s.store.GetProfile(userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, errors.ErrNotFound) {
		return store.Profile{}, err
	}
	if fullName == "" {
		fullName, _, _ = strings.Cut(email, "@")
	}
	s.logger.Info("creating profile", zap.String("user", userID))
	return s.store.PutProfile(store.Profile{ID: userID, Email: email, FullName: fullName})
}

// UpdateProfile applies u to the profile of userID.
func (s *SocialService) UpdateProfile(userID string, u ProfileUpdate) (store.Profile, error) {
	p, err := s.store.GetProfile(userID)
	if err != nil {
		return store.Profile{}, err
	}
	if u.FullName != nil {
		if strings.TrimSpace(*u.FullName) == "" {
			return store.Profile{}, fmt.Errorf("%w: full name cannot be empty", errors.ErrInvalidInput)
		}
		p.FullName = *u.FullName
	}
	setString(&p.AvatarURL, u.AvatarURL)
	setString(&p.Designation, u.Designation)
	setString(&p.Company, u.Company)
	setString(&p.Bio, u.Bio)
	setString(&p.LinkedInURL, u.LinkedInURL)
	setString(&p.GitHubURL, u.GitHubURL)
	if u.Skills != nil {
		p.Skills = u.Skills
	}
	if u.Preferences != nil {
		p.Preferences = u.Preferences
	}
	if u.Visibility != nil {
		p.Visibility = *u.Visibility
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.Networking != nil {
		p.Networking = *u.Networking
	}
	return s.store.PutProfile(p)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// CheckIn checks userID in at cafeID, completing any earlier check-in.
func (s *SocialService) CheckIn(ctx context.Context, userID, cafeID string) (store.CheckIn, error) {
	if err := s.requireCafe(ctx, cafeID); err != nil {
		return store.CheckIn{}, err
	}
	ci, err := s.store.CheckIn(userID, cafeID)
	if err != nil {
		return store.CheckIn{}, err
	}
	s.logger.Debug("checked in", zap.String("user", userID), zap.String("cafe", cafeID))
	return ci, nil
}

// CheckOut completes the active check-in of userID.
func (s *SocialService) CheckOut(userID string) (store.CheckIn, error) {
	return s.store.CheckOut(userID)
}

// ActiveCheckIn returns the active check-in of userID.
func (s *SocialService) ActiveCheckIn(userID string) (store.CheckIn, error) {
	return s.store.ActiveCheckIn(userID)
}

// Professionals lists who is working from cafeID and open to networking.
// Private profiles and users without a profile are left out.
func (s *SocialService) Professionals(ctx context.Context, cafeID string) ([]Member, error) {
	checkIns, err := s.store.ActiveCheckIns(cafeID)
	if err != nil {
		return nil, err
	}
	out := make([]Member, 0, len(checkIns))
	for _, ci := range checkIns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := s.store.GetProfile(ci.UserID)
		if errors.Is(err, errors.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !p.Networking || p.Visibility == store.VisibilityPrivate {
			continue
		}
		out = append(out, Member{Profile: p, CheckedInAt: ci.CheckInTime})
	}
	return out, nil
}

// SendMeetup sends a meetup request. Professionals in do-not-disturb mode
// cannot be approached.
func (s *SocialService) SendMeetup(ctx context.Context, senderID, receiverID, cafeID, message string) (store.MeetupRequest, error) {
	if senderID == receiverID {
		return store.MeetupRequest{}, fmt.Errorf("%w: cannot send a meetup request to yourself", errors.ErrInvalidInput)
	}
	receiver, err := s.store.GetProfile(receiverID)
	if err != nil {
		return store.MeetupRequest{}, err
	}
	if receiver.Status == store.DoNotDisturb {
		return store.MeetupRequest{}, fmt.Errorf("%w: %s does not want to be disturbed", errors.ErrForbidden, receiver.FullName)
	}
	if receiver.Visibility == store.VisibilityPrivate {
		return store.MeetupRequest{}, fmt.Errorf("profile %s: %w", receiverID, errors.ErrNotFound)
	}
	if err := s.requireCafe(ctx, cafeID); err != nil {
		return store.MeetupRequest{}, err
	}

	pending, err := s.store.HasPendingMeetup(senderID, receiverID)
	if err != nil {
		return store.MeetupRequest{}, err
	}
	if pending {
		return store.MeetupRequest{}, fmt.Errorf("%w: a request to %s is already pending", errors.ErrConflict, receiver.FullName)
	}

	return s.store.CreateMeetup(store.MeetupRequest{
		SenderID:   senderID,
		ReceiverID: receiverID,
		CafeID:     cafeID,
		Message:    strings.TrimSpace(message),
	})
}

// RespondMeetup accepts or declines a request. Only its receiver may
// respond, and only once.
func (s *SocialService) RespondMeetup(userID, meetupID string, accept bool) (store.MeetupRequest, error) {
	m, err := s.store.GetMeetup(meetupID)
	if err != nil {
		return store.MeetupRequest{}, err
	}
	if m.ReceiverID != userID {
		return store.MeetupRequest{}, fmt.Errorf("%w: only the receiver can respond", errors.ErrForbidden)
	}
	status := store.MeetupDeclined
	if accept {
		status = store.MeetupAccepted
	}
	return s.store.ResolveMeetup(meetupID, status)
}

// Meetups lists the requests userID sent or received, newest first.
func (s *SocialService) Meetups(userID string) ([]store.MeetupRequest, error) {
	return s.store.ListMeetups(userID)
}

// AddFavorite saves cafeID for userID.
func (s *SocialService) AddFavorite(ctx context.Context, userID, cafeID string) error {
	if err := s.requireCafe(ctx, cafeID); err != nil {
		return err
	}
	return s.store.AddFavorite(userID, cafeID)
}

// RemoveFavorite forgets cafeID for userID.
func (s *SocialService) RemoveFavorite(userID, cafeID string) error {
	return s.store.RemoveFavorite(userID, cafeID)
}

// Favorites lists the saved cafes of userID in the order they were saved.
// Saved remote places are returned with only their id set.
func (s *SocialService) Favorites(ctx context.Context, userID string) ([]cafe.Cafe, error) {
	favs, err := s.store.Favorites(userID)
	if err != nil {
		return nil, err
	}
	cafes, err := s.cafes.Cafes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]cafe.Cafe, 0, len(favs))
	for _, f := range favs {
		c, err := cafe.Find(cafes, f.CafeID)
		if errors.Is(err, errors.ErrNotFound) {
			if strings.HasPrefix(f.CafeID, placeIDPrefix) {
				out = append(out, cafe.Cafe{ID: f.CafeID, PlaceID: strings.TrimPrefix(f.CafeID, placeIDPrefix)})
			}
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// IsFavorite reports whether userID saved cafeID.
func (s *SocialService) IsFavorite(userID, cafeID string) (bool, error) {
	return s.store.IsFavorite(userID, cafeID)
}

func (s *SocialService) requireCafe(ctx context.Context, cafeID string) error {
	if strings.TrimSpace(cafeID) == "" {
		return fmt.Errorf("%w: cafe id is required", errors.ErrInvalidInput)
	}
	if strings.HasPrefix(cafeID, placeIDPrefix) {
		return nil
	}
	cafes, err := s.cafes.Cafes(ctx)
	if err != nil {
		return err
	}
	_, err = cafe.Find(cafes, cafeID)
	return err
}
