package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"collaborative-whiteboard/internal/domain"
	"collaborative-whiteboard/internal/repository"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

const (
	maxCreateAttempts = 10
	defaultUserName   = "Anonymous"
)

// Profile is the display information a connection supplies.
type Profile struct {
	Name  string
	Color string
}

// CreatedRoom is returned to the creator only. Password is the only place the
// plaintext ever leaves the service.
type CreatedRoom struct {
	RoomID    string
	Password  string
	User      domain.User
	ExpiresAt time.Time
}

// JoinRequest carries everything join-room needs. UserID is the client's
// stable identity; when empty the connection id is used as the rejoin key.
type JoinRequest struct {
	RoomID   string
	Password string
	UserID   string
	Profile  Profile
}

// JoinResult is the state pushed to a connection after a successful join.
type JoinResult struct {
	RoomID      string
	User        domain.User
	Canvas      domain.CanvasState
	Users       []domain.User
	RejoinCount int
}

// RoomService implements room creation, validation, join and leave.
type RoomService struct {
	roomRepo repository.RoomRepository
	now      func() time.Time
	hashCost int
}

// RoomServiceOption configures a RoomService.
type RoomServiceOption func(*RoomService)

// WithClock overrides the time source for creation and join timestamps.
func WithClock(now func() time.Time) RoomServiceOption {
	return func(s *RoomService) { s.now = now }
}

// WithPasswordHashCost sets the bcrypt cost used for room passwords.
func WithPasswordHashCost(cost int) RoomServiceOption {
	return func(s *RoomService) { s.hashCost = cost }
}

// NewRoomService creates a RoomService.
func NewRoomService(roomRepo repository.RoomRepository, opts ...RoomServiceOption) *RoomService {
	if roomRepo == nil {
		panic("RoomRepository cannot be nil for RoomService")
	}
	s := &RoomService{
		roomRepo: roomRepo,
		now:      time.Now,
		hashCost: bcrypt.MinCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.hashCost < bcrypt.MinCost || s.hashCost > bcrypt.MaxCost {
		s.hashCost = bcrypt.MinCost
	}
	return s
}

// NormalizeRoomID canonicalises user input so ids are case-insensitive.
func NormalizeRoomID(roomID string) string {
	return strings.ToUpper(strings.TrimSpace(roomID))
}

// CreateRoom creates a room with a fresh id and password and makes the
// creator its first member.
func (s *RoomService) CreateRoom(ctx context.Context, creatorConnID string, profile Profile) (*CreatedRoom, error) {
	logCtx := logrus.WithField("conn_id", creatorConnID)

	password, err := generateCode()
	if err != nil {
		logCtx.WithError(err).Error("Failed to generate room password")
		return nil, ErrInternalServer
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		logCtx.WithError(err).Error("Failed to hash room password")
		return nil, ErrInternalServer
	}

	now := s.now()
	creator := domain.User{
		ID:       creatorConnID,
		Name:     displayName(profile.Name),
		Color:    profile.Color,
		JoinedAt: now,
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		roomID, err := generateCode()
		if err != nil {
			logCtx.WithError(err).Error("Failed to generate room id")
			return nil, ErrInternalServer
		}
		exists, err := s.roomRepo.Exists(ctx, roomID)
		if err != nil {
			logCtx.WithError(err).Error("Store error checking room id uniqueness")
			return nil, ErrInternalServer
		}
		if exists {
			logCtx.WithField("room_id", roomID).Warnf("Generated room id already exists, retrying (attempt %d)", attempt)
			continue
		}

		room := domain.NewRoom(roomID, hash, creatorConnID, now)
		member := creator
		room.AddUser(&member)
		if err := s.roomRepo.Create(ctx, room); err != nil {
			if errors.Is(err, repository.ErrDuplicateEntry) {
				logCtx.WithField("room_id", roomID).Warnf("Room id taken concurrently, retrying (attempt %d)", attempt)
				continue
			}
			logCtx.WithError(err).Error("Failed to store new room")
			return nil, ErrInternalServer
		}

		logCtx.WithFields(logrus.Fields{"room_id": roomID, "expires_at": room.ExpiresAt}).Info("Room created")
		return &CreatedRoom{
			RoomID:    roomID,
			Password:  password,
			User:      creator,
			ExpiresAt: room.ExpiresAt,
		}, nil
	}

	logCtx.Errorf("Failed to generate a unique room id after %d attempts", maxCreateAttempts)
	return nil, ErrInternalServer
}

// ValidateRoom checks room existence, expiry and password without binding
// anything. Failures come back in that priority order.
func (s *RoomService) ValidateRoom(ctx context.Context, roomID, password string) error {
	roomID = NormalizeRoomID(roomID)
	hash, err := s.passwordHash(ctx, roomID)
	if err != nil {
		return err
	}
	if !passwordMatches(hash, password) {
		logrus.WithField("room_id", roomID).Debug("Room validation failed: incorrect password")
		return ErrIncorrectPassword
	}
	return nil
}

// JoinRoom adds the connection to the room after checking the password and
// the rejoin cap. A failed join never touches members or rejoin counts.
func (s *RoomService) JoinRoom(ctx context.Context, connID string, req JoinRequest) (*JoinResult, error) {
	roomID := NormalizeRoomID(req.RoomID)
	logCtx := logrus.WithFields(logrus.Fields{"room_id": roomID, "conn_id": connID})

	hash, err := s.passwordHash(ctx, roomID)
	if err != nil {
		logCtx.WithError(err).Debug("Join rejected")
		return nil, err
	}
	// Compared outside the store lock.
	if !passwordMatches(hash, req.Password) {
		logCtx.Debug("Join rejected: incorrect password")
		return nil, ErrIncorrectPassword
	}

	key := req.UserID
	if key == "" {
		key = connID
	}

	var result *JoinResult
	err = s.roomRepo.UpdateLive(ctx, roomID, func(room *domain.Room) error {
		if !room.RejoinAllowed(key) {
			return ErrRejoinLimit
		}
		user := &domain.User{
			ID:       connID,
			Name:     displayName(req.Profile.Name),
			Color:    req.Profile.Color,
			JoinedAt: s.now(),
		}
		room.AddUser(user)
		count := room.RecordJoin(key)
		result = &JoinResult{
			RoomID:      room.ID,
			User:        *user,
			Canvas:      room.Canvas.Clone(),
			Users:       room.UserList(),
			RejoinCount: count,
		}
		return nil
	})
	if err != nil {
		err = mapRepoError(err)
		logCtx.WithError(err).Info("Join rejected")
		return nil, err
	}

	logCtx.WithFields(logrus.Fields{
		"rejoin_key":   key,
		"rejoin_count": result.RejoinCount,
		"member_count": len(result.Users),
	}).Info("Connection joined room")
	return result, nil
}

// LeaveRoom removes the connection's member entry. The room itself stays
// until it expires, even when this empties it.
func (s *RoomService) LeaveRoom(ctx context.Context, connID, roomID string) (*domain.User, error) {
	var left *domain.User
	err := s.roomRepo.Update(ctx, roomID, func(room *domain.Room) error {
		left = room.RemoveUser(connID)
		if left == nil {
			return ErrNotInRoom
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	logrus.WithFields(logrus.Fields{"room_id": roomID, "conn_id": connID}).Info("Connection left room")
	return left, nil
}

// SweepExpired deletes every room past its expiry.
func (s *RoomService) SweepExpired(ctx context.Context) (int, error) {
	swept, err := s.roomRepo.SweepExpired(ctx, s.now())
	if err != nil {
		return swept, fmt.Errorf("sweep expired rooms: %w", err)
	}
	return swept, nil
}

// RoomCount returns the number of rooms currently held in the store.
func (s *RoomService) RoomCount(ctx context.Context) (int, error) {
	n, err := s.roomRepo.Count(ctx)
	if err != nil {
		return 0, mapRepoError(err)
	}
	return n, nil
}

func (s *RoomService) passwordHash(ctx context.Context, roomID string) ([]byte, error) {
	var hash []byte
	err := s.roomRepo.UpdateLive(ctx, roomID, func(room *domain.Room) error {
		hash = room.PasswordHash
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}
	return hash, nil
}

func passwordMatches(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultUserName
	}
	return name
}
