package identity

import (
	"github.com/bidhouse/backend/internal/domain/shared"
)

const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserRegistered      = "UserRegistered"
	EventTypeUserEmailVerified   = "UserEmailVerified"
	EventTypeUserPasswordChanged = "UserPasswordChanged"
	EventTypeUserStatusChanged   = "UserStatusChanged"
)

// UserRegisteredEvent is published when a user signs up
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

func NewUserRegisteredEvent(user *User) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID),
		Email:           user.Email,
		Username:        user.Username,
		Role:            user.Role,
	}
}

// UserEmailVerifiedEvent is published once the registration OTP is confirmed
type UserEmailVerifiedEvent struct {
	shared.BaseDomainEvent
	Email string `json:"email"`
}

func NewUserEmailVerifiedEvent(user *User) *UserEmailVerifiedEvent {
	return &UserEmailVerifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserEmailVerified, AggregateTypeUser, user.ID),
		Email:           user.Email,
	}
}

// UserPasswordChangedEvent is published on password change or reset
type UserPasswordChangedEvent struct {
	shared.BaseDomainEvent
}

func NewUserPasswordChangedEvent(user *User) *UserPasswordChangedEvent {
	return &UserPasswordChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserPasswordChanged, AggregateTypeUser, user.ID),
	}
}

// UserStatusChangedEvent is published on suspension and reactivation
type UserStatusChangedEvent struct {
	shared.BaseDomainEvent
	OldStatus UserStatus `json:"old_status"`
	NewStatus UserStatus `json:"new_status"`
	Reason    string     `json:"reason,omitempty"`
}

func NewUserStatusChangedEvent(user *User, oldStatus, newStatus UserStatus) *UserStatusChangedEvent {
	return &UserStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserStatusChanged, AggregateTypeUser, user.ID),
		OldStatus:       oldStatus,
		NewStatus:       newStatus,
		Reason:          user.SuspendedReason,
	}
}
