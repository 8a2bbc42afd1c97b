package billing

import "errors"

// Domain errors. Anything else returned by this package is a storage failure
// wrapped with %w and should surface to callers as an internal error.
var (
	ErrPlanNotFound         = errors.New("plan not found")
	ErrTeamNotFound         = errors.New("team not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrActivationNotFound   = errors.New("subscription activation not found")
	ErrOrderNotFound        = errors.New("order not found")

	// ErrPlanNameTaken is returned when creating a plan whose name already exists.
	ErrPlanNameTaken = errors.New("plan name already taken")

	// ErrTeamAlreadyActive is returned when paying an order would give a team
	// a second concurrently active subscription.
	ErrTeamAlreadyActive = errors.New("team already has an active subscription")

	// ErrInvalidOrderStatus is returned for order statuses outside PAID/UNPAID.
	ErrInvalidOrderStatus = errors.New("invalid order status")
)

// IsNotFound reports whether err is one of the missing-entity domain errors.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrTeamNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrSubscriptionNotFound) ||
		errors.Is(err, ErrActivationNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsConflict reports whether err is a uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrPlanNameTaken) || errors.Is(err, ErrTeamAlreadyActive)
}
