// Package notifications handles system notifications and their timing
package notifications

import (
	"sync"

	"github.com/gen2brain/beeep"
)

// Permission mirrors the tri-state of a native notification capability
type Permission string

const (
	PermissionDefault Permission = "default"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

// Notifier is the delivery capability the timing engine emits through.
// Delivery is fire-and-forget; there is no confirmation. The tag carries
// the dedup identity of the alert for backends that can coalesce on it.
type Notifier interface {
	Permission() Permission
	RequestPermission() Permission
	Notify(title, body, tag string) error
}

// SystemNotifier delivers notifications through the desktop's native
// notification service
type SystemNotifier struct {
	mu         sync.Mutex
	permission Permission
}

// NewSystemNotifier creates a notifier in the default (unrequested)
// permission state
func NewSystemNotifier() *SystemNotifier {
	return &SystemNotifier{permission: PermissionDefault}
}

// Permission returns the current permission state
func (n *SystemNotifier) Permission() Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.permission
}

// RequestPermission resolves the default state. The desktop notification
// service has no user-facing prompt, so a request is granted unless the
// notifier was explicitly disabled.
func (n *SystemNotifier) RequestPermission() Permission {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.permission == PermissionDefault {
		n.permission = PermissionGranted
	}
	return n.permission
}

// SetEnabled grants or denies permission, mapping the user's reminder
// preference onto the permission state
func (n *SystemNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if enabled {
		n.permission = PermissionGranted
	} else {
		n.permission = PermissionDenied
	}
}

// Notify sends a system notification. Without granted permission it is a
// silent no-op, not an error.
func (n *SystemNotifier) Notify(title, body, _ string) error {
	if n.Permission() != PermissionGranted {
		return nil
	}
	return beeep.Notify(title, body, "")
}

// SendTestNotification sends a test notification
func (n *SystemNotifier) SendTestNotification() error {
	return n.Notify("MedTrack", "Test notification - reminders are working!", "test")
}
