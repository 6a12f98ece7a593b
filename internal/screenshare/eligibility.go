package screenshare

import "github.com/ccai-examples/ccai-demo/internal/chat"

// IsEnabled reports whether screen share may be offered: an agent staffs the
// chat, the chat allows screen share, and the service is available.
func IsEnabled(status chat.Status, supportsScreenShare *bool, sdk Availability) bool {
	if !status.IsAssigned() {
		return false
	}
	if supportsScreenShare == nil || !*supportsScreenShare {
		return false
	}
	return sdk != nil && sdk.IsAvailable()
}
