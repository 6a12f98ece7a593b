package screenshare

// DialogConfig is the text of a consent prompt.
type DialogConfig struct {
	Title   string
	Body    string
	Dismiss string
	Confirm string
}

var dialogConfigs = map[DialogKind]DialogConfig{
	DialogUserRequest: {
		Title:   "Share your screen?",
		Body:    "The agent will be able to see your screen. You can stop sharing at any time.",
		Dismiss: "No",
		Confirm: "Yes",
	},
	DialogAgentRequest: {
		Title:   "Screen share request",
		Body:    "The agent is asking to view your screen.",
		Dismiss: "Deny",
		Confirm: "Allow",
	},
	DialogActivationRequest: {
		Title:   "Screen share request",
		Body:    "The agent is ready. Allow the session to start?",
		Dismiss: "Deny",
		Confirm: "Allow",
	},
	DialogRemoteControlRequest: {
		Title:   "Remote control request",
		Body:    "The agent is asking to control your screen.",
		Dismiss: "Deny",
		Confirm: "Allow",
	},
	DialogFullDeviceRequest: {
		Title:   "Full device share request",
		Body:    "The agent is asking to see your entire device, not just this app.",
		Dismiss: "Deny",
		Confirm: "Allow",
	},
	DialogStopConfirmation: {
		Title:   "Stop screen share?",
		Body:    "The agent will no longer see your screen.",
		Dismiss: "No",
		Confirm: "Yes",
	},
}

// DialogConfigFor returns the text for kind. It reports false for
// DialogNone and unknown kinds.
func DialogConfigFor(kind DialogKind) (DialogConfig, bool) {
	cfg, ok := dialogConfigs[kind]
	return cfg, ok
}
