package explorer

import "time"

const (
	listingTimeout   = 10 * time.Second
	operationTimeout = 30 * time.Second
	voiceTimeout     = 20 * time.Second

	welcomeMessage     = "Welcome to File System Simulator!"
	timeoutMessage     = "Request timed out. Please try again."
	sessionExpiredText = "Session expired. Please log in again."

	shellMaxLines   = 500
	previewMaxLines = 200
	minListWidth    = 24
)

const defaultNotifyDuration = 6 * time.Second
