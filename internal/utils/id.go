package utils

import "github.com/google/uuid"

// RequestID generates a correlation id attached to every outbound request
// so failures can be matched against gateway-side logs.
func RequestID() string {
	return uuid.New().String()
}
