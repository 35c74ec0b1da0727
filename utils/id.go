package utils

import (
	"github.com/google/uuid"
)

// RunID tags one pipeline run in logs and timing reports.
func RunID() string {
	return uuid.New().String()
}
