package util

import (
	"time"

	"github.com/google/uuid"
)

// NewID gera um identificador UUID v4 em formato string.
func NewID() string {
	return uuid.NewString()
}

// Now centraliza a obtenção de horário em UTC.
func Now() time.Time {
	return time.Now().UTC()
}
