package store

import (
	"fmt"

	"github.com/goccy/go-json"

	"visaflow/internal/interview/models"
)

func encode(session *models.Session) ([]byte, error) {
	b, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	return b, nil
}

func decode(b []byte) (*models.Session, error) {
	var session models.Session
	if err := json.Unmarshal(b, &session); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &session, nil
}
