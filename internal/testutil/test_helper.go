package testutil

import (
	"testing"
	"time"

	"github.com/halcyonchat/halcyon-backend/internal/models"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// CreateTestUser creates a test user with default values
func (h *TestHelper) CreateTestUser(id uint, username string) *models.User {
	if id == 0 {
		id = 1
	}
	if username == "" {
		username = "testuser"
	}

	return &models.User{
		ID:        id,
		Username:  username,
		FullName:  "Test User",
		Avatar:    "https://example.com/avatar.jpg",
		IsOnline:  false,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}

// CreateTestDirectMessage creates a direct message with default values
func (h *TestHelper) CreateTestDirectMessage(id, senderID, recipientID uint, content string) *models.Message {
	if content == "" {
		content = "Test message"
	}
	return &models.Message{
		ID:          id,
		ClientID:    "client-id-123",
		SenderID:    senderID,
		RecipientID: &recipientID,
		Content:     content,
		CreatedAt:   time.Now(),
	}
}

// CreateTestGroupMessage creates a group message with default values
func (h *TestHelper) CreateTestGroupMessage(id, senderID, groupID uint, content string) *models.Message {
	if content == "" {
		content = "Test group message"
	}
	return &models.Message{
		ID:        id,
		ClientID:  "client-id-456",
		SenderID:  senderID,
		GroupID:   &groupID,
		Content:   content,
		CreatedAt: time.Now(),
	}
}
