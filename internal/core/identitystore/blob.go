// Package identitystore persists the identity captured by the chat widget,
// one JSON blob per visitor, the way the browser kept it in local storage.
package identitystore

import (
	"encoding/json"
	"fmt"

	"github.com/markdave123-py/alemana-chat/internal/models"
)

// KeyPrefix namespaces every persisted blob.
const KeyPrefix = "alemana-chat-gemini-state"

// Key is the storage key of a visitor's blob.
func Key(visitorID string) string {
	return KeyPrefix + "/" + visitorID
}

// blob is the persisted document. Only the identity is kept; transcript and
// flags are session scoped.
type blob struct {
	UserInfo *models.UserInfo `json:"userInfo"`
}

func encode(info models.UserInfo) ([]byte, error) {
	return json.Marshal(blob{UserInfo: &info})
}

func decode(data []byte) (*models.UserInfo, error) {
	var b blob
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decode identity blob: %w", err)
	}
	return b.UserInfo, nil
}
