package magister

import (
	"context"
	"encoding/json"
	"fmt"
)

// MessageFolder is a folder in the account owner's message box.
type MessageFolder struct {
	ID       int64
	Name     string
	Unread   int
	ParentID int64
}

type messageFolderItem struct {
	ID       int64  `json:"Id"`
	Name     string `json:"Naam"`
	Unread   int    `json:"OngelezenBerichten"`
	ParentID int64  `json:"ParentId"`
}

// decodeMessageFolder validates and converts a raw folder record.
func decodeMessageFolder(raw json.RawMessage) (MessageFolder, error) {
	var item messageFolderItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return MessageFolder{}, &DecodeError{Resource: "message folder", Reason: err.Error()}
	}
	if item.ID == 0 {
		return MessageFolder{}, &DecodeError{Resource: "message folder", Reason: "missing Id"}
	}
	return MessageFolder{
		ID:       item.ID,
		Name:     item.Name,
		Unread:   item.Unread,
		ParentID: item.ParentID,
	}, nil
}

// MessageFolders fetches the account owner's message folders. The portal's
// order is preserved.
func (c *Client) MessageFolders(ctx context.Context) ([]MessageFolder, error) {
	if err := c.needs("berichten", ActionRead); err != nil {
		return nil, err
	}

	var envelope itemsEnvelope
	if err := c.getJSON(ctx, c.personURL+"/berichten/mappen", &envelope); err != nil {
		return nil, fmt.Errorf("failed to get message folders: %w", err)
	}

	folders := make([]MessageFolder, 0, len(envelope.Items))
	for _, raw := range envelope.Items {
		folder, err := decodeMessageFolder(raw)
		if err != nil {
			return nil, err
		}
		folders = append(folders, folder)
	}

	c.logger.Debug().Int("count", len(folders)).Msg("Retrieved message folders from Magister")
	return folders, nil
}
