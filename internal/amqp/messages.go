package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// ExportKind labels what changed. The worker fans out on it.
type ExportKind string

const (
	ExportItemUpdated  ExportKind = "item_updated"
	ExportGroupSaved   ExportKind = "group_saved"
	ExportGroupDeleted ExportKind = "group_deleted"
)

// ExportMessage is the lightweight change notification published to the
// export queue. It carries only the kind and the id; the worker fetches the
// current row from the database, so a re-delivered message is harmless.
type ExportMessage struct {
	Kind      ExportKind `json:"kind"`
	ID        int64      `json:"id"`
	Timestamp time.Time  `json:"timestamp"`
}

func NewExportMessage(kind ExportKind, id int64) *ExportMessage {
	return &ExportMessage{Kind: kind, ID: id, Timestamp: time.Now()}
}

func (m *ExportMessage) Validate() error {
	switch m.Kind {
	case ExportItemUpdated, ExportGroupSaved, ExportGroupDeleted:
	default:
		return fmt.Errorf("unknown export kind %q", m.Kind)
	}
	if m.ID <= 0 {
		return fmt.Errorf("invalid export id %d", m.ID)
	}
	return nil
}

func (m *ExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExportMessageFromJSON(data []byte) (*ExportMessage, error) {
	var msg ExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
