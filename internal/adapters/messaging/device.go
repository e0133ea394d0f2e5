package messaging

import (
	"context"
	"errors"
	"fmt"
	"log"

	"posdesk/internal/core/services"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/store/sqlstore"
	"go.mau.fi/whatsmeow/types"
	waLog "go.mau.fi/whatsmeow/util/log"

	_ "modernc.org/sqlite" // Pure Go SQLite driver for the device store
)

// ErrDeviceNotPaired is returned while the linked device has no session
var ErrDeviceNotPaired = errors.New("whatsapp device not paired")

// DeviceNotifier sends messages from a linked WhatsApp device session
type DeviceNotifier struct {
	client *whatsmeow.Client
}

// NewDeviceNotifier opens the device store at storePath and connects. When
// the device has never been paired, pairing codes are written to the log
// and sends fail with ErrDeviceNotPaired until pairing completes.
func NewDeviceNotifier(ctx context.Context, storePath string) (*DeviceNotifier, error) {
	dbLog := waLog.Stdout("Database", "WARN", true)
	container, err := sqlstore.New(ctx, "sqlite", "file:"+storePath+"?_pragma=foreign_keys(1)", dbLog)
	if err != nil {
		return nil, fmt.Errorf("open whatsapp store: %w", err)
	}

	deviceStore, err := container.GetFirstDevice(ctx)
	if err != nil {
		return nil, fmt.Errorf("load whatsapp device: %w", err)
	}

	client := whatsmeow.NewClient(deviceStore, waLog.Stdout("Client", "INFO", true))
	n := &DeviceNotifier{client: client}

	if client.Store.ID == nil {
		qrChan, _ := client.GetQRChannel(context.Background())
		if err := client.Connect(); err != nil {
			return nil, fmt.Errorf("connect whatsapp: %w", err)
		}
		go func() {
			for evt := range qrChan {
				if evt.Event == "code" {
					log.Printf("📱 WhatsApp pairing code (scan with the store phone): %s", evt.Code)
				} else {
					log.Printf("📱 WhatsApp login event: %s", evt.Event)
				}
			}
		}()
		return n, nil
	}

	if err := client.Connect(); err != nil {
		return nil, fmt.Errorf("connect whatsapp: %w", err)
	}
	log.Printf("✅ WhatsApp device connected [%s]", client.Store.ID.User)
	return n, nil
}

// Send delivers a text message and returns its WhatsApp message id
func (n *DeviceNotifier) Send(ctx context.Context, msg services.Notification) (string, error) {
	if n.client.Store.ID == nil {
		return "", ErrDeviceNotPaired
	}

	to, err := NormalizePhone(msg.Phone)
	if err != nil {
		return "", err
	}

	jid := types.NewJID(to, types.DefaultUserServer)
	text := FormatText(msg)
	resp, err := n.client.SendMessage(ctx, jid, &waE2E.Message{
		Conversation: &text,
	})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

// Close disconnects the device session
func (n *DeviceNotifier) Close() {
	n.client.Disconnect()
}
