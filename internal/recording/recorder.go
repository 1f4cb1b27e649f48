package recording

import (
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/mossy-p/webrtc-recorder/internal/models"
)

// Recorder decodes base64 media fragments and appends them to the call's
// per-role file.
type Recorder struct {
	store  *Store
	logger *slog.Logger
}

func NewRecorder(store *Store, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{store: store, logger: logger}
}

// Record appends one fragment. Nothing is written when the payload does not
// decode.
func (r *Recorder) Record(callID string, typ models.MessageType, data string) error {
	if !typ.IsMedia() {
		return fmt.Errorf("%w: %q", ErrNotMediaType, typ)
	}

	raw, err := base64.StdEncoding.DecodeString(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	path, err := r.store.Append(callID, typ, raw)
	if err != nil {
		return err
	}

	r.logger.Debug("media fragment appended", "call_id", callID, "type", typ, "bytes", len(raw), "path", path)
	return nil
}
