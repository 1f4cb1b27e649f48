package recording

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/mossy-p/webrtc-recorder/internal/models"
)

// MediaExtension is the extension every recorded fragment file gets.
const MediaExtension = ".webm"

const maxCallIDLength = 128

var callIDPattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateCallID rejects ids that could escape the media directories or
// act as glob patterns.
func ValidateCallID(callID string) error {
	if callID == "" || len(callID) > maxCallIDLength || callID == "." || callID == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidCallID, callID)
	}
	if !callIDPattern.MatchString(callID) {
		return fmt.Errorf("%w: %q", ErrInvalidCallID, callID)
	}
	return nil
}

// Store lays out media files under a root directory as
// {root}/{Video|Audio}/{callId}-{type}.webm.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string {
	return s.root
}

// Path returns the file a (callID, type) pair is appended to.
func (s *Store) Path(callID string, typ models.MessageType) (string, error) {
	if !typ.IsMedia() {
		return "", fmt.Errorf("%w: %q", ErrNotMediaType, typ)
	}
	if err := ValidateCallID(callID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, typ.MediaDir(), callID+"-"+string(typ)+MediaExtension), nil
}

// Append writes data to the end of the (callID, type) file, creating the
// directory and file when missing. The file is closed before returning.
func (s *Store) Append(callID string, typ models.MessageType, data []byte) (string, error) {
	path, err := s.Path(callID, typ)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("failed to append to %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}
	return path, nil
}

// DiscoveredFile is a media file found on disk for a call.
type DiscoveredFile struct {
	Path string
	Type models.MessageType
}

// Discover lists the files written for a call under the four canonical
// names, matching any extension.
func (s *Store) Discover(callID string) ([]DiscoveredFile, error) {
	if err := ValidateCallID(callID); err != nil {
		return nil, err
	}

	var found []DiscoveredFile
	for _, typ := range models.MediaTypes {
		pattern := filepath.Join(s.root, typ.MediaDir(), callID+"-"+string(typ)+".*")
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to scan for %s files: %w", typ, err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil || !info.Mode().IsRegular() {
				continue
			}
			found = append(found, DiscoveredFile{Path: m, Type: typ})
		}
	}
	return found, nil
}
