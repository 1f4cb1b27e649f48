package models

import "time"

// CallRecording is the catalog entry for one call
type CallRecording struct {
	CallID    string          `gorm:"primaryKey;size:128" json:"callId"`
	Timestamp time.Time       `gorm:"not null" json:"timestamp"`
	Files     []RecordingFile `gorm:"foreignKey:CallID;references:CallID;constraint:OnDelete:CASCADE" json:"files"`
}

func (CallRecording) TableName() string {
	return "call_recordings"
}

// RecordingFile is one media file registered against a call
type RecordingFile struct {
	ID       uint        `gorm:"primaryKey" json:"id"`
	CallID   string      `gorm:"size:128;not null;uniqueIndex:idx_recording_files_call_path,priority:1" json:"callId"`
	FilePath string      `gorm:"size:1024;not null;uniqueIndex:idx_recording_files_call_path,priority:2" json:"filePath"`
	FileType MessageType `gorm:"size:32;not null" json:"fileType"`
}

func (RecordingFile) TableName() string {
	return "recording_files"
}
