package models

import "gorm.io/datatypes"

type RecordingStatus = string

const (
	RecordingStatusUploading  = RecordingStatus("uploading")
	RecordingStatusProcessing = RecordingStatus("processing")
	RecordingStatusCompleted  = RecordingStatus("completed")
	RecordingStatusFailed     = RecordingStatus("failed")
)

type Recording struct {
	BaseModel

	SessionID uint  `json:"session_id"`
	OwnerID   *uint `json:"owner_id"`

	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	MimeType string `json:"mime_type"`

	// Technical metadata filled in by the ingest stage.
	Duration   float64 `json:"duration"`
	VideoCodec string  `json:"video_codec"`
	AudioCodec string  `json:"audio_codec"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameRate  float64 `json:"frame_rate"`
	Bitrate    int64   `json:"bitrate"`
	HasVideo   bool    `json:"has_video"`
	HasAudio   bool    `json:"has_audio"`

	Status RecordingStatus `json:"status"`

	StorageRef   string  `json:"storage_ref"`
	ThumbnailRef *string `json:"thumbnail_ref"`

	// IsComposite marks the mixed artifact produced out of the individual
	// per-participant recordings of a session.
	IsComposite bool `json:"is_composite"`

	Probe datatypes.JSONMap `json:"probe,omitempty"`
}
