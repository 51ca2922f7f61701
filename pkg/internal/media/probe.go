package media

import (
	"context"
	"errors"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

type ProbeResult struct {
	Duration   float64 `json:"duration"`
	Bitrate    int64   `json:"bitrate"`
	VideoCodec string  `json:"video_codec"`
	AudioCodec string  `json:"audio_codec"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameRate  float64 `json:"frame_rate"`
	HasVideo   bool    `json:"has_video"`
	HasAudio   bool    `json:"has_audio"`

	Raw map[string]any `json:"raw"`
}

type probePayload struct {
	Format struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
	} `json:"format"`
	Streams []struct {
		CodecType  string `json:"codec_type"`
		CodecName  string `json:"codec_name"`
		Width      int    `json:"width"`
		Height     int    `json:"height"`
		RFrameRate string `json:"r_frame_rate"`
	} `json:"streams"`
}

// ProbeFile reads technical metadata out of a media container with ffprobe.
func ProbeFile(ctx context.Context, run Runner, path string) (ProbeResult, error) {
	output, err := run.Run(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	if err != nil {
		return ProbeResult{}, err
	}

	return parseProbeOutput(output)
}

func parseProbeOutput(output []byte) (ProbeResult, error) {
	var result ProbeResult

	var payload probePayload
	if err := jsoniter.Unmarshal(output, &payload); err != nil {
		return result, err
	}
	if len(payload.Streams) == 0 {
		return result, errors.New("no media streams in container")
	}

	result.Duration, _ = strconv.ParseFloat(payload.Format.Duration, 64)
	result.Bitrate, _ = strconv.ParseInt(payload.Format.BitRate, 10, 64)

	for _, stream := range payload.Streams {
		switch stream.CodecType {
		case "video":
			if result.HasVideo {
				continue
			}
			result.HasVideo = true
			result.VideoCodec = stream.CodecName
			result.Width = stream.Width
			result.Height = stream.Height
			result.FrameRate = parseRational(stream.RFrameRate)
		case "audio":
			if result.HasAudio {
				continue
			}
			result.HasAudio = true
			result.AudioCodec = stream.CodecName
		}
	}

	_ = jsoniter.Unmarshal(output, &result.Raw)

	return result, nil
}

// parseRational turns ffprobe frame rates like "30000/1001" into a float.
func parseRational(v string) float64 {
	parts := strings.SplitN(v, "/", 2)
	if len(parts) == 1 {
		out, _ := strconv.ParseFloat(parts[0], 64)
		return out
	}

	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}
