package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/riffhouse/riffhouse/pkg/internal/models"
	"github.com/riffhouse/riffhouse/pkg/internal/storage"
	"github.com/rs/zerolog/log"
)

type qualityTier struct {
	CellWidth  int
	CellHeight int
	Bitrate    string
	AudioRate  string
}

var qualityTiers = map[string]qualityTier{
	"low":    {CellWidth: 640, CellHeight: 360, Bitrate: "1000k", AudioRate: "96k"},
	"medium": {CellWidth: 1280, CellHeight: 720, Bitrate: "2500k", AudioRate: "128k"},
	"high":   {CellWidth: 1920, CellHeight: 1080, Bitrate: "5000k", AudioRate: "192k"},
	"4k":     {CellWidth: 3840, CellHeight: 2160, Bitrate: "14000k", AudioRate: "256k"},
}

type outputFormat struct {
	VideoCodec  string
	AudioCodec  string
	ContentType string
}

var outputFormats = map[string]outputFormat{
	"mp4":  {VideoCodec: "libx264", AudioCodec: "aac", ContentType: "video/mp4"},
	"webm": {VideoCodec: "libvpx-vp9", AudioCodec: "libopus", ContentType: "video/webm"},
	"mkv":  {VideoCodec: "libx264", AudioCodec: "aac", ContentType: "video/x-matroska"},
}

func pickTier(quality string) qualityTier {
	if tier, ok := qualityTiers[quality]; ok {
		return tier
	}
	return qualityTiers["medium"]
}

func pickFormat(format string) (string, outputFormat) {
	if spec, ok := outputFormats[format]; ok {
		return format, spec
	}
	return "mp4", outputFormats["mp4"]
}

// CompositionEngine combines the completed recordings of one session into a
// single mixed artifact.
type CompositionEngine struct {
	run   Runner
	blobs storage.BlobStore
}

func NewCompositionEngine(run Runner, blobs storage.BlobStore) *CompositionEngine {
	return &CompositionEngine{
		run:   run,
		blobs: blobs,
	}
}

// Compose downloads the sources, renders the layout picked from the input
// count and uploads the result. Sources are used in creation order, oldest
// first: that ordering decides who ends up left and top in the layout, and it
// has to stay stable no matter which upload finished first. Any failure
// aborts the whole composition; nothing partial is ever published.
func (e *CompositionEngine) Compose(ctx context.Context, session models.Session, sources []models.Recording) (models.Recording, error) {
	var mixed models.Recording

	if len(sources) == 0 {
		return mixed, fmt.Errorf("%w: no sources to compose", ErrProcessingFailure)
	}

	sorted := make([]models.Recording, len(sources))
	copy(sorted, sources)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
	})

	// Layouts are only defined up to four tiles; beyond that, fall back to the
	// earliest source alone. Known limitation rather than a design choice.
	if len(sorted) > 4 {
		log.Warn().
			Uint("session", session.ID).
			Int("sources", len(sorted)).
			Msg("More sources than the layout supports, using the first input only...")
		sorted = sorted[:1]
	}

	workDir, err := scratchDir(fmt.Sprintf("compose-%d", session.ID))
	if err != nil {
		return mixed, fmt.Errorf("%w: %v", ErrProcessingFailure, err)
	}
	defer os.RemoveAll(workDir)

	inputs := make([]string, 0, len(sorted))
	for idx, source := range sorted {
		local := filepath.Join(workDir, fmt.Sprintf("source-%02d%s", idx, filepath.Ext(source.StorageRef)))
		if err := e.blobs.GetFile(ctx, source.StorageRef, local); err != nil {
			return mixed, fmt.Errorf("%w: download %s: %v", ErrProcessingFailure, source.StorageRef, err)
		}
		inputs = append(inputs, local)
	}

	format, spec := pickFormat(session.Settings.OutputFormat)
	outputPath := filepath.Join(workDir, "composite."+format)

	args := buildComposeArgs(inputs, outputPath, pickTier(session.Settings.Quality), spec)
	if _, err := e.run.Run(ctx, "ffmpeg", args...); err != nil {
		return mixed, fmt.Errorf("%w: %v", ErrProcessingFailure, err)
	}

	probe, err := ProbeFile(ctx, e.run, outputPath)
	if err != nil {
		return mixed, fmt.Errorf("%w: %v", ErrProcessingFailure, err)
	}

	ref := fmt.Sprintf("sessions/%d/composite-%s.%s", session.ID, uuid.NewString(), format)
	if err := e.blobs.PutFile(ctx, ref, outputPath, spec.ContentType); err != nil {
		return mixed, fmt.Errorf("%w: upload: %v", ErrProcessingFailure, err)
	}

	var size int64
	if info, err := os.Stat(outputPath); err == nil {
		size = info.Size()
	}

	mixed = models.Recording{
		SessionID:   session.ID,
		OwnerID:     &session.CreatorID,
		FileName:    "composite." + format,
		FileSize:    size,
		MimeType:    spec.ContentType,
		Duration:    probe.Duration,
		Bitrate:     probe.Bitrate,
		VideoCodec:  probe.VideoCodec,
		AudioCodec:  probe.AudioCodec,
		Width:       probe.Width,
		Height:      probe.Height,
		FrameRate:   probe.FrameRate,
		HasVideo:    probe.HasVideo,
		HasAudio:    probe.HasAudio,
		Status:      models.RecordingStatusCompleted,
		StorageRef:  ref,
		IsComposite: true,
		Probe:       probe.Raw,
	}
	return mixed, nil
}

// buildComposeArgs assembles the full ffmpeg invocation. A single input is
// passed through untouched.
func buildComposeArgs(inputs []string, outputPath string, tier qualityTier, spec outputFormat) []string {
	args := make([]string, 0, len(inputs)*2+24)

	if len(inputs) == 1 {
		return append(args,
			"-i", inputs[0],
			"-c", "copy",
			"-y",
			outputPath,
		)
	}

	for _, input := range inputs {
		args = append(args, "-i", input)
	}

	filter := buildLayoutFilter(len(inputs), tier.CellWidth, tier.CellHeight) + ";" + buildAudioMixFilter(len(inputs))
	args = append(args,
		"-filter_complex", filter,
		"-map", "[vout]",
		"-map", "[aout]",
		"-c:v", spec.VideoCodec,
		"-preset", "veryfast",
		"-b:v", tier.Bitrate,
		"-maxrate", tier.Bitrate,
		"-bufsize", tier.Bitrate,
		"-c:a", spec.AudioCodec,
		"-b:a", tier.AudioRate,
		"-y",
		outputPath,
	)

	return args
}

// buildLayoutFilter scales every source into a common cell, then stacks the
// cells: side by side for two, a padded second row for three, a 2x2 grid for
// four. Input order maps to left-to-right, top-to-bottom placement.
func buildLayoutFilter(n, cellWidth, cellHeight int) string {
	var b strings.Builder

	for idx := 0; idx < n; idx++ {
		b.WriteString(fmt.Sprintf(
			"[%d:v]scale=w=%d:h=%d:force_original_aspect_ratio=decrease,pad=w=%d:h=%d:x=(ow-iw)/2:y=(oh-ih)/2[cell%d];",
			idx, cellWidth, cellHeight, cellWidth, cellHeight, idx))
	}

	switch n {
	case 2:
		b.WriteString("[cell0][cell1]hstack=inputs=2[vout]")
	case 3:
		b.WriteString("[cell0][cell1]hstack=inputs=2[top];")
		b.WriteString(fmt.Sprintf("[cell2]pad=w=%d:h=%d:x=(ow-iw)/2:y=0[bottom];", cellWidth*2, cellHeight))
		b.WriteString("[top][bottom]vstack=inputs=2[vout]")
	case 4:
		b.WriteString("[cell0][cell1]hstack=inputs=2[top];")
		b.WriteString("[cell2][cell3]hstack=inputs=2[bottom];")
		b.WriteString("[top][bottom]vstack=inputs=2[vout]")
	}

	return b.String()
}

// buildAudioMixFilter mixes every source's audio; the output runs as long as
// the longest input, with a two frame dropout transition when a source ends.
func buildAudioMixFilter(n int) string {
	var b strings.Builder
	for idx := 0; idx < n; idx++ {
		b.WriteString(fmt.Sprintf("[%d:a]", idx))
	}
	b.WriteString(fmt.Sprintf("amix=inputs=%d:duration=longest:dropout_transition=2[aout]", n))
	return b.String()
}
