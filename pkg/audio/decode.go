package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"strings"

	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"
	"github.com/mewkiz/flac"
	"github.com/neuroscreen-ai/inference/pkg/common/models"

	gowav "github.com/go-audio/wav"
)

// SupportedFormats lists the accepted upload formats.
var SupportedFormats = []string{"wav", "mp3", "ogg", "flac"}

// Decode turns an uploaded recording into a mono float64 waveform in
// [-1, 1] plus its sample rate. The declared format decides the codec;
// a payload that does not parse as that codec is a caller error.
func Decode(data []byte, format string) ([]float64, int, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "wav":
		return decodeWAV(data)
	case "mp3":
		return decodeMP3(data)
	case "ogg":
		return decodeOGG(data)
	case "flac":
		return decodeFLAC(data)
	default:
		return nil, 0, models.NewError(models.ErrUnsupportedFormat,
			"unsupported audio format %q: upload a WAV, MP3, OGG or FLAC file", format)
	}
}

func decodeWAV(data []byte) ([]float64, int, error) {
	decoder := gowav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, 0, models.NewError(models.ErrUnsupportedFormat, "file is not a valid WAV recording")
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, 0, models.NewError(models.ErrUnsupportedFormat, "failed to decode WAV data: %v", err)
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, 0, models.NewError(models.ErrUnsupportedFormat, "WAV file reports no channels")
	}
	bitDepth := buf.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = 16
	}
	scale := float64(int64(1) << (bitDepth - 1))

	samples := make([]float64, 0, len(buf.Data)/channels)
	for i := 0; i+channels <= len(buf.Data); i += channels {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(buf.Data[i+c]) / scale
		}
		samples = append(samples, sum/float64(channels))
	}
	return samples, buf.Format.SampleRate, nil
}

func decodeMP3(data []byte) ([]float64, int, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, 0, models.NewError(models.ErrUnsupportedFormat, "failed to decode MP3 data: %v", err)
	}
	raw, err := io.ReadAll(decoder)
	if err != nil {
		return nil, 0, models.NewError(models.ErrUnsupportedFormat, "failed to read MP3 stream: %v", err)
	}
	// go-mp3 always emits 16-bit little-endian stereo.
	samples := make([]float64, 0, len(raw)/4)
	for i := 0; i+4 <= len(raw); i += 4 {
		left := int16(binary.LittleEndian.Uint16(raw[i:]))
		right := int16(binary.LittleEndian.Uint16(raw[i+2:]))
		samples = append(samples, (float64(left)+float64(right))/(2*32768))
	}
	return samples, decoder.SampleRate(), nil
}

func decodeOGG(data []byte) ([]float64, int, error) {
	pcm, format, err := oggvorbis.ReadAll(bytes.NewReader(data))
	if err != nil {
		return nil, 0, models.NewError(models.ErrUnsupportedFormat, "failed to decode OGG data: %v", err)
	}
	channels := format.Channels
	if channels < 1 {
		return nil, 0, models.NewError(models.ErrUnsupportedFormat, "OGG file reports no channels")
	}
	samples := make([]float64, 0, len(pcm)/channels)
	for i := 0; i+channels <= len(pcm); i += channels {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(pcm[i+c])
		}
		samples = append(samples, sum/float64(channels))
	}
	return samples, format.SampleRate, nil
}

func decodeFLAC(data []byte) ([]float64, int, error) {
	stream, err := flac.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, 0, models.NewError(models.ErrUnsupportedFormat, "failed to decode FLAC data: %v", err)
	}
	channels := int(stream.Info.NChannels)
	if channels < 1 {
		return nil, 0, models.NewError(models.ErrUnsupportedFormat, "FLAC file reports no channels")
	}
	scale := float64(int64(1) << (stream.Info.BitsPerSample - 1))

	var samples []float64
	for {
		frame, err := stream.ParseNext()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, models.NewError(models.ErrUnsupportedFormat, "failed to read FLAC frame: %v", err)
		}
		n := len(frame.Subframes[0].Samples)
		for i := 0; i < n; i++ {
			var sum float64
			for c := 0; c < channels; c++ {
				sum += float64(frame.Subframes[c].Samples[i]) / scale
			}
			samples = append(samples, sum/float64(channels))
		}
	}
	return samples, int(stream.Info.SampleRate), nil
}

// FormatFromFilename extracts the declared format from an uploaded
// file name.
func FormatFromFilename(name string) (string, error) {
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return "", models.NewError(models.ErrUnsupportedFormat,
			"cannot determine audio format of %q: upload a WAV, MP3, OGG or FLAC file", name)
	}
	ext := strings.ToLower(name[idx+1:])
	for _, f := range SupportedFormats {
		if ext == f {
			return ext, nil
		}
	}
	return "", models.NewError(models.ErrUnsupportedFormat,
		"unsupported audio format %q: upload a WAV, MP3, OGG or FLAC file", ext)
}
