package preprocess

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
)

// LoadWAV reads a 16-bit PCM mono WAV file into float32 samples in [-1, 1]
// and returns the sample rate. Only the format ffmpeg emits for the
// preprocessed intermediates is supported.
func LoadWAV(filePath string) ([]float32, int, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read wav file: %w", err)
	}
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, fmt.Errorf("%s is not a RIFF/WAVE file", filePath)
	}

	var sampleRate int
	var bitsPerSample int
	var pcm []byte

	// Walk the chunk list; ffmpeg may insert LIST/fact chunks before data.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		if body+chunkSize > len(data) {
			chunkSize = len(data) - body
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, 0, fmt.Errorf("wav fmt chunk too short: %d bytes", chunkSize)
			}
			audioFormat := binary.LittleEndian.Uint16(data[body : body+2])
			channels := binary.LittleEndian.Uint16(data[body+2 : body+4])
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(data[body+14 : body+16]))
			if audioFormat != 1 || channels != 1 || bitsPerSample != 16 {
				return nil, 0, fmt.Errorf("unsupported wav layout: format=%d channels=%d bits=%d",
					audioFormat, channels, bitsPerSample)
			}
		case "data":
			pcm = data[body : body+chunkSize]
		}

		// Chunks are word-aligned.
		offset = body + chunkSize
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if sampleRate == 0 {
		return nil, 0, fmt.Errorf("wav file %s has no fmt chunk", filePath)
	}
	if pcm == nil {
		return nil, 0, fmt.Errorf("wav file %s has no data chunk", filePath)
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(pcm[2*i : 2*i+2]))
		samples[i] = float32(v) / 32768.0
	}
	return samples, sampleRate, nil
}

// WriteWAV writes float32 samples as a canonical 16-bit PCM mono WAV.
func WriteWAV(filePath string, samples []float32, sampleRate int) error {
	dataSize := len(samples) * 2
	buf := make([]byte, 44+dataSize)

	copy(buf[0:4], "RIFF")
	binary.LittleEndian.PutUint32(buf[4:8], uint32(36+dataSize))
	copy(buf[8:12], "WAVE")
	copy(buf[12:16], "fmt ")
	binary.LittleEndian.PutUint32(buf[16:20], 16)
	binary.LittleEndian.PutUint16(buf[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(buf[22:24], 1) // mono
	binary.LittleEndian.PutUint32(buf[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(buf[28:32], uint32(sampleRate*2))
	binary.LittleEndian.PutUint16(buf[32:34], 2)
	binary.LittleEndian.PutUint16(buf[34:36], 16)
	copy(buf[36:40], "data")
	binary.LittleEndian.PutUint32(buf[40:44], uint32(dataSize))

	for i, s := range samples {
		v := math.Round(float64(s) * 32767.0)
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(buf[44+2*i:46+2*i], uint16(int16(v)))
	}

	if err := os.WriteFile(filePath, buf, 0644); err != nil {
		return fmt.Errorf("failed to write wav file: %w", err)
	}
	return nil
}
