package transcriber

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/DrBenedictPorkins/audio-diarizer/internal/transcript"
)

// voskChunkBytes is the binary frame size streamed to the server, ~0.25s of
// 16 kHz 16-bit audio per frame.
const voskChunkBytes = 8000

// VoskTranscriber transcribes clips against a Vosk websocket server. Each
// clip gets its own connection: PCM frames, then {"eof":1}, then the final
// results until the server closes the stream.
type VoskTranscriber struct {
	serverURL string
}

// NewVoskTranscriber builds the real transcription adapter.
func NewVoskTranscriber(serverURL string) *VoskTranscriber {
	return &VoskTranscriber{serverURL: serverURL}
}

type voskResult struct {
	Text   string `json:"text"`
	Result []struct {
		Word  string  `json:"word"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Conf  float64 `json:"conf"`
	} `json:"result"`
	Partial string `json:"partial"`
}

func (vt *VoskTranscriber) TranscribeClip(ctx context.Context, samples []float32, sampleRate int) (ClipResult, error) {
	url := fmt.Sprintf("%s/ws?sample_rate=%d", vt.serverURL, sampleRate)
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return ClipResult{}, fmt.Errorf("failed to connect to Vosk server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
		conn.SetWriteDeadline(deadline)
	}

	pcm := pcmBytes(samples)
	for off := 0; off < len(pcm); off += voskChunkBytes {
		end := off + voskChunkBytes
		if end > len(pcm) {
			end = len(pcm)
		}
		if err := conn.WriteMessage(websocket.BinaryMessage, pcm[off:end]); err != nil {
			return ClipResult{}, fmt.Errorf("failed to send audio to Vosk: %w", err)
		}
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"eof": 1}`)); err != nil {
		return ClipResult{}, fmt.Errorf("failed to send EOF to Vosk: %w", err)
	}

	var texts []string
	var words []transcript.Word
	var confSum float64

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			// A close after the final result ends the clip normally; any
			// failure before that is a real transcription error.
			if len(texts) == 0 && !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return ClipResult{}, fmt.Errorf("vosk stream failed: %w", err)
			}
			break
		}

		var result voskResult
		if err := json.Unmarshal(message, &result); err != nil {
			log.Printf("Failed to parse Vosk result: %v", err)
			continue
		}
		if result.Text == "" {
			continue // partial
		}

		texts = append(texts, result.Text)
		for _, w := range result.Result {
			words = append(words, transcript.Word{
				Word:        w.Word,
				Start:       w.Start,
				End:         w.End,
				Probability: w.Conf,
			})
			confSum += w.Conf
		}
	}

	res := ClipResult{
		Text:  strings.Join(texts, " "),
		Words: words,
	}
	if len(words) > 0 {
		mean := confSum / float64(len(words))
		res.Confidence = &mean
	}
	return res, nil
}

// pcmBytes converts float32 samples to little-endian 16-bit PCM.
func pcmBytes(samples []float32) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := math.Round(float64(s) * 32767.0)
		if v > 32767 {
			v = 32767
		}
		if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[2*i:2*i+2], uint16(int16(v)))
	}
	return out
}
