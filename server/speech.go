package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/unipath-ai/unipath/voice"
)

// handleSpeechToText accepts a multipart "audio" file and returns its
// transcription.
func (s *Server) handleSpeechToText(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, voice.MaxAudioBytes+(1<<20))

	file, header, err := r.FormFile("audio")
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "audio file is required")
		return
	}
	defer file.Close()

	text, err := s.voice.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		if errors.Is(err, voice.ErrAudioTooLarge) {
			respondError(w, http.StatusBadRequest, "invalid_request", "audio file too large (max 25MB)")
			return
		}
		s.logger.Error("transcription failed", "error", err)
		respondError(w, http.StatusBadGateway, "stt_error", "speech transcription failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"text": text})
}

type ttsRequest struct {
	Text string `json:"text"`
}

// handleTextToSpeech synthesizes the given text and streams back audio.
func (s *Server) handleTextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	audio, err := s.voice.Synthesize(r.Context(), req.Text)
	if err != nil {
		if errors.Is(err, voice.ErrEmptyText) {
			respondError(w, http.StatusBadRequest, "invalid_request", "text is required")
			return
		}
		s.logger.Error("speech synthesis failed", "error", err)
		respondError(w, http.StatusBadGateway, "tts_error", "speech synthesis failed")
		return
	}
	defer audio.Close()

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Header().Set("Content-Disposition", "inline; filename=speech.mp3")
	w.WriteHeader(http.StatusOK)
	_, _ = io.Copy(w, audio)
}
