package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nextlevelbuilder/clawface/internal/media"
	"github.com/nextlevelbuilder/clawface/internal/tts"
)

const maxAudioUpload = 25 << 20

type speakRequest struct {
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

func (s *Server) handleSpeak(w http.ResponseWriter, r *http.Request) {
	if s.speech == nil {
		writeError(w, http.StatusServiceUnavailable, "text-to-speech not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxExpressionBody)
	var req speakRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "missing text")
		return
	}

	res, err := s.speech.Synthesize(r.Context(), req.Text, tts.Options{Voice: req.Voice})
	if err != nil {
		var pe *tts.ProviderError
		switch {
		case errors.As(err, &pe):
			writeError(w, http.StatusBadGateway, pe.Body)
		case errors.Is(err, tts.ErrEmptyText):
			writeError(w, http.StatusBadRequest, "missing text")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	w.Header().Set("Content-Type", res.MimeType)
	w.WriteHeader(http.StatusOK)
	w.Write(res.Audio)
}

func (s *Server) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if s.stt == nil {
		writeError(w, http.StatusServiceUnavailable, "speech-to-text not configured")
		return
	}
	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxAudioUpload))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	text, err := s.stt.Transcribe(r.Context(), audio)
	if err != nil {
		slog.Warn("http: transcribe failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func (s *Server) handleAudio(w http.ResponseWriter, r *http.Request) {
	clip, ok := s.audio.Get(r.PathValue("id"))
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", clip.MimeType)
	w.Write(clip.Data)
}

func (s *Server) handleMediaProxy(w http.ResponseWriter, r *http.Request) {
	file := r.URL.Query().Get("file")
	if file == "" {
		http.Error(w, "missing file param", http.StatusBadRequest)
		return
	}
	data, mimeType, err := s.local.Read(file)
	switch {
	case errors.Is(err, media.ErrForbiddenType):
		http.Error(w, "forbidden file type", http.StatusForbidden)
		return
	case errors.Is(err, media.ErrOutsideRoots):
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	case err != nil:
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", mimeType)
	w.Write(data)
}
