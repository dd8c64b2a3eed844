package websocket

import (
	"encoding/binary"
	"math"

	"trend-finder-be/pkg/audio"
)

const (
	EventAudioStart = "AUDIO_START"
	EventAudioEnd   = "AUDIO_END"
)

// AudioSink streams a playback to the sockets of one device: a JSON
// AUDIO_START with the format, binary frames of little-endian float32
// samples, then a JSON AUDIO_END with the stop reason.
type AudioSink struct {
	hub      *Hub
	clientID string
}

func NewAudioSink(hub *Hub, clientID string) *AudioSink {
	return &AudioSink{hub: hub, clientID: clientID}
}

func (s *AudioSink) Start(format audio.Format) error {
	return s.hub.SendJSON(s.clientID, EventAudioStart, format)
}

func (s *AudioSink) WriteFrame(samples []float32) error {
	s.hub.Send(s.clientID, Message{Binary: true, Data: EncodeFrame(samples)})
	return nil
}

func (s *AudioSink) Close(reason audio.StopReason) error {
	return s.hub.SendJSON(s.clientID, EventAudioEnd, map[string]interface{}{"reason": reason})
}

// EncodeFrame packs samples as little-endian float32.
func EncodeFrame(samples []float32) []byte {
	out := make([]byte, 4*len(samples))
	for i, v := range samples {
		binary.LittleEndian.PutUint32(out[4*i:], math.Float32bits(v))
	}
	return out
}
