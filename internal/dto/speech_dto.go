package dto

type SpeakRequest struct {
	Text string `json:"text" validate:"required,max=8000"`
}

type PlaybackResponse struct {
	Playing bool `json:"playing"`
	// SocketConnected is false when no websocket of this client is open on
	// the serving instance; frames then travel only through the cluster bus.
	SocketConnected bool `json:"socket_connected"`
}

type StopSpeechResponse struct {
	Stopped bool `json:"stopped"`
}
