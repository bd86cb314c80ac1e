package model

// HTTPHandler is the contract the HTTP API needs from the service.
type HTTPHandler interface {
	GetStatus() StatusResponse
	GetHistory() HistoryResponse
	ClearHistory() SuccessResponse
	LogCustomMessage(messageType, content string) SuccessResponse
}

// RemoteHandler is the request/response surface exposed to other processes.
type RemoteHandler interface {
	ExternalGetStatus() StatusResponse
	ExternalGetHistory() HistoryResponse
	ExternalClearHistory() SuccessResponse
	LogExternalMessage(caller, messageType, content string) SuccessResponse
}

// WebSocketHandler receives client lifecycle and frame events.
type WebSocketHandler interface {
	ClientConnected(id uint32, path string)
	ClientDisconnected(id uint32)
	HandleWebSocket(id uint32, payload []byte)
}

// Pusher delivers a payload to one connected client without waiting for
// acknowledgement. It reports false when the client is unknown or its
// queue is full.
type Pusher interface {
	Push(clientID uint32, payload []byte) bool
}

// RemoteQuerier is the client side of RemoteHandler as seen by the
// dashboard. Each call crosses a process boundary and may fail.
type RemoteQuerier interface {
	ExternalGetStatus() (StatusResponse, error)
	ExternalGetHistory() (HistoryResponse, error)
	ExternalClearHistory() (SuccessResponse, error)
}
