package protocol

// RPC method names invoked by the client.
const (
	MethodConnect  = "connect"
	MethodChatSend = "chat.send"
)
