package protocol

// ConnectClient identifies the client software in connect params.
type ConnectClient struct {
	ID       string `json:"id"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
	Mode     string `json:"mode"`
}

// ConnectAuth carries the shared token.
type ConnectAuth struct {
	Token string `json:"token,omitempty"`
}

// ConnectParams is the params object of the connect request.
type ConnectParams struct {
	MinProtocol int                    `json:"minProtocol"`
	MaxProtocol int                    `json:"maxProtocol"`
	Client      ConnectClient          `json:"client"`
	Role        string                 `json:"role"`
	Scopes      []string               `json:"scopes"`
	Caps        []string               `json:"caps"`
	Commands    []string               `json:"commands"`
	Permissions map[string]interface{} `json:"permissions"`
	Auth        ConnectAuth            `json:"auth"`
	Locale      string                 `json:"locale"`
	UserAgent   string                 `json:"userAgent"`
}

// ChatSendParams is the params object of chat.send.
type ChatSendParams struct {
	SessionKey     string `json:"sessionKey"`
	Message        string `json:"message"`
	IdempotencyKey string `json:"idempotencyKey"`
}
