package admin

// ComponentResponse reports the pause state of one component.
type ComponentResponse struct {
	Component string `json:"component"`
	Address   string `json:"address"`
	Owner     string `json:"owner"`
	Paused    bool   `json:"paused"`
}

type FeeResponse struct {
	Fee string `json:"fee"`
}

type WithdrawResponse struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type CollectionResponse struct {
	Address string `json:"address"`
	Minter  string `json:"minter"`
}

type TokenResponse struct {
	Collection string `json:"collection"`
	TokenID    string `json:"token_id"`
	Owner      string `json:"owner"`
}

type AllowlistResponse struct {
	Resolver   string `json:"resolver"`
	IdentityID string `json:"identity_id"`
	Allowed    bool   `json:"allowed"`
}
