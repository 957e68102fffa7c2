package domain

// NativeAsset is the reserved asset identifier for the platform's native
// currency. Everything else is treated as a fungible token.
const NativeAsset = "NATIVE"

// Order describes one requested transfer/conversion. It is built by the
// caller per request, immutable for the duration of one orchestration call
// and never persisted.
type Order struct {
	SourceAsset       string
	TargetAsset       string
	SourceAmount      uint64
	TargetAmount      uint64
	MinRate           uint64
	MaxRate           uint64
	FromAddress       string
	ToAddress         string
	PostActionAddress string
	Data              []byte
}

// PostActionData is the read-only snapshot handed to the post-transfer hook
// after a successful order. Built fresh per call, never persisted.
type PostActionData struct {
	PaymentID    string `json:"payment_id"`
	SourceAsset  string `json:"source_asset"`
	TargetAsset  string `json:"target_asset"`
	SourceAmount uint64 `json:"source_amount"`
	TargetAmount uint64 `json:"target_amount"`
	FeeAmount    uint64 `json:"fee_amount"`
	NetAmount    uint64 `json:"net_amount"`
	MinRate      uint64 `json:"min_rate"`
	MaxRate      uint64 `json:"max_rate"`
	FromAddress  string `json:"from_address"`
	ToAddress    string `json:"to_address"`
	Data         []byte `json:"data,omitempty"`
}
