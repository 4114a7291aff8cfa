package ledger

import (
	"github/chapool/waves-ledger/internal/ledger/session"
)

type GetVersionResponse struct {
	Version string `json:"version"`
	Major   int    `json:"major"`
	Minor   int    `json:"minor"`
	Patch   int    `json:"patch"`
}

type GetAccountsResponse struct {
	From     int64                 `json:"from"`
	Count    int64                 `json:"count"`
	Accounts []*session.UserRecord `json:"accounts"`
}

// PostSignPayload carries the bytes to sign in base64. The precision, type and
// version fields only apply to transactions; omitted precisions default to 8.
type PostSignPayload struct {
	Index            int64  `json:"index"`
	Data             string `json:"data"`
	Message          string `json:"message,omitempty"`
	AmountPrecision  *int   `json:"amountPrecision,omitempty"`
	Amount2Precision *int   `json:"amount2Precision,omitempty"`
	FeePrecision     *int   `json:"feePrecision,omitempty"`
	DataType         int    `json:"dataType"`
	DataVersion      int    `json:"dataVersion"`
}

type PostSignResponse struct {
	Kind      string `json:"kind"`
	Index     int64  `json:"index"`
	Path      string `json:"path"`
	Signature string `json:"signature"`
}
