package protocol

import "fmt"

// PublicKeyInfo is the decoded reply of a key derivation.
type PublicKeyInfo struct {
	PublicKey  string // base58 encoded 32-byte public key
	Address    string // 35 character Waves address
	StatusCode string // hex encoded status word, "9000" on success
}

// DeviceVersion is the version of the Waves application running on the device.
type DeviceVersion struct {
	Major byte
	Minor byte
	Patch byte
}

// Number folds the version into major*10000 + minor*100 + patch for comparisons.
func (v DeviceVersion) Number() int {
	//nolint:mnd // version folding factors
	return int(v.Major)*10000 + int(v.Minor)*100 + int(v.Patch)
}

func (v DeviceVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// SignData is a signing payload plus the metadata the device uses to render it.
// All numeric fields must fit in one byte.
type SignData struct {
	AmountPrecision  int
	Amount2Precision int
	FeePrecision     int
	DataType         int
	DataVersion      int
	Data             []byte
}

// NewTransactionData returns SignData for a transaction of the given type and
// version, with WAVES precision on every amount field.
func NewTransactionData(data []byte, txType int, txVersion int) SignData {
	return SignData{
		AmountPrecision:  DefaultPrecision,
		Amount2Precision: DefaultPrecision,
		FeePrecision:     DefaultPrecision,
		DataType:         txType,
		DataVersion:      txVersion,
		Data:             data,
	}
}
