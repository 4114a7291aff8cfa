package output

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// JSON writes v indented to w.
func JSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return errors.Wrap(err, "failed to encode output")
	}
	return nil
}
