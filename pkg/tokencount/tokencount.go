// Package tokencount gives a rough token estimate for exchange accounting.
// The provider does not expose exact usage for every call path, so the
// cl100k_base encoding is used as a stand-in across all models.
package tokencount

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

// Estimate returns the summed token count of the given texts.
func Estimate(texts ...string) (int, error) {
	enc, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return 0, fmt.Errorf("failed to get encoding %s: %w", encodingName, err)
	}
	total := 0
	for _, text := range texts {
		total += len(enc.Encode(text, nil, nil))
	}
	return total, nil
}
