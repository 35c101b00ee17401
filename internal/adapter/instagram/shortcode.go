package instagram

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/cwygoda/lootdrop/internal/domain"
)

const shortcodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// Private post shortcodes carry a 28 character suffix after the media id.
const privateSuffixLen = 28

// MediaPK converts a post shortcode into the numeric media id the API
// expects. Shortcodes are the id written in a URL-safe base64 alphabet.
func MediaPK(shortcode string) (string, error) {
	if len(shortcode) > privateSuffixLen {
		shortcode = shortcode[:len(shortcode)-privateSuffixLen]
	}
	if shortcode == "" {
		return "", domain.ErrNoShortcode
	}

	pk := new(big.Int)
	base := big.NewInt(int64(len(shortcodeAlphabet)))
	for _, r := range shortcode {
		i := strings.IndexRune(shortcodeAlphabet, r)
		if i < 0 {
			return "", fmt.Errorf("%w: invalid character %q in %q", domain.ErrNoShortcode, r, shortcode)
		}
		pk.Mul(pk, base)
		pk.Add(pk, big.NewInt(int64(i)))
	}
	return pk.String(), nil
}
