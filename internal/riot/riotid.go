package riot

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidRiotID is returned for strings that are not of the form Name#TAG.
var ErrInvalidRiotID = errors.New("riot id must look like Name#TAG")

// ParseRiotID splits "Name#TAG" into its game name and tag line.
func ParseRiotID(s string) (gameName, tagLine string, err error) {
	name, tag, ok := strings.Cut(strings.TrimSpace(s), "#")
	name, tag = strings.TrimSpace(name), strings.TrimSpace(tag)
	if !ok || name == "" || tag == "" || strings.Contains(tag, "#") {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidRiotID, s)
	}
	return name, tag, nil
}
