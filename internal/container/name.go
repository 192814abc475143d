package container

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

var nameReplacer = strings.NewReplacer("/", "-", "_", "-")

// Name derives the deterministic container name for a workspace path:
// vibecon-<sanitized path>-<hash8>. The hash prefix is 32 bits, so distinct
// paths collide only with negligible probability; that risk is accepted.
//
// The path is used literally: trailing slashes and symlinked ancestors are
// not normalized, so textually different paths to the same directory name
// different containers.
func Name(workspacePath string) string {
	sum := md5.Sum([]byte(workspacePath))
	hash := hex.EncodeToString(sum[:])[:8]

	sanitized := strings.TrimPrefix(workspacePath, "/")
	sanitized = strings.ToLower(nameReplacer.Replace(sanitized))

	return fmt.Sprintf("vibecon-%s-%s", sanitized, hash)
}
