package fritz

import (
	"crypto/md5" //nolint:gosec // required by the FRITZ!Box login protocol
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"

	"golang.org/x/crypto/pbkdf2"
)

// noSession is the SID the box reports when no session is established.
const noSession = "0000000000000000"

// sessionInfo is the body of /login_sid.lua.
type sessionInfo struct {
	XMLName   xml.Name `xml:"SessionInfo"`
	SID       string   `xml:"SID"`
	Challenge string   `xml:"Challenge"`
	BlockTime int      `xml:"BlockTime"`
}

func parseSessionInfo(body []byte) (sessionInfo, error) {
	var info sessionInfo
	if err := xml.Unmarshal(body, &info); err != nil {
		return sessionInfo{}, fmt.Errorf("%w: session info: %w", ErrUnexpectedResponse, err)
	}
	return info, nil
}

// loggedIn reports whether the info carries a usable session.
func (s sessionInfo) loggedIn() bool {
	return s.SID != "" && s.SID != noSession
}

// challengeResponse answers a login challenge with the scheme it asks for.
func challengeResponse(challenge, password string) (string, error) {
	if strings.HasPrefix(challenge, "2$") {
		return pbkdf2Response(challenge, password)
	}
	return md5Response(challenge, password), nil
}

// md5Response computes challenge-md5hex(UTF-16LE(challenge-password)).
// Runes outside ASCII are replaced by '.' before hashing.
func md5Response(challenge, password string) string {
	clean := strings.Map(func(r rune) rune {
		if r > 0x7f {
			return '.'
		}
		return r
	}, password)

	units := utf16.Encode([]rune(challenge + "-" + clean))
	buf := make([]byte, 0, len(units)*2)
	for _, u := range units {
		buf = append(buf, byte(u), byte(u>>8))
	}

	sum := md5.Sum(buf) //nolint:gosec // protocol mandated
	return challenge + "-" + hex.EncodeToString(sum[:])
}

// pbkdf2Response answers a "2$iter1$salt1$iter2$salt2" challenge.
func pbkdf2Response(challenge, password string) (string, error) {
	parts := strings.Split(challenge, "$")
	if len(parts) != 5 {
		return "", fmt.Errorf("%w: malformed PBKDF2 challenge %q", ErrUnexpectedResponse, challenge)
	}

	iter1, err1 := strconv.Atoi(parts[1])
	salt1, err2 := hex.DecodeString(parts[2])
	iter2, err3 := strconv.Atoi(parts[3])
	salt2, err4 := hex.DecodeString(parts[4])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || iter1 <= 0 || iter2 <= 0 {
		return "", fmt.Errorf("%w: malformed PBKDF2 challenge %q", ErrUnexpectedResponse, challenge)
	}

	hash1 := pbkdf2.Key([]byte(password), salt1, iter1, sha256.Size, sha256.New)
	hash2 := pbkdf2.Key(hash1, salt2, iter2, sha256.Size, sha256.New)
	return parts[4] + "$" + hex.EncodeToString(hash2), nil
}
