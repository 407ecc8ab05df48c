package service

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// tokenClaims is the payload of a credential token. Timestamps are encoded
// as NumericDate seconds with a millisecond fraction and decoded exactly.
type tokenClaims struct {
	ID        string  `json:"jti,omitempty"`
	Subject   string  `json:"sub,omitempty"`
	IssuedAt  *msTime `json:"iat,omitempty"`
	ExpiresAt *msTime `json:"exp,omitempty"`
}

func (c tokenClaims) GetExpirationTime() (*jwt.NumericDate, error) { return c.ExpiresAt.numeric(), nil }
func (c tokenClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return c.IssuedAt.numeric(), nil }
func (c tokenClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c tokenClaims) GetIssuer() (string, error)                   { return "", nil }
func (c tokenClaims) GetSubject() (string, error)                  { return c.Subject, nil }
func (c tokenClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// msTime is a point in time with millisecond resolution.
type msTime struct {
	time.Time
}

func newMSTime(t time.Time) *msTime {
	return &msTime{Time: t.Truncate(time.Millisecond).UTC()}
}

func (t *msTime) numeric() *jwt.NumericDate {
	if t == nil {
		return nil
	}
	return &jwt.NumericDate{Time: t.Time}
}

func (t msTime) MarshalJSON() ([]byte, error) {
	ms := t.UnixMilli()
	if ms < 0 {
		return nil, errors.New("timestamp before 1970")
	}
	s := strconv.FormatInt(ms/1000, 10)
	if rem := ms % 1000; rem != 0 {
		s += "." + strings.TrimRight(strconv.FormatInt(1000+rem, 10)[1:], "0")
	}
	return []byte(s), nil
}

// UnmarshalJSON reads plain decimal seconds digit by digit, so no float
// rounding can move the instant. Other numeric forms are rounded to the
// nearest millisecond.
func (t *msTime) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	secPart, fracPart, hasFrac := strings.Cut(s, ".")
	if isDigits(secPart) && (!hasFrac || isDigits(fracPart)) {
		sec, err := strconv.ParseInt(secPart, 10, 64)
		if err != nil {
			return err
		}
		var ms int64
		if hasFrac {
			ms, _ = strconv.ParseInt((fracPart + "000")[:3], 10, 64)
		}
		t.Time = time.Unix(sec, ms*int64(time.Millisecond)).UTC()
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	t.Time = time.UnixMilli(int64(math.Round(f * 1000))).UTC()
	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
