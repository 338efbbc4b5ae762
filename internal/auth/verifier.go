package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/dharsanguruparan/imggen/internal/common"
	"github.com/dharsanguruparan/imggen/internal/logging"
	"github.com/dharsanguruparan/imggen/internal/model"
	"github.com/dharsanguruparan/imggen/internal/response"
)

// TokenState is the outcome of decoding the Authorization header.
type TokenState int

const (
	TokenAbsent TokenState = iota
	TokenInvalid
	TokenValid
)

func (s TokenState) String() string {
	switch s {
	case TokenAbsent:
		return "absent"
	case TokenInvalid:
		return "invalid"
	case TokenValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Decoded holds Claims only when State is TokenValid.
type Decoded struct {
	State  TokenState
	Claims *Claims
}

// UserFinder resolves a token's user id. Implementations return an error
// wrapping common.ErrNotFound when the account does not exist.
type UserFinder interface {
	FindUserByID(ctx context.Context, id string) (*model.User, error)
}

// Verifier checks bearer tokens against a shared secret.
type Verifier struct {
	secret []byte
	users  UserFinder
	logger logging.Logger
}

func NewVerifier(secret []byte, users UserFinder, logger logging.Logger) *Verifier {
	return &Verifier{secret: secret, users: users, logger: logger}
}

// Decode reads "Authorization: Bearer <token>". It never fails: a missing
// header is TokenAbsent and any verification problem is TokenInvalid.
func (v *Verifier) Decode(r *http.Request) Decoded {
	header := r.Header.Get("Authorization")
	if header == "" {
		return Decoded{State: TokenAbsent}
	}
	fields := strings.Fields(header)
	if len(fields) < 2 {
		return Decoded{State: TokenInvalid}
	}
	claims, err := ParseToken(fields[1], v.secret)
	if err != nil {
		v.logger.Debug(r.Context(), "token rejected", "err", err)
		return Decoded{State: TokenInvalid}
	}
	return Decoded{State: TokenValid, Claims: claims}
}

// VerifyToken lets the request through only when the token is valid and its
// user still exists; the user is then available via UserFromContext.
// Absent, invalid and orphaned tokens all get the same 401.
func (v *Verifier) VerifyToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		decoded := v.Decode(r)
		if decoded.State != TokenValid {
			response.Unauthenticated(w)
			return
		}
		ctx := r.Context()
		user, err := v.users.FindUserByID(ctx, string(decoded.Claims.UserID))
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				response.Unauthenticated(w)
				return
			}
			v.logger.Error(ctx, "user lookup failed", "user_id", decoded.Claims.UserID, "err", err)
			response.Error(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
	})
}
