package testutil

import (
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"provenance/pkg/requestcontext"
)

// AsCaller makes addr the caller of req, as the relayer or admin middleware would.
func AsCaller(req *http.Request, addr common.Address) *http.Request {
	return req.WithContext(requestcontext.WithCaller(req.Context(), addr))
}

// WithPayment attaches a call value to req.
func WithPayment(req *http.Request, value *big.Int) *http.Request {
	return req.WithContext(requestcontext.WithCallValue(req.Context(), value))
}
