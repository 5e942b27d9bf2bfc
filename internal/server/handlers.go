package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mahdiidarabi/wallet-signature-verify/pkg/walletverify"
)

type verifyRequest struct {
	Wallet    string  `json:"wallet"`
	Signature string  `json:"signature"`
	Address   string  `json:"address"`
	Challenge *string `json:"challenge"`
}

type verifyResponse struct {
	Wallet  string `json:"wallet"`
	IsValid bool   `json:"is_valid"`
	*walletverify.VerificationResult
}

type walletInfo struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

func handleVerify(client *walletverify.Client, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

		var req verifyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Debug("failed to decode verify request", zap.Error(err))
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, "request body too large: maximum size is 64KB", http.StatusRequestEntityTooLarge)
				return
			}
			writeError(w, "invalid request body: must be valid JSON", http.StatusBadRequest)
			return
		}
		if req.Wallet == "" {
			writeError(w, "wallet is required", http.StatusBadRequest)
			return
		}

		input := walletverify.VerificationInput{
			SignatureData:   req.Signature,
			ExpectedAddress: req.Address,
			Challenge:       req.Challenge,
		}
		result, err := client.VerifyByName(r.Context(), req.Wallet, input)
		if err != nil {
			writeError(w, err.Error(), statusFor(err))
			return
		}

		writeJSON(w, verifyResponse{
			Wallet:             req.Wallet,
			IsValid:            result.IsValid(),
			VerificationResult: result,
		}, http.StatusOK)
	})
}

// statusFor maps verification errors to HTTP status codes. Anything that
// is not a replay problem is a fault of the submitted input.
func statusFor(err error) int {
	switch {
	case errors.Is(err, walletverify.ErrChallengeReplayed):
		return http.StatusConflict
	case errors.Is(err, walletverify.ErrReplayUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func handleListWallets(client *walletverify.Client) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		registry := client.Registry()

		wallets := make([]walletInfo, 0)
		for _, t := range registry.Enabled() {
			p, err := registry.Provider(t)
			if err != nil {
				continue
			}
			wallets = append(wallets, walletInfo{
				Type:        t.String(),
				Name:        p.Name(),
				Description: p.Description(),
			})
		}

		writeJSON(w, map[string]interface{}{
			"wallets": wallets,
			"count":   len(wallets),
		}, http.StatusOK)
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, map[string]string{"error": message}, statusCode)
}
