package rotation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/genai"
)

const statusResourceExhausted = "RESOURCE_EXHAUSTED"

// quotaTokenRE matches 429 as a standalone number inside an error message.
var quotaTokenRE = regexp.MustCompile(`(^|[^0-9])429([^0-9]|$)`)

// IsQuotaExhaustion reports whether err means the provider rejected the
// credential for rate or usage limits. It is the only classifier used by
// Execute, whatever operation produced the error.
func IsQuotaExhaustion(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var ce *ContentError
	if errors.As(err, &ce) {
		return false
	}
	if errors.Is(err, ErrQuotaExhausted) {
		return true
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return genaiQuota(apiErr)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return genaiQuota(*apiErrPtr)
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		if gErr.Code == http.StatusTooManyRequests {
			return true
		}
		for _, item := range gErr.Errors {
			if item.Reason == "rateLimitExceeded" || item.Reason == "quotaExceeded" {
				return true
			}
		}
		return false
	}

	return messageSignalsQuota(err.Error())
}

func genaiQuota(e genai.APIError) bool {
	return e.Code == http.StatusTooManyRequests || e.Status == statusResourceExhausted
}

// messageSignalsQuota inspects the error text: some SDK paths only surface the
// raw JSON body or a formatted status in the message. Content errors never
// reach it, so model output cannot be mistaken for a status.
func messageSignalsQuota(msg string) bool {
	if code, ok := jsonErrorCode(msg); ok {
		return code == http.StatusTooManyRequests
	}
	if strings.Contains(msg, statusResourceExhausted) {
		return true
	}
	return quotaTokenRE.MatchString(msg)
}

// jsonErrorCode extracts error.code from a Google-style JSON error body.
func jsonErrorCode(msg string) (int, bool) {
	start := strings.Index(msg, "{")
	if start < 0 {
		return 0, false
	}
	var body struct {
		Error struct {
			Code   int    `json:"code"`
			Status string `json:"status"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(msg[start:]), &body); err != nil {
		return 0, false
	}
	if body.Error.Status == statusResourceExhausted {
		return http.StatusTooManyRequests, true
	}
	if body.Error.Code == 0 {
		return 0, false
	}
	return body.Error.Code, true
}
